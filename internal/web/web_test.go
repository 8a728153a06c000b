package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/aqipredict/internal/flash"
	"github.com/breatheroute/aqipredict/internal/web"
)

func TestInputs(t *testing.T) {
	inputs := web.Inputs()
	require.Len(t, inputs, 7)
	assert.Equal(t, web.Input{Name: "input1", Label: "PM2.5"}, inputs[0])
	assert.Equal(t, web.Input{Name: "input2", Label: "PM10"}, inputs[1])
	assert.Equal(t, web.Input{Name: "input7", Label: "O3"}, inputs[6])
}

func TestRender_EmptyForm(t *testing.T) {
	r, err := web.NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, web.Page{}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `name="input1"`)
	assert.Contains(t, body, `name="input7"`)
	assert.NotContains(t, body, "Predicted AQI")
	assert.NotContains(t, body, `role="alert"`)
}

func TestRender_Result(t *testing.T) {
	r, err := web.NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, web.Page{
		PredictionText:     "75",
		ProminentPollutant: "PM10",
		PredictionCSSClass: "light-green",
	}))

	body := rec.Body.String()
	assert.Contains(t, body, `class="result light-green"`)
	assert.Contains(t, body, "<strong>75</strong>")
	assert.Contains(t, body, "<strong>PM10</strong>")
}

func TestRender_FlashIsEscaped(t *testing.T) {
	r, err := web.NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, web.Page{
		Flash: &flash.Message{Category: flash.CategoryError, Text: "<b>bad</b>"},
	}))

	body := rec.Body.String()
	assert.Contains(t, body, `class="flash error"`)
	assert.Contains(t, body, "&lt;b&gt;bad&lt;/b&gt;")
}
