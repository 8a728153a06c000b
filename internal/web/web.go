// Package web renders the prediction form page.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/breatheroute/aqipredict/internal/airquality"
	"github.com/breatheroute/aqipredict/internal/flash"
)

//go:embed templates/index.html
var templateFS embed.FS

// ErrRender is returned when the template fails. Nothing has been written to
// the response when it is returned.
var ErrRender = errors.New("render page")

// Input is one form field, named inputN in pollutant order.
type Input struct {
	Name  string
	Label string
}

// Page is the data the form page renders. The three prediction fields are
// empty until a submission succeeds.
type Page struct {
	Flash  *flash.Message
	Inputs []Input

	PredictionText     string
	ProminentPollutant string
	PredictionCSSClass string
}

// Renderer renders the form page.
type Renderer struct {
	tmpl   *template.Template
	inputs []Input
}

// NewRenderer parses the embedded template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Renderer{tmpl: tmpl, inputs: Inputs()}, nil
}

// Inputs returns the form fields in submission order.
func Inputs() []Input {
	pollutants := airquality.Pollutants()
	inputs := make([]Input, len(pollutants))
	for i, p := range pollutants {
		inputs[i] = Input{Name: "input" + strconv.Itoa(i+1), Label: string(p)}
	}
	return inputs
}

// Render writes the page with the given status. The page is rendered to a
// buffer first so a template error never produces a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page Page) error {
	if page.Inputs == nil {
		page.Inputs = r.inputs
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "index.html", page); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
