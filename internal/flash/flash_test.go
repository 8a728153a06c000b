package flash_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/aqipredict/internal/flash"
)

func newStore(t *testing.T, clock clockwork.Clock) *flash.Store {
	t.Helper()
	store, err := flash.NewStore(flash.Config{
		Secret: "test-flash-secret",
		TTL:    time.Minute,
		Clock:  clock,
	})
	require.NoError(t, err)
	return store
}

// carry moves the cookies set on a response onto a fresh request.
func carry(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestStore_SetThenPop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	store := newStore(t, clock)

	setRec := httptest.NewRecorder()
	require.NoError(t, store.Set(setRec, flash.Message{
		Category: flash.CategoryError,
		Text:     "Either PM2.5 or PM10 is required.",
	}))

	cookies := setRec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, flash.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	popRec := httptest.NewRecorder()
	msg, err := store.Pop(popRec, carry(setRec))
	require.NoError(t, err)
	assert.Equal(t, flash.CategoryError, msg.Category)
	assert.Equal(t, "Either PM2.5 or PM10 is required.", msg.Text)

	cleared := popRec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, flash.CookieName, cleared[0].Name)
	assert.Negative(t, cleared[0].MaxAge)
}

func TestStore_PopWithoutCookie(t *testing.T) {
	store := newStore(t, clockwork.NewFakeClock())

	rec := httptest.NewRecorder()
	_, err := store.Pop(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.ErrorIs(t, err, http.ErrNoCookie)
	assert.Empty(t, rec.Result().Cookies())
}

func TestStore_Expired(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	store := newStore(t, clock)

	setRec := httptest.NewRecorder()
	require.NoError(t, store.Set(setRec, flash.Message{Category: flash.CategoryError, Text: "late"}))

	clock.Advance(2 * time.Minute)

	popRec := httptest.NewRecorder()
	_, err := store.Pop(popRec, carry(setRec))
	assert.ErrorIs(t, err, flash.ErrInvalidFlash)
	assert.Len(t, popRec.Result().Cookies(), 1, "cookie is cleared even when expired")
}

func TestStore_Tampered(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := newStore(t, clock)

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.AddCookie(&http.Cookie{Name: flash.CookieName, Value: "not-a-token"})

	_, err := store.Pop(httptest.NewRecorder(), req)
	assert.ErrorIs(t, err, flash.ErrInvalidFlash)
}

func TestStore_DifferentKeyRejected(t *testing.T) {
	clock := clockwork.NewFakeClock()
	signer := newStore(t, clock)

	other, err := flash.NewStore(flash.Config{Clock: clock})
	require.NoError(t, err)

	setRec := httptest.NewRecorder()
	require.NoError(t, signer.Set(setRec, flash.Message{Text: "hello"}))

	_, err = other.Pop(httptest.NewRecorder(), carry(setRec))
	assert.ErrorIs(t, err, flash.ErrInvalidFlash)
}
