package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/breatheroute/aqipredict/internal/api/middleware"
	"github.com/breatheroute/aqipredict/internal/flash"
	"github.com/breatheroute/aqipredict/internal/form"
	"github.com/breatheroute/aqipredict/internal/web"
)

// WebHandlerConfig holds the collaborators of the form page.
type WebHandlerConfig struct {
	Engine   Predictor
	Flags    FlagReader
	Flash    *flash.Store
	Renderer *web.Renderer
	Logger   zerolog.Logger
}

// WebHandler serves the HTML form and its submissions.
type WebHandler struct {
	engine   Predictor
	flags    FlagReader
	flash    *flash.Store
	renderer *web.Renderer
	log      zerolog.Logger
}

// NewWebHandler creates a new WebHandler.
func NewWebHandler(cfg WebHandlerConfig) *WebHandler {
	return &WebHandler{
		engine:   cfg.Engine,
		flags:    cfg.Flags,
		flash:    cfg.Flash,
		renderer: cfg.Renderer,
		log:      cfg.Logger,
	}
}

// Index handles GET / - the empty form, plus any pending flash message.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	var page web.Page

	msg, err := h.flash.Pop(w, r)
	switch {
	case err == nil:
		page.Flash = &msg
	case errors.Is(err, http.ErrNoCookie):
	default:
		h.log.Debug().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("discarding unreadable flash cookie")
	}

	h.render(w, r, http.StatusOK, page)
}

// Predict handles POST /predict - validate, predict, and render the result.
// A rejected submission is flashed and redirected back to the form.
func (h *WebHandler) Predict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	fields, err := form.ParseRequest(w, r)
	if err != nil {
		h.log.Warn().Err(err).Str("request_id", requestID).Msg("unreadable form body")
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	vec, err := form.Validate(fields, formOptions(ctx, h.flags))
	if verr, ok := form.IsValidationError(err); ok {
		h.log.Info().
			Str("request_id", requestID).
			Str("reason", verr.Message).
			Int("fields", len(fields)).
			Msg("submission rejected")

		if err := h.flash.Set(w, flash.Message{Category: flash.CategoryError, Text: verr.Message}); err != nil {
			h.log.Error().Err(err).Str("request_id", requestID).Msg("failed to set flash message")
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("request_id", requestID).Msg("validation failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	res, err := h.engine.Predict(ctx, vec)
	if err != nil {
		h.log.Error().
			Err(err).
			Str("request_id", requestID).
			Int("values", len(vec)).
			Msg("prediction failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render(w, r, http.StatusOK, web.Page{
		PredictionText:     res.PredictionText(),
		ProminentPollutant: string(res.Dominant),
		PredictionCSSClass: string(res.Tier),
	})
}

func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, status int, page web.Page) {
	err := h.renderer.Render(w, status, page)
	if err == nil {
		return
	}
	h.log.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Msg("failed to render page")
	if errors.Is(err, web.ErrRender) {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
