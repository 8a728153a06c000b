package handler

import (
	"math"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/breatheroute/aqipredict/internal/api/middleware"
	"github.com/breatheroute/aqipredict/internal/api/models"
	"github.com/breatheroute/aqipredict/internal/api/response"
	"github.com/breatheroute/aqipredict/internal/form"
)

// PredictionHandler handles the JSON prediction endpoint. It applies the same
// validation as the form page.
type PredictionHandler struct {
	engine   Predictor
	flags    FlagReader
	validate *validator.Validate
	log      zerolog.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(engine Predictor, flags FlagReader, log zerolog.Logger) *PredictionHandler {
	return &PredictionHandler{
		engine:   engine,
		flags:    flags,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// CreatePrediction handles POST /v1/predictions.
func (h *PredictionHandler) CreatePrediction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if h.flags != nil && h.flags.IsJSONPredictionsDisabled(ctx) {
		response.ServiceUnavailable(w, r, "JSON predictions are disabled")
		return
	}

	var req models.PredictionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.ValidationFailed(w, r, err)
		return
	}

	fields := make(form.Fields, 0, len(req.Fields))
	for _, f := range req.Fields {
		fields = append(fields, form.Field{Name: f.Name, Value: f.Value})
	}

	vec, err := form.Validate(fields.Dedupe(), formOptions(ctx, h.flags))
	if verr, ok := form.IsValidationError(err); ok {
		h.log.Info().
			Str("request_id", requestID).
			Str("reason", verr.Message).
			Msg("submission rejected")
		response.BadRequest(w, r, verr.Message, nil)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("request_id", requestID).Msg("validation failed")
		response.InternalError(w, r, "internal server error")
		return
	}

	res, err := h.engine.Predict(ctx, vec)
	if err != nil {
		h.log.Error().
			Err(err).
			Str("request_id", requestID).
			Int("values", len(vec)).
			Msg("prediction failed")
		response.InternalError(w, r, "prediction failed")
		return
	}

	out := models.PredictionResponse{
		PredictionText:    res.PredictionText(),
		DominantPollutant: string(res.Dominant),
		SeverityTier:      string(res.Tier),
	}
	// JSON has no encoding for infinities; the text form still carries them.
	if !math.IsInf(res.AQI, 0) && !math.IsNaN(res.AQI) {
		aqi := res.AQI
		out.Prediction = &aqi
	}
	response.JSON(w, r, http.StatusOK, out)
}
