package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/breatheroute/aqipredict/internal/api/middleware"
	"github.com/breatheroute/aqipredict/internal/api/response"
	"github.com/breatheroute/aqipredict/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service  *featureflags.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, log zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.service.List(r.Context()))
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags - update feature flags.
// The batch is applied only if every update is valid.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var req featureflags.FlagUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		response.ValidationFailed(w, r, err)
		return
	}

	if err := h.service.Apply(r.Context(), req); err != nil {
		if errors.Is(err, featureflags.ErrUnknownFlag) || errors.Is(err, featureflags.ErrInvalidFlagValue) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		h.log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to update feature flags")
		response.InternalError(w, r, "internal server error")
		return
	}

	h.log.Info().
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("operator", middleware.GetOperator(r.Context())).
		Int("updates", len(req.Updates)).
		Msg("feature flags changed by operator")
	response.NoContent(w, r)
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate - invalidate flag cache.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}
