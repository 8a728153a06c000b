package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/breatheroute/aqipredict/internal/api/models"
	"github.com/breatheroute/aqipredict/internal/api/response"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// pingTimeout bounds each readiness probe.
const pingTimeout = 2 * time.Second

// OpsHandlerConfig holds configuration for the ops endpoints.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string

	// Model describes the loaded artifact; nil means no model is loaded.
	Model *models.ModelInfo

	// Flags is the feature-flag store. Nil skips the check.
	Flags Pinger

	Clock clockwork.Clock
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	model     *models.ModelInfo
	flags     Pinger
	clock     clockwork.Clock
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		model:     cfg.Model,
		flags:     cfg.Flags,
		clock:     clock,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	details := map[string]interface{}{
		"version":   h.version,
		"buildTime": h.buildTime,
	}
	if h.model != nil {
		details["model"] = h.model.Name + "@" + h.model.Version
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(h.clock.Now()),
		Details: details,
	})
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
//
// A missing model fails readiness. An unreachable flag store only degrades it:
// flags fall back to their defaults and predictions are still served.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ready := models.Readiness{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.clock.Now()),
	}

	modelStatus := models.SubsystemStatus{Name: "model", Status: models.HealthStatusOK}
	if h.model == nil {
		detail := "no model loaded"
		modelStatus.Status = models.HealthStatusFail
		modelStatus.Detail = &detail
		ready.Status = models.HealthStatusFail
	}
	ready.Subsystems = append(ready.Subsystems, modelStatus)

	if h.flags != nil {
		flagStatus := models.SubsystemStatus{Name: "feature-flags", Status: models.HealthStatusOK}

		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		err := h.flags.Ping(ctx)
		cancel()

		if err != nil {
			detail := err.Error()
			flagStatus.Status = models.HealthStatusDegraded
			flagStatus.Detail = &detail
			if ready.Status == models.HealthStatusOK {
				ready.Status = models.HealthStatusDegraded
			}
		}
		ready.Subsystems = append(ready.Subsystems, flagStatus)
	}

	status := http.StatusOK
	if ready.Status == models.HealthStatusFail {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, ready)
}
