// Package api provides the HTTP surface of the AQI prediction service: the
// HTML form page and the /v1 JSON API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/breatheroute/aqipredict/internal/api/handler"
	"github.com/breatheroute/aqipredict/internal/api/middleware"
	"github.com/breatheroute/aqipredict/internal/api/models"
	"github.com/breatheroute/aqipredict/internal/api/response"
	"github.com/breatheroute/aqipredict/internal/auth"
	"github.com/breatheroute/aqipredict/internal/featureflags"
	"github.com/breatheroute/aqipredict/internal/flash"
	"github.com/breatheroute/aqipredict/internal/web"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	// Engine and Renderer are required.
	Engine   handler.Predictor
	Renderer *web.Renderer

	// Model describes the loaded artifact for ops and metadata endpoints.
	Model *models.ModelInfo

	// Flash carries rejection messages across the redirect. A store with a
	// per-process key is created when nil.
	Flash *flash.Store

	// FeatureFlagService defaults to an in-memory store with default flags.
	FeatureFlagService *featureflags.Service

	// JWTService validates operator tokens. Admin routes are not mounted
	// when it is nil.
	JWTService *auth.JWTService

	RequireTLS bool

	// PredictRateLimit is the per-IP budget per minute shared by both
	// prediction routes. Zero uses middleware.PredictRateLimit.
	PredictRateLimit int
}

// NewRouter creates a new chi router with all routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	flags := cfg.FeatureFlagService
	if flags == nil {
		flags = featureflags.NewService(featureflags.ServiceConfig{
			Repository: featureflags.NewInMemoryRepository(),
			Logger:     cfg.Logger,
		})
	}

	flashStore := cfg.Flash
	if flashStore == nil {
		// Only fails when the system random source does.
		var err error
		flashStore, err = flash.NewStore(flash.Config{Secure: cfg.RequireTLS})
		if err != nil {
			panic(err)
		}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing()) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(response.MethodNotAllowed)

	// Initialize handlers
	webHandler := handler.NewWebHandler(handler.WebHandlerConfig{
		Engine:   cfg.Engine,
		Flags:    flags,
		Flash:    flashStore,
		Renderer: cfg.Renderer,
		Logger:   cfg.Logger,
	})
	predictionHandler := handler.NewPredictionHandler(cfg.Engine, flags, cfg.Logger)
	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Model:     cfg.Model,
		Flags:     flags,
	})
	metadataHandler := handler.NewMetadataHandler(cfg.Model)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(flags, cfg.Logger)

	// Both prediction routes draw on one per-IP budget.
	predictLimit := middleware.PredictRateLimit
	if cfg.PredictRateLimit > 0 {
		predictLimit = middleware.RateLimitConfig{RequestLimit: cfg.PredictRateLimit, WindowLength: time.Minute}
	}
	predictRateLimit := middleware.RateLimitByIP(predictLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	// Form page
	r.Get("/", webHandler.Index)
	r.With(predictRateLimit).Post("/predict", webHandler.Predict)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Metadata endpoints (public) - standard rate limiting
		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/enums", metadataHandler.GetEnums)
			r.Get("/model", metadataHandler.GetModel)
		})

		r.With(predictRateLimit, middleware.RequireJSON).Post("/predictions", predictionHandler.CreatePrediction)

		// Admin endpoints (operator token) - for internal operations
		if cfg.JWTService != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWTService))
				r.Use(middleware.RateLimitByOperator(middleware.AdminRateLimit))

				// Feature flags management
				r.Route("/feature-flags", func(r chi.Router) {
					r.Get("/", featureFlagsHandler.ListFeatureFlags)
					r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
					r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
				})
			})
		}
	})

	return r
}
