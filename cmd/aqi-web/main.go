// Package main provides the entrypoint for the AQI prediction web server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/aqipredict/internal/api"
	"github.com/breatheroute/aqipredict/internal/api/middleware"
	"github.com/breatheroute/aqipredict/internal/api/models"
	"github.com/breatheroute/aqipredict/internal/auth"
	"github.com/breatheroute/aqipredict/internal/config"
	"github.com/breatheroute/aqipredict/internal/database"
	"github.com/breatheroute/aqipredict/internal/featureflags"
	"github.com/breatheroute/aqipredict/internal/flash"
	"github.com/breatheroute/aqipredict/internal/model"
	"github.com/breatheroute/aqipredict/internal/prediction"
	"github.com/breatheroute/aqipredict/internal/provider/resilience"
	"github.com/breatheroute/aqipredict/internal/telemetry"
	"github.com/breatheroute/aqipredict/internal/web"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "aqi-web"

func main() {
	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.Level())

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting AQI prediction service")

	ctx := context.Background()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.OTelSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	predictionMetrics, err := prediction.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize prediction metrics")
	}

	// Load the model; the service never starts without one.
	m, err := loadModel(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model")
	}
	modelInfo := models.NewModelInfo(m)
	log.Info().
		Str("model", modelInfo.Name).
		Str("model_version", modelInfo.Version).
		Int("features", m.NumFeatures()).
		Msg("model loaded")

	// Feature flags: Postgres when configured, otherwise in-memory defaults.
	var ffRepo featureflags.Repository = featureflags.NewInMemoryRepository()
	if cfg.DB.Enabled() {
		dbConfig := cfg.DB.Database()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		pgRepo := featureflags.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare feature flag schema")
		}
		ffRepo = pgRepo
	} else {
		log.Info().Msg("no database configured, feature flags are in-memory")
	}

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   cfg.FlagCacheTTL,
	})
	log.Info().Msg("feature flags service initialized")

	if cfg.FlashSecret == "" {
		log.Warn().Msg("FLASH_SECRET not set, pending flash messages will not survive a restart")
	}
	flashStore, err := flash.NewStore(flash.Config{
		Secret: cfg.FlashSecret,
		TTL:    cfg.FlashTTL,
		Secure: cfg.RequireTLS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize flash store")
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse page template")
	}

	var jwtService *auth.JWTService
	if cfg.AdminSigningKey != "" {
		jwtService = auth.NewJWTService(auth.JWTConfig{SigningKey: cfg.AdminSigningKey})
		log.Info().Msg("admin endpoints enabled")
	} else {
		log.Info().Msg("ADMIN_SIGNING_KEY not set, admin endpoints disabled")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		Metrics:            httpMetrics,
		Engine:             prediction.NewEngine(m, predictionMetrics),
		Renderer:           renderer,
		Model:              modelInfo,
		Flash:              flashStore,
		FeatureFlagService: ffService,
		JWTService:         jwtService,
		RequireTLS:         cfg.RequireTLS,
		PredictRateLimit:   cfg.PredictRateLimit,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// loadModel reads the artifact from MODEL_URL when set, otherwise from
// MODEL_PATH. Downloads go through the resilient client, so transient
// failures are retried before startup gives up.
func loadModel(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*model.Linear, error) {
	if cfg.ModelURL == "" {
		log.Info().Str("path", cfg.ModelPath).Msg("loading model from file")
		return model.LoadFile(cfg.ModelPath)
	}

	metrics, err := resilience.NewMetrics()
	if err != nil {
		return nil, err
	}

	clientCfg := resilience.DefaultClientConfig("model-artifact")
	clientCfg.Logger = log
	clientCfg.Metrics = metrics
	client := resilience.NewClient(clientCfg)

	fetchCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	log.Info().Str("url", cfg.ModelURL).Msg("downloading model")
	return model.Fetch(fetchCtx, client, cfg.ModelURL)
}
