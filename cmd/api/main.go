package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skylane/flightsearch/backend/internal/adapters/cache"
	"github.com/skylane/flightsearch/backend/internal/adapters/geo"
	"github.com/skylane/flightsearch/backend/internal/api/handlers"
	"github.com/skylane/flightsearch/backend/internal/api/middleware"
	"github.com/skylane/flightsearch/backend/internal/api/routes"
	"github.com/skylane/flightsearch/backend/internal/application/services"
	"github.com/skylane/flightsearch/backend/internal/domain/providers"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/clients/fareengine"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/clients/redis"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/observability"
	"github.com/skylane/flightsearch/backend/pkg/config"
	"github.com/skylane/flightsearch/backend/pkg/retry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, getEnv("APP_ENV", "development"))
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var metrics *observability.Metrics
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()

			metrics, err = observability.InitMetrics()
			if err != nil {
				logger.Warn().Err(err).Msg("failed to initialize metrics")
			}
			logger.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize Redis client
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		// Continue without Redis - sessions fall back to in-process storage
		logger.Warn().Err(err).Msg("failed to initialize Redis client")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		logger.Info().Msg("Redis client initialized successfully")
	}

	// Load the static place dataset
	places, err := geo.LoadDataset(cfg.Geo.DatasetPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Geo.DatasetPath).Msg("failed to load place dataset")
	}
	logger.Info().Int("places", places.Len()).Msg("place dataset loaded")

	// Initialize services
	fareClient := fareengine.NewClient(&cfg.FareEngine)
	normalizer := services.NewNormalizer(cfg.FareEngine.CurrencySymbol)
	retryCfg := retry.Config{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialDelay:    cfg.Retry.InitialDelay,
		MaxDelay:        cfg.Retry.MaxDelay,
		BackoffFactor:   cfg.Retry.BackoffFactor,
		MaxTotalTimeout: cfg.Retry.MaxTotalTimeout,
	}
	searchService := services.NewSearchService(fareClient, normalizer, &cfg.FareEngine, retryCfg, metrics)
	indicativeService := services.NewIndicativeService(fareClient, normalizer)
	filterService := services.NewFilterService()
	sessionStore := cache.NewSessionStore(cacheProvider, cfg.FareEngine.SessionTTL)

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(searchService, sessionStore, places, filterService)
	indicativeHandler := handlers.NewIndicativeHandler(indicativeService)
	placesHandler := handlers.NewPlacesHandler(places)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
		logger.Info().Msg("cache middleware initialized")
	}

	// Set up router
	router := routes.NewRouter(
		searchHandler,
		indicativeHandler,
		placesHandler,
		cacheMiddleware,
		metrics,
	)

	server := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
