// Package main is the entry point for the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/plated-app/plated/internal/api"
	"github.com/plated-app/plated/internal/auth"
	"github.com/plated-app/plated/internal/config"
	"github.com/plated-app/plated/internal/db"
	"github.com/plated-app/plated/internal/elo"
	"github.com/plated-app/plated/internal/health"
	"github.com/plated-app/plated/internal/matchup"
	"github.com/plated-app/plated/internal/middleware"
	"github.com/plated-app/plated/internal/ranking"
	"github.com/plated-app/plated/internal/rating"
	"github.com/plated-app/plated/internal/tracing"
)

const serviceName = "plated-api"

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Plated API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	// Initialize logger
	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx := context.Background()

	// Metrics registry shared by middleware and engine components
	registry := prometheus.NewRegistry()
	httpMetrics := middleware.NewMetrics()
	eloMetrics := elo.NewMetrics()
	rankingMetrics := ranking.NewMetrics()
	matchupMetrics := matchup.NewMetrics()
	for _, err := range []error{
		httpMetrics.Register(registry),
		eloMetrics.Register(registry),
		rankingMetrics.Register(registry),
		matchupMetrics.Register(registry),
	} {
		if err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
	}

	// Storage: Postgres when configured, in-memory otherwise
	var (
		aggregates rating.AggregateReader
		eloStore   elo.Store
		history    matchup.HistoryStore
		dbChecker  api.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		aggregates = rating.NewPostgresStore(conn, logger)
		eloStore = elo.NewPostgresStore(conn, logger, eloMetrics)
		history = matchup.NewPostgresHistory(conn, logger)
		dbChecker = health.NewDBChecker(conn)
		logger.Info("using postgres repositories")
	} else {
		aggregates = rating.NewInMemoryStore()
		eloStore = elo.NewInMemoryStore()
		history = matchup.NewInMemoryHistory()
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
	}

	// Rate limiting: Redis when configured, in-memory otherwise
	var (
		rateLimitStore middleware.RateLimitStore
		redisChecker   api.HealthChecker
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		rateLimitStore = middleware.NewRedisRateLimitStoreWithMetrics(client, httpMetrics)
		redisChecker = health.NewRedisChecker(client)
		logger.Info("using redis rate limit store")
	} else {
		store := middleware.NewInMemoryRateLimitStore()
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				store.Cleanup()
			}
		}()
		rateLimitStore = store
		logger.Warn("REDIS_URL not set, using in-memory rate limit store")
	}

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.OTLPExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TracingSampling,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracing", "error", err)
		}
	}()

	// Auth: validate-only boundary, token issuance lives elsewhere
	var jwtService *auth.JWTService
	if cfg.JWTPreviousSecret != "" {
		jwtService = auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)
	} else {
		jwtService = auth.NewJWTService(cfg.JWTSecret)
	}

	// Engine services
	matchupService := matchup.NewService(aggregates, eloStore, history, logger, matchupMetrics)
	rankingService := ranking.NewService(aggregates, eloStore, logger, rankingMetrics)

	// HTTP handlers
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:      dbChecker,
		RedisChecker:   redisChecker,
		MetricsEnabled: true,
	})
	rankingHandlers := api.NewRankingHandlers(rankingService, aggregates)
	matchupHandlers := api.NewMatchupHandlers(matchupService)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Read-side endpoints share a per-IP limit; the matchup flow gets
	// a tighter per-user limit on top of the global one.
	rankingLimit := middleware.RateLimiter(rateLimitStore, middleware.DefaultRankingLimit(), middleware.IPKeyFunc(), httpMetrics)
	matchupLimit := middleware.RateLimiter(rateLimitStore, middleware.DefaultMatchupLimit(), middleware.UserKeyFunc(), httpMetrics)
	mux.Handle("/cuisines/", rankingLimit(http.HandlerFunc(rankingHandlers.Cuisines)))
	mux.Handle("/matchups/next", matchupLimit(http.HandlerFunc(matchupHandlers.Next)))
	mux.Handle("/matchups", matchupLimit(http.HandlerFunc(matchupHandlers.Submit)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Only handle exact root path, everything else returns 404
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"plated-api","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Apply middleware: RequestID -> Tracing -> Logging -> HTTPMetrics -> CORS -> RateLimit -> Auth
	handler := middleware.Auth(jwtService)(mux)
	handler = middleware.RateLimiter(rateLimitStore, middleware.DefaultGlobalLimit(), middleware.IPKeyFunc(), httpMetrics)(handler)
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		})(handler)
	}
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing(serviceName)(handler)
	}
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
