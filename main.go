package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	appLogger "github.com/pchuang/whatever-eat/app/logger"
	"github.com/pchuang/whatever-eat/app/observability/metrics"
	"github.com/pchuang/whatever-eat/app/tracer"
	"github.com/pchuang/whatever-eat/config"
	"github.com/pchuang/whatever-eat/internal/bot"
	"github.com/pchuang/whatever-eat/internal/command"
	"github.com/pchuang/whatever-eat/internal/line"
	"github.com/pchuang/whatever-eat/internal/places"
	"github.com/pchuang/whatever-eat/internal/recommend"
	api "github.com/pchuang/whatever-eat/internal/router"
	"github.com/pchuang/whatever-eat/internal/session"
)

const sweepInterval = 5 * time.Minute

func main() {
	// --- Initial Loading ---
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	// --- Logger Setup ---
	logger := setupLogger()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if !cfg.HasMapsAPI() {
		logger.Warn("GOOGLE_MAP_API_TOKEN not set, recommend command will find no restaurants")
	}

	// --- Application Context & Shutdown ---
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	if err := tracer.InitTracingAndMetrics("whatever-eat"); err != nil {
		logger.Error("Failed to initialize tracing/metrics", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.InitAppMetrics()

	// --- Dependency Injection ---
	store := session.NewStore(session.Config{
		MaxUsers:    cfg.Session.MaxUsers,
		LocationTTL: cfg.Session.LocationTTL,
	}, logger)
	policy := recommend.NewPolicy(store, cfg.Selection.MaxAttempts, nil, logger)
	placesClient := places.NewClient(cfg.Maps.APIKey, cfg.Maps.SearchRadiusMeters, logger)
	lineClient := line.NewClient(cfg.Line.ChannelAccessToken, logger)
	whateverEat := bot.New(store, command.NewParser(), placesClient, policy, lineClient, logger)
	webhookHandler := bot.NewHandler(whateverEat, store, cfg.Line.ChannelSecret, bot.ConfigStatus{
		Status:           "running",
		Port:             cfg.Server.HTTPPort,
		AccessTokenSet:   cfg.Line.ChannelAccessToken != "",
		ChannelSecretSet: cfg.Line.ChannelSecret != "",
		MapsAPIKeySet:    cfg.HasMapsAPI(),
	}, logger)

	// --- Router Setup ---
	mainRouter := api.SetupRouter(&api.Config{WebhookHandler: webhookHandler})

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(cfg.Server.Timeout))
	router.Mount("/", mainRouter)

	// --- HTTP Servers ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Handlers.Prometheus.Port),
		Handler: metricsMux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting metrics server", slog.String("address", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	// Periodic expiry sweep. Lazy expiry on access is authoritative; this
	// only bounds memory for sessions nobody touches again.
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if removed := store.CleanupExpired(); removed > 0 {
					metrics.Get().SessionsExpiredTotal.Add(gctx, int64(removed))
				}
			}
		}
	})

	// --- Wait for Shutdown Signal ---
	<-gctx.Done()

	// --- Graceful Shutdown ---
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server graceful shutdown failed", slog.Any("error", err))
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" { // Default to development if not set
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		// JSON logs for production or other environments
		jsonOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
