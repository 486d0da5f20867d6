package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/irgordon/helix/api/internal/api/handlers"
	"github.com/irgordon/helix/api/internal/api/middleware"
	"github.com/irgordon/helix/api/internal/api/router"
	"github.com/irgordon/helix/api/internal/config"
	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/core/services"
	"github.com/irgordon/helix/api/internal/core/stego"
	"github.com/irgordon/helix/api/internal/db/memory"
	"github.com/irgordon/helix/api/internal/db/postgres"
	"github.com/irgordon/helix/api/internal/infrastructure/crypto"
	"github.com/irgordon/helix/api/internal/telemetry"
	"github.com/irgordon/helix/api/internal/workers"
)

func main() {
	// --- 1. Core Telemetry & Configuration ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("🚀 Booting Helix API...")
	cfg := config.Load()

	// --- 2. History Store ---
	// Postgres when configured, otherwise an in-process log that dies with us.
	var history domain.HistoryRepository
	if cfg.DatabaseURL != "" {
		dbPool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("FATAL: DB failed", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		pgRepo := postgres.NewHistoryRepository(dbPool)
		if err := pgRepo.EnsureSchema(context.Background()); err != nil {
			logger.Error("FATAL: history schema migration failed", "error", err)
			os.Exit(1)
		}
		history = pgRepo
		logger.Info("📚 History store: postgres")
	} else {
		history = memory.NewHistoryRepository()
		logger.Warn("📚 History store: in-memory (DATABASE_URL not set, history is lost on restart)")
	}

	// --- 3. Hardened Dependency Injection ---
	telemetryHub := telemetry.NewHub()
	lsb := stego.New(
		stego.WithStrictMarker(cfg.StrictMarker),
		stego.WithBitwiseScan(cfg.BitwiseMarker),
	)
	stegoService := services.NewStegoService(crypto.NewCipher, crypto.NewDecryptCipher, lsb, history, telemetryHub, logger)

	// --- 4. Background Workers ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	pruner := workers.NewHistoryPruner(history, logger, cfg.PruneInterval, cfg.HistoryRetention)
	go pruner.Start(workerCtx)

	rateLimiter := middleware.NewRateLimiter(workerCtx, cfg.RateLimitRPS, cfg.RateLimitBurst)

	// --- 5. HTTP Gateway ---
	mux := router.NewRouter(router.RouterConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		DNAHandler:       handlers.NewDNAHandler(stegoService),
		StegoHandler:     handlers.NewStegoHandler(stegoService),
		AnalyticsHandler: handlers.NewAnalyticsHandler(stegoService),
		WSHandler:        handlers.NewWebSocketHandler(telemetryHub, logger, cfg.AllowedOrigins),
		HealthHandler:    handlers.NewHealthHandler(history),
		RateLimiter:      rateLimiter,
		Logger:           logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second, // Large cover uploads
		WriteTimeout:      0,                // Analytics websockets are long-lived; REST routes carry their own timeout
		IdleTimeout:       120 * time.Second,
	}

	// --- 6. Graceful Exit ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("🌐 Helix API active", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("CRITICAL: Server crashed", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("🛑 Shutting down...")
	cancelWorkers() // Stop the pruner before the pool closes

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ERROR: Forced shutdown", "error", err)
	}
	logger.Info("✅ Helix API shutdown complete.")
}
