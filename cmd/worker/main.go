package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/assign"
	"github.com/ricirt/grievance-queue/internal/config"
	"github.com/ricirt/grievance-queue/internal/db"
	"github.com/ricirt/grievance-queue/internal/domain"
	"github.com/ricirt/grievance-queue/internal/metrics"
	"github.com/ricirt/grievance-queue/internal/queue"
	"github.com/ricirt/grievance-queue/internal/ratelimiter"
	"github.com/ricirt/grievance-queue/internal/repository"
	"github.com/ricirt/grievance-queue/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to read .env", zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := queue.NewClient(cfg.Dialer, logger)
	defer client.Disconnect() //nolint:errcheck
	processed := queue.NewProcessedQueue(client, logger)

	var events repository.AssignmentEventRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		events = repository.NewPgAssignmentEventRepository(pool)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	onSent, onFailed, onDiscarded, onDeadLettered := m.AssignmentHooks()

	w := worker.NewAssignmentWorker(
		processed,
		assign.NewHTTPAssigner(cfg.AssignmentBaseURL, cfg.AssignmentTimeout),
		ratelimiter.New(cfg.AssignRateLimit),
		events,
		worker.AssignmentConfig{
			IdleInterval:   cfg.IdleInterval,
			FailureBackoff: cfg.FailureBackoff,
			ErrorBackoff:   cfg.ErrorBackoff,
			MaxAttempts:    cfg.MaxAttempts,
			Regions:        domain.NewRegions(cfg.AllowedMunicipalities...),
			UnservedQueue:  cfg.UnservedQueue,
		},
		logger,
		worker.Hooks{
			OnSent:         onSent,
			OnFailed:       onFailed,
			OnDiscarded:    onDiscarded,
			OnDeadLettered: onDeadLettered,
		},
	)
	done := w.Start(ctx)

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: cfg.ReadTimeout,
	}
	go func() {
		logger.Info("metrics listener starting", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
		if !awaitShutdown(w, done, cfg.ShutdownTimeout, cancel) {
			logger.Warn("assignment call did not finish before the shutdown deadline, cancelled",
				zap.Duration("shutdown_timeout", cfg.ShutdownTimeout))
		}
	case <-done:
		logger.Warn("assignment worker exited unexpectedly")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics listener shutdown error", zap.Error(err))
	}

	logger.Info("worker stopped cleanly")
}
