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
	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/api"
	"github.com/ricirt/grievance-queue/internal/config"
	"github.com/ricirt/grievance-queue/internal/db"
	"github.com/ricirt/grievance-queue/internal/metrics"
	"github.com/ricirt/grievance-queue/internal/queue"
	"github.com/ricirt/grievance-queue/internal/repository"
	"github.com/ricirt/grievance-queue/internal/service"
	"github.com/ricirt/grievance-queue/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to read .env", zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// ---- queue store ----
	client := queue.NewClient(cfg.Dialer, logger)
	if err := client.Connect(ctx); err != nil {
		// Not fatal: every operation reconnects, and /health reports the outage.
		logger.Warn("queue store not reachable at startup", zap.Error(err))
	}
	defer client.Disconnect() //nolint:errcheck

	complaints := queue.NewComplaintRegistrationQueue(client, logger)
	users := queue.NewUserRegistrationQueue(client, logger)
	processed := queue.NewProcessedQueue(client, logger)

	// ---- audit trail ----
	var events repository.AssignmentEventRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		version, err := db.Migrate(cfg.DatabaseURL, db.DefaultMigrations)
		if err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("audit schema ready", zap.Uint("version", version))
		events = repository.NewPgAssignmentEventRepository(pool)
	} else {
		logger.Info("DATABASE_URL not set, assignment events kept in memory")
		events = repository.NewMockAssignmentEventRepository()
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	intake := service.NewIntakeService(complaints, users, logger, func(q string) {
		m.RegistrationsEnqueued.WithLabelValues(q).Inc()
	})
	health := service.NewHealthService(complaints, users, processed)

	// ---- background stages ----
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	promoter := worker.NewPromoteWorker(client, complaints, processed,
		cfg.PromoteInterval, cfg.PromoteBatch, logger, m.ComplaintsPromoted.Inc)
	promoterDone := make(chan struct{})
	go func() {
		defer close(promoterDone)
		promoter.Run(workerCtx)
	}()

	sampler := worker.NewDepthSampler([]queue.LengthReporter{
		complaints,
		users,
		processed,
		client.List(complaints.MalformedName()),
		client.List(users.MalformedName()),
		client.List(queue.RegistrationRejectedQueue),
		client.List(queue.AssignmentMalformedQueue),
		client.List(queue.AssignmentFailedQueue),
	}, m.SetQueueDepth, cfg.DepthSampleInterval, logger)
	go sampler.Run(workerCtx)

	// ---- HTTP server ----
	router := api.NewRouter(intake, health, processed, events, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the promotion stage and wait for its current batch.
	cancelWorkers()
	<-promoterDone

	logger.Info("server stopped cleanly")
}
