package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/api/handler"
	apimw "github.com/ricirt/grievance-queue/internal/api/middleware"
	"github.com/ricirt/grievance-queue/internal/queue"
	"github.com/ricirt/grievance-queue/internal/repository"
	"github.com/ricirt/grievance-queue/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	intake *service.IntakeService,
	health *service.HealthService,
	processed *queue.ProcessedQueue,
	events repository.AssignmentEventRepository,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)            // recover panics, return 500
	r.Use(chimw.RealIP)               // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)        // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	ih := handler.NewIntakeHandler(intake, logger)
	qh := handler.NewQueueHandler(processed)
	ah := handler.NewAssignmentHandler(events)
	hh := handler.NewHealthHandler(health)

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Producer path
		r.Post("/complaints", ih.CreateComplaint)
		r.Post("/users", ih.CreateUser)

		// Diagnostics
		r.Get("/queues/processed", qh.ListProcessed)
		r.Get("/queues/processed/{index}", qh.PeekProcessed)
		r.Get("/assignments/events", ah.ListEvents)
	})

	return r
}
