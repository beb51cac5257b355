package handler

import (
	"net/http"

	"github.com/ricirt/grievance-queue/internal/service"
)

// HealthHandler serves the queue-store health probe.
type HealthHandler struct {
	svc *service.HealthService
}

func NewHealthHandler(svc *service.HealthService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// Health handles GET /health
//
// @Summary  Queue store health with per-queue lengths
// @Tags     system
// @Produce  json
// @Success  200  {object}  service.HealthReport  "ok or partial"
// @Failure  503  {object}  service.HealthReport  "every queue check failed"
// @Router   /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.svc.Check(r.Context())

	status := http.StatusOK
	if report.Status == service.HealthError {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, report)
}
