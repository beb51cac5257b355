package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/ricirt/grievance-queue/internal/api/middleware"
	"github.com/ricirt/grievance-queue/internal/domain"
	"github.com/ricirt/grievance-queue/internal/service"
)

// IntakeHandler is the producer-side HTTP surface: it accepts new
// complaints and users and appends them to their registration queues.
type IntakeHandler struct {
	svc    *service.IntakeService
	logger *zap.Logger
}

func NewIntakeHandler(svc *service.IntakeService, logger *zap.Logger) *IntakeHandler {
	return &IntakeHandler{svc: svc, logger: logger}
}

type enqueuedResponse struct {
	Data        any   `json:"data"`
	QueueLength int64 `json:"queue_length"`
}

// CreateComplaint handles POST /api/v1/complaints
//
// @Summary     Register a complaint
// @Tags        intake
// @Accept      json
// @Produce     json
// @Param       body  body      domain.Complaint  true  "Complaint payload"
// @Success     201   {object}  enqueuedResponse
// @Failure     400   {object}  map[string]string
// @Failure     422   {object}  map[string]string
// @Failure     503   {object}  map[string]string
// @Router      /api/v1/complaints [post]
func (h *IntakeHandler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	var req domain.Complaint
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, n, err := h.svc.SubmitComplaint(r.Context(), req)
	if err != nil {
		h.logger.Warn("submit complaint failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, enqueuedResponse{Data: c, QueueLength: n})
}

// CreateUser handles POST /api/v1/users
//
// @Summary     Register a user
// @Tags        intake
// @Accept      json
// @Produce     json
// @Param       body  body      domain.User  true  "User payload"
// @Success     201   {object}  enqueuedResponse
// @Failure     400   {object}  map[string]string
// @Failure     422   {object}  map[string]string
// @Failure     503   {object}  map[string]string
// @Router      /api/v1/users [post]
func (h *IntakeHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.User
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	u, n, err := h.svc.RegisterUser(r.Context(), req)
	if err != nil {
		h.logger.Warn("register user failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, enqueuedResponse{Data: u, QueueLength: n})
}
