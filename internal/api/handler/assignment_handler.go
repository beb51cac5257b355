package handler

import (
	"net/http"
	"strconv"

	"github.com/ricirt/grievance-queue/internal/repository"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// AssignmentHandler serves the assignment audit trail.
type AssignmentHandler struct {
	events repository.AssignmentEventRepository
}

func NewAssignmentHandler(events repository.AssignmentEventRepository) *AssignmentHandler {
	return &AssignmentHandler{events: events}
}

// ListEvents handles GET /api/v1/assignments/events
//
// @Summary  Most recent assignment outcomes, newest first
// @Tags     assignments
// @Produce  json
// @Param    limit  query     int  false  "Max events (default 50, max 500)"
// @Success  200    {object}  map[string]any
// @Router   /api/v1/assignments/events [get]
func (h *AssignmentHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= maxEventLimit {
		limit = l
	}

	events, err := h.events.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list assignment events")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  events,
		"total": len(events),
		"limit": limit,
	})
}
