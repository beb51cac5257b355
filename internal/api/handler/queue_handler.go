package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ricirt/grievance-queue/internal/domain"
	"github.com/ricirt/grievance-queue/internal/queue"
)

// QueueHandler exposes read-only diagnostics over the processed queue.
// Nothing here removes or reorders entries.
type QueueHandler struct {
	processed *queue.ProcessedQueue
}

func NewQueueHandler(processed *queue.ProcessedQueue) *QueueHandler {
	return &QueueHandler{processed: processed}
}

// ListProcessed handles GET /api/v1/queues/processed
//
// @Summary  Every decodable complaint waiting for assignment, head first
// @Tags     queues
// @Produce  json
// @Success  200  {object}  map[string]any
// @Failure  503  {object}  map[string]string
// @Router   /api/v1/queues/processed [get]
func (h *QueueHandler) ListProcessed(w http.ResponseWriter, r *http.Request) {
	items, err := h.processed.All(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"queue": h.processed.Name(),
		"data":  items,
		"total": len(items),
	})
}

// PeekProcessed handles GET /api/v1/queues/processed/{index}
//
// @Summary  Inspect one processed entry by position; negative counts from the tail
// @Tags     queues
// @Produce  json
// @Param    index  path      int  true  "List index"
// @Success  200    {object}  map[string]any
// @Failure  400    {object}  map[string]string
// @Failure  404    {object}  map[string]string
// @Router   /api/v1/queues/processed/{index} [get]
func (h *QueueHandler) PeekProcessed(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseInt(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	raw, ok, err := h.processed.PeekAt(r.Context(), index)
	if err != nil {
		mapError(w, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "no entry at index")
		return
	}

	// Undecodable entries are still shown so operators can see what is
	// blocking the head.
	c, err := domain.DecodeProcessedComplaint([]byte(raw))
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"index": index, "raw": raw, "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"index": index, "data": c})
}
