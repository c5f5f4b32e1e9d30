package handler

import (
	"net/http"

	"github.com/forumkit/forumkit/internal/queue"
)

// QueueHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type QueueHandler struct {
	broker *queue.Broker
}

func NewQueueHandler(broker *queue.Broker) *QueueHandler {
	return &QueueHandler{broker: broker}
}

// GetQueues handles GET /api/v1/queues
//
// @Summary  Pending job backlog per queue
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/queues [get]
func (h *QueueHandler) GetQueues(w http.ResponseWriter, r *http.Request) {
	depths, err := h.broker.Depths(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read queue depths")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"queue_depth": depths})
}
