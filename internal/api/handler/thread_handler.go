package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/forumkit/forumkit/internal/api/middleware"
	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/service"
)

// ThreadHandler serves the thread endpoints that feed the notification
// pipeline: creating a comment on a thread is the fan-out producer.
type ThreadHandler struct {
	svc    *service.ThreadService
	logger *zap.Logger
}

func NewThreadHandler(svc *service.ThreadService, logger *zap.Logger) *ThreadHandler {
	return &ThreadHandler{svc: svc, logger: logger}
}

// CreateThread handles POST /api/v1/threads
//
// @Summary  Create a thread (author is auto-subscribed)
// @Tags     threads
// @Accept   json
// @Produce  json
// @Success  201  {object}  domain.Thread
// @Failure  422  {object}  map[string]string
// @Router   /api/v1/threads [post]
func (h *ThreadHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		respondUnauthenticated(w)
		return
	}

	var req domain.CreateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := h.svc.CreateThread(r.Context(), userID, req)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

// CreateComment handles POST /api/v1/threads/{id}/comments
//
// The response is sent as soon as the comment row is committed; subscriber
// notifications are queued fire-and-forget and never delay or fail this
// request.
//
// @Summary  Comment on a thread and notify its subscribers
// @Tags     threads
// @Accept   json
// @Produce  json
// @Param    id   path      int  true  "Thread ID"
// @Success  201  {object}  domain.Comment
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/threads/{id}/comments [post]
func (h *ThreadHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		respondUnauthenticated(w)
		return
	}
	threadID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid thread id")
		return
	}

	var req domain.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, err := h.svc.CreateComment(r.Context(), threadID, userID, req)
	if err != nil {
		h.logger.Warn("create comment failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Int64("thread_id", threadID),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// Subscribe handles POST /api/v1/threads/{id}/subscription
//
// @Summary  Subscribe the caller to a thread
// @Tags     threads
// @Param    id  path  int  true  "Thread ID"
// @Success  204
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/threads/{id}/subscription [post]
func (h *ThreadHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.subscription(w, r, h.svc.Subscribe)
}

// Unsubscribe handles DELETE /api/v1/threads/{id}/subscription
//
// @Summary  Unsubscribe the caller from a thread
// @Tags     threads
// @Param    id  path  int  true  "Thread ID"
// @Success  204
// @Router   /api/v1/threads/{id}/subscription [delete]
func (h *ThreadHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.subscription(w, r, h.svc.Unsubscribe)
}

func (h *ThreadHandler) subscription(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, threadID, userID int64) error) {
	userID, ok := callerID(r)
	if !ok {
		respondUnauthenticated(w)
		return
	}
	threadID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid thread id")
		return
	}

	if err := op(r.Context(), threadID, userID); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
