package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/forumkit/forumkit/internal/api/middleware"
	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/service"
)

// NotificationHandler serves the in-app notification and preference endpoints.
type NotificationHandler struct {
	svc    *service.NotificationService
	logger *zap.Logger
}

func NewNotificationHandler(svc *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/notifications
//
// @Summary  List the caller's notifications, newest first
// @Tags     notifications
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		respondUnauthenticated(w)
		return
	}

	notifications, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("list notifications failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": notifications})
}

// MarkRead handles PATCH /api/v1/notifications/{id}/read
//
// @Summary  Mark one of the caller's notifications as read
// @Tags     notifications
// @Produce  json
// @Param    id   path      string  true  "Notification UUID"
// @Success  200  {object}  domain.Notification
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		respondUnauthenticated(w)
		return
	}

	n, err := h.svc.MarkRead(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// GetPreferences handles GET /api/v1/notifications/preferences
//
// @Summary  Get the caller's channel preferences (created with defaults on first read)
// @Tags     preferences
// @Produce  json
// @Success  200  {object}  domain.NotificationPreference
// @Router   /api/v1/notifications/preferences [get]
func (h *NotificationHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		respondUnauthenticated(w)
		return
	}

	prefs, err := h.svc.GetPreferences(r.Context(), userID)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences handles PATCH /api/v1/notifications/preferences
//
// @Summary  Update channel preferences; omitted fields are left untouched
// @Tags     preferences
// @Accept   json
// @Produce  json
// @Param    body  body      domain.PreferencePatch  true  "Partial preference update"
// @Success  200   {object}  domain.NotificationPreference
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/notifications/preferences [patch]
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		respondUnauthenticated(w)
		return
	}

	var patch domain.PreferencePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	prefs, err := h.svc.UpdatePreferences(r.Context(), userID, patch)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}
