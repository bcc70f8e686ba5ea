package handler

import (
	"errors"
	"net/http"
	"strconv"

	"congsync-server/internal/repository"
	"congsync-server/internal/service"
	"congsync-server/pkg/response"
)

type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.BadRequest(w, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	notifications, err := h.notifications.List(limit)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	response.Success(w, map[string]interface{}{"notifications": notifications})
}

// Delete removes one notification by ?id=, or clears the whole list when no
// id is given.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	notificationID := r.URL.Query().Get("id")
	if notificationID == "" {
		if err := h.notifications.Clear(); err != nil {
			response.InternalError(w, "internal error")
			return
		}
		response.Success(w, map[string]interface{}{"cleared": true})
		return
	}

	if err := h.notifications.Delete(notificationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(w, "notification not found")
			return
		}
		response.InternalError(w, "internal error")
		return
	}
	response.Success(w, map[string]interface{}{"deleted": notificationID})
}
