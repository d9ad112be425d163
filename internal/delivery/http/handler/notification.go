package handler

import (
	"net/http"

	"github.com/Pesokrava/jewelry_store/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/usecase/notification"
)

// NotificationHandler handles HTTP requests for the caller's notifications
type NotificationHandler struct {
	service *notification.Service
	logger  *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(service *notification.Service, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  log,
	}
}

// List handles GET /api/notifications
// @Summary List notifications
// @Description List the caller's notifications, newest first
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]domain.Notification}
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	notifications, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, notifications)
}

// UnreadCount handles GET /api/notifications/unread/count
// @Summary Count unread notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/unread/count [get]
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Count(w, count)
}

// MarkRead handles PUT /api/notifications/{id}/read
// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope{data=domain.Notification}
// @Failure 404 {object} response.Envelope "Notification not found"
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	notification, err := h.service.MarkRead(r.Context(), userID, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, notification)
}

// MarkAllRead handles PUT /api/notifications/read-all
// @Summary Mark all notifications read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Message(w, "All notifications marked as read")
}

// Delete handles DELETE /api/notifications/{id}
// @Summary Delete a notification
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Notification not found"
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Message(w, "Notification deleted")
}

// DeleteAll handles DELETE /api/notifications
// @Summary Delete all notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications [delete]
func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAll(r.Context(), userID); err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Message(w, "All notifications deleted")
}

func (h *NotificationHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, "notification", err)
}
