package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"souqly/internal/httputil"
	"souqly/internal/model"
	"souqly/internal/service"
	"souqly/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notifService *service.NotificationService
}

func NewNotificationHandler(notifService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notifService: notifService,
	}
}

// List returns recent notifications plus the unread count
// GET /notifications?limit=20
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			httputil.WriteBadRequest(w, "Invalid limit")
			return
		}
		limit = parsed
	}

	result, err := h.notifService.GetNotifications(r.Context(), userID, limit)
	if err != nil {
		log.Printf("[ERROR] Notification list handler: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// MarkRead marks specific notifications, or all of them, as read
// POST /notifications/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	var err error
	if len(req.NotificationIDs) == 0 {
		err = h.notifService.MarkAllAsRead(r.Context(), userID)
	} else {
		err = h.notifService.MarkAsRead(r.Context(), userID, req.NotificationIDs)
	}
	if err != nil {
		log.Printf("[ERROR] MarkRead handler: %v", err)
		httputil.WriteInternalError(w, "Failed to mark notifications as read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Notifications marked as read",
	})
}

// UnreadCount returns just the badge number
// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	count, err := h.notifService.GetUnreadCount(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] UnreadCount handler: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch unread count")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"unread_count": count,
	})
}

// RegisterDeviceToken stores the device's Expo push token
// POST /notifications/device-tokens
func (h *NotificationHandler) RegisterDeviceToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Token) == "" {
		httputil.WriteBadRequest(w, "Token is required")
		return
	}

	if err := h.notifService.RegisterDeviceToken(r.Context(), userID, req.Token, req.Platform); err != nil {
		log.Printf("[ERROR] RegisterDeviceToken handler: %v", err)
		httputil.WriteInternalError(w, "Failed to register device token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Device token registered",
	})
}

// RemoveDeviceToken deletes a device token (called on logout)
// DELETE /notifications/device-tokens
func (h *NotificationHandler) RemoveDeviceToken(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Token) == "" {
		httputil.WriteBadRequest(w, "Token is required")
		return
	}

	if err := h.notifService.RemoveDeviceToken(r.Context(), req.Token); err != nil {
		log.Printf("[ERROR] RemoveDeviceToken handler: %v", err)
		httputil.WriteInternalError(w, "Failed to remove device token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Device token removed",
	})
}
