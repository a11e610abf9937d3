package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/auth"
	"github.com/medisync/medisync/internal/notification"
)

type NotificationHandler struct {
	svc *notification.Service
}

func NewNotificationHandler(svc *notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")

	page, err := h.svc.List(r.Context(), actor.UserID, limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"notifications": page.Notifications,
		"total":         page.Total,
		"unreadCount":   page.Unread,
	})
}

func (h *NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	n, err := h.svc.MarkRead(r.Context(), actor.UserID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"notification": n})
}

func (h *NotificationHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.svc.MarkAllRead(r.Context(), actor.UserID); err != nil {
		respondError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "All notifications marked as read")
}

func (h *NotificationHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := h.svc.Delete(r.Context(), actor.UserID, id); err != nil {
		respondError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification deleted")
}

// queryInt returns 0 for missing or malformed values; the service applies
// its own defaults and clamps.
func queryInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
