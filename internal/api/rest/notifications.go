package rest

import (
	"net/http"
	"time"

	notificationdomain "github.com/linkedfishers/backend/internal/services/notifications/domain"
)

type notificationSenderResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
	Slug        string `json:"slug"`
}

type notificationResponse struct {
	ID        string                     `json:"id"`
	Sender    notificationSenderResponse `json:"sender"`
	Kind      string                     `json:"kind"`
	Content   string                     `json:"content,omitempty"`
	TargetID  string                     `json:"target_id,omitempty"`
	Read      bool                       `json:"read"`
	CreatedAt time.Time                  `json:"created_at"`
}

func toNotificationResponse(listed notificationdomain.Listed) notificationResponse {
	return notificationResponse{
		ID:        listed.ID,
		Sender:    notificationSenderResponse(listed.Sender),
		Kind:      listed.Kind,
		Content:   listed.Content,
		TargetID:  listed.TargetID,
		Read:      listed.Read,
		CreatedAt: listed.CreatedAt,
	}
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	page, err := h.notifications.ListByReceiver(r.Context(), notificationdomain.ListInput{
		ReceiverID: callerID(r),
		PageSize:   queryInt(r, "page_size", 0),
		PageToken:  r.URL.Query().Get("page_token"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	notifications := make([]notificationResponse, 0, len(page.Notifications))
	for _, listed := range page.Notifications {
		notifications = append(notifications, toNotificationResponse(listed))
	}
	writeJSON(w, http.StatusOK, struct {
		Notifications []notificationResponse `json:"notifications"`
		NextPageToken string                 `json:"next_page_token,omitempty"`
	}{Notifications: notifications, NextPageToken: page.NextPageToken})
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notification, err := h.notifications.MarkRead(r.Context(), callerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ID   string `json:"id"`
		Read bool   `json:"read"`
	}{ID: notification.ID, Read: notification.Read})
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notifications.UnreadCount(r.Context(), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}
