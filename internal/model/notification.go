package model

import (
	"time"
)

// Notification types
const (
	NotificationTypeFollow = "follow"
	NotificationTypeLike   = "like"
)

// Notification represents a single notification record in the database.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`         // Recipient
	ActorID   int64     `db:"actor_id" json:"actor_id"` // Who triggered it
	Type      string    `db:"type" json:"type"`         // follow, like
	ProductID *int64    `db:"product_id" json:"product_id,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Joined field for display
	Actor *UserSummary `json:"actor,omitempty"`
}

// NotificationListResponse is the notification list payload.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// MarkReadRequest is the request body for marking notifications as read.
type MarkReadRequest struct {
	NotificationIDs []int64 `json:"notification_ids"`
}
