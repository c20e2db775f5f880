package model

import (
	"time"
)

// DeviceToken represents a registered device for push notifications.
// A user can have several devices; the token itself is unique and moves
// to whichever user registered it last.
type DeviceToken struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Token     string    `db:"token" json:"-"` // Expo push token, hidden from JSON
	Platform  string    `db:"platform" json:"platform"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterTokenRequest is the request body for registering a device token.
type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"` // "expo", "ios" or "android"
}

// Platform constants
const (
	PlatformExpo    = "expo"
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)
