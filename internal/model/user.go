package model

import (
	"errors"
	"time"
)

// User represents a marketplace account.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Bio            *string   `db:"bio" json:"bio"`
	AvatarURL      *string   `db:"avatar_url" json:"avatar_url"`
	AvatarKey      *string   `db:"avatar_key" json:"-"`
	FollowerCount  int       `db:"follower_count" json:"follower_count"`
	FollowingCount int       `db:"following_count" json:"following_count"`
	ListingCount   int       `db:"listing_count" json:"listing_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the lightweight user shape embedded in lists.
type UserSummary struct {
	ID        int64   `db:"id" json:"id"`
	Username  string  `db:"username" json:"username"`
	Bio       *string `db:"bio" json:"bio"`
	AvatarURL *string `db:"avatar_url" json:"avatar_url"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileResponse is a user profile enriched with the viewer's relationship to it.
type ProfileResponse struct {
	User        *User `json:"user"`
	IsFollowing bool  `json:"is_following"`
	IsMutual    bool  `json:"is_mutual"` // both directions of the edge exist
}

// TokenResponse carries an issued access token and its lifetime in seconds.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"-"`
	AvatarKey *string `json:"-"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAuthRequired is returned when an identity-gated action is attempted
	// without a viewer identity
	ErrAuthRequired = errors.New("authentication required")

	// ErrInvalidReference is returned when a target id is missing or unparseable
	ErrInvalidReference = errors.New("invalid reference")
)
