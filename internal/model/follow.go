package model

import (
	"errors"
	"time"
)

// Follow is a directed edge: FollowerID follows FollowingID.
// The pair is unique; self edges are rejected at the service level.
type Follow struct {
	FollowerID  int64     `db:"follower_id" json:"follower_id"`
	FollowingID int64     `db:"following_id" json:"following_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FollowView is a derived row for follower/following screens.
//
// ViewerFollows: does the authenticated viewer follow this user.
// MutualWithTarget: is this user mutual with the screen's target. On a
// followers screen it means the target follows them back, on a
// following screen it means they follow the target back.
type FollowView struct {
	UserSummary
	ViewerFollows    bool `json:"viewer_follows"`
	MutualWithTarget bool `json:"mutual_with_target"`
}

// FollowListResponse is the follower/following list payload.
type FollowListResponse struct {
	Users []FollowView `json:"users"`
	Total int          `json:"total"`
}

var (
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
