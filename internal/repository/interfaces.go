package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"souqly/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByIDs returns user summaries ordered by username ascending.
	// Ordering is part of the contract: follower/following lists must be
	// deterministic across stores.
	GetByIDs(ctx context.Context, ids []int64) ([]model.UserSummary, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error)
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	IncrementListingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
}

type FollowRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) error
	Exists(ctx context.Context, followerID, followingID int64) (bool, error)
	// FollowerIDs returns ids of users following userID.
	FollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	// FollowingIDs returns ids of users userID follows.
	FollowingIDs(ctx context.Context, userID int64) ([]int64, error)
	// CheckFollows reports, for each candidate, whether followerID follows them.
	CheckFollows(ctx context.Context, followerID int64, followingIDs []int64) (map[int64]bool, error)
	// CheckFollowedBy reports, for each candidate, whether they follow followingID.
	CheckFollowedBy(ctx context.Context, followingID int64, followerIDs []int64) (map[int64]bool, error)
}

type ProductRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, product *model.Product) error
	GetByID(ctx context.Context, productID int64) (*model.Product, error)
	GetOwnerID(ctx context.Context, productID int64) (int64, error)
	Delete(ctx context.Context, tx *sqlx.Tx, productID, ownerID int64) error
	// ListPage returns one newest-first page plus the total listing count.
	ListPage(ctx context.Context, offset, limit int) ([]model.Product, int, error)
	// Search returns all listings whose name contains query,
	// case-insensitively, newest first. Not paginated.
	Search(ctx context.Context, query string) ([]model.Product, error)
	// CategoryMatchCounts returns, per category id, how many listings
	// match the query. Categories with zero matches are absent.
	CategoryMatchCounts(ctx context.Context, query string) (map[int64]int, error)
	Like(ctx context.Context, tx *sqlx.Tx, productID, userID int64) (bool, error)
	Unlike(ctx context.Context, tx *sqlx.Tx, productID, userID int64) error
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, productID int64, delta int) error
	CheckLikes(ctx context.Context, userID int64, productIDs []int64) (map[int64]bool, error)
	LikedIDs(ctx context.Context, userID int64) ([]int64, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id int64) (*model.Category, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, userID, actorID int64, notifType string, productID *int64) error
	// List returns recent notifications with their actors joined, plus
	// the unread count.
	List(ctx context.Context, userID int64, limit int) ([]model.Notification, int, error)
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
}

type DeviceTokenRepository interface {
	Upsert(ctx context.Context, userID int64, token, platform string) error
	GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error)
	Delete(ctx context.Context, token string) error
}
