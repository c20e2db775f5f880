package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"souqly/internal/model"
)

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, password_hashed, bio, avatar_url, avatar_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, follower_count, following_count, listing_count, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.Username,
		u.PasswordHashed,
		u.Bio,
		u.AvatarURL,
		u.AvatarKey,
	)

	err := row.Scan(
		&u.ID,
		&u.FollowerCount,
		&u.FollowingCount,
		&u.ListingCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, username, password_hashed, bio, avatar_url, avatar_key,
		       follower_count, following_count, listing_count, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByIDs retrieves summaries for the given ids, ordered by username.
// The username ordering makes follower/following lists deterministic
// instead of depending on whatever order the store returns.
func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.UserSummary, error) {
	if len(ids) == 0 {
		return []model.UserSummary{}, nil
	}

	query := `
		SELECT id, username, bio, avatar_url
		FROM users
		WHERE id = ANY($1)
		ORDER BY username ASC
	`

	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}

	return users, nil
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT id, username, password_hashed, bio, avatar_url, avatar_key,
		       follower_count, following_count, listing_count, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &u, nil
}

// ExistsByUsername checks whether a username is already taken
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// Search finds users whose username contains the query, case-insensitively.
func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	sqlQuery := `
		SELECT id, username, bio, avatar_url
		FROM users
		WHERE username ILIKE '%' || $1 || '%'
		ORDER BY username ASC
		LIMIT $2
	`

	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, sqlQuery, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}

// UpdateProfile applies the provided profile fields and returns the updated user.
func (r *userRepository) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	query := `
		UPDATE users
		SET bio        = COALESCE($2, bio),
		    avatar_url = COALESCE($3, avatar_url),
		    avatar_key = COALESCE($4, avatar_key),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, username, password_hashed, bio, avatar_url, avatar_key,
		          follower_count, following_count, listing_count, created_at, updated_at
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, userID, req.Bio, req.AvatarURL, req.AvatarKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &u, nil
}

func (r *userRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET follower_count = follower_count + $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, userID, delta); err != nil {
		return fmt.Errorf("failed to update follower count: %w", err)
	}
	return nil
}

func (r *userRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET following_count = following_count + $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, userID, delta); err != nil {
		return fmt.Errorf("failed to update following count: %w", err)
	}
	return nil
}

func (r *userRepository) IncrementListingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query := `UPDATE users SET listing_count = listing_count + $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, userID, delta); err != nil {
		return fmt.Errorf("failed to update listing count: %w", err)
	}
	return nil
}
