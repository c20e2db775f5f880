package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"souqly/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts a follow edge. ON CONFLICT DO NOTHING makes the insert
// idempotent: rapid repeated follows of the same pair cannot produce
// duplicate edges, the uniqueness constraint is the real guard.
func (r *followRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, following_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("failed to create follow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followingID int64) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`
	result, err := tx.ExecContext(ctx, query, followerID, followingID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotFollowing
	}

	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// FollowerIDs returns the ids of users who follow userID.
func (r *followRepository) FollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT follower_id FROM follows WHERE following_id = $1`
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get follower ids: %w", err)
	}
	return ids, nil
}

// FollowingIDs returns the ids of users userID follows.
func (r *followRepository) FollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT following_id FROM follows WHERE follower_id = $1`
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get following ids: %w", err)
	}
	return ids, nil
}

// CheckFollows reports which of followingIDs the follower follows.
// Single batch query via ANY($2), never one query per candidate.
func (r *followRepository) CheckFollows(ctx context.Context, followerID int64, followingIDs []int64) (map[int64]bool, error) {
	if len(followingIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT following_id FROM follows WHERE follower_id = $1 AND following_id = ANY($2)`
	var followedIDs []int64
	err := r.db.SelectContext(ctx, &followedIDs, query, followerID, pq.Array(followingIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check follows: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range followingIDs {
		result[id] = false
	}
	for _, id := range followedIDs {
		result[id] = true
	}

	return result, nil
}

// CheckFollowedBy reports which of followerIDs follow followingID.
// This is the reverse direction of CheckFollows, used for mutual flags.
func (r *followRepository) CheckFollowedBy(ctx context.Context, followingID int64, followerIDs []int64) (map[int64]bool, error) {
	if len(followerIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT follower_id FROM follows WHERE following_id = $1 AND follower_id = ANY($2)`
	var followingIDs []int64
	err := r.db.SelectContext(ctx, &followingIDs, query, followingID, pq.Array(followerIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check followed by: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range followerIDs {
		result[id] = false
	}
	for _, id := range followingIDs {
		result[id] = true
	}

	return result, nil
}
