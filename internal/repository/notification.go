package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"souqly/internal/model"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, userID, actorID int64, notifType string, productID *int64) error {
	query := `
		INSERT INTO notifications (user_id, actor_id, type, product_id)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, actorID, notifType, productID); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// List returns the newest notifications with their actors joined, plus
// the user's unread count.
func (r *notificationRepository) List(ctx context.Context, userID int64, limit int) ([]model.Notification, int, error) {
	query := `
		SELECT n.id, n.user_id, n.actor_id, n.type, n.product_id, n.is_read, n.created_at,
		       u.id AS "actor.id", u.username AS "actor.username", u.bio AS "actor.bio", u.avatar_url AS "actor.avatar_url"
		FROM notifications n
		JOIN users u ON u.id = n.actor_id
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2
	`

	type notificationRow struct {
		model.Notification
		Actor model.UserSummary `db:"actor"`
	}

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	notifications := make([]model.Notification, len(rows))
	for i, row := range rows {
		n := row.Notification
		actor := row.Actor
		n.Actor = &actor
		notifications[i] = n
	}

	unread, err := r.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return notifications, unread, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	if len(notificationIDs) == 0 {
		return nil
	}

	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND id = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, userID, pq.Array(notificationIDs)); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
