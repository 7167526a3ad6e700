package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolstack/sms-api/internal/models"
)

// NotificationRepository stores announcements targeted at a role, a single
// user, or everyone.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts one notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, title, message, target_role, target_user_id, created_at)
		VALUES (:id, :title, :message, :target_role, :target_user_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// CreateBatchTx fans a notification out to many users in one transaction.
// Used when a teacher posts material and each affected student gets a row.
func (r *NotificationRepository) CreateBatchTx(ctx context.Context, tx *sqlx.Tx, notifications []models.Notification) error {
	const query = `INSERT INTO notifications (id, title, message, target_role, target_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	now := time.Now().UTC()
	for i := range notifications {
		n := &notifications[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, query, n.ID, n.Title, n.Message, n.TargetRole, n.TargetUserID, n.CreatedAt); err != nil {
			return fmt.Errorf("create notification batch: %w", err)
		}
	}
	return nil
}

// ListForUser returns the notifications visible to a user: global rows, rows
// for the user's role, and rows addressed to them directly.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, role models.UserRole, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf(`
SELECT id, title, message, target_role, target_user_id, created_at
FROM notifications
WHERE (target_role IS NULL AND target_user_id IS NULL)
   OR target_role = $1
   OR target_user_id = $2
ORDER BY created_at DESC LIMIT %d`, limit)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, role, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// Delete removes a notification.
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
