package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/scopa-ai/signal/internal/models"
)

// InsertNotification stores a notification for its user
func (r *Repository) InsertNotification(ctx context.Context, n models.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, alert_id, type, title, message, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.UserID, nullString(n.AlertID), string(n.Type), n.Title, n.Message, jsonOrNull(n.Data), n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first
func (r *Repository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT id, user_id, alert_id, type, title, message, data, is_read, created_at
		FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	notifications := make([]models.Notification, len(rows))
	for i, row := range rows {
		notifications[i] = row.toModel()
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the user's notifications as read
func (r *Repository) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`,
		notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return expectOneRow(res, "mark notification read")
}

// GetProfile loads the profile used for notification delivery
func (r *Repository) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, email, full_name, subscription_tier, created_at FROM profiles WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return row.toModel(), nil
}
