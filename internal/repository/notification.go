package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Houeta/homecare-api/internal/models"
	"github.com/google/uuid"
)

// CreateNotification persists one lifecycle alert for a user.
func (r *Repository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	defer r.observe("create_notification", time.Now())

	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}

	query := `
		INSERT INTO notifications (id, user_id, task_id, action, message)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at;
	`

	err := r.db.QueryRow(ctx, query,
		notification.ID, notification.UserID, notification.TaskID,
		notification.Action, notification.Message,
	).Scan(&notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListNotificationsForUser returns the user's alerts, newest first.
func (r *Repository) ListNotificationsForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	defer r.observe("list_notifications_for_user", time.Now())

	query := `
		SELECT id, user_id, task_id, action, COALESCE(message, ''), created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var notification models.Notification
		err = rows.Scan(
			&notification.ID, &notification.UserID, &notification.TaskID,
			&notification.Action, &notification.Message, &notification.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, notification)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notification rows: %w", err)
	}

	return notifications, nil
}
