package repository

import (
	"context"

	"github.com/forumkit/forumkit/internal/domain"
)

// NotificationRepository is the durable log of delivered in-app notifications.
type NotificationRepository interface {
	// Create inserts a new unread notification.
	Create(ctx context.Context, n *domain.Notification) error
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Notification, error)
	// MarkRead flips is_read only if the notification belongs to userID;
	// domain.ErrNotFound otherwise, so one user cannot mutate another's rows.
	MarkRead(ctx context.Context, id string, userID int64) (*domain.Notification, error)
}
