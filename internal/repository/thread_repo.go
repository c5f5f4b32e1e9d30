package repository

import (
	"context"

	"github.com/forumkit/forumkit/internal/domain"
)

// ThreadRepository persists threads, comments, and subscriptions.
// Only the slice the notification pipeline's producer needs lives here.
type ThreadRepository interface {
	CreateThread(ctx context.Context, t *domain.Thread) error
	GetThread(ctx context.Context, id int64) (*domain.Thread, error)
	CreateComment(ctx context.Context, c *domain.Comment) error
	// Subscribe adds a subscription row, or domain.ErrAlreadySubscribed
	// if one exists.
	Subscribe(ctx context.Context, threadID, userID int64) error
	Unsubscribe(ctx context.Context, threadID, userID int64) error
	// ListSubscriberIDs returns the user ids subscribed to the thread.
	ListSubscriberIDs(ctx context.Context, threadID int64) ([]int64, error)
}
