package repository

import (
	"context"

	"github.com/forumkit/forumkit/internal/domain"
)

// UserRepository is the user directory the notification worker consults to
// resolve a recipient's email address. domain.ErrNotFound is a benign
// condition for the worker (the email channel is skipped, not failed).
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
