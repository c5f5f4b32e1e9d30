package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/repository"
)

// Notifier is the slice of NotificationService the thread service uses.
type Notifier interface {
	Notify(ctx context.Context, recipientID int64, title, message string, category domain.Category) (string, error)
}

// ThreadService owns threads, comments, and subscriptions. It is the
// fan-out producer: a new comment queues one notification job per subscriber.
type ThreadService struct {
	threads  repository.ThreadRepository
	users    repository.UserRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewThreadService(
	threads repository.ThreadRepository,
	users repository.UserRepository,
	notifier Notifier,
	logger *zap.Logger,
) *ThreadService {
	return &ThreadService{threads: threads, users: users, notifier: notifier, logger: logger}
}

// CreateThread persists a thread and subscribes its author.
func (s *ThreadService) CreateThread(ctx context.Context, authorID int64, req domain.CreateThreadRequest) (*domain.Thread, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := &domain.Thread{
		AuthorID:  authorID,
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.threads.CreateThread(ctx, t); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	if err := s.threads.Subscribe(ctx, t.ID, authorID); err != nil {
		return nil, fmt.Errorf("subscribe author: %w", err)
	}
	return t, nil
}

func (s *ThreadService) Subscribe(ctx context.Context, threadID, userID int64) error {
	if _, err := s.threads.GetThread(ctx, threadID); err != nil {
		return err
	}
	return s.threads.Subscribe(ctx, threadID, userID)
}

func (s *ThreadService) Unsubscribe(ctx context.Context, threadID, userID int64) error {
	return s.threads.Unsubscribe(ctx, threadID, userID)
}

// CreateComment persists a comment, then fans out one notification job per
// subscriber except the commenter. The comment is committed before any
// enqueue happens and is never rolled back on enqueue failure: notification
// delivery is best-effort from the producer's point of view, so queue health
// cannot fail an unrelated write. Enqueue errors are logged and skipped.
func (s *ThreadService) CreateComment(ctx context.Context, threadID, authorID int64, req domain.CreateCommentRequest) (*domain.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.threads.GetThread(ctx, threadID); err != nil {
		return nil, err
	}

	c := &domain.Comment{
		ThreadID:  threadID,
		AuthorID:  authorID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.threads.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.fanOut(ctx, c)
	return c, nil
}

func (s *ThreadService) fanOut(ctx context.Context, c *domain.Comment) {
	// The comment is already committed; a client disconnect must not cancel
	// the remaining subscribers' enqueues mid-loop.
	ctx = context.WithoutCancel(ctx)

	subscribers, err := s.threads.ListSubscriberIDs(ctx, c.ThreadID)
	if err != nil {
		s.logger.Error("fan-out: failed to list subscribers",
			zap.Int64("thread_id", c.ThreadID), zap.Error(err))
		return
	}

	authorName := fmt.Sprintf("user %d", c.AuthorID)
	if author, err := s.users.GetByID(ctx, c.AuthorID); err == nil {
		authorName = author.Username
	}

	message := fmt.Sprintf("%s commented on a thread you follow", authorName)
	for _, userID := range subscribers {
		if userID == c.AuthorID {
			continue
		}
		if _, err := s.notifier.Notify(ctx, userID, "New comment on thread", message, domain.CategoryThreadComment); err != nil {
			s.logger.Warn("fan-out: could not queue notification",
				zap.Int64("thread_id", c.ThreadID),
				zap.Int64("recipient_id", userID),
				zap.Error(err),
			)
		}
	}
}
