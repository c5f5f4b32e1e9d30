package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/queue"
	"github.com/forumkit/forumkit/internal/repository"
)

// JobEnqueuer is the capability the service needs from the broker.
// Depending on this interface instead of the broker type keeps the
// service→queue dependency one-directional.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, queueName string, payload any) (string, error)
}

// NotificationService is the account-facing surface of the pipeline
// (preferences, in-app listing, mark-read) plus the producer-side Notify
// entry point that domain-event emitters call.
type NotificationService struct {
	prefs         repository.PreferenceRepository
	notifications repository.NotificationRepository
	enqueuer      JobEnqueuer
	logger        *zap.Logger
}

func NewNotificationService(
	prefs repository.PreferenceRepository,
	notifications repository.NotificationRepository,
	enqueuer JobEnqueuer,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		prefs:         prefs,
		notifications: notifications,
		enqueuer:      enqueuer,
		logger:        logger,
	}
}

// GetPreferences returns the user's channel preferences, creating the
// default row (all channels enabled) on first access.
func (s *NotificationService) GetPreferences(ctx context.Context, userID int64) (*domain.NotificationPreference, error) {
	return s.prefs.Get(ctx, userID)
}

// UpdatePreferences applies the non-nil fields of the patch.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID int64, patch domain.PreferencePatch) (*domain.NotificationPreference, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrEmptyPatch
	}
	return s.prefs.Update(ctx, userID, patch)
}

// List returns the user's in-app notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64) ([]*domain.Notification, error) {
	return s.notifications.ListByUser(ctx, userID)
}

// MarkRead flips is_read on a notification owned by userID.
func (s *NotificationService) MarkRead(ctx context.Context, id string, userID int64) (*domain.Notification, error) {
	return s.notifications.MarkRead(ctx, id, userID)
}

// Notify queues a notification job for one recipient and returns the job id.
// It returns as soon as the job is durably persisted; delivery happens in the
// workers. Callers fanning out over many recipients should log-and-continue
// on error rather than fail the write that triggered the fan-out.
func (s *NotificationService) Notify(ctx context.Context, recipientID int64, title, message string, category domain.Category) (string, error) {
	job := domain.NotificationJob{
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Category:    category,
	}
	if err := job.Validate(); err != nil {
		return "", err
	}

	id, err := s.enqueuer.Enqueue(ctx, queue.QueueNotifications, job)
	if err != nil {
		return "", fmt.Errorf("enqueue notification: %w", err)
	}

	s.logger.Debug("notification queued",
		zap.String("job_id", id),
		zap.Int64("recipient_id", recipientID),
		zap.String("category", string(category)),
	)
	return id, nil
}
