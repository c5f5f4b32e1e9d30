package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/queue"
	"github.com/forumkit/forumkit/internal/repository"
	"github.com/forumkit/forumkit/internal/sms"
)

// Enqueuer is the broker capability the notification handler needs to hand
// email work to the "emails" queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, payload any) (string, error)
}

// NotificationHandler fans one claimed notification job out across the
// recipient's enabled channels:
//
//	claim → resolve preferences → {in-app | skip} {email | skip} {sms | skip} → ack
//
// Preferences are resolved at processing time. Any channel error except a
// missing email recipient propagates to the retry machinery, so a retried
// job re-runs all enabled channels — at-least-once means the in-app write
// may repeat after a crash between insert and ack. That duplicate is the
// documented cost of never losing a notification.
type NotificationHandler struct {
	prefs         repository.PreferenceRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	enqueuer      Enqueuer
	sms           sms.Sender
	logger        *zap.Logger

	// onDelivered is called per successful channel delivery with
	// "in_app", "email", or "sms". Optional (nil = no-op).
	onDelivered func(channel string)
}

func NewNotificationHandler(
	prefs repository.PreferenceRepository,
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	enqueuer Enqueuer,
	smsSender sms.Sender,
	logger *zap.Logger,
	onDelivered func(channel string),
) *NotificationHandler {
	if onDelivered == nil {
		onDelivered = func(string) {}
	}
	return &NotificationHandler{
		prefs:         prefs,
		notifications: notifications,
		users:         users,
		enqueuer:      enqueuer,
		sms:           smsSender,
		logger:        logger,
		onDelivered:   onDelivered,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, job *queue.Job) error {
	var payload domain.NotificationJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode notification job: %w", err)
	}

	log := h.logger.With(
		zap.String("job_id", job.ID),
		zap.Int64("recipient_id", payload.RecipientID),
	)

	// No preferences resolved means no partial delivery: fail the whole job.
	prefs, err := h.prefs.Get(ctx, payload.RecipientID)
	if err != nil {
		return fmt.Errorf("resolve preferences: %w", err)
	}

	if prefs.InAppEnabled {
		n := &domain.Notification{
			ID:        uuid.New().String(),
			UserID:    payload.RecipientID,
			Title:     payload.Title,
			Message:   payload.Message,
			Category:  payload.Category,
			CreatedAt: time.Now().UTC(),
		}
		if err := h.notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("write in-app notification: %w", err)
		}
		h.onDelivered("in_app")
	}

	if prefs.EmailEnabled {
		if err := h.deliverEmail(ctx, log, &payload); err != nil {
			return err
		}
	}

	if prefs.SMSEnabled {
		// The mock channel never fails.
		_ = h.sms.Send(ctx, payload.RecipientID, payload.Title)
		h.onDelivered("sms")
	}

	log.Info("notification processed",
		zap.Bool("in_app", prefs.InAppEnabled),
		zap.Bool("email", prefs.EmailEnabled),
		zap.Bool("sms", prefs.SMSEnabled),
	)
	return nil
}

// deliverEmail resolves the recipient's address and queues an email job.
// A recipient missing from the user directory is a benign skip, not a
// failure: the account may have been deleted since the event fired.
func (h *NotificationHandler) deliverEmail(ctx context.Context, log *zap.Logger, payload *domain.NotificationJob) error {
	user, err := h.users.GetByID(ctx, payload.RecipientID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("email skipped: recipient not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	emailJob := domain.EmailJob{
		To:      user.Email,
		Subject: payload.Title,
		Text:    payload.Message,
	}
	if _, err := h.enqueuer.Enqueue(ctx, queue.QueueEmails, emailJob); err != nil {
		return fmt.Errorf("enqueue email job: %w", err)
	}
	h.onDelivered("email")
	return nil
}

var _ Handler = (*NotificationHandler)(nil)
