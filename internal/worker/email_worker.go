package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/mailer"
	"github.com/forumkit/forumkit/internal/queue"
	"github.com/forumkit/forumkit/internal/ratelimiter"
)

// EmailHandler consumes the "emails" queue and performs the outbound send.
// Transport errors propagate to the broker, so the email queue's backoff is
// independent of the notification queue's retry budget. Retried sends can
// reach the recipient twice; that tradeoff is accepted over losing mail.
type EmailHandler struct {
	transport mailer.Transport
	limiter   *ratelimiter.Limiter
	logger    *zap.Logger

	// onSent observes send latency. Optional (nil = no-op).
	onSent func(latency time.Duration)
}

func NewEmailHandler(
	transport mailer.Transport,
	limiter *ratelimiter.Limiter,
	logger *zap.Logger,
	onSent func(time.Duration),
) *EmailHandler {
	if onSent == nil {
		onSent = func(time.Duration) {}
	}
	return &EmailHandler{
		transport: transport,
		limiter:   limiter,
		logger:    logger,
		onSent:    onSent,
	}
}

func (h *EmailHandler) Handle(ctx context.Context, job *queue.Job) error {
	var payload domain.EmailJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode email job: %w", err)
	}

	// Block until the outbound limiter grants a token.
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	msg := mailer.Message{
		To:      payload.To,
		Subject: payload.Subject,
		Text:    payload.Text,
		HTML:    payload.HTML,
	}
	if err := h.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	elapsed := time.Since(start)
	h.onSent(elapsed)
	h.logger.Info("email sent",
		zap.String("job_id", job.ID),
		zap.String("to", payload.To),
		zap.Duration("latency", elapsed),
	)
	return nil
}

var _ Handler = (*EmailHandler)(nil)
