package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/mailer"
	"github.com/forumkit/forumkit/internal/queue"
	"github.com/forumkit/forumkit/internal/ratelimiter"
	"github.com/forumkit/forumkit/internal/worker"
)

// fakeTransport records sends and can be programmed to fail the first
// N attempts.
type fakeTransport struct {
	mu       sync.Mutex
	sent     []mailer.Message
	failures int
}

func (f *fakeTransport) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("smtp: connection refused")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) first() mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[0]
}

func emailJob(t *testing.T) *queue.Job {
	t.Helper()
	payload, err := json.Marshal(domain.EmailJob{
		To:      "alice@example.com",
		Subject: "New comment on thread",
		Text:    "bob commented on a thread you follow",
	})
	if err != nil {
		t.Fatal(err)
	}
	return &queue.Job{
		ID:          "email-1",
		Queue:       queue.QueueEmails,
		Payload:     payload,
		Status:      queue.StatusActive,
		MaxAttempts: 3,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestEmailHandler_SendsMessage(t *testing.T) {
	transport := &fakeTransport{}
	var latencyObserved bool

	h := worker.NewEmailHandler(transport, ratelimiter.New(100), zap.NewNop(), func(time.Duration) {
		latencyObserved = true
	})

	if err := h.Handle(context.Background(), emailJob(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transport.sentCount() != 1 {
		t.Fatalf("expected 1 send, got %d", transport.sentCount())
	}
	if got := transport.sent[0]; got.To != "alice@example.com" || got.Subject != "New comment on thread" {
		t.Fatalf("unexpected message %+v", got)
	}
	if !latencyObserved {
		t.Fatal("expected latency callback to fire")
	}
}

func TestEmailHandler_TransportFailurePropagates(t *testing.T) {
	transport := &fakeTransport{failures: 1}
	h := worker.NewEmailHandler(transport, ratelimiter.New(100), zap.NewNop(), nil)

	if err := h.Handle(context.Background(), emailJob(t)); err == nil {
		t.Fatal("expected transport error so the broker schedules a retry")
	}
	if transport.sentCount() != 0 {
		t.Fatal("expected no delivery on transport failure")
	}

	// The handler is stateless: the retried attempt succeeds.
	if err := h.Handle(context.Background(), emailJob(t)); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if transport.sentCount() != 1 {
		t.Fatalf("expected exactly 1 delivery after retry, got %d", transport.sentCount())
	}
}

func TestEmailHandler_MalformedPayload(t *testing.T) {
	h := worker.NewEmailHandler(&fakeTransport{}, ratelimiter.New(100), zap.NewNop(), nil)
	job := emailJob(t)
	job.Payload = []byte("not json")

	if err := h.Handle(context.Background(), job); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEmailHandler_LimiterCancellation(t *testing.T) {
	// A 1/sec limiter: the first send consumes the token, the second blocks
	// until the context is cancelled.
	transport := &fakeTransport{}
	limiter := ratelimiter.New(1)
	h := worker.NewEmailHandler(transport, limiter, zap.NewNop(), nil)

	if err := h.Handle(context.Background(), emailJob(t)); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := h.Handle(ctx, emailJob(t)); err == nil {
		t.Fatal("expected cancellation while waiting on limiter")
	}
	if transport.sentCount() != 1 {
		t.Fatalf("expected no send after cancelled wait, got %d", transport.sentCount())
	}
}
