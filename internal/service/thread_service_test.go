package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/repository"
	"github.com/forumkit/forumkit/internal/service"
)

// mockNotifier records Notify calls per recipient.
type mockNotifier struct {
	mu         sync.Mutex
	recipients []int64
	err        error
}

func (m *mockNotifier) Notify(_ context.Context, recipientID int64, _, _ string, _ domain.Category) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipients = append(m.recipients, recipientID)
	return "job-1", nil
}

func newThreadService() (*service.ThreadService, *repository.MockThreadRepository, *mockNotifier) {
	threads := repository.NewMockThreadRepository()
	users := repository.NewMockUserRepository(
		&domain.User{ID: 1, Username: "alice", Email: "alice@example.com"},
		&domain.User{ID: 2, Username: "bob", Email: "bob@example.com"},
		&domain.User{ID: 3, Username: "carol", Email: "carol@example.com"},
	)
	notifier := &mockNotifier{}
	svc := service.NewThreadService(threads, users, notifier, zap.NewNop())
	return svc, threads, notifier
}

var validThread = domain.CreateThreadRequest{Title: "Gophers", Body: "welcome"}

func TestThreadService_CreateThread_SubscribesAuthor(t *testing.T) {
	svc, threads, _ := newThreadService()
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, 1, validThread)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if thread.ID == 0 {
		t.Fatal("expected assigned thread id")
	}

	subs, _ := threads.ListSubscriberIDs(ctx, thread.ID)
	if len(subs) != 1 || subs[0] != 1 {
		t.Fatalf("expected author subscribed, got %v", subs)
	}
}

func TestThreadService_CreateThread_Invalid(t *testing.T) {
	svc, _, _ := newThreadService()
	_, err := svc.CreateThread(context.Background(), 1, domain.CreateThreadRequest{Title: "", Body: "x"})
	if err != domain.ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
}

func TestThreadService_CreateComment_FansOutToSubscribersExceptAuthor(t *testing.T) {
	svc, _, notifier := newThreadService()
	ctx := context.Background()

	thread, _ := svc.CreateThread(ctx, 1, validThread)
	if err := svc.Subscribe(ctx, thread.ID, 2); err != nil {
		t.Fatal(err)
	}
	if err := svc.Subscribe(ctx, thread.ID, 3); err != nil {
		t.Fatal(err)
	}

	// User 2 comments: users 1 and 3 get notified, user 2 does not.
	comment, err := svc.CreateComment(ctx, thread.ID, 2, domain.CreateCommentRequest{Body: "nice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment.ID == 0 {
		t.Fatal("expected assigned comment id")
	}

	got := make(map[int64]bool)
	for _, id := range notifier.recipients {
		got[id] = true
	}
	if len(notifier.recipients) != 2 || !got[1] || !got[3] || got[2] {
		t.Fatalf("expected fan-out to users 1 and 3 only, got %v", notifier.recipients)
	}
}

func TestThreadService_CreateComment_ThreadNotFound(t *testing.T) {
	svc, _, notifier := newThreadService()
	_, err := svc.CreateComment(context.Background(), 404, 1, domain.CreateCommentRequest{Body: "hi"})
	if err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(notifier.recipients) != 0 {
		t.Fatal("expected no fan-out for missing thread")
	}
}

// ctxNotifier refuses to enqueue on a cancelled context, mirroring how a
// store-backed enqueue would fail once the request context is gone.
type ctxNotifier struct {
	mockNotifier
}

func (m *ctxNotifier) Notify(ctx context.Context, recipientID int64, title, message string, category domain.Category) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.mockNotifier.Notify(ctx, recipientID, title, message, category)
}

func TestThreadService_CreateComment_FanOutSurvivesRequestCancellation(t *testing.T) {
	threads := repository.NewMockThreadRepository()
	users := repository.NewMockUserRepository(
		&domain.User{ID: 1, Username: "alice", Email: "alice@example.com"},
	)
	notifier := &ctxNotifier{}
	svc := service.NewThreadService(threads, users, notifier, zap.NewNop())

	thread, err := svc.CreateThread(context.Background(), 1, validThread)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Subscribe(context.Background(), thread.ID, 2); err != nil {
		t.Fatal(err)
	}

	// The client disconnects the moment the comment write commits: the
	// fan-out still runs to completion on a detached context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	comment, err := svc.CreateComment(ctx, thread.ID, 1, domain.CreateCommentRequest{Body: "late"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment == nil {
		t.Fatal("expected created comment")
	}
	if len(notifier.recipients) != 1 || notifier.recipients[0] != 2 {
		t.Fatalf("expected subscriber 2 notified despite cancelled request, got %v", notifier.recipients)
	}
}

func TestThreadService_CreateComment_EnqueueFailureDoesNotFailWrite(t *testing.T) {
	svc, _, notifier := newThreadService()
	ctx := context.Background()

	thread, _ := svc.CreateThread(ctx, 1, validThread)
	_ = svc.Subscribe(ctx, thread.ID, 2)
	notifier.err = errors.New("broker unavailable")

	// The comment write already succeeded; queue health must not undo it.
	comment, err := svc.CreateComment(ctx, thread.ID, 1, domain.CreateCommentRequest{Body: "still works"})
	if err != nil {
		t.Fatalf("expected comment to be created despite enqueue failure, got %v", err)
	}
	if comment == nil || comment.Body != "still works" {
		t.Fatal("expected created comment returned")
	}
}

func TestThreadService_Subscribe_Duplicate(t *testing.T) {
	svc, _, _ := newThreadService()
	ctx := context.Background()

	thread, _ := svc.CreateThread(ctx, 1, validThread)
	if err := svc.Subscribe(ctx, thread.ID, 2); err != nil {
		t.Fatal(err)
	}
	if err := svc.Subscribe(ctx, thread.ID, 2); err != domain.ErrAlreadySubscribed {
		t.Fatalf("expected ErrAlreadySubscribed, got %v", err)
	}
}

func TestThreadService_Subscribe_MissingThread(t *testing.T) {
	svc, _, _ := newThreadService()
	if err := svc.Subscribe(context.Background(), 404, 2); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
