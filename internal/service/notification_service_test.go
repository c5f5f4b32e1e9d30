package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/queue"
	"github.com/forumkit/forumkit/internal/repository"
	"github.com/forumkit/forumkit/internal/service"
)

// mockEnqueuer records enqueued payloads without a broker.
type mockEnqueuer struct {
	mu       sync.Mutex
	payloads map[string][][]byte
	err      error
}

func newMockEnqueuer() *mockEnqueuer {
	return &mockEnqueuer{payloads: make(map[string][][]byte)}
}

func (m *mockEnqueuer) Enqueue(_ context.Context, queueName string, payload any) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads[queueName] = append(m.payloads[queueName], body)
	return "job-1", nil
}

func (m *mockEnqueuer) count(queueName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads[queueName])
}

func newService() (*service.NotificationService, *repository.MockPreferenceRepository, *repository.MockNotificationRepository, *mockEnqueuer) {
	prefs := repository.NewMockPreferenceRepository()
	notifications := repository.NewMockNotificationRepository()
	enq := newMockEnqueuer()
	svc := service.NewNotificationService(prefs, notifications, enq, zap.NewNop())
	return svc, prefs, notifications, enq
}

func TestNotificationService_GetPreferences_LazyDefault(t *testing.T) {
	svc, prefs, _, _ := newService()

	p, err := svc.GetPreferences(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.EmailEnabled || !p.InAppEnabled || !p.SMSEnabled {
		t.Fatal("expected all channels enabled on first access")
	}
	if prefs.CreateCount != 1 {
		t.Fatalf("expected exactly one created row, got %d", prefs.CreateCount)
	}
}

func TestNotificationService_GetPreferences_ConcurrentFirstAccess(t *testing.T) {
	svc, prefs, _, _ := newService()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := svc.GetPreferences(ctx, 7)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if p.UserID != 7 {
				t.Errorf("expected user_id=7, got %d", p.UserID)
			}
		}()
	}
	wg.Wait()

	if prefs.CreateCount != 1 {
		t.Fatalf("expected exactly one row created under concurrency, got %d", prefs.CreateCount)
	}
}

func TestNotificationService_UpdatePreferences_Partial(t *testing.T) {
	svc, _, _, _ := newService()
	ctx := context.Background()

	// First access materialises the default row.
	if _, err := svc.GetPreferences(ctx, 3); err != nil {
		t.Fatal(err)
	}

	f := false
	updated, err := svc.UpdatePreferences(ctx, 3, domain.PreferencePatch{EmailEnabled: &f})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.EmailEnabled {
		t.Fatal("expected email disabled")
	}
	if !updated.InAppEnabled || !updated.SMSEnabled {
		t.Fatal("expected unspecified fields untouched")
	}
}

func TestNotificationService_UpdatePreferences_EmptyPatch(t *testing.T) {
	svc, _, _, _ := newService()
	_, err := svc.UpdatePreferences(context.Background(), 3, domain.PreferencePatch{})
	if err != domain.ErrEmptyPatch {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}
}

func TestNotificationService_UpdatePreferences_NoRow(t *testing.T) {
	svc, _, _, _ := newService()
	f := false
	_, err := svc.UpdatePreferences(context.Background(), 99, domain.PreferencePatch{SMSEnabled: &f})
	if err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNotificationService_ListAndMarkRead(t *testing.T) {
	svc, _, notifications, _ := newService()
	ctx := context.Background()

	older := &domain.Notification{ID: "n1", UserID: 5, Title: "a", Message: "m", Category: domain.CategorySystem, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := &domain.Notification{ID: "n2", UserID: 5, Title: "b", Message: "m", Category: domain.CategorySystem, CreatedAt: time.Now().UTC()}
	_ = notifications.Create(ctx, older)
	_ = notifications.Create(ctx, newer)

	list, err := svc.List(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].ID != "n2" {
		t.Fatal("expected newest first")
	}
	if list[0].IsRead {
		t.Fatal("expected unread on creation")
	}

	read, err := svc.MarkRead(ctx, "n1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if !read.IsRead {
		t.Fatal("expected is_read=true after MarkRead")
	}

	list, _ = svc.List(ctx, 5)
	for _, n := range list {
		if n.ID == "n1" && !n.IsRead {
			t.Fatal("expected MarkRead to persist")
		}
	}
}

func TestNotificationService_MarkRead_WrongOwner(t *testing.T) {
	svc, _, notifications, _ := newService()
	ctx := context.Background()

	n := &domain.Notification{ID: "n1", UserID: 5, Title: "a", Message: "m", CreatedAt: time.Now().UTC()}
	_ = notifications.Create(ctx, n)

	if _, err := svc.MarkRead(ctx, "n1", 6); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign notification, got %v", err)
	}

	list, _ := svc.List(ctx, 5)
	if list[0].IsRead {
		t.Fatal("expected is_read unchanged after failed MarkRead")
	}
}

func TestNotificationService_Notify(t *testing.T) {
	svc, _, _, enq := newService()

	id, err := svc.Notify(context.Background(), 9, "New comment on thread", "bob commented on a thread you follow", domain.CategoryThreadComment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a job id")
	}
	if enq.count(queue.QueueNotifications) != 1 {
		t.Fatalf("expected one queued job, got %d", enq.count(queue.QueueNotifications))
	}

	var job domain.NotificationJob
	if err := json.Unmarshal(enq.payloads[queue.QueueNotifications][0], &job); err != nil {
		t.Fatal(err)
	}
	if job.RecipientID != 9 || job.Category != domain.CategoryThreadComment {
		t.Fatalf("unexpected payload: %+v", job)
	}
}

func TestNotificationService_Notify_Invalid(t *testing.T) {
	svc, _, _, enq := newService()

	if _, err := svc.Notify(context.Background(), 0, "t", "m", domain.CategorySystem); err != domain.ErrInvalidRecipient {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
	if enq.count(queue.QueueNotifications) != 0 {
		t.Fatal("expected nothing enqueued for invalid job")
	}
}

func TestNotificationService_Notify_EnqueueFailure(t *testing.T) {
	svc, _, _, enq := newService()
	enq.err = errors.New("broker down")

	if _, err := svc.Notify(context.Background(), 9, "t", "m", domain.CategorySystem); err == nil {
		t.Fatal("expected enqueue error to surface to the producer caller")
	}
}
