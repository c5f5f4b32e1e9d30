package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/forumkit/forumkit/internal/domain"
)

// MockNotificationRepository is an in-memory NotificationRepository for tests.
type MockNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]*domain.Notification

	// Optional error overrides.
	CreateErr error
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{notifications: make(map[string]*domain.Notification)}
}

func (m *MockNotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *n
	m.notifications[n.ID] = &clone
	return nil
}

func (m *MockNotificationRepository) ListByUser(_ context.Context, userID int64) ([]*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			clone := *n
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, k int) bool { return result[i].CreatedAt.After(result[k].CreatedAt) })
	return result, nil
}

func (m *MockNotificationRepository) MarkRead(_ context.Context, id string, userID int64) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return nil, domain.ErrNotFound
	}
	n.IsRead = true
	clone := *n
	return &clone, nil
}

// CountByUser reports stored rows for a user. Test helper.
func (m *MockNotificationRepository) CountByUser(userID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, notif := range m.notifications {
		if notif.UserID == userID {
			n++
		}
	}
	return n
}
