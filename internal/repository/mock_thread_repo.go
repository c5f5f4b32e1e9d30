package repository

import (
	"context"
	"sync"

	"github.com/forumkit/forumkit/internal/domain"
)

// MockThreadRepository is an in-memory ThreadRepository for tests.
type MockThreadRepository struct {
	mu          sync.RWMutex
	threads     map[int64]*domain.Thread
	comments    []*domain.Comment
	subscribers map[int64]map[int64]bool
	nextID      int64

	CreateCommentErr error
}

func NewMockThreadRepository() *MockThreadRepository {
	return &MockThreadRepository{
		threads:     make(map[int64]*domain.Thread),
		subscribers: make(map[int64]map[int64]bool),
	}
}

func (m *MockThreadRepository) CreateThread(_ context.Context, t *domain.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	clone := *t
	m.threads[t.ID] = &clone
	return nil
}

func (m *MockThreadRepository) GetThread(_ context.Context, id int64) (*domain.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.threads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (m *MockThreadRepository) CreateComment(_ context.Context, c *domain.Comment) error {
	if m.CreateCommentErr != nil {
		return m.CreateCommentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	clone := *c
	m.comments = append(m.comments, &clone)
	return nil
}

func (m *MockThreadRepository) Subscribe(_ context.Context, threadID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribers[threadID] == nil {
		m.subscribers[threadID] = make(map[int64]bool)
	}
	if m.subscribers[threadID][userID] {
		return domain.ErrAlreadySubscribed
	}
	m.subscribers[threadID][userID] = true
	return nil
}

func (m *MockThreadRepository) Unsubscribe(_ context.Context, threadID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers[threadID], userID)
	return nil
}

func (m *MockThreadRepository) ListSubscriberIDs(_ context.Context, threadID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int64
	for id := range m.subscribers[threadID] {
		ids = append(ids, id)
	}
	return ids, nil
}
