package repository

import (
	"context"
	"sync"

	"github.com/forumkit/forumkit/internal/domain"
)

// MockUserRepository is an in-memory UserRepository for tests.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*domain.User

	GetErr error
}

func NewMockUserRepository(users ...*domain.User) *MockUserRepository {
	m := &MockUserRepository{users: make(map[int64]*domain.User)}
	for _, u := range users {
		clone := *u
		m.users[u.ID] = &clone
	}
	return m
}

func (m *MockUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}
