package repository

import (
	"context"
	"sync"
	"time"

	"github.com/forumkit/forumkit/internal/domain"
)

// MockPreferenceRepository mirrors the pg implementation's lazy-create
// semantics in memory: the mutex plays the role of the unique constraint,
// so concurrent first reads still converge on one row.
type MockPreferenceRepository struct {
	mu    sync.Mutex
	prefs map[int64]*domain.NotificationPreference

	// Optional error overrides.
	GetErr    error
	UpdateErr error

	// CreateCount counts default-row creations; concurrency tests assert
	// it stays at one per user.
	CreateCount int
}

func NewMockPreferenceRepository() *MockPreferenceRepository {
	return &MockPreferenceRepository{prefs: make(map[int64]*domain.NotificationPreference)}
}

func (m *MockPreferenceRepository) Get(_ context.Context, userID int64) (*domain.NotificationPreference, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prefs[userID]
	if !ok {
		p = domain.DefaultPreference(userID)
		m.prefs[userID] = p
		m.CreateCount++
	}
	clone := *p
	return &clone, nil
}

func (m *MockPreferenceRepository) Update(_ context.Context, userID int64, patch domain.PreferencePatch) (*domain.NotificationPreference, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prefs[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.EmailEnabled != nil {
		p.EmailEnabled = *patch.EmailEnabled
	}
	if patch.InAppEnabled != nil {
		p.InAppEnabled = *patch.InAppEnabled
	}
	if patch.SMSEnabled != nil {
		p.SMSEnabled = *patch.SMSEnabled
	}
	p.UpdatedAt = time.Now().UTC()
	clone := *p
	return &clone, nil
}

// Set seeds a preference row. Test helper.
func (m *MockPreferenceRepository) Set(p *domain.NotificationPreference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	m.prefs[p.UserID] = &clone
}
