package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/queue"
)

// MockJobRepository is a hand-written, in-memory queue.Repository used in
// unit tests. No mock-generation library needed.
type MockJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*queue.Job

	// Optional error overrides — set in tests to simulate failure paths.
	InsertErr error
	ClaimErr  error
}

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{jobs: make(map[string]*queue.Job)}
}

func (m *MockJobRepository) Insert(_ context.Context, j *queue.Job) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *j
	m.jobs[j.ID] = &clone
	return nil
}

func (m *MockJobRepository) Claim(_ context.Context, id string) (*queue.Job, error) {
	if m.ClaimErr != nil {
		return nil, m.ClaimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.Status != queue.StatusPending || j.NextAttemptAt.After(time.Now().UTC()) {
		return nil, domain.ErrNotFound
	}
	j.Status = queue.StatusActive
	j.UpdatedAt = time.Now().UTC()
	clone := *j
	return &clone, nil
}

func (m *MockJobRepository) FindDue(_ context.Context, queueName string, limit int) ([]*queue.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now().UTC()
	var due []*queue.Job
	for _, j := range m.jobs {
		if j.Queue == queueName && j.Status == queue.StatusPending && !j.NextAttemptAt.After(now) {
			clone := *j
			due = append(due, &clone)
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].NextAttemptAt.Before(due[k].NextAttemptAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MockJobRepository) MarkCompleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = queue.StatusCompleted
	}
	return nil
}

func (m *MockJobRepository) ScheduleRetry(_ context.Context, id string, attempts int, nextAttempt time.Time, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = queue.StatusPending
		j.Attempts = attempts
		j.NextAttemptAt = nextAttempt
		j.LastError = &errMsg
	}
	return nil
}

func (m *MockJobRepository) MarkFailed(_ context.Context, id string, attempts int, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = queue.StatusFailed
		j.Attempts = attempts
		j.LastError = &errMsg
	}
	return nil
}

func (m *MockJobRepository) CountByStatus(_ context.Context, queueName string, status queue.Status) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, j := range m.jobs {
		if j.Queue == queueName && j.Status == status {
			n++
		}
	}
	return n, nil
}

// Get returns a snapshot of a stored job. Test helper.
func (m *MockJobRepository) Get(id string) (*queue.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	clone := *j
	return &clone, true
}
