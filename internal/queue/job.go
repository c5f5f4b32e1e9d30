package queue

import (
	"context"
	"time"
)

// Named queues. Each gets its own dispatcher and worker pool so that email
// transport failures never block in-app delivery or vice versa.
const (
	QueueNotifications = "notifications"
	QueueEmails        = "emails"
)

// Status tracks the lifecycle of a job row.
type Status string

const (
	StatusPending   Status = "pending"   // waiting to be claimed (includes scheduled retries)
	StatusActive    Status = "active"    // claimed by a worker
	StatusCompleted Status = "completed" // acknowledged
	StatusFailed    Status = "failed"    // retries exhausted, terminal
)

// Job is a durable unit of deferred work. The row is the source of truth;
// the broker's in-memory channels only carry ids as delivery hints.
type Job struct {
	ID            string
	Queue         string
	Payload       []byte
	Status        Status
	Attempts      int
	MaxAttempts   int
	NextAttemptAt time.Time
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository encapsulates job persistence. The broker depends only on this
// interface; the pgx implementation lives in internal/repository and tests use
// a hand-written mock.
type Repository interface {
	// Insert persists a new pending job.
	Insert(ctx context.Context, job *Job) error
	// Claim flips a pending, due job to active and returns it. A job that is
	// no longer pending (already claimed, completed, or failed) or whose
	// next attempt time has not arrived yields domain.ErrNotFound so
	// duplicate channel hints are skipped harmlessly — a hint queued before
	// a retry was scheduled must not claim the job ahead of its backoff.
	Claim(ctx context.Context, id string) (*Job, error)
	// FindDue returns pending jobs in the named queue whose next attempt time
	// has passed, oldest due first.
	FindDue(ctx context.Context, queue string, limit int) ([]*Job, error)
	MarkCompleted(ctx context.Context, id string) error
	// ScheduleRetry returns the job to pending with a new attempt count and
	// next attempt time.
	ScheduleRetry(ctx context.Context, id string, attempts int, nextAttempt time.Time, errMsg string) error
	// MarkFailed records a terminal failure after retries are exhausted.
	MarkFailed(ctx context.Context, id string, attempts int, errMsg string) error
	// CountByStatus reports how many jobs in the named queue are in the given
	// status. Used for depth gauges and the queue snapshot endpoint.
	CountByStatus(ctx context.Context, queue string, status Status) (int, error)
}
