package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/domain"
)

// Options tunes the broker. Zero values fall back to the defaults below,
// which match the source system's queue settings (3 attempts, exponential
// backoff doubling from a 1s base).
type Options struct {
	MaxAttempts  int
	BackoffBase  time.Duration
	PollInterval time.Duration
	BufferSize   int
}

const (
	defaultMaxAttempts  = 3
	defaultBackoffBase  = time.Second
	defaultPollInterval = time.Second
	defaultBufferSize   = 1000
)

// Broker is a durable at-least-once job broker keyed by named queues.
//
// Every job is a Postgres row; a buffered channel per queue carries ids to
// waiting workers so the common path needs no polling. A dispatcher goroutine
// per queue scans for due pending rows on a ticker — that single loop is the
// retry path, the recovery path after a restart, and the fallback when the
// channel was full at enqueue time. Because the same id can therefore appear
// on the channel more than once, claiming is a conditional pending→active
// update and stale hints are skipped.
//
// Jobs claimed by a worker that dies stay active forever; there is no
// visibility timeout. Exhausted retries end terminal-failed and logged.
type Broker struct {
	repo   Repository
	logger *zap.Logger
	opts   Options

	mu     sync.RWMutex
	queues map[string]chan string

	wg sync.WaitGroup
}

func NewBroker(repo Repository, logger *zap.Logger, opts Options) *Broker {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	return &Broker{
		repo:   repo,
		logger: logger,
		opts:   opts,
		queues: make(map[string]chan string),
	}
}

// Register creates the named queue's channel. Must be called for every queue
// before Start; enqueueing to an unregistered queue is an error.
func (b *Broker) Register(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.queues[name]; !ok {
		b.queues[name] = make(chan string, b.opts.BufferSize)
	}
}

func (b *Broker) channel(name string) (chan string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ch, ok := b.queues[name]
	return ch, ok
}

// Enqueue persists a job and returns its id. It never blocks on consumer
// availability: the id is pushed to the queue's channel best-effort, and a
// full channel simply defers delivery to the dispatcher's next scan.
func (b *Broker) Enqueue(ctx context.Context, queueName string, payload any) (string, error) {
	ch, ok := b.channel(queueName)
	if !ok {
		return "", fmt.Errorf("enqueue: unregistered queue %q", queueName)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	now := time.Now().UTC()
	job := &Job{
		ID:            uuid.New().String(),
		Queue:         queueName,
		Payload:       body,
		Status:        StatusPending,
		MaxAttempts:   b.opts.MaxAttempts,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := b.repo.Insert(ctx, job); err != nil {
		return "", fmt.Errorf("persist job: %w", err)
	}

	select {
	case ch <- job.ID:
	default:
		// Channel full: the dispatcher will pick the row up.
	}

	return job.ID, nil
}

// Dequeue blocks until a job is claimed or ctx is cancelled.
// Returns (nil, false) on cancellation (graceful shutdown signal).
func (b *Broker) Dequeue(ctx context.Context, queueName string) (*Job, bool) {
	ch, ok := b.channel(queueName)
	if !ok {
		b.logger.Error("dequeue from unregistered queue", zap.String("queue", queueName))
		return nil, false
	}

	for {
		var id string
		select {
		case id = <-ch:
		case <-ctx.Done():
			return nil, false
		}

		job, err := b.repo.Claim(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			// Stale hint: another worker already claimed this id, or the
			// job was nacked and its retry is not due yet.
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, false
			}
			b.logger.Error("claim failed", zap.String("job_id", id), zap.Error(err))
			continue
		}
		return job, true
	}
}

// Ack marks the job completed. Called only after every enabled side effect
// has been attempted; a crash before Ack means redelivery.
func (b *Broker) Ack(ctx context.Context, job *Job) {
	if err := b.repo.MarkCompleted(ctx, job.ID); err != nil {
		b.logger.Error("failed to ack job",
			zap.String("job_id", job.ID), zap.String("queue", job.Queue), zap.Error(err))
	}
}

// Nack records a processing failure. Retries remaining, the job goes back to
// pending with an exponentially increased delay (base<<attempt, doubling);
// otherwise it is marked terminally failed and only logged — the request that
// produced it completed long ago, so there is no one left to tell.
func (b *Broker) Nack(ctx context.Context, job *Job, procErr error) {
	attempts := job.Attempts + 1

	if attempts >= job.MaxAttempts {
		if err := b.repo.MarkFailed(ctx, job.ID, attempts, procErr.Error()); err != nil {
			b.logger.Error("failed to mark job failed",
				zap.String("job_id", job.ID), zap.Error(err))
			return
		}
		b.logger.Error("job permanently failed",
			zap.String("job_id", job.ID),
			zap.String("queue", job.Queue),
			zap.Int("attempts", attempts),
			zap.Error(procErr),
		)
		return
	}

	delay := b.opts.BackoffBase << (attempts - 1)
	nextAttempt := time.Now().UTC().Add(delay)

	if err := b.repo.ScheduleRetry(ctx, job.ID, attempts, nextAttempt, procErr.Error()); err != nil {
		b.logger.Error("failed to schedule retry",
			zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	b.logger.Warn("job retry scheduled",
		zap.String("job_id", job.ID),
		zap.String("queue", job.Queue),
		zap.Int("attempt", attempts),
		zap.Duration("delay", delay),
		zap.Error(procErr),
	)
}

// Start launches one dispatcher goroutine per registered queue.
// Cancelling ctx stops them; call Wait afterwards.
func (b *Broker) Start(ctx context.Context) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for name := range b.queues {
		b.wg.Add(1)
		go func(queueName string) {
			defer b.wg.Done()
			b.dispatch(ctx, queueName)
		}(name)
	}
}

// Wait blocks until all dispatchers have returned after ctx cancellation.
func (b *Broker) Wait() {
	b.wg.Wait()
}

// dispatch feeds due pending rows into the queue's channel on a ticker.
// The first scan runs immediately so jobs left pending by a previous process
// are recovered at startup without waiting an interval.
func (b *Broker) dispatch(ctx context.Context, queueName string) {
	b.logger.Info("dispatcher started",
		zap.String("queue", queueName), zap.Duration("interval", b.opts.PollInterval))

	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()

	b.feedDue(ctx, queueName)
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("dispatcher stopping", zap.String("queue", queueName))
			return
		case <-ticker.C:
			b.feedDue(ctx, queueName)
		}
	}
}

func (b *Broker) feedDue(ctx context.Context, queueName string) {
	ch, _ := b.channel(queueName)

	jobs, err := b.repo.FindDue(ctx, queueName, b.opts.BufferSize)
	if err != nil {
		if ctx.Err() == nil {
			b.logger.Error("dispatch scan error", zap.String("queue", queueName), zap.Error(err))
		}
		return
	}

	for _, job := range jobs {
		select {
		case ch <- job.ID:
		case <-ctx.Done():
			return
		default:
			return // channel full, next tick continues
		}
	}
}

// Depths returns the backlog per registered queue: pending rows in the store,
// not channel occupancy, so the number survives restarts and full buffers.
func (b *Broker) Depths(ctx context.Context) (map[string]int, error) {
	b.mu.RLock()
	names := make([]string, 0, len(b.queues))
	for name := range b.queues {
		names = append(names, name)
	}
	b.mu.RUnlock()

	depths := make(map[string]int, len(names))
	for _, name := range names {
		n, err := b.repo.CountByStatus(ctx, name, StatusPending)
		if err != nil {
			return nil, fmt.Errorf("count queue %s: %w", name, err)
		}
		depths[name] = n
	}
	return depths, nil
}
