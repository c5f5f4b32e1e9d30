package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forumkit/forumkit/internal/domain"
	"github.com/forumkit/forumkit/internal/queue"
)

type pgJobRepository struct {
	pool *pgxpool.Pool
}

// NewPgJobRepository returns a queue.Repository backed by PostgreSQL.
func NewPgJobRepository(pool *pgxpool.Pool) queue.Repository {
	return &pgJobRepository{pool: pool}
}

func (r *pgJobRepository) Insert(ctx context.Context, j *queue.Job) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO jobs
			(id, queue, payload, status, attempts, max_attempts, next_attempt_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		j.ID, j.Queue, j.Payload, j.Status, j.Attempts, j.MaxAttempts,
		j.NextAttemptAt, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Claim is the single arbiter of "exactly one in-flight claim per job":
// the status predicate makes concurrent claims of the same id race on the
// row update, and every loser sees zero rows. The due-time predicate keeps a
// hint that predates a retry from claiming the job before its backoff delay
// has elapsed.
func (r *pgJobRepository) Claim(ctx context.Context, id string) (*queue.Job, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE jobs
		SET status = 'active', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND next_attempt_at <= NOW()
		RETURNING id, queue, payload, status, attempts, max_attempts,
		          next_attempt_at, last_error, created_at, updated_at`, id)

	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return j, err
}

func (r *pgJobRepository) FindDue(ctx context.Context, queueName string, limit int) ([]*queue.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, queue, payload, status, attempts, max_attempts,
		       next_attempt_at, last_error, created_at, updated_at
		FROM jobs
		WHERE queue = $1
		  AND status = 'pending'
		  AND next_attempt_at <= NOW()
		ORDER BY next_attempt_at
		LIMIT $2`, queueName, limit)
	if err != nil {
		return nil, fmt.Errorf("find due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*queue.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *pgJobRepository) MarkCompleted(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'completed', updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

func (r *pgJobRepository) ScheduleRetry(ctx context.Context, id string, attempts int, nextAttempt time.Time, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'pending', attempts = $1, next_attempt_at = $2,
		    last_error = $3, updated_at = NOW()
		WHERE id = $4`, attempts, nextAttempt, errMsg, id)
	return err
}

func (r *pgJobRepository) MarkFailed(ctx context.Context, id string, attempts int, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'failed', attempts = $1, last_error = $2, updated_at = NOW()
		WHERE id = $3`, attempts, errMsg, id)
	return err
}

func (r *pgJobRepository) CountByStatus(ctx context.Context, queueName string, status queue.Status) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM jobs WHERE queue = $1 AND status = $2`,
		queueName, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

// scanJob reads a single job row from any pgx row type.
func scanJob(row pgx.Row) (*queue.Job, error) {
	var j queue.Job
	err := row.Scan(
		&j.ID, &j.Queue, &j.Payload, &j.Status, &j.Attempts, &j.MaxAttempts,
		&j.NextAttemptAt, &j.LastError, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
