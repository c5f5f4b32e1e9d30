package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forumkit/forumkit/internal/domain"
)

type pgThreadRepository struct {
	pool *pgxpool.Pool
}

// NewPgThreadRepository returns a ThreadRepository backed by PostgreSQL.
func NewPgThreadRepository(pool *pgxpool.Pool) ThreadRepository {
	return &pgThreadRepository{pool: pool}
}

func (r *pgThreadRepository) CreateThread(ctx context.Context, t *domain.Thread) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO threads (author_id, title, body, created_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id`,
		t.AuthorID, t.Title, t.Body, t.CreatedAt)
	if err := row.Scan(&t.ID); err != nil {
		return fmt.Errorf("insert thread: %w", err)
	}
	return nil
}

func (r *pgThreadRepository) GetThread(ctx context.Context, id int64) (*domain.Thread, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, author_id, title, body, created_at
		FROM threads WHERE id = $1`, id)

	var t domain.Thread
	err := row.Scan(&t.ID, &t.AuthorID, &t.Title, &t.Body, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	return &t, nil
}

func (r *pgThreadRepository) CreateComment(ctx context.Context, c *domain.Comment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO comments (thread_id, author_id, body, created_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id`,
		c.ThreadID, c.AuthorID, c.Body, c.CreatedAt)
	if err := row.Scan(&c.ID); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *pgThreadRepository) Subscribe(ctx context.Context, threadID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO thread_subscribers (thread_id, user_id)
		VALUES ($1,$2)
		ON CONFLICT (thread_id, user_id) DO NOTHING`, threadID, userID)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadySubscribed
	}
	return nil
}

func (r *pgThreadRepository) Unsubscribe(ctx context.Context, threadID, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM thread_subscribers WHERE thread_id = $1 AND user_id = $2`,
		threadID, userID)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (r *pgThreadRepository) ListSubscriberIDs(ctx context.Context, threadID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM thread_subscribers WHERE thread_id = $1`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
