package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forumkit/forumkit/internal/domain"
)

type pgPreferenceRepository struct {
	pool *pgxpool.Pool
}

// NewPgPreferenceRepository returns a PreferenceRepository backed by PostgreSQL.
func NewPgPreferenceRepository(pool *pgxpool.Pool) PreferenceRepository {
	return &pgPreferenceRepository{pool: pool}
}

// Get lazily creates the default row via INSERT .. ON CONFLICT DO NOTHING
// followed by a SELECT. The unique constraint on user_id arbitrates
// concurrent first reads: exactly one insert wins, every caller then reads
// the same row.
func (r *pgPreferenceRepository) Get(ctx context.Context, userID int64) (*domain.NotificationPreference, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_preferences (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, fmt.Errorf("ensure preference row: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		SELECT user_id, email_enabled, in_app_enabled, sms_enabled, updated_at
		FROM notification_preferences WHERE user_id = $1`, userID)

	p, err := scanPreference(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Only reachable if the row was deleted between the two statements
		// (cascading user deletion).
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *pgPreferenceRepository) Update(ctx context.Context, userID int64, patch domain.PreferencePatch) (*domain.NotificationPreference, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}

	add := func(column string, val bool) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.EmailEnabled != nil {
		add("email_enabled", *patch.EmailEnabled)
	}
	if patch.InAppEnabled != nil {
		add("in_app_enabled", *patch.InAppEnabled)
	}
	if patch.SMSEnabled != nil {
		add("sms_enabled", *patch.SMSEnabled)
	}

	args = append(args, userID)
	query := fmt.Sprintf(`
		UPDATE notification_preferences
		SET %s
		WHERE user_id = $%d
		RETURNING user_id, email_enabled, in_app_enabled, sms_enabled, updated_at`,
		strings.Join(sets, ", "), len(args))

	p, err := scanPreference(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return p, nil
}

func scanPreference(row pgx.Row) (*domain.NotificationPreference, error) {
	var p domain.NotificationPreference
	err := row.Scan(&p.UserID, &p.EmailEnabled, &p.InAppEnabled, &p.SMSEnabled, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
