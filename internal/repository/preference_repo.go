package repository

import (
	"context"

	"github.com/forumkit/forumkit/internal/domain"
)

// PreferenceRepository persists per-user channel preferences.
// The pgx implementation is in pg_preference_repo.go.
// Tests use a hand-written mock (mock_preference_repo.go).
type PreferenceRepository interface {
	// Get returns the user's preferences, lazily creating the default row
	// (all channels enabled) on first access. The create path is race-safe:
	// two concurrent first reads converge on a single row.
	Get(ctx context.Context, userID int64) (*domain.NotificationPreference, error)
	// Update applies only the non-nil fields of the patch and returns the
	// updated record, or domain.ErrNotFound if no row exists.
	Update(ctx context.Context, userID int64, patch domain.PreferencePatch) (*domain.NotificationPreference, error)
}
