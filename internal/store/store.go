package store

import (
	"context"
	"errors"

	"mistakebook/internal/model"
)

var (
	ErrMistakeNotFound  = errors.New("mistake not found")
	ErrNotAuthenticated = errors.New("cloud mode requires a signed-in user")
)

// Store is the uniform CRUD surface over the two interchangeable backends:
// the local JSON-file collections and the hosted relational table plus object
// storage. Active records come back newest-created-first, trashed records
// newest-deleted-first; no secondary ordering is guaranteed.
//
// No operation retries. Cloud failures propagate to the caller, which decides
// how to surface them.
type Store interface {
	LoadActive(ctx context.Context) ([]*model.Mistake, error)
	LoadTrashed(ctx context.Context) ([]*model.Mistake, error)

	// Add persists a new record and returns the stored value, which may
	// differ from the input (e.g. a hosted image URL replacing inline data).
	Add(ctx context.Context, m *model.Mistake) (*model.Mistake, error)

	// Update persists changes to an existing record by id.
	Update(ctx context.Context, m *model.Mistake) (*model.Mistake, error)

	// MoveToTrash soft-deletes a record: it stays recoverable until purged.
	MoveToTrash(ctx context.Context, id string) error

	// Restore clears the trash timestamp and returns the record to the
	// main collection.
	Restore(ctx context.Context, id string) error

	// Purge permanently deletes a trashed record. Purging an unknown id is
	// a no-op, so calling it twice is safe.
	Purge(ctx context.Context, id string) error

	// EmptyTrash permanently deletes every trashed record.
	EmptyTrash(ctx context.Context) error
}

// SettingsSync mirrors the per-user settings blob to the cloud so settings
// follow a signed-in user across devices. Local mode has nothing to sync.
type SettingsSync interface {
	// LoadSettings returns the user's cloud settings blob, or nil if the
	// user has never synced.
	LoadSettings(ctx context.Context, userID string) (*model.AppSettings, error)

	SaveSettings(ctx context.Context, userID string, s model.AppSettings) error
}
