package store

import (
	"context"

	"mistakebook/internal/model"
	"mistakebook/internal/settings"
)

// Mirror routes every operation to the local or cloud backend. The active
// mode is read fresh from the resolved settings on every call, never cached,
// so a mode switch takes effect on the next operation.
type Mirror struct {
	settings *settings.Store
	local    Store
	cloud    Store
	sync     SettingsSync
}

// NewMirror builds the mirror. cloud and sync may be nil when no cloud
// backend is wired; cloud-mode calls then report ErrNotAuthenticated through
// the usual path only after the settings say cloud and nothing is there,
// which is a configuration error surfaced by the caller.
func NewMirror(sst *settings.Store, local Store, cloud Store, sync SettingsSync) *Mirror {
	return &Mirror{settings: sst, local: local, cloud: cloud, sync: sync}
}

func (m *Mirror) backend() Store {
	if m.settings.Resolve().UseCloud && m.cloud != nil {
		return m.cloud
	}
	return m.local
}

func (m *Mirror) LoadActive(ctx context.Context) ([]*model.Mistake, error) {
	return m.backend().LoadActive(ctx)
}

func (m *Mirror) LoadTrashed(ctx context.Context) ([]*model.Mistake, error) {
	return m.backend().LoadTrashed(ctx)
}

func (m *Mirror) Add(ctx context.Context, mistake *model.Mistake) (*model.Mistake, error) {
	return m.backend().Add(ctx, mistake)
}

func (m *Mirror) Update(ctx context.Context, mistake *model.Mistake) (*model.Mistake, error) {
	return m.backend().Update(ctx, mistake)
}

func (m *Mirror) MoveToTrash(ctx context.Context, id string) error {
	return m.backend().MoveToTrash(ctx, id)
}

func (m *Mirror) Restore(ctx context.Context, id string) error {
	return m.backend().Restore(ctx, id)
}

func (m *Mirror) Purge(ctx context.Context, id string) error {
	return m.backend().Purge(ctx, id)
}

func (m *Mirror) EmptyTrash(ctx context.Context) error {
	return m.backend().EmptyTrash(ctx)
}

// LoadSettings pulls the user's settings blob from the cloud. Local mode, or
// a missing cloud backend, yields nil without error.
func (m *Mirror) LoadSettings(ctx context.Context, userID string) (*model.AppSettings, error) {
	if !m.settings.Resolve().UseCloud || m.sync == nil {
		return nil, nil
	}
	return m.sync.LoadSettings(ctx, userID)
}

// SaveSettings mirrors the settings blob to the cloud. A no-op in local mode.
func (m *Mirror) SaveSettings(ctx context.Context, userID string, s model.AppSettings) error {
	if !m.settings.Resolve().UseCloud || m.sync == nil {
		return nil
	}
	return m.sync.SaveSettings(ctx, userID, s)
}
