package notebook

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mistakebook/internal/model"
	"mistakebook/internal/store"
)

var ErrRecordNotFound = errors.New("record not found in memory")

// Record is a mistake plus its sync status relative to the durable store.
type Record struct {
	*model.Mistake
	SyncStatus string `json:"syncStatus"`
}

// Controller owns the in-memory lists the user sees and keeps them consistent
// with user intent while durable writes are in flight. Every mutation applies
// to memory synchronously, then runs the store write in the background and
// records the outcome per record: confirmed, pending, or failed. A failed
// background write never rolls the in-memory state back; the record stays
// visible for the session and a full Reload is the recovery path.
//
// The mutex is the single logical writer: store goroutines and request
// handlers serialize through it.
type Controller struct {
	mu     sync.Mutex
	store  store.Store
	active []*model.Mistake
	trash  []*model.Mistake
	status map[string]string
	loaded bool
	clock  func() int64
}

func NewController(s store.Store) *Controller {
	return &Controller{
		store:  s,
		status: map[string]string{},
		clock:  func() int64 { return time.Now().UnixMilli() },
	}
}

// Reload replaces the in-memory lists with the store's view and marks every
// record confirmed. This is the only path that reconciles a failed write.
func (c *Controller) Reload(ctx context.Context) error {
	active, err := c.store.LoadActive(ctx)
	if err != nil {
		return err
	}
	trash, err := c.store.LoadTrashed(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
	c.trash = trash
	c.status = map[string]string{}
	for _, m := range active {
		c.status[m.ID] = model.SyncConfirmed
	}
	for _, m := range trash {
		c.status[m.ID] = model.SyncConfirmed
	}
	c.loaded = true
	return nil
}

// EnsureLoaded runs the initial load once; later calls are free.
func (c *Controller) EnsureLoaded(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}

// ByID finds a record in either in-memory list.
func (c *Controller) ByID(id string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := findInList(c.active, id)
	if m == nil {
		m = findInList(c.trash, id)
	}
	if m == nil {
		return Record{}, false
	}
	return Record{Mistake: m.Clone(), SyncStatus: c.statusOf(id)}, true
}

// Active returns a snapshot of the main collection, newest first.
func (c *Controller) Active() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(c.active)
}

// Trashed returns a snapshot of the trash, newest-deleted first.
func (c *Controller) Trashed() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(c.trash)
}

func (c *Controller) snapshot(list []*model.Mistake) []Record {
	out := make([]Record, 0, len(list))
	for _, m := range list {
		out = append(out, Record{Mistake: m.Clone(), SyncStatus: c.statusOf(m.ID)})
	}
	return out
}

func (c *Controller) statusOf(id string) string {
	if s, ok := c.status[id]; ok {
		return s
	}
	return model.SyncConfirmed
}

// SyncStates reports the per-record sync status for every record that is not
// confirmed, so callers can render targeted indicators instead of one global
// banner.
func (c *Controller) SyncStates() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]string{}
	for id, s := range c.status {
		if s != model.SyncConfirmed {
			out[id] = s
		}
	}
	return out
}

// Create assigns a client-side id, splices the record at the head of the
// in-memory list synchronously, and starts the durable write. On success the
// temporary record is replaced with whatever the store returned (which may
// carry a hosted image URL instead of inline data).
func (c *Controller) Create(ctx context.Context, m *model.Mistake) (*model.Mistake, *SyncTask) {
	stored := m.Clone()
	stored.ID = uuid.New().String()
	stored.CreatedAt = c.clock()
	stored.DeletedAt = nil
	stored.Tags = dedupeTags(stored.Tags)

	c.mu.Lock()
	c.active = append([]*model.Mistake{stored}, c.active...)
	c.status[stored.ID] = model.SyncPending
	c.mu.Unlock()

	task := newSyncTask()
	go func() {
		confirmed, err := c.store.Add(detach(ctx), stored)

		c.mu.Lock()
		if err != nil {
			c.status[stored.ID] = model.SyncFailed
			slog.Error("background create failed", "error", err, "id", stored.ID)
		} else {
			c.replaceInList(c.active, stored.ID, confirmed)
			c.status[stored.ID] = model.SyncConfirmed
		}
		c.mu.Unlock()
		task.finish(err)
	}()

	return stored.Clone(), task
}

// Edit replaces the in-memory record synchronously, then writes it through.
func (c *Controller) Edit(ctx context.Context, m *model.Mistake) (*model.Mistake, *SyncTask, error) {
	updated := m.Clone()
	updated.Tags = dedupeTags(updated.Tags)

	c.mu.Lock()
	current := findInList(c.active, updated.ID)
	if current == nil {
		c.mu.Unlock()
		return nil, nil, ErrRecordNotFound
	}
	// Creation time is immutable; carry it over regardless of input.
	updated.CreatedAt = current.CreatedAt
	updated.UserID = current.UserID
	c.replaceInList(c.active, updated.ID, updated)
	c.status[updated.ID] = model.SyncPending
	c.mu.Unlock()

	task := newSyncTask()
	go func() {
		confirmed, err := c.store.Update(detach(ctx), updated)

		c.mu.Lock()
		if err != nil {
			c.status[updated.ID] = model.SyncFailed
			slog.Error("background update failed", "error", err, "id", updated.ID)
		} else {
			c.replaceInList(c.active, updated.ID, confirmed)
			c.status[updated.ID] = model.SyncConfirmed
		}
		c.mu.Unlock()
		task.finish(err)
	}()

	return updated.Clone(), task, nil
}

// AddTag appends a tag to a record. Adding a tag that is already present is a
// no-op that still reports success.
func (c *Controller) AddTag(ctx context.Context, id, tag string) (*model.Mistake, *SyncTask, error) {
	c.mu.Lock()
	current := findInList(c.active, id)
	if current == nil {
		c.mu.Unlock()
		return nil, nil, ErrRecordNotFound
	}
	if current.Tags.Contains(tag) {
		snapshot := current.Clone()
		c.mu.Unlock()
		done := newSyncTask()
		done.finish(nil)
		return snapshot, done, nil
	}
	updated := current.Clone()
	updated.Tags = append(updated.Tags, tag)
	c.mu.Unlock()

	return c.Edit(ctx, updated)
}

// Trash moves a record to the trash in memory, then writes through.
func (c *Controller) Trash(ctx context.Context, id string) (*SyncTask, error) {
	c.mu.Lock()
	moved, rest := removeFromList(c.active, id)
	if moved == nil {
		c.mu.Unlock()
		return nil, ErrRecordNotFound
	}
	deletedAt := c.clock()
	moved.DeletedAt = &deletedAt
	c.active = rest
	c.trash = append([]*model.Mistake{moved}, c.trash...)
	c.status[id] = model.SyncPending
	c.mu.Unlock()

	return c.background(ctx, id, func(ctx context.Context) error {
		return c.store.MoveToTrash(ctx, id)
	}), nil
}

// Restore returns a trashed record to the head of the main collection.
func (c *Controller) Restore(ctx context.Context, id string) (*SyncTask, error) {
	c.mu.Lock()
	restored, rest := removeFromList(c.trash, id)
	if restored == nil {
		c.mu.Unlock()
		return nil, ErrRecordNotFound
	}
	restored.DeletedAt = nil
	c.trash = rest
	c.active = append([]*model.Mistake{restored}, c.active...)
	c.status[id] = model.SyncPending
	c.mu.Unlock()

	return c.background(ctx, id, func(ctx context.Context) error {
		return c.store.Restore(ctx, id)
	}), nil
}

// Purge permanently removes a trashed record. Purging an id that is not in
// the trash is a no-op.
func (c *Controller) Purge(ctx context.Context, id string) *SyncTask {
	c.mu.Lock()
	purged, rest := removeFromList(c.trash, id)
	if purged != nil {
		c.trash = rest
	}
	delete(c.status, id)
	c.mu.Unlock()

	return c.background(ctx, id, func(ctx context.Context) error {
		return c.store.Purge(ctx, id)
	})
}

// EmptyTrash permanently removes every trashed record.
func (c *Controller) EmptyTrash(ctx context.Context) *SyncTask {
	c.mu.Lock()
	for _, m := range c.trash {
		delete(c.status, m.ID)
	}
	c.trash = []*model.Mistake{}
	c.mu.Unlock()

	return c.background(ctx, "", func(ctx context.Context) error {
		return c.store.EmptyTrash(ctx)
	})
}

func (c *Controller) background(ctx context.Context, id string, op func(context.Context) error) *SyncTask {
	task := newSyncTask()
	go func() {
		err := op(detach(ctx))

		c.mu.Lock()
		if err != nil {
			if id != "" {
				c.status[id] = model.SyncFailed
			}
			slog.Error("background write failed", "error", err, "id", id)
		} else if id != "" {
			if _, ok := c.status[id]; ok {
				c.status[id] = model.SyncConfirmed
			}
		}
		c.mu.Unlock()
		task.finish(err)
	}()
	return task
}

// detach keeps the request's values (the signed-in user) but drops its
// cancellation: a dispatched durable write runs to completion even if the
// client goes away.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func dedupeTags(tags model.Tags) model.Tags {
	if tags == nil {
		return nil
	}
	out := make(model.Tags, 0, len(tags))
	for _, tag := range tags {
		if tag != "" && !out.Contains(tag) {
			out = append(out, tag)
		}
	}
	return out
}

func findInList(list []*model.Mistake, id string) *model.Mistake {
	for _, m := range list {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (c *Controller) replaceInList(list []*model.Mistake, id string, replacement *model.Mistake) {
	for i, m := range list {
		if m.ID == id {
			list[i] = replacement
			return
		}
	}
}

func removeFromList(list []*model.Mistake, id string) (*model.Mistake, []*model.Mistake) {
	for i, m := range list {
		if m.ID == id {
			return m, append(append([]*model.Mistake{}, list[:i]...), list[i+1:]...)
		}
	}
	return nil, list
}
