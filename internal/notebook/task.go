package notebook

import (
	"context"
	"sync"
)

// SyncTask is the observable handle of one background durable write. The
// write runs to completion or failure once dispatched; there is no abort.
// Callers that care await Done, callers that don't just drop the handle.
type SyncTask struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newSyncTask() *SyncTask {
	return &SyncTask{done: make(chan struct{})}
}

func (t *SyncTask) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done is closed when the durable write has completed or failed.
func (t *SyncTask) Done() <-chan struct{} {
	return t.done
}

// Err returns the write's outcome. Only meaningful after Done is closed.
func (t *SyncTask) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the write finishes or the context expires.
func (t *SyncTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
