// Package feed holds the per-project media pipeline: a restartable list
// loader, a progress-tracked uploader, a name filter and a selection set.
// One Feed instance owns the in-memory list for a single (project, kind)
// pair; nothing else reads or writes it.
package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sitescope/backend/internal/models"
)

// FetchFunc loads all media items for a project and kind from the document
// store, newest first.
type FetchFunc func(ctx context.Context, projectID uuid.UUID, kind models.MediaKind) ([]models.MediaItem, error)

// Feed is a lazily loaded, restartable media list for one project and one
// fixed kind. Fetches are tagged with a sequence number; a response arriving
// after a newer fetch was issued is discarded, so the list always reflects
// the latest request even when responses arrive out of order.
type Feed struct {
	kind  models.MediaKind
	fetch FetchFunc

	mu        sync.Mutex
	projectID uuid.UUID
	items     []models.MediaItem
	loading   bool
	err       error
	seq       uint64
	closed    bool
	done      chan struct{} // closed fetch notifications for tests
}

// New creates a feed for the given kind. No fetch is issued until Restart.
func New(kind models.MediaKind, fetch FetchFunc) *Feed {
	return &Feed{kind: kind, fetch: fetch}
}

// Kind returns the fixed media kind of this feed.
func (f *Feed) Kind() models.MediaKind { return f.kind }

// Restart switches the feed to projectID and issues one asynchronous fetch.
// The previous list stays visible until the new response lands; a stale
// response from an earlier Restart never overwrites a newer one.
func (f *Feed) Restart(ctx context.Context, projectID uuid.UUID) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.seq++
	seq := f.seq
	f.projectID = projectID
	f.loading = true
	f.mu.Unlock()

	// the fetch outlives the request that triggered it; keep the caller's
	// values but not its cancellation
	ctx = context.WithoutCancel(ctx)

	go func() {
		items, err := f.fetch(ctx, projectID, f.kind)
		f.apply(seq, items, err)
	}()
}

// apply installs a fetch result unless the feed was closed or a newer fetch
// has been issued since.
func (f *Feed) apply(seq uint64, items []models.MediaItem, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || seq != f.seq {
		return
	}
	if err != nil {
		// keep whatever list we had; the failure is observable via Err
		f.err = err
	} else {
		f.items = items
		f.err = nil
	}
	f.loading = false
	if f.done != nil {
		close(f.done)
		f.done = nil
	}
}

// Prepend inserts an item at the front of the list. Used by the uploader to
// make a completed upload visible without waiting for a refetch.
func (f *Feed) Prepend(item models.MediaItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.items = append([]models.MediaItem{item}, f.items...)
}

// Remove drops items by identifier. Used after deletions.
func (f *Feed) Remove(ids ...string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[:0]
	for _, it := range f.items {
		if !drop[it.ID] {
			kept = append(kept, it)
		}
	}
	f.items = kept
}

// Snapshot returns a copy of the current list plus the loading flag and the
// last fetch error, if any.
func (f *Feed) Snapshot() ([]models.MediaItem, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.MediaItem, len(f.items))
	copy(out, f.items)
	return out, f.loading, f.err
}

// ProjectID returns the project the feed currently serves.
func (f *Feed) ProjectID() uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.projectID
}

// Loading reports whether a fetch is in flight.
func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Err returns the error of the most recent completed fetch, or nil.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close suppresses any state writes from fetches still in flight.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// Wait returns a channel closed when the next fetch result is applied. If no
// fetch is in flight the returned channel is already closed.
func (f *Feed) Wait() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loading {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	if f.done == nil {
		f.done = make(chan struct{})
	}
	return f.done
}
