package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sitescope/backend/internal/models"
)

// Entry bundles the pipeline pieces owned by one (project, kind) pair.
type Entry struct {
	Feed      *Feed
	Uploader  *Uploader
	Selection *Selection
}

// Manager lazily creates and caches one Entry per (project, kind). The first
// Get for a pair issues the initial fetch.
type Manager struct {
	fetch   FetchFunc
	store   ObjectStore
	persist Persister

	mu      sync.Mutex
	entries map[string]*Entry
}

func NewManager(fetch FetchFunc, store ObjectStore, persist Persister) *Manager {
	return &Manager{
		fetch:   fetch,
		store:   store,
		persist: persist,
		entries: make(map[string]*Entry),
	}
}

func entryKey(projectID uuid.UUID, kind models.MediaKind) string {
	return fmt.Sprintf("%s/%s", projectID, kind)
}

// Get returns the entry for the pair, creating it and starting the initial
// load on first use.
func (m *Manager) Get(ctx context.Context, projectID uuid.UUID, kind models.MediaKind) *Entry {
	m.mu.Lock()
	key := entryKey(projectID, kind)
	e, ok := m.entries[key]
	if !ok {
		f := New(kind, m.fetch)
		e = &Entry{
			Feed:      f,
			Uploader:  NewUploader(f, m.store, m.persist),
			Selection: NewSelection(),
		}
		m.entries[key] = e
	}
	m.mu.Unlock()

	if !ok {
		e.Feed.Restart(ctx, projectID)
	}
	return e
}

// Drop closes and forgets all entries of a project. Called on project
// deletion so in-flight fetches cannot write into dead state.
func (m *Manager) Drop(projectID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kind := range []models.MediaKind{models.MediaKindImage, models.MediaKindVideo, models.MediaKindPano, models.MediaKindMap} {
		key := entryKey(projectID, kind)
		if e, ok := m.entries[key]; ok {
			e.Feed.Close()
			delete(m.entries, key)
		}
	}
}
