package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitescope/backend/internal/models"
)

// ========================================
// Test Setup Helpers
// ========================================

// fakeStore accepts puts into memory. An optional gate holds Put open so a
// second upload can be attempted while the first is in flight.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	gate    chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	if s.gate != nil {
		<-s.gate
	}
	if s.putErr != nil {
		return s.putErr
	}
	// drain in small chunks so progress advances stepwise
	var buf bytes.Buffer
	if _, err := io.CopyBuffer(&buf, body, make([]byte, 8)); err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[key] = buf.Bytes()
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) ResolveURL(ctx context.Context, key string) (string, error) {
	return "https://media.test/" + key, nil
}

// fakePersister assigns a store identifier the way the database hook does.
type fakePersister struct {
	failWith error
	created  []models.MediaItem
}

func (p *fakePersister) CreateMedia(ctx context.Context, item *models.MediaItem) error {
	if p.failWith != nil {
		return p.failWith
	}
	item.ID = uuid.NewString()
	p.created = append(p.created, *item)
	return nil
}

func loadedFeed(t *testing.T) *Feed {
	t.Helper()
	ff := &fakeFetcher{responses: [][]models.MediaItem{nil}}
	f := New(models.MediaKindImage, ff.fetch)
	f.Restart(context.Background(), uuid.New())
	waitApplied(t, f)
	return f
}

// ========================================
// Uploader Tests
// ========================================

func TestUploadPersistsAndPrepends(t *testing.T) {
	f := loadedFeed(t)
	store := newFakeStore()
	persist := &fakePersister{}
	u := NewUploader(f, store, persist)

	content := strings.Repeat("x", 64)
	item, err := u.Upload(context.Background(), "site-plan.png", "image/png", int64(len(content)), strings.NewReader(content))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if item.IsLocal() {
		t.Errorf("persisted item kept local identifier %q", item.ID)
	}
	if item.URL == "" {
		t.Error("item has no retrieval URL")
	}
	if len(persist.created) != 1 {
		t.Fatalf("persister called %d times, expected 1", len(persist.created))
	}

	got, _, _ := f.Snapshot()
	if len(got) != 1 || got[0].ID != item.ID {
		t.Errorf("completed upload not visible on feed: %v", names(got))
	}

	stored, ok := store.objects[item.Key]
	if !ok {
		t.Fatalf("no object stored under key %q", item.Key)
	}
	if string(stored) != content {
		t.Errorf("stored %d bytes, expected %d", len(stored), len(content))
	}

	uploading, progress := u.State()
	if uploading || progress != 0 {
		t.Errorf("State() = (%v, %v) after completion, expected idle at 0", uploading, progress)
	}
}

func TestUploadProgressReaches100(t *testing.T) {
	var reports []float64
	pr := &progressReader{
		r:      strings.NewReader(strings.Repeat("y", 40)),
		total:  40,
		report: func(pct float64) { reports = append(reports, pct) },
	}
	if _, err := io.CopyBuffer(io.Discard, pr, make([]byte, 8)); err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	if len(reports) == 0 {
		t.Fatal("no progress reported")
	}
	last := 0.0
	for _, pct := range reports {
		if pct < last {
			t.Errorf("progress went backwards: %v", reports)
			break
		}
		last = pct
	}
	if reports[len(reports)-1] != 100 {
		t.Errorf("final progress = %v, expected 100", reports[len(reports)-1])
	}
}

func TestUploadRejectsConcurrent(t *testing.T) {
	f := loadedFeed(t)
	store := newFakeStore()
	store.gate = make(chan struct{})
	u := NewUploader(f, store, &fakePersister{})

	done := make(chan error, 1)
	go func() {
		_, err := u.Upload(context.Background(), "first.png", "image/png", 4, strings.NewReader("aaaa"))
		done <- err
	}()

	// wait for the first upload to take the slot
	deadline := time.After(2 * time.Second)
	for {
		if uploading, _ := u.State(); uploading {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first upload never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	_, err := u.Upload(context.Background(), "second.png", "image/png", 4, strings.NewReader("bbbb"))
	if !errors.Is(err, ErrUploadInProgress) {
		t.Errorf("concurrent upload error = %v, expected ErrUploadInProgress", err)
	}

	close(store.gate)
	if err := <-done; err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
}

func TestUploadFailureResetsState(t *testing.T) {
	f := loadedFeed(t)
	store := newFakeStore()
	store.putErr = errors.New("bucket unreachable")
	u := NewUploader(f, store, &fakePersister{})

	_, err := u.Upload(context.Background(), "broken.png", "image/png", 4, strings.NewReader("aaaa"))
	if err == nil {
		t.Fatal("expected upload error")
	}

	uploading, progress := u.State()
	if uploading || progress != 0 {
		t.Errorf("State() = (%v, %v) after failure, expected idle at 0", uploading, progress)
	}
	if got, _, _ := f.Snapshot(); len(got) != 0 {
		t.Errorf("failed upload appeared on feed: %v", names(got))
	}

	// the slot must be free again
	store.putErr = nil
	if _, err := u.Upload(context.Background(), "retry.png", "image/png", 4, strings.NewReader("aaaa")); err != nil {
		t.Errorf("retry after failure rejected: %v", err)
	}
}

func TestUploadPersistFailureKeepsLocalID(t *testing.T) {
	f := loadedFeed(t)
	u := NewUploader(f, newFakeStore(), &fakePersister{failWith: errors.New("database down")})

	item, err := u.Upload(context.Background(), "offline.png", "image/png", 4, strings.NewReader("aaaa"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if !item.IsLocal() {
		t.Errorf("item ID %q, expected a local identifier when persistence fails", item.ID)
	}
	got, _, _ := f.Snapshot()
	if len(got) != 1 {
		t.Fatalf("item not on feed: %v", names(got))
	}
}

func TestObjectKeyFormat(t *testing.T) {
	projectID := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	at := time.UnixMilli(1700000000000)

	got := ObjectKey(projectID, models.MediaKindVideo, "walkthrough.mp4", at)
	want := fmt.Sprintf("projects/%s/videos/1700000000000-walkthrough.mp4", projectID)
	if got != want {
		t.Errorf("ObjectKey = %q, expected %q", got, want)
	}

	// same name at different instants must not collide
	other := ObjectKey(projectID, models.MediaKindVideo, "walkthrough.mp4", at.Add(time.Millisecond))
	if got == other {
		t.Error("keys for distinct instants collided")
	}
}
