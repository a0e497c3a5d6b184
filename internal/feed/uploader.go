package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sitescope/backend/internal/models"
)

// ErrUploadInProgress is returned when a second upload is started while one
// is still transferring. The feed allows at most one in-flight upload.
var ErrUploadInProgress = errors.New("an upload is already in progress")

// ObjectStore is the slice of the object store the uploader needs: a keyed
// streaming put and retrieval-address resolution after the put completes.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	ResolveURL(ctx context.Context, key string) (string, error)
}

// Persister writes a completed upload through to the document store,
// replacing the item's synthesized identifier with the store-assigned one.
type Persister interface {
	CreateMedia(ctx context.Context, item *models.MediaItem) error
}

// ObjectKey derives the storage key for an upload. Keys are project- and
// kind-scoped; the millisecond timestamp keeps repeated uploads of the same
// file name from colliding.
func ObjectKey(projectID uuid.UUID, kind models.MediaKind, filename string, at time.Time) string {
	return fmt.Sprintf("projects/%s/%s/%d-%s", projectID, kind.PathSegment(), at.UnixMilli(), filename)
}

// Uploader transfers one file at a time into the object store and
// materializes the resulting media item on its feed. Progress runs 0..100
// within an upload and resets to 0 when the uploader returns to idle.
type Uploader struct {
	feed    *Feed
	store   ObjectStore
	persist Persister
	now     func() time.Time

	mu        sync.Mutex
	uploading bool
	progress  float64
}

// NewUploader builds an uploader bound to a feed. persist may be nil, in
// which case completed uploads exist only in the feed until the next fetch.
func NewUploader(f *Feed, store ObjectStore, persist Persister) *Uploader {
	return &Uploader{feed: f, store: store, persist: persist, now: time.Now}
}

// State returns whether an upload is in flight and its progress percentage.
func (u *Uploader) State() (bool, float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploading, u.progress
}

func (u *Uploader) setProgress(pct float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if pct > 100 {
		pct = 100
	}
	if pct > u.progress {
		u.progress = pct
	}
}

// Upload streams body into the object store under a derived key, then writes
// the record through to the document store and prepends it to the feed.
// size is the byte length of the source file and drives progress reporting.
// If the document write fails the entry still appears on the feed under a
// synthesized local identifier; it will not survive a refetch.
func (u *Uploader) Upload(ctx context.Context, name, contentType string, size int64, body io.Reader) (models.MediaItem, error) {
	u.mu.Lock()
	if u.uploading {
		u.mu.Unlock()
		return models.MediaItem{}, ErrUploadInProgress
	}
	u.uploading = true
	u.progress = 0
	u.mu.Unlock()

	defer func() {
		u.mu.Lock()
		u.uploading = false
		u.progress = 0
		u.mu.Unlock()
	}()

	started := u.now()
	key := ObjectKey(u.feed.ProjectID(), u.feed.Kind(), name, started)

	pr := &progressReader{r: body, total: size, report: u.setProgress}
	if err := u.store.Put(ctx, key, contentType, pr); err != nil {
		return models.MediaItem{}, fmt.Errorf("upload %s: %w", key, err)
	}
	u.setProgress(100)

	url, err := u.store.ResolveURL(ctx, key)
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("resolve url for %s: %w", key, err)
	}

	item := models.MediaItem{
		ID:          fmt.Sprintf("%s%d", models.LocalIDPrefix, started.UnixMilli()),
		ProjectID:   u.feed.ProjectID(),
		Kind:        u.feed.Kind(),
		Name:        name,
		Key:         key,
		URL:         url,
		Size:        size,
		ContentType: contentType,
		CreatedAt:   started.UTC(),
	}

	if u.persist != nil {
		if err := u.persist.CreateMedia(ctx, &item); err != nil {
			log.Printf("WARN: media record for %s not persisted: %v", key, err)
		}
	}

	u.feed.Prepend(item)
	return item, nil
}

// progressReader reports transferred bytes as a percentage of total while
// the object store drains it.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(pct float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.total > 0 {
			p.report(float64(p.read) / float64(p.total) * 100)
		}
	}
	return n, err
}
