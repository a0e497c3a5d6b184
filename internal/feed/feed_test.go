package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitescope/backend/internal/models"
)

// ========================================
// Test Setup Helpers
// ========================================

func testItems(names ...string) []models.MediaItem {
	items := make([]models.MediaItem, len(names))
	for i, n := range names {
		items[i] = models.MediaItem{ID: uuid.NewString(), Name: n, Kind: models.MediaKindImage}
	}
	return items
}

func waitApplied(t *testing.T, f *Feed) {
	t.Helper()
	select {
	case <-f.Wait():
	case <-time.After(2 * time.Second):
		t.Fatal("fetch result was not applied in time")
	}
}

// fakeFetcher returns canned responses per call and can hold responses back
// until released, to exercise out-of-order delivery.
type fakeFetcher struct {
	mu        sync.Mutex
	responses [][]models.MediaItem
	errs      []error
	gates     []chan struct{}
	calls     int
}

func (ff *fakeFetcher) fetch(ctx context.Context, projectID uuid.UUID, kind models.MediaKind) ([]models.MediaItem, error) {
	ff.mu.Lock()
	i := ff.calls
	ff.calls++
	var gate chan struct{}
	if i < len(ff.gates) {
		gate = ff.gates[i]
	}
	ff.mu.Unlock()

	if gate != nil {
		<-gate
	}

	ff.mu.Lock()
	defer ff.mu.Unlock()
	var items []models.MediaItem
	if i < len(ff.responses) {
		items = ff.responses[i]
	}
	var err error
	if i < len(ff.errs) {
		err = ff.errs[i]
	}
	return items, err
}

// ========================================
// Feed Tests
// ========================================

func TestFeedRestartLoadsItems(t *testing.T) {
	items := testItems("north-facade.jpg", "crane-pad.jpg", "rebar-detail.jpg")
	ff := &fakeFetcher{responses: [][]models.MediaItem{items}}
	f := New(models.MediaKindImage, ff.fetch)
	projectID := uuid.New()

	f.Restart(context.Background(), projectID)
	waitApplied(t, f)

	got, loading, err := f.Snapshot()
	if loading {
		t.Error("feed still loading after result applied")
	}
	if err != nil {
		t.Errorf("unexpected fetch error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d items, expected 3", len(got))
	}
	for i := range items {
		if got[i].Name != items[i].Name {
			t.Errorf("item %d = %q, expected %q", i, got[i].Name, items[i].Name)
		}
	}
	if f.ProjectID() != projectID {
		t.Errorf("ProjectID() = %s, expected %s", f.ProjectID(), projectID)
	}
}

func TestFeedFetchesOnlyMatchingKind(t *testing.T) {
	p1 := uuid.New()
	p2 := uuid.New()
	store := []models.MediaItem{
		{ID: "i1", ProjectID: p1, Kind: models.MediaKindImage, Name: "a.jpg"},
		{ID: "i2", ProjectID: p1, Kind: models.MediaKindImage, Name: "b.jpg"},
		{ID: "i3", ProjectID: p1, Kind: models.MediaKindImage, Name: "c.jpg"},
		{ID: "v1", ProjectID: p1, Kind: models.MediaKindVideo, Name: "a.mp4"},
		{ID: "v2", ProjectID: p1, Kind: models.MediaKindVideo, Name: "b.mp4"},
		{ID: "i4", ProjectID: p2, Kind: models.MediaKindImage, Name: "other.jpg"},
	}
	fetch := func(ctx context.Context, projectID uuid.UUID, kind models.MediaKind) ([]models.MediaItem, error) {
		var out []models.MediaItem
		for _, it := range store {
			if it.ProjectID == projectID && it.Kind == kind {
				out = append(out, it)
			}
		}
		return out, nil
	}

	f := New(models.MediaKindImage, fetch)
	f.Restart(context.Background(), p1)
	waitApplied(t, f)

	got, _, _ := f.Snapshot()
	if len(got) != 3 {
		t.Fatalf("got %d items, expected the 3 images of the project", len(got))
	}
	for _, it := range got {
		if it.ProjectID != p1 || it.Kind != models.MediaKindImage {
			t.Errorf("item %s does not match the query: project %s kind %s", it.ID, it.ProjectID, it.Kind)
		}
	}
}

func TestFeedStaleResponseDiscarded(t *testing.T) {
	old := testItems("old-a.jpg", "old-b.jpg")
	fresh := testItems("fresh.jpg")
	gate1 := make(chan struct{})
	gate2 := make(chan struct{})
	ff := &fakeFetcher{
		responses: [][]models.MediaItem{old, fresh},
		gates:     []chan struct{}{gate1, gate2},
	}
	f := New(models.MediaKindImage, ff.fetch)

	f.Restart(context.Background(), uuid.New())
	f.Restart(context.Background(), uuid.New())

	// second fetch completes first
	close(gate2)
	waitApplied(t, f)

	// first fetch completes late; its result must be dropped
	close(gate1)
	time.Sleep(50 * time.Millisecond)

	got, _, _ := f.Snapshot()
	if len(got) != 1 || got[0].Name != "fresh.jpg" {
		t.Fatalf("got %v, expected only fresh.jpg: stale response overwrote newer one", names(got))
	}
}

func TestFeedErrorKeepsPreviousList(t *testing.T) {
	items := testItems("kept.jpg")
	ff := &fakeFetcher{
		responses: [][]models.MediaItem{items, nil},
		errs:      []error{nil, errors.New("store unavailable")},
	}
	f := New(models.MediaKindImage, ff.fetch)

	f.Restart(context.Background(), uuid.New())
	waitApplied(t, f)

	f.Restart(context.Background(), uuid.New())
	waitApplied(t, f)

	got, loading, err := f.Snapshot()
	if loading {
		t.Error("feed still loading after failed fetch applied")
	}
	if err == nil {
		t.Error("expected fetch error to be observable")
	}
	if len(got) != 1 || got[0].Name != "kept.jpg" {
		t.Errorf("got %v, expected previous list to survive the failure", names(got))
	}
}

func TestFeedErrorClearedBySuccess(t *testing.T) {
	ff := &fakeFetcher{
		responses: [][]models.MediaItem{nil, testItems("ok.jpg")},
		errs:      []error{errors.New("boom"), nil},
	}
	f := New(models.MediaKindImage, ff.fetch)

	f.Restart(context.Background(), uuid.New())
	waitApplied(t, f)
	if f.Err() == nil {
		t.Fatal("expected error after failed fetch")
	}

	f.Restart(context.Background(), uuid.New())
	waitApplied(t, f)
	if f.Err() != nil {
		t.Errorf("error not cleared by successful fetch: %v", f.Err())
	}
}

func TestFeedCloseSuppressesLateWrites(t *testing.T) {
	gate := make(chan struct{})
	ff := &fakeFetcher{
		responses: [][]models.MediaItem{testItems("late.jpg")},
		gates:     []chan struct{}{gate},
	}
	f := New(models.MediaKindImage, ff.fetch)

	f.Restart(context.Background(), uuid.New())
	f.Close()
	close(gate)
	time.Sleep(50 * time.Millisecond)

	got, _, _ := f.Snapshot()
	if len(got) != 0 {
		t.Errorf("closed feed accepted a late fetch result: %v", names(got))
	}
}

func TestFeedWaitIdleReturnsClosedChannel(t *testing.T) {
	f := New(models.MediaKindImage, (&fakeFetcher{}).fetch)
	select {
	case <-f.Wait():
	default:
		t.Error("Wait() on idle feed should return an already-closed channel")
	}
}

func TestFeedPrependAndRemove(t *testing.T) {
	items := testItems("a.jpg", "b.jpg")
	ff := &fakeFetcher{responses: [][]models.MediaItem{items}}
	f := New(models.MediaKindImage, ff.fetch)

	f.Restart(context.Background(), uuid.New())
	waitApplied(t, f)

	newest := models.MediaItem{ID: "m-new", Name: "new.jpg", Kind: models.MediaKindImage}
	f.Prepend(newest)

	got, _, _ := f.Snapshot()
	if len(got) != 3 || got[0].ID != "m-new" {
		t.Fatalf("prepended item not at front: %v", names(got))
	}

	f.Remove("m-new", items[1].ID)
	got, _, _ = f.Snapshot()
	if len(got) != 1 || got[0].ID != items[0].ID {
		t.Errorf("Remove left %v, expected only %s", names(got), items[0].Name)
	}
}

func names(items []models.MediaItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
