package feed

import (
	"reflect"
	"testing"

	"github.com/sitescope/backend/internal/models"
)

func TestFilterByName(t *testing.T) {
	items := testItems("North Facade.jpg", "crane-pad.jpg", "Crane Detail.png", "rebar.jpg")

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"substring match", "crane", []string{"crane-pad.jpg", "Crane Detail.png"}},
		{"case insensitive", "CRANE", []string{"crane-pad.jpg", "Crane Detail.png"}},
		{"no match", "drone", []string{}},
		{"whitespace only is empty", "   ", []string{"North Facade.jpg", "crane-pad.jpg", "Crane Detail.png", "rebar.jpg"}},
		{"extension match", ".png", []string{"Crane Detail.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(FilterByName(items, tt.query))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("FilterByName(%q) = %v, expected %v", tt.query, got, tt.expected)
			}
		})
	}
}

func TestFilterByNameEmptyQueryReturnsInput(t *testing.T) {
	items := testItems("a.jpg", "b.jpg")
	got := FilterByName(items, "")
	if len(got) != len(items) {
		t.Fatalf("empty query dropped items: got %d, expected %d", len(got), len(items))
	}
	for i := range items {
		if got[i].ID != items[i].ID {
			t.Errorf("item %d reordered by empty query", i)
		}
	}
}

func TestFilterByNameDoesNotMutateInput(t *testing.T) {
	items := testItems("keep-a.jpg", "drop.jpg", "keep-b.jpg")
	before := names(items)
	FilterByName(items, "keep")
	if !reflect.DeepEqual(names(items), before) {
		t.Error("filter mutated its input slice")
	}
}

func TestFilterByNameIdempotent(t *testing.T) {
	items := testItems("pour-1.jpg", "pour-2.jpg", "survey.jpg")
	once := FilterByName(items, "pour")
	twice := FilterByName(once, "pour")
	if !reflect.DeepEqual(names(once), names(twice)) {
		t.Errorf("filter not idempotent: %v then %v", names(once), names(twice))
	}
}

func TestFilterByNamePreservesOrder(t *testing.T) {
	items := []models.MediaItem{
		{ID: "1", Name: "z-match.jpg"},
		{ID: "2", Name: "skip.jpg"},
		{ID: "3", Name: "a-match.jpg"},
	}
	got := FilterByName(items, "match")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("order not preserved: %v", names(got))
	}
}
