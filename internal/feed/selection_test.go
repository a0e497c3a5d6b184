package feed

import (
	"sort"
	"testing"
)

func TestSelectionToggle(t *testing.T) {
	s := NewSelection()

	if !s.Toggle("m-1") {
		t.Error("first toggle should select")
	}
	if !s.Contains("m-1") {
		t.Error("m-1 should be selected")
	}
	if s.Toggle("m-1") {
		t.Error("second toggle should deselect")
	}
	if s.Contains("m-1") {
		t.Error("m-1 should no longer be selected")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, expected 0", s.Len())
	}
}

func TestSelectionIDsAndClear(t *testing.T) {
	s := NewSelection()
	s.Toggle("m-1")
	s.Toggle("m-2")
	s.Toggle("m-3")
	s.Toggle("m-2") // deselect again

	ids := s.IDs()
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "m-1" || ids[1] != "m-3" {
		t.Errorf("IDs() = %v, expected [m-1 m-3]", ids)
	}

	s.Clear()
	if s.Len() != 0 || s.Contains("m-1") {
		t.Error("Clear() left selections behind")
	}
}

func TestSelectionIndependentOfList(t *testing.T) {
	// selecting an identifier that no longer exists in any list is allowed;
	// membership is pure set state
	s := NewSelection()
	s.Toggle("gone")
	if !s.Contains("gone") {
		t.Error("selection should track identifiers regardless of list contents")
	}
}
