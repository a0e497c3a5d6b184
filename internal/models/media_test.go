package models

import "testing"

func TestParseMediaKind(t *testing.T) {
	tests := []struct {
		input    string
		expected MediaKind
		wantErr  bool
	}{
		{"image", MediaKindImage, false},
		{"video", MediaKindVideo, false},
		{"pano", MediaKindPano, false},
		{"map", MediaKindMap, false},
		{" Image ", MediaKindImage, false},
		{"VIDEO", MediaKindVideo, false},
		{"", "", true},
		{"gif", "", true},
		{"images", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMediaKind(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMediaKind(%q) accepted invalid kind", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMediaKind(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseMediaKind(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestMediaKindAcceptsContentType(t *testing.T) {
	tests := []struct {
		kind        MediaKind
		contentType string
		expected    bool
	}{
		{MediaKindImage, "image/jpeg", true},
		{MediaKindImage, "video/mp4", false},
		{MediaKindVideo, "video/mp4", true},
		{MediaKindVideo, "image/png", false},
		{MediaKindPano, "image/jpeg", true},
		{MediaKindMap, "image/png", true},
		{MediaKindMap, "application/pdf", false},
	}

	for _, tt := range tests {
		if got := tt.kind.AcceptsContentType(tt.contentType); got != tt.expected {
			t.Errorf("%s.AcceptsContentType(%q) = %v, expected %v", tt.kind, tt.contentType, got, tt.expected)
		}
	}
}

func TestMediaItemIsLocal(t *testing.T) {
	local := MediaItem{ID: LocalIDPrefix + "1700000000000"}
	if !local.IsLocal() {
		t.Error("prefixed identifier should be local")
	}
	persisted := MediaItem{ID: "7c9e6679-7425-40de-944b-e07fc1f90ae7"}
	if persisted.IsLocal() {
		t.Error("UUID identifier should not be local")
	}
}
