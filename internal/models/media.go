package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaKind is the enumerated category of a stored asset.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindPano  MediaKind = "pano"
	MediaKindMap   MediaKind = "map"
)

// ParseMediaKind validates a kind coming from a request.
func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(strings.ToLower(strings.TrimSpace(s))) {
	case MediaKindImage:
		return MediaKindImage, nil
	case MediaKindVideo:
		return MediaKindVideo, nil
	case MediaKindPano:
		return MediaKindPano, nil
	case MediaKindMap:
		return MediaKindMap, nil
	}
	return "", fmt.Errorf("invalid media kind: %q", s)
}

// PathSegment is the plural folder name used in object storage keys.
func (k MediaKind) PathSegment() string {
	return string(k) + "s"
}

// CounterColumn is the project counter incremented for this kind.
func (k MediaKind) CounterColumn() string {
	return string(k) + "s"
}

// AcceptsContentType reports whether a detected MIME type is allowed for
// the kind. Panos and maps are stored as images.
func (k MediaKind) AcceptsContentType(contentType string) bool {
	switch k {
	case MediaKindVideo:
		return strings.HasPrefix(contentType, "video/")
	default:
		return strings.HasPrefix(contentType, "image/")
	}
}

// LocalIDPrefix marks identifiers synthesized for entries that could not be
// written through to the database. Such entries live only in the feed.
const LocalIDPrefix = "local-"

// MediaItem is one stored asset belonging to a project.
//
// ID is a store-assigned UUID string for persisted items; items that failed
// write-through carry a LocalIDPrefix time-based identifier and exist only
// in memory.
type MediaItem struct {
	ID        string    `gorm:"size:64;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_media_project_kind" json:"project_id"`
	Kind      MediaKind `gorm:"size:16;not null;index:idx_media_project_kind" json:"kind"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Key       string    `gorm:"size:512;uniqueIndex" json:"-"`
	URL       string    `gorm:"size:2048" json:"url"`
	Thumbnail string    `gorm:"size:2048" json:"thumbnail,omitempty"`
	Size      int64     `json:"size"`

	// Kind-specific metadata, flattened into columns
	ContentType string  `gorm:"size:120" json:"content_type"`
	Width       int     `gorm:"default:0" json:"-"`
	Height      int     `gorm:"default:0" json:"-"`
	Duration    float64 `gorm:"default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *MediaItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" || strings.HasPrefix(m.ID, LocalIDPrefix) {
		m.ID = uuid.New().String()
	}
	return nil
}

// IsLocal reports whether the item was never persisted to the database.
func (m *MediaItem) IsLocal() bool {
	return strings.HasPrefix(m.ID, LocalIDPrefix)
}
