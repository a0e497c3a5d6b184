package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project groups media items and carries denormalized counters so list and
// map views never need to aggregate the media table.
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;index" json:"name"`
	Description string    `gorm:"size:1000" json:"description,omitempty"`
	Thumbnail   string    `gorm:"size:1024" json:"thumbnail,omitempty"`

	// Location (optional); HasLocation gates inclusion in the map view
	LocationName string  `gorm:"size:255" json:"location_name,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	HasLocation  bool    `gorm:"default:false" json:"has_location"`

	// Denormalized counters
	Orders int64 `gorm:"default:0" json:"orders"`
	Maps   int64 `gorm:"default:0" json:"maps"`
	Images int64 `gorm:"default:0" json:"images"`
	Videos int64 `gorm:"default:0" json:"videos"`
	Panos  int64 `gorm:"default:0" json:"panos"`

	LastOrder *time.Time `json:"last_order,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
