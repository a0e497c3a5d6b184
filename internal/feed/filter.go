package feed

import (
	"strings"

	"github.com/sitescope/backend/internal/models"
)

// FilterByName returns the items whose name contains query as a
// case-insensitive substring, preserving order. An empty query returns the
// input unchanged.
func FilterByName(items []models.MediaItem, query string) []models.MediaItem {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}
	q := strings.ToLower(query)
	out := make([]models.MediaItem, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
		}
	}
	return out
}
