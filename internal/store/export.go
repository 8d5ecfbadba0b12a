package store

import (
	"time"

	"github.com/rcliao/memory-stream/internal/model"
)

// Entry is one record flattened with its slot id, for listing and export.
type Entry struct {
	ID             model.SlotID `json:"id" yaml:"id"`
	Description    string       `json:"description" yaml:"description"`
	CreatedAt      time.Time    `json:"creation_timestamp" yaml:"creation_timestamp"`
	LastAccessedAt time.Time    `json:"most_recent_access_timestamp" yaml:"most_recent_access_timestamp"`
	Recency        float64      `json:"recency" yaml:"recency"`
	Importance     float64      `json:"importance" yaml:"importance"`
}

// Export returns records as entries in slot order.
func Export(records model.Records) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, id := range records.IDs() {
		r := records[id]
		entries = append(entries, Entry{
			ID:             id,
			Description:    r.Description,
			CreatedAt:      r.CreatedAt,
			LastAccessedAt: r.LastAccessedAt,
			Recency:        r.Recency,
			Importance:     r.Importance,
		})
	}
	return entries
}
