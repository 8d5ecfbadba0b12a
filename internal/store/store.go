// Package store persists memory metadata as a JSON document and caches
// embeddings in SQLite.
package store

import (
	"github.com/rcliao/memory-stream/internal/model"
)

// RecordStore defines persistence of the slot id -> record mapping.
type RecordStore interface {
	// Exists reports whether a document has been written.
	Exists() bool

	// Load reads the whole mapping. Missing document is model.ErrNotFound.
	Load() (model.Records, error)

	// Save replaces the whole mapping. Failures wrap model.ErrStorage.
	Save(records model.Records) error

	// Merge returns the persisted mapping overlaid with fresh.
	Merge(fresh model.Records) (model.Records, error)

	// Path returns where the document lives.
	Path() string
}

var _ RecordStore = (*File)(nil)
