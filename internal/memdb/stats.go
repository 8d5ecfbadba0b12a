package memdb

import (
	"os"
	"time"
)

// Stats summarizes a loaded database.
type Stats struct {
	Name             string    `json:"name" yaml:"name"`
	IndexPath        string    `json:"index_path" yaml:"index_path"`
	IndexSizeBytes   int64     `json:"index_size_bytes" yaml:"index_size_bytes"`
	RecordsPath      string    `json:"records_path" yaml:"records_path"`
	RecordsSizeBytes int64     `json:"records_size_bytes" yaml:"records_size_bytes"`
	Memories         int       `json:"memories" yaml:"memories"`
	OldestCreated    time.Time `json:"oldest_created,omitempty" yaml:"oldest_created,omitempty"`
	NewestAccess     time.Time `json:"newest_access,omitempty" yaml:"newest_access,omitempty"`
	MeanImportance   float64   `json:"mean_importance" yaml:"mean_importance"`
	MeanRecency      float64   `json:"mean_recency" yaml:"mean_recency"`
}

// Stats returns database statistics.
func (m *Manager) Stats(db *Database) Stats {
	st := Stats{
		Name:        db.Name,
		IndexPath:   db.Paths.Index,
		RecordsPath: db.Paths.Records,
		Memories:    len(db.Records),
	}
	if info, err := os.Stat(db.Paths.Index); err == nil {
		st.IndexSizeBytes = info.Size()
	}
	if info, err := os.Stat(db.Paths.Records); err == nil {
		st.RecordsSizeBytes = info.Size()
	}
	if len(db.Records) == 0 {
		return st
	}

	var imp, rec float64
	for _, r := range db.Records {
		if st.OldestCreated.IsZero() || r.CreatedAt.Before(st.OldestCreated) {
			st.OldestCreated = r.CreatedAt
		}
		if r.LastAccessedAt.After(st.NewestAccess) {
			st.NewestAccess = r.LastAccessedAt
		}
		imp += r.Importance
		rec += r.Recency
	}
	n := float64(len(db.Records))
	st.MeanImportance = imp / n
	st.MeanRecency = rec / n
	return st
}
