// Package model defines the core memory data types.
package model

import (
	"sort"
	"time"
)

// SlotID is the position of a memory in the vector index. Slot ids are
// assigned in insertion order starting at 0 and never change.
type SlotID int

// Record is the metadata stored alongside one vector.
type Record struct {
	Description    string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Recency        float64
	Importance     float64
}

// NewRecord builds the record of a memory inserted at now. A fresh memory
// has never been accessed, so its last access is its creation time.
func NewRecord(description string, now time.Time, recency, importance float64) Record {
	now = now.Truncate(time.Microsecond)
	return Record{
		Description:    description,
		CreatedAt:      now,
		LastAccessedAt: now,
		Recency:        recency,
		Importance:     importance,
	}
}

// Touch marks the record as accessed at now with the given recency.
func (r *Record) Touch(now time.Time, recency float64) {
	r.LastAccessedAt = now.Truncate(time.Microsecond)
	r.Recency = recency
}

// Records maps slot ids to their metadata.
type Records map[SlotID]Record

// IDs returns the slot ids in ascending order.
func (rs Records) IDs() []SlotID {
	ids := make([]SlotID, 0, len(rs))
	for id := range rs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a shallow copy of the mapping.
func (rs Records) Clone() Records {
	out := make(Records, len(rs))
	for id, r := range rs {
		out[id] = r
	}
	return out
}
