package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by every layer of the memory store. Callers match them
// with errors.Is; none of them is retried internally.
var (
	// ErrNotFound: a required file (seed, index, metadata) is missing.
	ErrNotFound = errors.New("not found")
	// ErrDisparity: the vector index and the metadata describe different slots.
	ErrDisparity = errors.New("index and metadata disagree")
	// ErrRange: an argument is outside its documented range.
	ErrRange = errors.New("out of range")
	// ErrOutOfOrder: a timestamp is earlier than the last recorded access.
	ErrOutOfOrder = errors.New("timestamps out of order")
	// ErrExternalRating: the importance rater did not return a usable rating.
	ErrExternalRating = errors.New("importance rating failed")
	// ErrStorage: writing a persisted file failed.
	ErrStorage = errors.New("storage failure")
)

// DisparityError reports a broken index/metadata pair. It requires operator
// recovery. Counts are -1 when a side could not be read at all.
type DisparityError struct {
	IndexCount  int
	RecordCount int
	MissingIDs  []SlotID
	Detail      string
}

func (e *DisparityError) Error() string {
	if e.IndexCount < 0 || e.RecordCount < 0 {
		return e.Detail
	}
	msg := fmt.Sprintf("index has %d items but metadata has %d records", e.IndexCount, e.RecordCount)
	if len(e.MissingIDs) > 0 {
		msg += fmt.Sprintf(" (no record for slots %v)", e.MissingIDs)
	}
	if e.Detail != "" {
		msg = e.Detail + ": " + msg
	}
	return msg
}

// Is makes errors.Is(err, ErrDisparity) hold for a *DisparityError.
func (e *DisparityError) Is(target error) bool {
	return target == ErrDisparity
}
