package memdb

import (
	"github.com/rcliao/memory-stream/internal/model"
)

// Counter is anything that reports how many vectors it holds.
type Counter interface {
	Len() int
}

// Check verifies that records describes exactly the slots 0..idx.Len()-1.
// A mismatch is a *model.DisparityError and is never repaired here.
func Check(records model.Records, idx Counter) error {
	n := idx.Len()
	var missing []model.SlotID
	for i := 0; i < n; i++ {
		if _, ok := records[model.SlotID(i)]; !ok {
			missing = append(missing, model.SlotID(i))
		}
	}
	if len(records) == n && len(missing) == 0 {
		return nil
	}
	return &model.DisparityError{
		IndexCount:  n,
		RecordCount: len(records),
		MissingIDs:  missing,
	}
}
