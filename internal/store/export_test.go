package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-stream/internal/model"
)

func TestExport(t *testing.T) {
	t0 := time.Date(2023, 6, 6, 0, 0, 0, 0, time.UTC)
	records := model.Records{
		2: model.NewRecord("lost a wallet.", t0, 1, 0.9),
		0: model.NewRecord("likes tea.", t0, 1, 0.2),
		1: model.NewRecord("dislikes rain.", t0, 0.5, 0.3),
	}

	entries := Export(records)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, model.SlotID(i), e.ID)
		assert.Equal(t, records[e.ID].Description, e.Description)
	}
	assert.Equal(t, 0.5, entries[1].Recency)
	assert.Empty(t, Export(model.Records{}))
}
