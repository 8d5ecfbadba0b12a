package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-stream/internal/model"
)

func sampleRecords() model.Records {
	t0 := time.Date(2023, 6, 6, 9, 30, 15, 123456000, time.UTC)
	t1 := t0.Add(36*time.Hour + 789*time.Microsecond)
	return model.Records{
		0:  {Description: "Likes tea.", CreatedAt: t0, LastAccessedAt: t0, Recency: 1, Importance: 0.5},
		1:  {Description: "Dislikes rain.", CreatedAt: t0, LastAccessedAt: t1, Recency: 0.25, Importance: 1.0 / 9.0},
		10: {Description: "Met an old friend at the market.", CreatedAt: t1, LastAccessedAt: t1, Recency: 1, Importance: 0},
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	in := sampleRecords()

	data, err := Marshal(in)
	require.NoError(t, err)

	out, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	for id, want := range in {
		got, ok := out[id]
		require.True(t, ok, "slot %d missing", id)
		assert.Equal(t, want.Description, got.Description)
		assert.Equal(t, want.Importance, got.Importance)
		assert.Equal(t, want.Recency, got.Recency)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created %s != %s", want.CreatedAt, got.CreatedAt)
		assert.True(t, want.LastAccessedAt.Equal(got.LastAccessedAt), "accessed %s != %s", want.LastAccessedAt, got.LastAccessedAt)
	}
}

func TestMarshal_DocumentShape(t *testing.T) {
	data, err := Marshal(sampleRecords())
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	entry, ok := doc["1"]
	require.True(t, ok)
	assert.Equal(t, "Dislikes rain.", entry["description"])
	assert.Equal(t, "2023-06-06T09:30:15.123456Z", entry["creation_timestamp"])
	assert.Equal(t, "2023-06-07T21:30:15.124245Z", entry["most_recent_access_timestamp"])
	assert.Equal(t, 0.25, entry["recency"])
	assert.Contains(t, doc, "10")
}

func TestUnmarshal_NaiveTimestamps(t *testing.T) {
	doc := `{"0": {"description": "Likes tea.", "creation_timestamp": "2023-06-06T00:00:00",
		"most_recent_access_timestamp": "2023-06-07T12:00:00.500000", "recency": 1.0, "importance": 0.3333}}`

	recs, err := Unmarshal([]byte(doc))
	require.NoError(t, err)

	r := recs[0]
	assert.Equal(t, time.Date(2023, 6, 6, 0, 0, 0, 0, time.UTC), r.CreatedAt)
	assert.Equal(t, time.Date(2023, 6, 7, 12, 0, 0, 500000000, time.UTC), r.LastAccessedAt)
}

func TestUnmarshal_Invalid(t *testing.T) {
	_, err := Unmarshal([]byte(`{"0": {"creation_timestamp": "yesterday"}}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"zero": {}}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"-1": {"creation_timestamp": "2023-06-06T00:00:00Z", "most_recent_access_timestamp": "2023-06-06T00:00:00Z"}}`))
	assert.ErrorIs(t, err, model.ErrRange)
}

func TestFile_SaveLoad(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nested", "agent_memories.json"))
	assert.False(t, f.Exists())

	_, err := f.Load()
	require.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, f.Save(sampleRecords()))
	assert.True(t, f.Exists())

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, []model.SlotID{0, 1, 10}, got.IDs())

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(f.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFile_SaveStorageError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	f := NewFile(filepath.Join(blocker, "agent_memories.json"))
	err := f.Save(sampleRecords())
	require.ErrorIs(t, err, model.ErrStorage)
}

func TestFile_Merge(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "agent_memories.json"))
	now := time.Date(2023, 6, 8, 0, 0, 0, 0, time.UTC)

	// nothing on disk: fresh entries only
	fresh := model.Records{0: model.NewRecord("First.", now, 1, 0)}
	merged, err := f.Merge(fresh)
	require.NoError(t, err)
	assert.Len(t, merged, 1)

	require.NoError(t, f.Save(sampleRecords()))

	fresh = model.Records{
		1:  model.NewRecord("Replaced.", now, 1, 0),
		11: model.NewRecord("Brand new.", now, 1, 0.5),
	}
	merged, err = f.Merge(fresh)
	require.NoError(t, err)
	assert.Equal(t, []model.SlotID{0, 1, 10, 11}, merged.IDs())
	assert.Equal(t, "Replaced.", merged[1].Description)
	assert.Equal(t, "Likes tea.", merged[0].Description)
	assert.Equal(t, "Brand new.", merged[11].Description)
}
