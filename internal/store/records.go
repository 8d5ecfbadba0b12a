package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rcliao/memory-stream/internal/model"
)

// TimestampLayout is ISO-8601 with microseconds and zone offset.
const TimestampLayout = "2006-01-02T15:04:05.999999Z07:00"

// naiveLayout matches timestamps written without a zone (Python isoformat of a
// naive datetime). They are read as UTC.
const naiveLayout = "2006-01-02T15:04:05.999999"

// recordJSON is the on-disk shape of a record.
type recordJSON struct {
	Description               string  `json:"description"`
	CreationTimestamp         string  `json:"creation_timestamp"`
	MostRecentAccessTimestamp string  `json:"most_recent_access_timestamp"`
	Recency                   float64 `json:"recency"`
	Importance                float64 `json:"importance"`
}

// FormatTimestamp renders t for the metadata document.
func FormatTimestamp(t time.Time) string {
	return t.Truncate(time.Microsecond).Format(TimestampLayout)
}

// ParseTimestamp reads a metadata timestamp, with or without zone.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(naiveLayout, strings.Replace(s, " ", "T", 1), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// Marshal serializes records into the metadata document. Keys are decimal
// slot ids.
func Marshal(records model.Records) ([]byte, error) {
	out := make(map[model.SlotID]recordJSON, len(records))
	for id, r := range records {
		out[id] = recordJSON{
			Description:               r.Description,
			CreationTimestamp:         FormatTimestamp(r.CreatedAt),
			MostRecentAccessTimestamp: FormatTimestamp(r.LastAccessedAt),
			Recency:                   r.Recency,
			Importance:                r.Importance,
		}
	}
	return json.Marshal(out)
}

// Unmarshal parses a metadata document.
func Unmarshal(data []byte) (model.Records, error) {
	var raw map[model.SlotID]recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	records := make(model.Records, len(raw))
	for id, r := range raw {
		if id < 0 {
			return nil, fmt.Errorf("negative slot id %d: %w", id, model.ErrRange)
		}
		created, err := ParseTimestamp(r.CreationTimestamp)
		if err != nil {
			return nil, fmt.Errorf("slot %d creation_timestamp: %w", id, err)
		}
		accessed, err := ParseTimestamp(r.MostRecentAccessTimestamp)
		if err != nil {
			return nil, fmt.Errorf("slot %d most_recent_access_timestamp: %w", id, err)
		}
		records[id] = model.Record{
			Description:    r.Description,
			CreatedAt:      created,
			LastAccessedAt: accessed,
			Recency:        r.Recency,
			Importance:     r.Importance,
		}
	}
	return records, nil
}

// File is a metadata document on disk.
type File struct {
	path string
}

// NewFile returns the metadata document at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the document location.
func (f *File) Path() string { return f.path }

// Exists reports whether the document is present.
func (f *File) Exists() bool {
	info, err := os.Stat(f.path)
	return err == nil && !info.IsDir()
}

// Load reads and decodes the document.
func (f *File) Load() (model.Records, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("metadata %s: %w", f.path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("read metadata %s: %w", f.path, err)
	}
	records, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", f.path, err)
	}
	return records, nil
}

// Save replaces the document with records. The write goes through a
// temporary file in the same directory and a rename.
func (f *File) Save(records model.Records) error {
	data, err := Marshal(records)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %v: %w", err, model.ErrStorage)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write metadata %s: %v: %w", f.path, err, model.ErrStorage)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write metadata %s: %v: %w", f.path, err, model.ErrStorage)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write metadata %s: %v: %w", f.path, err, model.ErrStorage)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("write metadata %s: %v: %w", f.path, err, model.ErrStorage)
	}
	return nil
}

// Merge overlays fresh onto the existing document, if any. Fresh records win
// on slot collision.
func (f *File) Merge(fresh model.Records) (model.Records, error) {
	if !f.Exists() {
		return fresh.Clone(), nil
	}
	merged, err := f.Load()
	if err != nil {
		return nil, err
	}
	for id, r := range fresh {
		merged[id] = r
	}
	return merged, nil
}
