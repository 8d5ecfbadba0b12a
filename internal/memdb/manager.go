// Package memdb manages named memory databases: a vector index paired with
// a metadata document, created from seed text, appended to, and queried with
// recency/importance/relevance ranking.
package memdb

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/rcliao/memory-stream/internal/embedding"
	"github.com/rcliao/memory-stream/internal/importance"
	"github.com/rcliao/memory-stream/internal/model"
	"github.com/rcliao/memory-stream/internal/scoring"
	"github.com/rcliao/memory-stream/internal/store"
	"github.com/rcliao/memory-stream/internal/vectorindex"
)

// DefaultBaseResults is how many nearest neighbors a query ranks.
const DefaultBaseResults = 50

// Options configures a Manager. Embedder and Rater are required. A nil
// DecayRate or Weights selects the default; zero values are honored.
type Options struct {
	Dir         string
	Dimensions  int
	DecayRate   *float64
	BaseResults int
	Weights     *scoring.Weights
	Embedder    embedding.Embedder
	Rater       importance.Rater
	Logger      *slog.Logger

	// OpenRecords opens the metadata document at a path. Defaults to a
	// store.File.
	OpenRecords func(path string) store.RecordStore
}

// Manager creates, loads, updates and queries databases in one directory.
type Manager struct {
	dir      string
	dims     int
	decay    float64
	base     int
	weights  scoring.Weights
	embedder embedding.Embedder
	rater    importance.Rater
	log      *slog.Logger
	open     func(path string) store.RecordStore
}

// NewManager validates opts and fills in defaults.
func NewManager(opts Options) (*Manager, error) {
	if opts.Embedder == nil {
		return nil, errors.New("memdb: embedder is required")
	}
	if opts.Rater == nil {
		return nil, errors.New("memdb: rater is required")
	}

	m := &Manager{
		dir:      opts.Dir,
		dims:     opts.Dimensions,
		decay:    scoring.DefaultDecayRate,
		base:     opts.BaseResults,
		weights:  scoring.DefaultWeights(),
		embedder: opts.Embedder,
		rater:    opts.Rater,
		log:      opts.Logger,
		open:     opts.OpenRecords,
	}
	if m.dir == "" {
		m.dir = "."
	}
	if m.dims == 0 {
		m.dims = opts.Embedder.Dims()
	}
	if m.dims != opts.Embedder.Dims() {
		return nil, fmt.Errorf("memdb: dimension %d does not match embedder dimension %d: %w",
			m.dims, opts.Embedder.Dims(), model.ErrRange)
	}
	if opts.DecayRate != nil {
		m.decay = *opts.DecayRate
	}
	if m.decay < 0 || math.IsNaN(m.decay) || math.IsInf(m.decay, 0) {
		return nil, fmt.Errorf("memdb: decay rate %v: %w", m.decay, model.ErrRange)
	}
	if m.base == 0 {
		m.base = DefaultBaseResults
	}
	if m.base < 0 {
		return nil, fmt.Errorf("memdb: base results %d: %w", m.base, model.ErrRange)
	}
	if opts.Weights != nil {
		m.weights = *opts.Weights
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.open == nil {
		m.open = func(path string) store.RecordStore { return store.NewFile(path) }
	}
	return m, nil
}

// Dir is the directory holding the database files.
func (m *Manager) Dir() string { return m.dir }

// Paths locates the files of one named database.
type Paths struct {
	Index   string
	Records string
	Seed    string
}

// PathsFor returns the file layout of database name inside dir.
func PathsFor(dir, name string) (Paths, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return Paths{}, fmt.Errorf("database name %q: %w", name, model.ErrRange)
	}
	return Paths{
		Index:   filepath.Join(dir, name+"_memories.vec"),
		Records: filepath.Join(dir, name+"_memories.json"),
		Seed:    filepath.Join(dir, name+"_seed_memories.txt"),
	}, nil
}

// Paths returns the file layout of database name.
func (m *Manager) Paths(name string) (Paths, error) {
	return PathsFor(m.dir, name)
}

// Database is a loaded index with its records. Close releases the index.
type Database struct {
	Name    string
	Index   *vectorindex.Index
	Records model.Records
	Paths   Paths

	records store.RecordStore
}

// Close unloads the index. It fails if the index was already unloaded.
func (db *Database) Close() error {
	return db.Index.Unload()
}
