// Package vectorindex stores fixed-dimension vectors under dense integer ids
// and answers angular nearest-neighbor queries. It is backed by a single
// chromem-go collection that is exported to one gob file.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/rcliao/memory-stream/internal/model"
)

const collectionName = "memories"

// ErrUnloaded is returned by any operation on an index that was unloaded.
var ErrUnloaded = errors.New("vector index unloaded")

// State is the lifecycle position of an index.
type State int

const (
	Empty State = iota
	Populated
	Built
	Unloaded
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Populated:
		return "populated"
	case Built:
		return "built"
	case Unloaded:
		return "unloaded"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Neighbor is one query result.
type Neighbor struct {
	ID       model.SlotID
	Distance float64 // angular, in [0, 2]
}

// Index is a vector index with ids 0..Len()-1.
type Index struct {
	dims  int
	state State
	db    *chromem.DB
	col   *chromem.Collection
}

// New creates an empty index for vectors with dims components.
func New(dims int) (*Index, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("index dimension %d: %w", dims, model.ErrRange)
	}
	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{dims: dims, state: Empty, db: db, col: col}, nil
}

// Dims reports the vector dimension.
func (x *Index) Dims() int { return x.dims }

// State reports where the index is in its lifecycle.
func (x *Index) State() State { return x.state }

// Len reports the number of stored vectors.
func (x *Index) Len() int {
	if x.state == Unloaded {
		return 0
	}
	return x.col.Count()
}

// Add stores vec under the next free id and returns that id.
func (x *Index) Add(ctx context.Context, vec []float32) (model.SlotID, error) {
	switch x.state {
	case Unloaded:
		return 0, ErrUnloaded
	case Built:
		return 0, errors.New("add to built index")
	}
	if err := x.checkVector(vec); err != nil {
		return 0, err
	}

	id := model.SlotID(x.col.Count())
	doc := chromem.Document{
		ID:        strconv.Itoa(int(id)),
		Embedding: append([]float32(nil), vec...),
	}
	if err := x.col.AddDocument(ctx, doc); err != nil {
		return 0, fmt.Errorf("add vector %d: %w", id, err)
	}
	x.state = Populated
	return id, nil
}

// Build freezes the index. Nothing can be added afterwards.
func (x *Index) Build() error {
	if x.state == Unloaded {
		return ErrUnloaded
	}
	x.state = Built
	return nil
}

// Save writes a built index to path.
func (x *Index) Save(path string) error {
	switch x.state {
	case Unloaded:
		return ErrUnloaded
	case Built:
	default:
		return fmt.Errorf("save %s index: not built", x.state)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %v: %w", err, model.ErrStorage)
	}
	if err := x.db.ExportToFile(path, false, ""); err != nil {
		return fmt.Errorf("write index %s: %v: %w", path, err, model.ErrStorage)
	}
	return nil
}

// Load reads an index written by Save. The result is Built.
func Load(path string, dims int) (*Index, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("index dimension %d: %w", dims, model.ErrRange)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("index %s: %w", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("stat index %s: %v: %w", path, err, model.ErrNotFound)
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(path, ""); err != nil {
		return nil, fmt.Errorf("read index %s: %v: %w", path, err, model.ErrNotFound)
	}
	col := db.GetCollection(collectionName, nil)
	if col == nil {
		return nil, fmt.Errorf("index %s has no %q collection: %w", path, collectionName, model.ErrNotFound)
	}

	x := &Index{dims: dims, state: Built, db: db, col: col}
	ctx := context.Background()
	for i := 0; i < col.Count(); i++ {
		doc, err := col.GetByID(ctx, strconv.Itoa(i))
		if err != nil {
			return nil, fmt.Errorf("index %s: id %d: %v: %w", path, i, err, model.ErrNotFound)
		}
		if len(doc.Embedding) != dims {
			return nil, fmt.Errorf("index %s: id %d has %d components, want %d: %w",
				path, i, len(doc.Embedding), dims, model.ErrRange)
		}
	}
	return x, nil
}

// Query returns up to k neighbors of vec, nearest first.
func (x *Index) Query(ctx context.Context, vec []float32, k int) ([]Neighbor, error) {
	if x.state == Unloaded {
		return nil, ErrUnloaded
	}
	if x.state != Built {
		return nil, fmt.Errorf("query %s index: not built", x.state)
	}
	if k <= 0 {
		return nil, fmt.Errorf("neighbor count %d: %w", k, model.ErrRange)
	}
	if err := x.checkVector(vec); err != nil {
		return nil, err
	}

	n := x.col.Count()
	if n == 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}

	results, err := x.col.QueryEmbedding(ctx, vec, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	out := make([]Neighbor, 0, len(results))
	for _, r := range results {
		id, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, fmt.Errorf("index document id %q: %w", r.ID, err)
		}
		out = append(out, Neighbor{ID: model.SlotID(id), Distance: angular(float64(r.Similarity))})
	}
	return out, nil
}

// VectorAt returns the stored (unit length) vector for id.
func (x *Index) VectorAt(ctx context.Context, id model.SlotID) ([]float32, error) {
	if x.state == Unloaded {
		return nil, ErrUnloaded
	}
	if id < 0 || int(id) >= x.col.Count() {
		return nil, fmt.Errorf("vector %d of %d: %w", id, x.col.Count(), model.ErrNotFound)
	}
	doc, err := x.col.GetByID(ctx, strconv.Itoa(int(id)))
	if err != nil {
		return nil, fmt.Errorf("vector %d: %v: %w", id, err, model.ErrNotFound)
	}
	return doc.Embedding, nil
}

// Unload releases the in-memory structure.
func (x *Index) Unload() error {
	if x.state == Unloaded {
		return ErrUnloaded
	}
	x.state = Unloaded
	x.col = nil
	x.db = nil
	return nil
}

func (x *Index) checkVector(vec []float32) error {
	if len(vec) != x.dims {
		return fmt.Errorf("vector has %d components, want %d: %w", len(vec), x.dims, model.ErrRange)
	}
	var norm float64
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("vector has non-finite component: %w", model.ErrRange)
		}
		norm += f * f
	}
	if norm == 0 {
		return fmt.Errorf("zero vector has no direction: %w", model.ErrRange)
	}
	return nil
}

// angular converts cosine similarity to sqrt(2(1-cos)).
func angular(cos float64) float64 {
	d := 2 * (1 - cos)
	if d < 0 {
		return 0
	}
	return math.Sqrt(d)
}
