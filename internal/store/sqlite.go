package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// EmbeddingCache stores computed embeddings in SQLite, keyed by model and
// text, so rebuilding or re-querying a database does not re-embed text it has
// already seen.
type EmbeddingCache struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewEmbeddingCache opens or creates a cache database at the given path.
func NewEmbeddingCache(dbPath string) (*EmbeddingCache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	c := &EmbeddingCache{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return c, nil
}

func (c *EmbeddingCache) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String()
}

func (c *EmbeddingCache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		id          TEXT PRIMARY KEY,
		model       TEXT NOT NULL,
		text_hash   TEXT NOT NULL,
		dims        INTEGER NOT NULL,
		vector      BLOB NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_embeddings_model_hash ON embeddings(model, text_hash);
	`
	_, err := c.db.Exec(schema)
	return err
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached vector for text under model, if any.
func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT vector FROM embeddings WHERE model = ? AND text_hash = ?`,
		model, textHash(text)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup embedding: %w", err)
	}

	var vec []float32
	if err := msgpack.Unmarshal(blob, &vec); err != nil {
		return nil, false, fmt.Errorf("decode embedding: %w", err)
	}
	return vec, true, nil
}

// Put stores vec for text under model. An existing entry is replaced.
func (c *EmbeddingCache) Put(ctx context.Context, model, text string, vec []float32) error {
	blob, err := msgpack.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO embeddings (id, model, text_hash, dims, vector, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(model, text_hash) DO UPDATE SET dims = excluded.dims, vector = excluded.vector`,
		c.newID(), model, textHash(text), len(vec), blob, now)
	if err != nil {
		return fmt.Errorf("insert embedding: %w", err)
	}
	return nil
}

// Count returns the number of cached embeddings.
func (c *EmbeddingCache) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n)
	return n, err
}

func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}
