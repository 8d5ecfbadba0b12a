package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memory-stream/internal/model"
)

func TestHashEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(0)
	assert.Equal(t, DefaultDims, e.Dims())

	a1, err := e.Embed(ctx, "Likes tea.")
	require.NoError(t, err)
	a2, err := e.Embed(ctx, "Likes tea.")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "Dislikes rain.")
	require.NoError(t, err)

	assert.Len(t, a1, DefaultDims)
	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)

	var norm float64
	for _, x := range a1 {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestNew(t *testing.T) {
	e, err := New(Settings{}, 16)
	require.NoError(t, err)
	assert.IsType(t, &HashEmbedder{}, e)
	assert.Equal(t, 16, e.Dims())

	e, err = New(Settings{Provider: "ollama"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "ollama/all-minilm", e.(Named).Model())

	e, err = New(Settings{Provider: "openai", APIKey: "sk-test"}, 384)
	require.NoError(t, err)
	assert.Equal(t, "openai/text-embedding-3-small", e.(Named).Model())

	_, err = New(Settings{Provider: "word2vec"}, 384)
	assert.Error(t, err)
}

func newEmbeddingServer(t *testing.T, vec []float32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input      []string `json:"input"`
			Model      string   `json:"model"`
			Dimensions int      `json:"dimensions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Dimensions != 4 {
			http.Error(w, "unexpected dimensions", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
			"usage": map[string]int{"prompt_tokens": 2, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIEmbedder(t *testing.T) {
	want := []float32{0.5, 0.5, 0.5, 0.5}
	srv := newEmbeddingServer(t, want)

	e := NewOpenAIEmbedder(srv.URL+"/v1", "sk-test", "", 4)
	got, err := e.Embed(context.Background(), "Likes tea.")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOpenAIEmbedder_WrongDims(t *testing.T) {
	srv := newEmbeddingServer(t, []float32{1, 0, 0})

	e := NewOpenAIEmbedder(srv.URL+"/v1", "sk-test", "", 4)
	_, err := e.Embed(context.Background(), "Likes tea.")
	require.ErrorIs(t, err, model.ErrRange)
}

type mapCache struct {
	m    map[string][]float32
	gets int
	puts int
	err  error
}

func (c *mapCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	c.gets++
	if c.err != nil {
		return nil, false, c.err
	}
	v, ok := c.m[model+"|"+text]
	return v, ok, nil
}

func (c *mapCache) Put(ctx context.Context, model, text string, vec []float32) error {
	c.puts++
	c.m[model+"|"+text] = vec
	return nil
}

// countingEmbedder deliberately does not implement Named.
type countingEmbedder struct {
	hash  *HashEmbedder
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	e.calls++
	return e.hash.Embed(ctx, text)
}

func (e *countingEmbedder) Dims() int { return e.hash.Dims() }

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{hash: NewHashEmbedder(8)}
	cache := &mapCache{m: map[string][]float32{}}
	e := NewCached(inner, cache)

	assert.Equal(t, "unnamed-8", e.Model())
	assert.Equal(t, 8, e.Dims())

	v1, err := e.Embed(ctx, "Likes tea.")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "Likes tea.")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, 2, cache.gets)

	cache.err = errors.New("disk on fire")
	_, err = e.Embed(ctx, "Likes tea.")
	assert.Error(t, err)
}

func TestCachedEmbedder_UsesModelName(t *testing.T) {
	e := NewCached(NewHashEmbedder(8), &mapCache{m: map[string][]float32{}})
	assert.Equal(t, "fnv-hash-8", e.Model())
}
