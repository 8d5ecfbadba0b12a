package embedding

import (
	"context"
	"fmt"
)

// Cache stores vectors by model and text.
type Cache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Put(ctx context.Context, model, text string, vec []float32) error
}

// CachedEmbedder is a read-through cache in front of another embedder.
type CachedEmbedder struct {
	inner Embedder
	cache Cache
	model string
}

// NewCached wraps inner with cache. Vectors are keyed by the inner model name
// when it reports one, and by its dimension otherwise.
func NewCached(inner Embedder, cache Cache) *CachedEmbedder {
	name := fmt.Sprintf("unnamed-%d", inner.Dims())
	if n, ok := inner.(Named); ok {
		name = n.Model()
	}
	return &CachedEmbedder{inner: inner, cache: cache, model: name}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	if vec, ok, err := e.cache.Get(ctx, e.model, text); err != nil {
		return nil, err
	} else if ok && len(vec) == e.inner.Dims() {
		return vec, nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Put(ctx, e.model, text, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *CachedEmbedder) Dims() int { return e.inner.Dims() }

func (e *CachedEmbedder) Model() string { return e.model }
