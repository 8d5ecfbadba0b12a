// Package embedding provides a pluggable interface for text embedding providers.
package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"os"

	chromem "github.com/philippgille/chromem-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/rcliao/memory-stream/internal/model"
)

// DefaultDims is the vector size of the MiniLM family of sentence encoders.
const DefaultDims = 384

// Vector is a float32 embedding vector.
type Vector = []float32

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Dims() int
}

// Named is implemented by embedders that can tell which model produced a
// vector. Caches key on it.
type Named interface {
	Model() string
}

func checkDims(v Vector, want int) error {
	if len(v) != want {
		return fmt.Errorf("embedding has %d dimensions, want %d: %w", len(v), want, model.ErrRange)
	}
	return nil
}

// --- Hash Provider ---

// HashEmbedder produces deterministic unit vectors from an FNV hash of the
// text. Similar texts do not land close together; it exists for offline runs
// and tests.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder of the given size.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDims
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make(Vector, e.dims)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func (e *HashEmbedder) Dims() int { return e.dims }

func (e *HashEmbedder) Model() string { return fmt.Sprintf("fnv-hash-%d", e.dims) }

// --- Ollama Provider ---

// OllamaEmbedder uses a local Ollama instance for embeddings.
type OllamaEmbedder struct {
	model string
	dims  int
	embed chromem.EmbeddingFunc
}

// NewOllamaEmbedder creates an embedder using Ollama's API.
// Default model: all-minilm (384 dims). An empty baseURL uses $OLLAMA_HOST or
// the local default.
func NewOllamaEmbedder(model, baseURL string, dims int) *OllamaEmbedder {
	if model == "" {
		model = "all-minilm"
	}
	if baseURL == "" {
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			baseURL = host + "/api"
		}
	}
	if dims <= 0 {
		dims = DefaultDims
	}
	return &OllamaEmbedder{
		model: model,
		dims:  dims,
		embed: chromem.NewEmbeddingFuncOllama(model, baseURL),
	}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	vec, err := e.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if err := checkDims(vec, e.dims); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *OllamaEmbedder) Dims() int { return e.dims }

func (e *OllamaEmbedder) Model() string { return "ollama/" + e.model }

// --- OpenAI Provider ---

// OpenAIEmbedder uses any OpenAI-compatible embedding API. Models that accept
// a dimensions parameter are asked for exactly Dims() components.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dims   int
}

// NewOpenAIEmbedder creates an embedder using an OpenAI-compatible API.
func NewOpenAIEmbedder(baseURL, apiKey, model string, dims int) *OpenAIEmbedder {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	if dims <= 0 {
		dims = DefaultDims
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dims:   dims,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	vec := resp.Data[0].Embedding
	if err := checkDims(vec, e.dims); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *OpenAIEmbedder) Dims() int { return e.dims }

func (e *OpenAIEmbedder) Model() string { return "openai/" + e.model }

// --- Factory ---

// Settings selects and configures a provider.
type Settings struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "hash" | "ollama" | "openai"
	Model    string `mapstructure:"model" yaml:"model"`
	URL      string `mapstructure:"url" yaml:"url"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Cache    string `mapstructure:"cache" yaml:"cache"` // SQLite path; empty disables caching
}

// New creates the embedder described by s. The caller wraps it with a cache
// when s.Cache is set.
func New(s Settings, dims int) (Embedder, error) {
	switch s.Provider {
	case "", "hash":
		return NewHashEmbedder(dims), nil
	case "ollama":
		return NewOllamaEmbedder(s.Model, s.URL, dims), nil
	case "openai":
		key := s.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		return NewOpenAIEmbedder(s.URL, key, s.Model, dims), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (valid: hash, ollama, openai)", s.Provider)
	}
}
