package embedding

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOllamaBaseURL = "http://localhost:11434/v1"
	defaultBatchSize     = 64
)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
// The client is created once and reused for every batch and query.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
}

// Options tunes an OpenAIEmbedder. Zero values select defaults.
type Options struct {
	Dimension int
	BatchSize int
	Timeout   time.Duration
}

func NewOpenAIEmbedder(apiKeyEnv, model string, opts Options) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, defaultOpenAIBaseURL, opts)
}

func NewOllamaEmbedder(model, baseURL string, opts Options) (*OpenAIEmbedder, error) {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	return newEmbedder("ollama", model, baseURL, opts), nil
}

func NewOpenAICompatibleEmbedder(apiKeyEnv, model, baseURL string, opts Options) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return newEmbedder(apiKey, model, baseURL, opts), nil
}

func newEmbedder(apiKey, model, baseURL string, opts Options) *OpenAIEmbedder {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Dimension <= 0 {
		opts.Dimension = knownDimension(model)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: opts.Dimension,
		batchSize: opts.BatchSize,
	}
}

func knownDimension(model string) int {
	switch model {
	case "all-minilm", "all-MiniLM-L6-v2", "sentence-transformers/all-MiniLM-L6-v2":
		return 384
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	default:
		return 0
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}
	for i, v := range embeddings {
		if v == nil {
			return nil, fmt.Errorf("no embedding returned for input %d of %d", i, len(texts))
		}
	}

	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
