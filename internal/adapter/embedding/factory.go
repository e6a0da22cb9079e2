package embedding

import (
	"fmt"
	"time"

	"deckqa/config"
	"deckqa/internal/port"
)

// FromConfig creates the configured embedder, wrapped in a Normalizer.
func FromConfig(cfg config.EmbeddingConfig) (port.Embedder, error) {
	opts := Options{
		Dimension: cfg.Dimension,
		BatchSize: cfg.BatchSize,
		Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
	}

	var embedder port.Embedder
	var err error

	switch cfg.Provider {
	case "ollama", "":
		embedder, err = NewOllamaEmbedder(cfg.Model, cfg.BaseURL, opts)
	case "openai":
		apiKeyEnv := cfg.APIKeyEnv
		if apiKeyEnv == "" {
			apiKeyEnv = "OPENAI_API_KEY"
		}
		embedder, err = NewOpenAICompatibleEmbedder(apiKeyEnv, cfg.Model, cfg.BaseURL, opts)
	case "hash":
		embedder = NewHashEmbedder(cfg.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return Normalize(embedder), nil
}
