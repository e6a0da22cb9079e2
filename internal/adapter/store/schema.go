package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"deckqa/config"
	"deckqa/internal/port"
)

// CurrentSchemaVersion is the current snapshot layout version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// ComputeFingerprint computes a hash of the settings that shape the index.
// A snapshot whose fingerprint differs from the current configuration should
// be rebuilt.
func ComputeFingerprint(cfg *config.Config) string {
	relevant := struct {
		ChunkTokens int    `json:"chunk_tokens"`
		EmbProvider string `json:"emb_provider"`
		EmbModel    string `json:"emb_model"`
		EmbDim      int    `json:"emb_dim"`
	}{
		ChunkTokens: cfg.Index.ChunkTokens,
		EmbProvider: cfg.Embedding.Provider,
		EmbModel:    cfg.Embedding.Model,
		EmbDim:      cfg.Embedding.Dimension,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// CompatibilityResult describes whether a snapshot can be served with the
// current configuration.
type CompatibilityResult struct {
	Compatible   bool
	NeedsRebuild bool
	Reason       string
}

// CheckCompatibility compares a snapshot header against the embedder that
// will embed queries. Query and stored vectors must come from the same model
// with the same dimension. An embedder reporting dimension 0 does not know
// its dimension up front; the index rejects mismatched query vectors instead.
func CheckCompatibility(info Info, embedder port.Embedder) CompatibilityResult {
	if info.Model != embedder.ModelName() {
		return CompatibilityResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("store built with model %q, configured model is %q", info.Model, embedder.ModelName()),
		}
	}
	if dim := embedder.Dimension(); info.Count > 0 && dim > 0 && info.Dimension != dim {
		return CompatibilityResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("store dimension %d, embedder dimension %d", info.Dimension, dim),
		}
	}
	return CompatibilityResult{Compatible: true}
}

// FingerprintChanged reports whether the configuration that built the
// snapshot differs from cfg. Snapshots without a fingerprint never report a
// change.
func FingerprintChanged(info Info, cfg *config.Config) bool {
	return info.Fingerprint != "" && info.Fingerprint != ComputeFingerprint(cfg)
}
