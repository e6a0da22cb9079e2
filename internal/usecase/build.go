package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"deckqa/internal/adapter/store"
	"deckqa/internal/adapter/vecindex"
	"deckqa/internal/domain"
	"deckqa/internal/port"
)

// BuildUseCase turns a document list into a vector store snapshot.
type BuildUseCase struct {
	extractor   port.Extractor
	chunker     port.Chunker
	embedder    port.Embedder
	chunkTokens int
	batchSize   int
	fingerprint string
	logger      *slog.Logger
}

// NewBuildUseCase creates a new build use case. chunkTokens and
// fingerprint are recorded in the snapshot header. Chunks are sent to the
// embedder batchSize at a time; batchSize <= 0 sends them in one call.
func NewBuildUseCase(
	extractor port.Extractor,
	chunker port.Chunker,
	embedder port.Embedder,
	chunkTokens int,
	batchSize int,
	fingerprint string,
	logger *slog.Logger,
) *BuildUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildUseCase{
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		chunkTokens: chunkTokens,
		batchSize:   batchSize,
		fingerprint: fingerprint,
		logger:      logger,
	}
}

// BuildResult contains the results of a build.
type BuildResult struct {
	DocumentsIndexed int
	DocumentsSkipped int
	ChunksCreated    int
	Errors           []string
	ExtractDuration  time.Duration
	EmbedDuration    time.Duration
}

// Build stages.
const (
	StageExtract = "extract"
	StageEmbed   = "embed"
)

// ProgressFunc is called after each unit of work in a stage.
type ProgressFunc func(stage string, done, total int)

// Build extracts and chunks every document, embeds the flat chunk list in
// one pass and returns the resulting snapshot. A document that cannot be
// extracted is skipped and reported in the result; an embedding failure
// aborts the build.
func (u *BuildUseCase) Build(ctx context.Context, paths []string, progress ProgressFunc) (*store.Snapshot, *BuildResult, error) {
	if progress == nil {
		progress = func(string, int, int) {}
	}
	result := &BuildResult{}

	start := time.Now()
	var chunks []domain.Chunk
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		docChunks, err := u.processDocument(path)
		progress(StageExtract, i+1, len(paths))
		if err != nil {
			if !errors.Is(err, domain.ErrExtraction) {
				err = &domain.ExtractionError{Path: path, Err: err}
			}
			u.logger.Warn("skipping document", "path", path, "error", err)
			result.DocumentsSkipped++
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		u.logger.Debug("extracted document", "path", path, "chunks", len(docChunks))
		chunks = append(chunks, docChunks...)
		result.DocumentsIndexed++
	}
	result.ExtractDuration = time.Since(start)

	start = time.Now()
	var vectors [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		var err error
		vectors, err = u.embed(ctx, texts, progress)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			return nil, nil, &domain.EmbeddingError{
				Model: u.embedder.ModelName(),
				Err:   fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)),
			}
		}
	}
	result.EmbedDuration = time.Since(start)

	index, err := vecindex.NewFlat(vectors)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build index: %w", err)
	}

	snap, err := store.NewSnapshot(store.Info{
		Model:       u.embedder.ModelName(),
		Dimension:   u.embedder.Dimension(),
		ChunkTokens: u.chunkTokens,
		Fingerprint: u.fingerprint,
	}, index, chunks)
	if err != nil {
		return nil, nil, err
	}
	result.ChunksCreated = len(chunks)

	u.logger.Info("build complete",
		"documents", result.DocumentsIndexed,
		"skipped", result.DocumentsSkipped,
		"chunks", result.ChunksCreated,
		"model", snap.Info.Model,
	)

	return snap, result, nil
}

// embed runs one pass over texts in order, reporting progress per batch.
func (u *BuildUseCase) embed(ctx context.Context, texts []string, progress ProgressFunc) ([][]float32, error) {
	size := u.batchSize
	if size <= 0 || size > len(texts) {
		size = len(texts)
	}

	vectors := make([][]float32, 0, len(texts))
	progress(StageEmbed, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+size, len(texts))
		batch, err := u.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, &domain.EmbeddingError{
				Model: u.embedder.ModelName(),
				Err:   fmt.Errorf("got %d vectors for a batch of %d chunks", len(batch), end-start),
			}
		}
		vectors = append(vectors, batch...)
		progress(StageEmbed, end, len(texts))
	}
	return vectors, nil
}

func (u *BuildUseCase) processDocument(path string) ([]domain.Chunk, error) {
	text, err := u.extractor.Extract(path)
	if err != nil {
		return nil, err
	}

	doc := domain.Document{
		ID:   generateDocID(path),
		Path: path,
	}
	chunks, err := u.chunker.Chunk(doc, text)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk content: %w", err)
	}
	return chunks, nil
}

// generateDocID creates a stable document ID from the path.
func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
