package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"deckqa/config"
	"deckqa/internal/adapter/cache"
	"deckqa/internal/adapter/retriever"
	"deckqa/internal/adapter/store"
	"deckqa/internal/domain"
	"deckqa/internal/port"
)

// ContextSeparator joins retrieved passages into the generation context.
const ContextSeparator = "\n\n"

var errNoGenerator = errors.New("no answer service configured")

// Engine is the serving context: a loaded snapshot, the query embedder, the
// answer service and the canned replies. It is built once at startup and is
// safe for concurrent Ask calls.
type Engine struct {
	info      store.Info
	retriever port.Retriever
	llm       port.LLM
	replies   map[string]string
	topK      int
	logger    *slog.Logger
}

// EngineOptions configures NewEngine.
type EngineOptions struct {
	TopK    int
	Replies map[string]string
	Logger  *slog.Logger
}

// NewEngine wires a retriever and an optional answer service. A nil llm
// makes every non-canned answer degraded.
func NewEngine(info store.Info, r port.Retriever, llm port.LLM, opts EngineOptions) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	replies := make(map[string]string, len(opts.Replies))
	for k, v := range opts.Replies {
		replies[replyKey(k)] = v
	}

	return &Engine{
		info:      info,
		retriever: r,
		llm:       llm,
		replies:   replies,
		topK:      opts.TopK,
		logger:    opts.Logger,
	}
}

// OpenEngine builds an Engine over a loaded snapshot. It refuses a
// snapshot embedded with a different model or dimension than embedder.
func OpenEngine(snap *store.Snapshot, embedder port.Embedder, llm port.LLM, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if check := store.CheckCompatibility(snap.Info, embedder); !check.Compatible {
		return nil, fmt.Errorf("vector store is incompatible with the configured embedder (%s), run 'deckqa build' again", check.Reason)
	}
	if logger != nil && store.FingerprintChanged(snap.Info, cfg) {
		logger.Warn("index configuration changed since the store was built", "build_id", snap.Info.BuildID)
	}

	sem, err := retriever.NewSemanticRetriever(embedder, snap.Index, snap.Chunks)
	if err != nil {
		return nil, &domain.CorruptStoreError{Reason: "misaligned snapshot", Err: err}
	}

	var r port.Retriever = sem
	if cfg.Retrieve.CacheSize > 0 {
		ttl := time.Duration(cfg.Retrieve.CacheTTLSecs) * time.Second
		r = cache.NewCachedRetriever(sem, cache.NewQueryCache(cfg.Retrieve.CacheSize, ttl))
	}

	return NewEngine(snap.Info, r, llm, EngineOptions{
		TopK:    cfg.Retrieve.TopK,
		Replies: cfg.Replies,
		Logger:  logger,
	}), nil
}

// Info returns the header of the served snapshot.
func (e *Engine) Info() store.Info {
	return e.info
}

func (e *Engine) TopK() int {
	return e.topK
}

// Retrieve returns up to k ranked chunks for the query.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	return e.retriever.Search(ctx, query, k)
}

// Ask answers a question. Canned replies are matched on the trimmed,
// lowercased question before retrieval. A retrieval failure is returned as
// an error; a generation failure is recorded in Answer.Err and the
// retrieved sources are still returned.
func (e *Engine) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	answer := &domain.Answer{Question: question}

	if reply, ok := e.replies[replyKey(question)]; ok {
		answer.Text = reply
		answer.Canned = true
		return answer, nil
	}

	if strings.TrimSpace(question) == "" {
		return nil, errors.New("question is empty")
	}

	sources, err := e.retriever.Search(ctx, question, e.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	answer.Sources = sources

	if e.llm == nil {
		answer.Err = &domain.GenerationError{Err: errNoGenerator}
		return answer, nil
	}

	contextText := strings.Join(answer.SourceTexts(), ContextSeparator)
	start := time.Now()
	text, err := e.llm.Generate(ctx, contextText, question)
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationUnavailable) {
			err = &domain.GenerationError{Model: e.llm.ModelName(), Err: err}
		}
		e.logger.Warn("answer generation failed", "model", e.llm.ModelName(), "error", err)
		answer.Err = err
		return answer, nil
	}

	e.logger.Debug("answered question", "sources", len(sources), "duration", time.Since(start))
	answer.Text = text
	return answer, nil
}

func replyKey(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}
