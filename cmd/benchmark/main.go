package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"deckqa/config"
	"deckqa/internal/adapter/embedding"
	"deckqa/internal/adapter/retriever"
	"deckqa/internal/adapter/store"
	"deckqa/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Root directory holding .deckqa/")
	query := flag.String("q", "", "Query to test (defaults to the configured presets)")
	expect := flag.String("expect", "", "Source file expected to answer the query")
	topK := flag.Int("k", 5, "Number of results")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	// Measure the index, not the cache.
	cfg.Retrieve.CacheSize = 0

	snap, err := store.Load(cfg.StorePath(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening vector store: %v\n", err)
		os.Exit(1)
	}

	embedder, err := embedding.FromConfig(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder not available: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := usecase.OpenEngine(snap, embedder, nil, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening engine: %v\n", err)
		os.Exit(1)
	}

	queries := cfg.Presets
	if *query != "" {
		queries = []string{*query}
	}
	if len(queries) == 0 {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"query\" [-expect file.pptx]")
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks indexed: %d from %d documents\n", snap.Info.Count, len(snap.Info.Sources))
	fmt.Printf("Model: %s (%s)\n", snap.Info.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n\n", snap.Info.Dimension)

	ctx := context.Background()
	var totalScore, totalTop float64
	var totalLatency time.Duration
	var measured int

	for _, q := range queries {
		fmt.Printf("Query: %q\n", q)
		fmt.Println(strings.Repeat("-", 70))

		start := time.Now()
		results, err := engine.Retrieve(ctx, q, *topK)
		latency := time.Since(start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
		if len(results) == 0 {
			fmt.Println("No results.")
			continue
		}

		sources := make([]string, len(results))
		var score float64
		for i, r := range results {
			sources[i] = filepath.Base(r.Chunk.Source)
			score += r.Score

			preview := strings.ReplaceAll(r.Chunk.Text, "\n", " ")
			if len(preview) > 150 {
				preview = preview[:150] + "..."
			}
			fmt.Printf("%d. [%s %.3f] %s #%d\n", i+1, rating(r.Score), r.Score, sources[i], r.Chunk.Ordinal)
			fmt.Printf("   %s\n\n", preview)
		}

		fmt.Printf("  Latency: %s\n", latency.Round(time.Microsecond))
		if *expect != "" {
			want := filepath.Base(*expect)
			fmt.Printf("  Precision@%d: %.2f\n", len(results), retriever.PrecisionAtK(sources, []string{want}))
			fmt.Printf("  Recall@%d:    %.2f\n", len(results), retriever.RecallAtK(sources, []string{want}))
			fmt.Printf("  MRR:          %.2f\n", retriever.ReciprocalRank(sources, want))
		}
		fmt.Println()

		totalScore += score / float64(len(results))
		totalTop += results[0].Score
		totalLatency += latency
		measured++
	}

	if measured == 0 {
		return
	}
	avgScore := totalScore / float64(measured)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS (%d queries):\n", measured)
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Average top-1:      %.3f\n", totalTop/float64(measured))
	fmt.Printf("  Average latency:    %s\n", (totalLatency / time.Duration(measured)).Round(time.Microsecond))

	switch {
	case avgScore > 0.5:
		fmt.Println("  Status: GOOD - retrieval working well")
	case avgScore > 0.3:
		fmt.Println("  Status: OK - results are somewhat related")
	default:
		fmt.Println("  Status: POOR - may need a different embedding model or chunk size")
	}
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}
