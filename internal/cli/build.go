package cli

import (
	"fmt"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"deckqa/internal/adapter/chunker"
	"deckqa/internal/adapter/embedding"
	"deckqa/internal/adapter/extract"
	"deckqa/internal/adapter/fs"
	"deckqa/internal/adapter/store"
	"deckqa/internal/usecase"
)

var buildChunkTokens int

var buildCmd = &cobra.Command{
	Use:   "build [paths...]",
	Short: "Build the vector store from documents",
	Long: `Extract, chunk and embed the given documents and write a fresh vector
store. Arguments may be files, directories or ** globs; directories are
filtered with index.includes and index.excludes. With no arguments the root
directory is used. The previous store is replaced atomically.

Examples:
  deckqa build                         # Everything under the current directory
  deckqa build decks/ notes.md         # Specific inputs
  deckqa build "decks/**/*.pptx" --chunk-tokens 200`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().IntVar(&buildChunkTokens, "chunk-tokens", 0, "words per chunk (default from config)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if len(args) == 0 {
		args = []string{GetRootDir()}
	}
	if buildChunkTokens > 0 {
		cfg.Index.ChunkTokens = buildChunkTokens
	}

	walker := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	files, err := walker.Expand(args)
	if err != nil {
		return fmt.Errorf("failed to resolve inputs: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no documents found in %v", args)
	}

	embedder, err := embedding.FromConfig(cfg.Embedding)
	if err != nil {
		return err
	}

	paths := make([]string, len(files))
	var totalBytes int64
	for i, f := range files {
		paths[i] = f.Path
		totalBytes += f.Size
	}

	buildUC := usecase.NewBuildUseCase(
		extract.NewRegistry(),
		chunker.NewWordChunker(cfg.Index.ChunkTokens),
		embedder,
		cfg.Index.ChunkTokens,
		cfg.Embedding.BatchSize,
		store.ComputeFingerprint(cfg),
		logger,
	)

	fmt.Printf("Building from %d documents (%s)...\n", len(files), humanize.Bytes(uint64(totalBytes)))

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var barStage string

	progress := func(stage string, done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if stage != barStage {
			if bar != nil {
				bar.Finish()
			}
			desc := "[cyan]Extracting[reset]"
			if stage == usecase.StageEmbed {
				desc = fmt.Sprintf("[cyan]Embedding[reset] with %s", embedder.ModelName())
			}
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription(desc),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
			barStage = stage
		}
		bar.Set(done)
	}

	snap, result, err := buildUC.Build(cmd.Context(), paths, progress)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	path := GetStorePath()
	if err := store.Save(path, snap); err != nil {
		return fmt.Errorf("failed to save vector store: %w", err)
	}

	fmt.Printf("\nBuild complete:\n")
	fmt.Printf("  Documents indexed: %d\n", result.DocumentsIndexed)
	fmt.Printf("  Documents skipped: %d\n", result.DocumentsSkipped)
	fmt.Printf("  Chunks created:    %d\n", result.ChunksCreated)
	fmt.Printf("  Embedding model:   %s (%d dims)\n", snap.Info.Model, snap.Info.Dimension)
	fmt.Printf("  Time:              extract %s, embed %s\n",
		formatDuration(result.ExtractDuration), formatDuration(result.EmbedDuration))

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	size := ""
	if st, err := os.Stat(path); err == nil {
		size = " (" + humanize.Bytes(uint64(st.Size())) + ")"
	}
	fmt.Printf("\nVector store written to: %s%s\n", path, size)
	return nil
}
