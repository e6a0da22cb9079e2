package cli

import (
	"fmt"
	"time"
	"unicode/utf8"

	"deckqa/internal/adapter/embedding"
	"deckqa/internal/adapter/llm"
	"deckqa/internal/adapter/store"
	"deckqa/internal/port"
	"deckqa/internal/usecase"
)

// openEngine loads the snapshot and the query embedder once. When
// withGenerator is set, an answer service is attached; if it cannot be
// configured the engine still serves sources and answers are degraded.
func openEngine(withGenerator bool) (*usecase.Engine, error) {
	cfg := GetConfig()

	snap, err := store.Load(GetStorePath())
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.FromConfig(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	var generator port.LLM
	if withGenerator {
		chat, err := llm.New(cfg.Generation)
		if err != nil {
			logger.Warn("answer generation disabled", "error", err)
		} else {
			generator = chat
		}
	}

	logger.Debug("loaded vector store",
		"path", GetStorePath(),
		"chunks", snap.Info.Count,
		"model", snap.Info.Model,
		"build_id", snap.Info.BuildID,
	)

	return usecase.OpenEngine(snap, embedder, generator, cfg, logger)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
