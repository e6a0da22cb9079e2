package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Index.ChunkTokens != 300 {
		t.Errorf("expected ChunkTokens=300, got %d", cfg.Index.ChunkTokens)
	}
	if cfg.Embedding.Model != "all-minilm" {
		t.Errorf("expected Model=all-minilm, got %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimension != 384 {
		t.Errorf("expected Dimension=384, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Retrieve.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Generation.Model != "llama-3.1-8b-instant" {
		t.Errorf("expected generation model llama-3.1-8b-instant, got %s", cfg.Generation.Model)
	}
	if _, ok := cfg.Replies["hello"]; !ok {
		t.Error("expected a canned reply for 'hello'")
	}
	if len(cfg.Presets) != 3 {
		t.Errorf("expected 3 presets, got %d", len(cfg.Presets))
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "deckqa.yaml")

	content := `
index:
  chunk_tokens: 120
embedding:
  provider: hash
  dimension: 64
retrieve:
  top_k: 5
replies:
  thanks: "You're welcome."
presets:
  - "What is personal data?"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Index.ChunkTokens != 120 {
		t.Errorf("expected ChunkTokens=120, got %d", cfg.Index.ChunkTokens)
	}
	if cfg.Embedding.Provider != "hash" || cfg.Embedding.Dimension != 64 {
		t.Errorf("unexpected embedding config: %+v", cfg.Embedding)
	}
	if cfg.Embedding.BatchSize != 64 {
		t.Errorf("expected untouched BatchSize default, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Replies["thanks"] != "You're welcome." {
		t.Errorf("expected custom reply, got %q", cfg.Replies["thanks"])
	}
	if _, ok := cfg.Replies["hello"]; !ok {
		t.Error("custom replies should extend the defaults")
	}
	if len(cfg.Presets) != 1 {
		t.Errorf("presets should be replaced, got %v", cfg.Presets)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "deckqa.yaml")
	if err := os.WriteFile(configPath, []byte("index: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".deckqa"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".deckqa", "config.yaml")

	content := `
generation:
  model: gpt-4o-mini
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Generation.Model != "gpt-4o-mini" {
		t.Errorf("expected generation model gpt-4o-mini, got %s", cfg.Generation.Model)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deckqa.yaml")

	cfg := DefaultConfig()
	cfg.Index.ChunkTokens = 42
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Index.ChunkTokens != 42 {
		t.Errorf("expected ChunkTokens=42, got %d", loaded.Index.ChunkTokens)
	}
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()

	expected := filepath.Join("/home/user/decks", ".deckqa", "vectorstore.db")
	if path := cfg.StorePath("/home/user/decks"); path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Store.Path = "out/store.db"
	if path := cfg.StorePath("/home/user/decks"); path != filepath.Join("/home/user/decks", "out", "store.db") {
		t.Errorf("relative store path not resolved against dir: %s", path)
	}

	cfg.Store.Path = "/var/lib/deckqa/store.db"
	if path := cfg.StorePath("/home/user/decks"); path != "/var/lib/deckqa/store.db" {
		t.Errorf("absolute store path changed: %s", path)
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for name, want := range cases {
		if got := (LoggingConfig{Level: name}).SlogLevel(); got != want {
			t.Errorf("level %q: expected %v, got %v", name, want, got)
		}
	}
}
