package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for deckqa.
type Config struct {
	Store      StoreConfig       `yaml:"store"`
	Index      IndexConfig       `yaml:"index"`
	Embedding  EmbeddingConfig   `yaml:"embedding"`
	Retrieve   RetrieveConfig    `yaml:"retrieve"`
	Generation GenerationConfig  `yaml:"generation"`
	Replies    map[string]string `yaml:"replies"` // Canned replies keyed by lowercase question
	Presets    []string          `yaml:"presets"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// StoreConfig locates the vector store snapshot.
type StoreConfig struct {
	Path string `yaml:"path"` // Relative paths resolve against the root directory
}

// IndexConfig holds ingestion configuration.
type IndexConfig struct {
	Includes    []string `yaml:"includes"` // Applied when a build argument is a directory
	Excludes    []string `yaml:"excludes"`
	ChunkTokens int      `yaml:"chunk_tokens"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // "ollama", "openai", "hash"
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Dimension   int    `yaml:"dimension"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK         int `yaml:"top_k"`
	CacheSize    int `yaml:"cache_size"` // 0 disables the query cache
	CacheTTLSecs int `yaml:"cache_ttl_secs"`
}

// GenerationConfig configures the OpenAI-compatible answer service.
type GenerationConfig struct {
	Provider     string `yaml:"provider"` // "groq", "openai", "ollama"
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`
	APIKeyEnv    string `yaml:"api_key_env"`
	SystemPrompt string `yaml:"system_prompt"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Includes:    []string{"**/*.pptx", "**/*.txt", "**/*.md"},
			Excludes:    []string{"**/.git/**", "**/.deckqa/**", "**/~$*"},
			ChunkTokens: 300,
		},
		Embedding: EmbeddingConfig{
			Provider:    "ollama",
			Model:       "all-minilm",
			Dimension:   384,
			BatchSize:   64,
			TimeoutSecs: 120,
		},
		Retrieve: RetrieveConfig{
			TopK:         3,
			CacheSize:    128,
			CacheTTLSecs: 300,
		},
		Generation: GenerationConfig{
			Provider:     "groq",
			Model:        "llama-3.1-8b-instant",
			BaseURL:      "https://api.groq.com/openai/v1",
			APIKeyEnv:    "GROQ_API_KEY",
			SystemPrompt: "You are a DPA expert.",
			TimeoutSecs:  60,
		},
		Replies: DefaultReplies(),
		Presets: []string{
			"What are the key principles of data protection?",
			"When is a Data Protection Impact Assessment required?",
			"How should organizations respond to a data breach?",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultReplies returns the built-in canned replies.
func DefaultReplies() map[string]string {
	return map[string]string{
		"hello":                            "Hello! I'm your DPA assistant. Ask me anything about the Data Protection Act, compliance, or data privacy.",
		"hi":                               "Hi there, how can I help you with data protection today?",
		"hey":                              "Hey! Ready to dive into data privacy questions?",
		"who are you":                      "I'm your DPA chatbot, trained on the Data Protection Act and related materials.",
		"what is dpa":                      "DPA stands for Data Protection Act. It's the law that governs how personal data should be handled securely and fairly.",
		"good morning":                     "Good morning! Let's talk data protection.",
		"good evening":                     "Good evening! What would you like to know about the DPA?",
		"what files have you trained with": "Data protection course files",
	}
}

// Load loads configuration from a YAML file. Replies in the file extend
// the built-in set; every other list replaces its default.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for deckqa.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "deckqa.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".deckqa", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StorePath returns the snapshot location for the given root directory.
func (c *Config) StorePath(dir string) string {
	if c.Store.Path == "" {
		return DefaultStorePath(dir)
	}
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}

// DefaultStorePath returns the path to the vector store under dir.
func DefaultStorePath(dir string) string {
	return filepath.Join(dir, ".deckqa", "vectorstore.db")
}

// SlogLevel maps the configured level name to a slog level.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
