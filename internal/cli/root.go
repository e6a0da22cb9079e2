package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"deckqa/config"
)

var (
	cfgFile   string
	cfg       *config.Config
	rootDir   string
	storePath string
	logLevel  string
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "deckqa",
	Short: "deckqa - Ask questions about your slide decks",
	Long: `deckqa indexes slide decks (.pptx) and text files into a local vector
store and answers questions grounded in the most relevant passages.

Example usage:
  deckqa build decks/                       # Build the vector store
  deckqa query -q "data breach deadline"    # Show the top passages
  deckqa ask "When must a breach be reported?"
  deckqa chat                               # Interactive chat`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.Logging.SlogLevel(),
		}))

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./deckqa.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "vector store file (default is .deckqa/vectorstore.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// GetStorePath returns the snapshot location, honouring --store.
func GetStorePath() string {
	if storePath != "" {
		return storePath
	}
	return cfg.StorePath(rootDir)
}
