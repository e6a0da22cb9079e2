package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"deckqa/internal/adapter/store"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the vector store header",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "output as JSON")
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	path := GetStorePath()

	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no vector store at %s. Run 'deckqa build' first", path)
		}
		return err
	}

	info, err := store.ReadInfo(path)
	if err != nil {
		return err
	}

	if infoJSON {
		data, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Vector store: %s (%s)\n", path, humanize.Bytes(uint64(st.Size())))
	fmt.Printf("  Build ID:     %s\n", info.BuildID)
	fmt.Printf("  Built:        %s (%s)\n", info.CreatedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(info.CreatedAt))
	fmt.Printf("  Schema:       v%d\n", info.SchemaVersion)
	fmt.Printf("  Model:        %s (%d dims)\n", info.Model, info.Dimension)
	fmt.Printf("  Chunk words:  %d\n", info.ChunkTokens)
	fmt.Printf("  Chunks:       %s\n", humanize.Comma(int64(info.Count)))
	fmt.Printf("  Documents:    %d\n", len(info.Sources))
	for _, s := range info.Sources {
		fmt.Printf("    - %s\n", s)
	}

	if store.FingerprintChanged(info, cfg) {
		fmt.Printf("\nConfiguration changed since this store was built. Run 'deckqa build' to refresh it.\n")
	}
	return nil
}
