package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Show the passages most similar to a question",
	Long: `Embed the query and list the top-k stored passages ranked by similarity,
without calling the answer service.

Examples:
  deckqa query -q "breach notification"
  deckqa query -q "consent" --top-k 10 --json`,
	RunE: runQuery,
}

// QueryResult is one ranked passage in CLI output.
type QueryResult struct {
	Rank     int     `json:"rank"`
	Source   string  `json:"source"`
	Ordinal  int     `json:"ordinal"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(false)
	if err != nil {
		return err
	}

	topK := engine.TopK()
	if queryTopK > 0 {
		topK = queryTopK
	}

	chunks, err := engine.Retrieve(cmd.Context(), queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]QueryResult, len(chunks))
	for i, c := range chunks {
		results[i] = QueryResult{
			Rank:     i + 1,
			Source:   c.Chunk.Source,
			Ordinal:  c.Chunk.Ordinal,
			Position: c.Position,
			Score:    c.Score,
			Text:     c.Chunk.Text,
		}
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for _, r := range results {
		fmt.Printf("--- [%d] %s#%d (score: %.3f) ---\n", r.Rank, r.Source, r.Ordinal, r.Score)
		fmt.Println(truncate(r.Text, 500))
		fmt.Println()
	}

	return nil
}
