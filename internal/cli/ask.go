package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the vector store",
	Long: `Retrieve the most relevant passages and ask the configured chat model to
answer from them. If the answer service is unavailable the passages are still
printed.

Examples:
  deckqa ask "When must a breach be reported?"
  deckqa ask hello`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

type askOutput struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer,omitempty"`
	Canned   bool     `json:"canned,omitempty"`
	Error    string   `json:"error,omitempty"`
	Sources  []string `json:"sources,omitempty"`
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	engine, err := openEngine(true)
	if err != nil {
		return err
	}

	answer, err := engine.Ask(cmd.Context(), question)
	if err != nil {
		return err
	}

	if askJSON {
		out := askOutput{
			Question: answer.Question,
			Answer:   answer.Text,
			Canned:   answer.Canned,
			Sources:  answer.SourceTexts(),
		}
		if answer.Err != nil {
			out.Error = answer.Err.Error()
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if answer.Degraded() {
		fmt.Printf("Answer unavailable: %v\n", answer.Err)
	} else {
		fmt.Println(answer.Text)
	}

	if len(answer.Sources) > 0 {
		fmt.Printf("\nSources:\n")
		for _, s := range answer.Sources {
			fmt.Printf("  - [%s] %s\n", s.Chunk.Source, truncate(s.Chunk.Text, 300))
		}
	}
	return nil
}
