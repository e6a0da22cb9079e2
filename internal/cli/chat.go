package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"deckqa/internal/tui"
)

var chatTitle string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat over the vector store",
	Long: `Open a terminal chat. Type a question and press enter; /1, /2, ... ask
the preset questions from the config, ctrl+l clears the conversation.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatTitle, "title", "Want to get quick answers on DPA 2019?", "chat window title")
}

func runChat(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(true)
	if err != nil {
		return err
	}

	m := tui.New(cmd.Context(), engine, chatTitle, GetConfig().Presets)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}
