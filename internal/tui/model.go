package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"deckqa/internal/domain"
)

const (
	Greeting     = "Hello! I'm your DPA chatbot. Ask me anything about the Data Protection Act 2019."
	ClearedGreet = "Ask me anything about the Data Protection Act 2019."

	sourcePreviewLen = 300
)

// Asker is the TUI-facing subset of the serving engine.
type Asker interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

type role int

const (
	roleAssistant role = iota
	roleUser
)

type message struct {
	role    role
	text    string
	sources []string
	failed  bool
}

// answerMsg carries the result of an asynchronous Ask.
type answerMsg struct {
	answer *domain.Answer
	err    error
}

// Model is the Bubble Tea model for the chat front-end.
type Model struct {
	ctx      context.Context
	asker    Asker
	title    string
	presets  []string
	input    textinput.Model
	viewport viewport.Model
	messages []message
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat model. Presets are offered as /1, /2, ...
func New(ctx context.Context, asker Asker, title string, presets []string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your question..."
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		asker:    asker,
		title:    title,
		presets:  presets,
		input:    ti,
		viewport: vp,
		messages: []message{{role: roleAssistant, text: Greeting}},
		status:   "Enter to ask, /N for a preset, ctrl+l to clear, ctrl+c to quit.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := conversationStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 2 + len(m.presets) + 1 + ih + 1 // header, presets, status, input, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.messages = append(m.messages, message{role: roleAssistant, text: "Error: " + msg.err.Error(), failed: true})
			m.status = "Query failed."
		} else {
			m.messages = append(m.messages, answerMessage(msg.answer))
			m.status = "Ready."
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlL:
			m.clear()
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		return m, nil
	}
	m.input.SetValue("")

	if q == "/clear" {
		m.clear()
		return m, nil
	}
	if preset, ok := m.preset(q); ok {
		q = preset
	}

	m.messages = append(m.messages, message{role: roleUser, text: q})
	m.waiting = true
	m.status = "Thinking..."
	m.refresh()
	return m, m.ask(q)
}

func (m Model) ask(question string) tea.Cmd {
	ctx, asker := m.ctx, m.asker
	return func() tea.Msg {
		answer, err := asker.Ask(ctx, question)
		return answerMsg{answer: answer, err: err}
	}
}

// preset resolves "/N" to the N-th preset question.
func (m Model) preset(input string) (string, bool) {
	if !strings.HasPrefix(input, "/") {
		return "", false
	}
	n, err := strconv.Atoi(input[1:])
	if err != nil || n < 1 || n > len(m.presets) {
		return "", false
	}
	return m.presets[n-1], true
}

func (m *Model) clear() {
	m.messages = []message{{role: roleAssistant, text: ClearedGreet}}
	m.status = "Conversation cleared."
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func answerMessage(a *domain.Answer) message {
	msg := message{role: roleAssistant, text: a.Text}
	if a.Degraded() {
		msg.text = "The answer service is unavailable (" + a.Err.Error() + "). Closest passages are listed below."
		msg.failed = true
	}
	for _, s := range a.SourceTexts() {
		msg.sources = append(msg.sources, truncate(s, sourcePreviewLen))
	}
	return msg
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render(m.title)

	var presets strings.Builder
	for i, p := range m.presets {
		presets.WriteString(presetStyle.Render(fmt.Sprintf("/%d  %s", i+1, p)))
		presets.WriteString("\n")
	}

	conversation := conversationStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + presets.String() + conversation + "\n" + input + "\n" + status
}

func (m Model) renderConversation() string {
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		switch {
		case msg.role == roleUser:
			b.WriteString(userStyle.Render("You: ") + msg.text + "\n")
		case msg.failed:
			b.WriteString(assistantStyle.Render("Bot: ") + errorStyle.Render(msg.text) + "\n")
		default:
			b.WriteString(assistantStyle.Render("Bot: ") + msg.text + "\n")
		}
		if len(msg.sources) > 0 {
			b.WriteString(sourceStyle.Render("Sources:") + "\n")
			for _, s := range msg.sources {
				b.WriteString(sourceStyle.Render("  - "+s) + "\n")
			}
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

var (
	headerStyle       = lipgloss.NewStyle().Bold(true)
	presetStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	conversationStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sourceStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
