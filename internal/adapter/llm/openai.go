package llm

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"deckqa/config"
	"deckqa/internal/domain"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var answerTemplate = template.Must(template.ParseFS(promptTemplates, "templates/answer_prompt.txt"))

// PromptData is the input of the answer prompt template.
type PromptData struct {
	Context  string
	Question string
}

// RenderPrompt renders the user prompt sent with every question.
func RenderPrompt(contextText, question string) (string, error) {
	var buf bytes.Buffer
	if err := answerTemplate.Execute(&buf, PromptData{Context: contextText, Question: question}); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// provider defaults for OpenAI-compatible chat endpoints.
var providers = map[string]struct {
	baseURL   string
	apiKeyEnv string
}{
	"groq":   {"https://api.groq.com/openai/v1", "GROQ_API_KEY"},
	"openai": {"https://api.openai.com/v1", "OPENAI_API_KEY"},
	"ollama": {"http://localhost:11434/v1", ""},
}

// ChatLLM answers questions through an OpenAI-compatible chat completion
// endpoint.
type ChatLLM struct {
	client       *openai.Client
	model        string
	systemPrompt string
}

// New creates a ChatLLM from configuration. The API key is read from the
// configured environment variable; ollama needs none.
func New(cfg config.GenerationConfig) (*ChatLLM, error) {
	preset, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = preset.baseURL
	}
	apiKeyEnv := cfg.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = preset.apiKeyEnv
	}

	apiKey := "ollama"
	if apiKeyEnv != "" {
		apiKey = os.Getenv(apiKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
		}
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &ChatLLM{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
	}, nil
}

func (l *ChatLLM) Generate(ctx context.Context, contextText, question string) (string, error) {
	prompt, err := RenderPrompt(contextText, question)
	if err != nil {
		return "", l.fail(err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if l.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: l.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    l.model,
		Messages: messages,
	})
	if err != nil {
		return "", l.fail(err)
	}
	if len(resp.Choices) == 0 {
		return "", l.fail(errors.New("no choices returned"))
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", l.fail(errors.New("empty answer"))
	}
	return answer, nil
}

func (l *ChatLLM) ModelName() string {
	return l.model
}

func (l *ChatLLM) fail(err error) error {
	return &domain.GenerationError{Model: l.model, Err: err}
}
