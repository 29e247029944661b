package provider

import (
	"context"
	"errors"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider asks an OpenAI chat model to identify itself.
type OpenAIProvider struct {
	client  *openai.Client
	modelID string
}

// NewOpenAI builds a provider for one OpenAI model. An empty key falls back
// to OPENAI_API_KEY.
func NewOpenAI(apiKey, baseURL, modelID string) (*OpenAIProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if apiKey == "" {
		return nil, errors.New("provider: openai: missing api key")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("provider: openai: missing model id")
	}

	cfg := openai.DefaultConfig(apiKey)
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(cfg),
		modelID: modelID,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return "OpenAI"
}

func (p *OpenAIProvider) ModelID() string {
	return p.modelID
}

// Generate sends the conversation as a chat completion, no retries.
func (p *OpenAIProvider) Generate(ctx context.Context, messages []Message, opts GenerateOptions) (*Response, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("provider: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("provider: openai: nil context")
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openaiRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.modelID,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: float32(opts.Temperature),
	})
	if err != nil {
		return nil, &Error{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Provider: "openai", Err: errors.New("empty choices")}
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Metadata: Metadata{
			Provider:     "openai",
			ModelID:      p.modelID,
			MessageCount: len(messages),
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func openaiRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case openai.ChatMessageRoleSystem, openai.ChatMessageRoleUser, openai.ChatMessageRoleAssistant:
		return role
	default:
		return openai.ChatMessageRoleUser
	}
}
