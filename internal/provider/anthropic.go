package provider

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const anthropicVersionHeader = "2023-06-01"

// AnthropicProvider asks a Claude model to identify itself over the
// Messages API. Requests are never retried: a flaky answer is itself a
// signal in an identity eval.
type AnthropicProvider struct {
	client  anthropic.Client
	modelID string
}

// NewAnthropic builds a provider for one Anthropic model. An empty key
// falls back to ANTHROPIC_API_KEY; a key missing from both places is a
// constructor error, not a Generate-time one.
func NewAnthropic(apiKey, baseURL, modelID string) (*AnthropicProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	}
	if apiKey == "" {
		return nil, errors.New("provider: anthropic: missing api key")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("provider: anthropic: missing model id")
	}

	opts := make([]option.RequestOption, 0, 4)
	opts = append(opts, option.WithAPIKey(apiKey))
	opts = append(opts, option.WithMaxRetries(0))
	opts = append(opts, option.WithHeader("anthropic-version", anthropicVersionHeader))
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(v, "/")))
	}

	return &AnthropicProvider{
		client:  anthropic.NewClient(opts...),
		modelID: modelID,
	}, nil
}

func (p *AnthropicProvider) Name() string {
	return "Anthropic"
}

func (p *AnthropicProvider) ModelID() string {
	return p.modelID
}

// Generate sends the conversation and returns the concatenated text blocks
// of the reply. System-role messages become the system prompt.
func (p *AnthropicProvider) Generate(ctx context.Context, messages []Message, opts GenerateOptions) (*Response, error) {
	if p == nil {
		return nil, errors.New("provider: anthropic: nil provider")
	}
	if ctx == nil {
		return nil, errors.New("provider: anthropic: nil context")
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.modelID),
		MaxTokens: int64(maxTokens),
	}
	if opts.Temperature != 0 {
		params.Temperature = param.NewOpt(opts.Temperature)
	}

	sdkMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemParts []string
	for _, m := range messages {
		if strings.EqualFold(strings.TrimSpace(m.Role), RoleSystem) {
			systemParts = append(systemParts, m.Content)
			continue
		}
		sdkMessages = append(sdkMessages, anthropic.MessageParam{
			Role: anthropicRole(m.Role),
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(m.Content),
			},
		})
	}
	params.Messages = sdkMessages
	if len(systemParts) > 0 {
		params.System = []anthropic.TextBlockParam{{
			Text: strings.Join(systemParts, "\n\n"),
			Type: "text",
		}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &Error{Provider: "anthropic", Err: err}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	return &Response{
		Content: sb.String(),
		Metadata: Metadata{
			Provider:     "anthropic",
			ModelID:      p.modelID,
			MessageCount: len(messages),
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func anthropicRole(role string) anthropic.MessageParamRole {
	if strings.EqualFold(strings.TrimSpace(role), RoleAssistant) {
		return anthropic.MessageParamRoleAssistant
	}
	return anthropic.MessageParamRoleUser
}
