// Package provider implements the model backends an evaluation runs
// against: live Anthropic and OpenAI adapters plus deterministic mocks for
// exercising the pipeline without network calls.
package provider

import (
	"context"
	"fmt"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultMaxTokens caps generation when a caller sets no limit.
const DefaultMaxTokens = 1024

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions carries per-call generation parameters.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// Metadata describes how a response was produced. Extra is an open
// extension field for provider-specific values.
type Metadata struct {
	Provider     string         `json:"provider"`
	ModelID      string         `json:"model_id"`
	ResponseMode string         `json:"response_mode,omitempty"` // mock providers only
	MessageCount int            `json:"message_count"`
	InputTokens  int            `json:"input_tokens,omitempty"`
	OutputTokens int            `json:"output_tokens,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

type Response struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Provider generates a response to a conversation on behalf of one model.
type Provider interface {
	Name() string
	ModelID() string
	Generate(ctx context.Context, messages []Message, opts GenerateOptions) (*Response, error)
}

// Error wraps a backend failure with the provider that produced it.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider: %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
