package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/NiloCK/model-identity-eval/internal/eval"
)

// Mode selects how a mock provider answers identity questions.
type Mode string

const (
	ModeCorrect    Mode = "correct"
	ModeWrongModel Mode = "wrong_model"
	ModeConfused   Mode = "confused"
	ModeRefuses    Mode = "refuses"
	ModeCustom     Mode = "custom"
)

// Modes returns the built-in mock response modes.
func Modes() []Mode {
	return []Mode{ModeCorrect, ModeWrongModel, ModeConfused, ModeRefuses, ModeCustom}
}

// Mock is a deterministic provider used to exercise the runner and scorers
// without network calls. Its responses are built from the expected answers
// configured for the model it impersonates.
type Mock struct {
	modelID  string
	mode     Mode
	custom   string
	expected eval.ExpectedAnswers
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithCustomResponse sets the literal returned in custom mode. An empty
// string is ignored.
func WithCustomResponse(text string) MockOption {
	return func(m *Mock) {
		if text != "" {
			m.custom = text
		}
	}
}

// NewMock builds a mock impersonating modelID in the given response mode.
func NewMock(modelID string, mode Mode, expected eval.ExpectedAnswers, opts ...MockOption) *Mock {
	m := &Mock{
		modelID:  strings.TrimSpace(modelID),
		mode:     mode,
		expected: expected,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *Mock) Name() string {
	return "MockProvider"
}

func (m *Mock) ModelID() string {
	return m.modelID
}

// Generate returns the configured canned response. It never fails.
func (m *Mock) Generate(ctx context.Context, messages []Message, opts GenerateOptions) (*Response, error) {
	return m.respond(m.mode, messages), nil
}

func (m *Mock) respond(mode Mode, messages []Message) *Response {
	return &Response{
		Content: m.render(mode),
		Metadata: Metadata{
			Provider:     "mock",
			ModelID:      m.modelID,
			ResponseMode: string(mode),
			MessageCount: len(messages),
		},
	}
}

func (m *Mock) render(mode Mode) string {
	name := m.displayName()
	switch mode {
	case ModeCorrect:
		return fmt.Sprintf("I'm %s, specifically %s from %s.", name, m.modelID, m.providerName())
	case ModeWrongModel:
		return "I'm GPT-4, a large language model."
	case ModeConfused:
		return fmt.Sprintf("I'm %s, or wait, maybe I'm something else?", name)
	case ModeRefuses:
		return "I don't know what model I am."
	case ModeCustom:
		if m.custom != "" {
			return m.custom
		}
	}
	return fmt.Sprintf("Unknown response mode: %s", mode)
}

func (m *Mock) displayName() string {
	if len(m.expected.ModelNames) > 0 {
		return m.expected.ModelNames[0]
	}
	return m.modelID
}

func (m *Mock) providerName() string {
	if v := strings.TrimSpace(m.expected.ProviderName); v != "" {
		return v
	}
	return "MockProvider"
}
