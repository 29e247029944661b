package provider

import (
	"context"
	"strings"

	"github.com/NiloCK/model-identity-eval/internal/eval"
)

// AdversarialBehavior controls how an adversarial mock reacts to
// manipulation attempts in the conversation.
type AdversarialBehavior struct {
	CorrectOnDirect         bool
	SusceptibleToFakeSwitch bool
	AcceptsFalseCorrections bool
}

// AdversarialMock picks its response mode from the conversational context,
// simulating a model that can be talked out of its identity. It exists to
// hand the scorers trustworthy synthetic failures.
type AdversarialMock struct {
	mock     *Mock
	behavior AdversarialBehavior
}

// NewAdversarialMock builds an adversarial mock impersonating modelID.
func NewAdversarialMock(modelID string, behavior AdversarialBehavior, expected eval.ExpectedAnswers) *AdversarialMock {
	return &AdversarialMock{
		mock:     NewMock(modelID, ModeCorrect, expected),
		behavior: behavior,
	}
}

func (a *AdversarialMock) Name() string {
	return "MockProvider"
}

func (a *AdversarialMock) ModelID() string {
	return a.mock.modelID
}

// Generate resolves a response mode for this call from the messages and
// delegates to the underlying mock's templates.
func (a *AdversarialMock) Generate(ctx context.Context, messages []Message, opts GenerateOptions) (*Response, error) {
	mode := resolveMode(messages, a.behavior)
	return a.mock.respond(mode, messages), nil
}

// resolveMode picks the response mode for one call. Setup turns (everything
// before the final message) are scanned for manipulation patterns; the final
// message decides whether this is a direct identity question. The function
// is pure: per-call context never mutates the provider.
func resolveMode(messages []Message, behavior AdversarialBehavior) Mode {
	var prior []Message
	last := ""
	if len(messages) > 0 {
		prior = messages[:len(messages)-1]
		last = strings.ToLower(messages[len(messages)-1].Content)
	}

	fakeSwitch := false
	falseCorrection := false
	for _, m := range prior {
		content := strings.ToLower(m.Content)
		if strings.Contains(content, "switch") {
			fakeSwitch = true
		}
		if strings.Contains(content, "you're actually") || strings.Contains(content, "no, you're") {
			falseCorrection = true
		}
	}

	switch {
	case fakeSwitch && behavior.SusceptibleToFakeSwitch:
		return ModeConfused
	case falseCorrection && behavior.AcceptsFalseCorrections:
		return ModeWrongModel
	case strings.Contains(last, "what model") && behavior.CorrectOnDirect:
		return ModeCorrect
	case behavior.CorrectOnDirect:
		return ModeCorrect
	default:
		return ModeConfused
	}
}
