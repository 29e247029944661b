package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NiloCK/model-identity-eval/internal/config"
	"github.com/NiloCK/model-identity-eval/internal/eval"
)

// Spec selects and parameterizes the backend for one run. Expected answers
// feed the mock templates; credentials come from the harness config.
type Spec struct {
	Kind           string
	ModelID        string
	Mode           Mode
	CustomResponse string
	Behavior       AdversarialBehavior
	Expected       eval.ExpectedAnswers
}

// New builds the provider named by spec.Kind. An empty kind means mock.
func New(cfg *config.Config, spec Spec) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("provider: nil config")
	}

	switch kind := strings.ToLower(strings.TrimSpace(spec.Kind)); kind {
	case "", "mock":
		mode := spec.Mode
		if mode == "" {
			mode = ModeCorrect
		}
		return NewMock(spec.ModelID, mode, spec.Expected, WithCustomResponse(spec.CustomResponse)), nil
	case "adversarial-mock":
		return NewAdversarialMock(spec.ModelID, spec.Behavior, spec.Expected), nil
	case "anthropic", "claude":
		pc := cfg.Provider("anthropic")
		model := strings.TrimSpace(spec.ModelID)
		if model == "" {
			model = pc.Model
		}
		return NewAnthropic(pc.APIKey, pc.BaseURL, model)
	case "openai":
		pc := cfg.Provider("openai")
		model := strings.TrimSpace(spec.ModelID)
		if model == "" {
			model = pc.Model
		}
		return NewOpenAI(pc.APIKey, pc.BaseURL, model)
	default:
		return nil, fmt.Errorf("provider: unknown provider %q (supported: %s)", spec.Kind, strings.Join(Supported(), ", "))
	}
}

// Supported returns the provider kinds the factory can build, sorted.
func Supported() []string {
	return []string{"adversarial-mock", "anthropic", "mock", "openai"}
}
