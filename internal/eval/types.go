// Package eval defines identity evaluation configs and their loader.
//
// A config names the eval, lists the test cases to run, maps each model id
// to the identity strings it is allowed to claim, and selects how responses
// are scored. Configs are loaded once and treated as immutable for the
// duration of a run.
package eval

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultScoringMethod is used when a config leaves scoring.method empty.
const DefaultScoringMethod = "keyword_match"

// DefaultCaseType is the category label for cases that declare no type.
const DefaultCaseType = "unknown"

// Message is a single turn of conversation context supplied by a test case.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// TestCase defines a single identity probe.
type TestCase struct {
	ID            string    `json:"id" yaml:"id"`
	Type          string    `json:"type,omitempty" yaml:"type,omitempty"` // free-form category, e.g. "direct", "adversarial"
	SetupMessages []Message `json:"setup_messages,omitempty" yaml:"setup_messages,omitempty"`
	Prompt        string    `json:"prompt" yaml:"prompt"`
}

// ExpectedAnswers holds the identity strings a model may claim as its own.
type ExpectedAnswers struct {
	ModelNames   []string `json:"model_names" yaml:"model_names"`
	ProviderName string   `json:"provider_name,omitempty" yaml:"provider_name,omitempty"`
}

// ModelConfig describes one model under test.
type ModelConfig struct {
	ExpectedAnswers ExpectedAnswers `json:"expected_answers" yaml:"expected_answers"`
}

// ScoringConfig selects the scoring method and per-type weights.
type ScoringConfig struct {
	Method  string             `json:"method,omitempty" yaml:"method,omitempty"`
	Weights map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// WeightFor returns the weight for a test type, defaulting to 1.0 for types
// the config does not mention.
func (s ScoringConfig) WeightFor(testType string) float64 {
	if w, ok := s.Weights[testType]; ok {
		return w
	}
	return 1.0
}

// Config is a complete identity evaluation definition.
type Config struct {
	EvalName     string                 `json:"eval_name" yaml:"eval_name"`
	Description  string                 `json:"description,omitempty" yaml:"description,omitempty"`
	TestCases    []TestCase             `json:"test_cases" yaml:"test_cases"`
	ModelConfigs map[string]ModelConfig `json:"model_configs" yaml:"model_configs"`
	Scoring      ScoringConfig          `json:"scoring" yaml:"scoring"`
}

// Model returns the config for a model id.
func (c *Config) Model(modelID string) (ModelConfig, bool) {
	mc, ok := c.ModelConfigs[modelID]
	return mc, ok
}

// ModelIDs returns the configured model ids in sorted order.
func (c *Config) ModelIDs() []string {
	ids := make([]string, 0, len(c.ModelConfigs))
	for id := range c.ModelConfigs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllModelNames returns the expected names of every configured model,
// iterating models in sorted id order so the result is deterministic. The
// flattened list is what scorers scan for claims of other identities.
func (c *Config) AllModelNames() []string {
	var names []string
	for _, id := range c.ModelIDs() {
		names = append(names, c.ModelConfigs[id].ExpectedAnswers.ModelNames...)
	}
	return names
}

// Validate checks a loaded config for consistency.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.EvalName) == "" {
		return &ConfigError{Msg: "eval_name is empty"}
	}
	if len(c.TestCases) == 0 {
		return &ConfigError{Msg: "no test cases"}
	}

	seenIDs := make(map[string]struct{}, len(c.TestCases))
	for i, tc := range c.TestCases {
		id := strings.TrimSpace(tc.ID)
		if id == "" {
			return &ConfigError{Msg: fmt.Sprintf("test_cases[%d]: missing id", i)}
		}
		if _, ok := seenIDs[id]; ok {
			return &ConfigError{Msg: fmt.Sprintf("test_cases[%d] (%s): duplicate id", i, id)}
		}
		seenIDs[id] = struct{}{}

		if strings.TrimSpace(tc.Prompt) == "" {
			return &ConfigError{Msg: fmt.Sprintf("test_cases[%d] (%s): missing prompt", i, id)}
		}
		for j, m := range tc.SetupMessages {
			if strings.TrimSpace(m.Role) == "" {
				return &ConfigError{Msg: fmt.Sprintf("test_cases[%d] (%s): setup_messages[%d]: missing role", i, id, j)}
			}
			if strings.TrimSpace(m.Content) == "" {
				return &ConfigError{Msg: fmt.Sprintf("test_cases[%d] (%s): setup_messages[%d]: missing content", i, id, j)}
			}
		}
	}

	if len(c.ModelConfigs) == 0 {
		return &ConfigError{Msg: "no model configs"}
	}
	for _, id := range c.ModelIDs() {
		mc := c.ModelConfigs[id]
		if len(mc.ExpectedAnswers.ModelNames) == 0 {
			return &ConfigError{Msg: fmt.Sprintf("model_configs[%s]: no expected model names", id)}
		}
		for j, name := range mc.ExpectedAnswers.ModelNames {
			if strings.TrimSpace(name) == "" {
				return &ConfigError{Msg: fmt.Sprintf("model_configs[%s]: model_names[%d]: empty string", id, j)}
			}
		}
	}

	return nil
}

// ConfigError reports a structurally invalid evaluation config. Key is set
// when a required top-level key is absent from the document.
type ConfigError struct {
	Key string
	Msg string
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("eval: config missing required key: %s", e.Key)
	}
	return "eval: " + e.Msg
}
