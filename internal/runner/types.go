package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/NiloCK/model-identity-eval/internal/provider"
	"github.com/NiloCK/model-identity-eval/internal/scoring"
)

// CaseResult reports the outcome of one test case.
type CaseResult struct {
	CaseID     string             `json:"test_id"`
	Type       string             `json:"test_type"`
	Passed     bool               `json:"passed"`
	Score      float64            `json:"score"`
	Response   string             `json:"response"`
	Details    scoring.Details    `json:"details"`
	Metadata   *provider.Metadata `json:"metadata,omitempty"`
	Error      string             `json:"error,omitempty"`
	DurationMS int64              `json:"duration_ms,omitempty"`
}

// Report aggregates one evaluation run of one model.
type Report struct {
	ModelID      string       `json:"model_id"`
	EvalName     string       `json:"eval_name"`
	Provider     string       `json:"provider,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
	TotalTests   int          `json:"total_tests"`
	PassedTests  int          `json:"passed_tests"`
	FailedTests  int          `json:"failed_tests"`
	OverallScore float64      `json:"overall_score"`
	PassRate     string       `json:"pass_rate"`
	Results      []CaseResult `json:"test_results"`
}

// UnknownModelError reports a provider model id absent from the eval
// config's model_configs.
type UnknownModelError struct {
	ModelID   string
	Available []string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("runner: no config found for model %q (available models: %s)",
		e.ModelID, strings.Join(e.Available, ", "))
}

func formatPassRate(passed, total int, overall float64) string {
	return fmt.Sprintf("%d/%d (%.1f%%)", passed, total, overall*100)
}
