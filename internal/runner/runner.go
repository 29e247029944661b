// Package runner executes an identity evaluation: it walks the config's
// test cases in order, asks the provider for a response to each, scores the
// responses, and aggregates a report.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NiloCK/model-identity-eval/internal/eval"
	"github.com/NiloCK/model-identity-eval/internal/provider"
	"github.com/NiloCK/model-identity-eval/internal/scoring"
)

// Options configures a Runner.
type Options struct {
	Filter      *eval.Filter // optional case selection
	MaxTokens   int
	Temperature float64
	Progress    io.Writer // per-case progress lines; nil means silent
}

// Runner executes one eval config against one provider at a time. Cases run
// sequentially in declaration order: identity probes are cheap, and
// interleaved output would make transcripts harder to read than the saved
// wall-clock time is worth.
type Runner struct {
	cfg      *eval.Config
	scorer   scoring.Scorer
	filter   *eval.Filter
	genOpts  provider.GenerateOptions
	progress io.Writer
}

// New validates the config and resolves its scoring method once.
func New(cfg *eval.Config, opts Options) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("runner: nil eval config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	method := strings.TrimSpace(cfg.Scoring.Method)
	if method == "" {
		method = eval.DefaultScoringMethod
	}
	scorer, err := scoring.Lookup(method)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:    cfg,
		scorer: scorer,
		filter: opts.Filter,
		genOpts: provider.GenerateOptions{
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		},
		progress: opts.Progress,
	}, nil
}

// Run evaluates the provider under its own model id.
func (r *Runner) Run(ctx context.Context, p provider.Provider) (*Report, error) {
	if p == nil {
		return nil, errors.New("runner: nil provider")
	}
	return r.RunModel(ctx, p, p.ModelID())
}

// RunModel evaluates the provider against the expected answers configured
// for modelID. Provider failures never abort the run: the error text is
// substituted as the response and scored like any other answer.
func (r *Runner) RunModel(ctx context.Context, p provider.Provider, modelID string) (*Report, error) {
	if r == nil {
		return nil, errors.New("runner: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("runner: nil context")
	}
	if p == nil {
		return nil, errors.New("runner: nil provider")
	}

	mc, ok := r.cfg.Model(modelID)
	if !ok {
		return nil, &UnknownModelError{ModelID: modelID, Available: r.cfg.ModelIDs()}
	}
	expected := mc.ExpectedAnswers
	allNames := r.cfg.AllModelNames()

	cases := make([]eval.TestCase, 0, len(r.cfg.TestCases))
	for _, tc := range r.cfg.TestCases {
		if r.filter != nil && !r.filter.Matches(tc) {
			continue
		}
		cases = append(cases, tc)
	}

	report := &Report{
		ModelID:   modelID,
		EvalName:  r.cfg.EvalName,
		Provider:  p.Name(),
		StartedAt: time.Now().UTC(),
		Results:   make([]CaseResult, 0, len(cases)),
	}

	r.progressf("Running eval '%s' on model '%s'", r.cfg.EvalName, modelID)
	r.progressf("Total test cases: %d\n", len(cases))

	for i, tc := range cases {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		r.progressf("[%d/%d] Running test '%s'...", i+1, len(cases), tc.ID)

		res := r.runCase(ctx, p, tc, expected, allNames)
		report.Results = append(report.Results, res)

		if res.Passed {
			r.progressf("    ✓ PASS (score: %.2f)\n", res.Score)
		} else {
			r.progressf("    ✗ FAIL (score: %.2f)", res.Score)
			r.progressf("    Response: %s...\n", truncate(res.Response, 100))
		}
	}

	finishReport(report, r.cfg.Scoring)
	return report, nil
}

func (r *Runner) runCase(ctx context.Context, p provider.Provider, tc eval.TestCase, expected eval.ExpectedAnswers, allNames []string) CaseResult {
	messages := make([]provider.Message, 0, len(tc.SetupMessages)+1)
	for _, m := range tc.SetupMessages {
		messages = append(messages, provider.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: tc.Prompt})

	out := CaseResult{
		CaseID: tc.ID,
		Type:   caseType(tc),
	}

	start := time.Now()
	resp, err := p.Generate(ctx, messages, r.genOpts)
	out.DurationMS = time.Since(start).Milliseconds()

	var response string
	switch {
	case err != nil:
		response = "ERROR: " + err.Error()
		out.Error = err.Error()
	case resp == nil:
		response = "ERROR: empty provider response"
		out.Error = "empty provider response"
	default:
		response = resp.Content
		out.Metadata = &resp.Metadata
	}

	sr := r.scorer.Score(response, expected, allNames)
	out.Passed = sr.Passed
	out.Score = sr.Score
	out.Response = response
	out.Details = sr.Details
	return out
}

// finishReport computes the aggregate fields from the per-case results. The
// overall score weights each case by its type but divides by the plain case
// count, so weights above 1.0 amplify and below 1.0 dampen.
func finishReport(report *Report, sc eval.ScoringConfig) {
	passed := 0
	weighted := 0.0
	for _, res := range report.Results {
		if res.Passed {
			passed++
		}
		weighted += res.Score * sc.WeightFor(res.Type)
	}

	overall := 0.0
	if len(report.Results) > 0 {
		overall = weighted / float64(len(report.Results))
	}

	report.TotalTests = len(report.Results)
	report.PassedTests = passed
	report.FailedTests = report.TotalTests - passed
	report.OverallScore = overall
	report.PassRate = formatPassRate(passed, report.TotalTests, overall)
	report.FinishedAt = time.Now().UTC()
}

// SaveReport writes the report as indented JSON, creating parent
// directories as needed.
func SaveReport(report *Report, path string) error {
	if report == nil {
		return errors.New("runner: nil report")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("runner: empty output path")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("runner: create output dir: %w", err)
		}
	}

	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("runner: marshal report: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("runner: write report: %w", err)
	}
	return nil
}

func (r *Runner) progressf(format string, args ...any) {
	if r.progress == nil {
		return
	}
	fmt.Fprintf(r.progress, format+"\n", args...)
}

func caseType(tc eval.TestCase) string {
	if strings.TrimSpace(tc.Type) == "" {
		return eval.DefaultCaseType
	}
	return tc.Type
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
