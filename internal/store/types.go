package store

import (
	"context"
	"time"

	"github.com/NiloCK/model-identity-eval/internal/runner"
)

// RunWriter defines persistence for finished evaluation runs.
type RunWriter interface {
	// SaveReport persists the report and returns the generated run id.
	SaveReport(ctx context.Context, report *runner.Report) (string, error)
}

// RunReader defines read access to stored runs.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
	GetCaseResults(ctx context.Context, runID string) ([]CaseRow, error)
}

// Analytics defines query helpers over run history.
type Analytics interface {
	// Leaderboard returns each model's best run for an eval, highest
	// score first, ties broken by recency.
	Leaderboard(ctx context.Context, evalName string, limit int) ([]*RunRecord, error)
	CompareRuns(ctx context.Context, runA, runB string) (*RunComparison, error)
}

// Store defines persistence for evaluation runs.
type Store interface {
	RunWriter
	RunReader
	Analytics
	Close() error
}

// RunRecord stores a single run summary. Report is decoded only by GetRun;
// listing queries leave it nil.
type RunRecord struct {
	ID           string
	EvalName     string
	Provider     string
	ModelID      string
	StartedAt    time.Time
	FinishedAt   time.Time
	TotalCases   int
	PassedCases  int
	FailedCases  int
	OverallScore float64
	Report       *runner.Report
}

// CaseRow stores one test case outcome, in run declaration order.
type CaseRow struct {
	CaseID   string
	Type     string
	Passed   bool
	Score    float64
	Response string
	Error    string
}

// RunFilter filters run listings.
type RunFilter struct {
	EvalName string
	ModelID  string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// RunComparison diffs the case outcomes of two runs. Cases present in only
// one run are ignored.
type RunComparison struct {
	RunA        *RunRecord
	RunB        *RunRecord
	Regressions []string // passed in A, failed in B
	Fixes       []string // failed in A, passed in B
	Unchanged   []string // same outcome in both
}
