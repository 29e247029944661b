// Package leaderboard ranks models by their best stored run of an eval.
package leaderboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/NiloCK/model-identity-eval/internal/store"
)

// Entry is one ranked row.
type Entry struct {
	Rank         int       `json:"rank"`
	ModelID      string    `json:"model_id"`
	Provider     string    `json:"provider"`
	EvalName     string    `json:"eval_name"`
	OverallScore float64   `json:"overall_score"`
	PassedCases  int       `json:"passed_cases"`
	TotalCases   int       `json:"total_cases"`
	RunID        string    `json:"run_id"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Source supplies each model's best run for an eval, already ordered by
// score then recency. Satisfied by the run history store.
type Source interface {
	Leaderboard(ctx context.Context, evalName string, limit int) ([]*store.RunRecord, error)
}

// Build assembles the ranked leaderboard for an eval.
func Build(ctx context.Context, src Source, evalName string, limit int) ([]Entry, error) {
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	if src == nil {
		return nil, errors.New("leaderboard: nil source")
	}
	evalName = strings.TrimSpace(evalName)
	if evalName == "" {
		return nil, errors.New("leaderboard: empty eval name")
	}

	rows, err := src.Leaderboard(ctx, evalName, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for i, rec := range rows {
		entries = append(entries, Entry{
			Rank:         i + 1,
			ModelID:      rec.ModelID,
			Provider:     rec.Provider,
			EvalName:     rec.EvalName,
			OverallScore: rec.OverallScore,
			PassedCases:  rec.PassedCases,
			TotalCases:   rec.TotalCases,
			RunID:        rec.ID,
			FinishedAt:   rec.FinishedAt,
		})
	}
	return entries, nil
}
