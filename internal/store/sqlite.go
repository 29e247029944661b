package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/NiloCK/model-identity-eval/internal/runner"
)

const defaultHistoryLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt   *sql.Stmt
	insertCaseStmt  *sql.Stmt
	getRunStmt      *sql.Stmt
	casesByRunStmt  *sql.Stmt
	leaderboardStmt *sql.Stmt
}

var (
	sqliteOpen              = sql.Open
	sqlitePrepareStatements = (*SQLiteStore).prepareStatements
)

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sqliteOpen("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := sqlitePrepareStatements(st); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			eval_name TEXT NOT NULL,
			provider TEXT NOT NULL,
			model_id TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			total_cases INTEGER NOT NULL,
			passed_cases INTEGER NOT NULL,
			failed_cases INTEGER NOT NULL,
			overall_score REAL NOT NULL,
			report BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS case_results (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			case_id TEXT NOT NULL,
			case_type TEXT NOT NULL,
			passed INTEGER NOT NULL,
			score REAL NOT NULL,
			response TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, case_id),
			FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_eval_name ON runs(eval_name)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model_id ON runs(model_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_case_results_run_id ON case_results(run_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

const runSummaryCols = `id, eval_name, provider, model_id, started_at, finished_at,
	total_cases, passed_cases, failed_cases, overall_score`

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertRunStmt,
			query: `
				INSERT INTO runs (
					id, eval_name, provider, model_id, started_at, finished_at,
					total_cases, passed_cases, failed_cases, overall_score, report
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert run: %w",
		},
		{
			dst: &s.insertCaseStmt,
			query: `
				INSERT INTO case_results (
					run_id, position, case_id, case_type, passed, score, response, error
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert case: %w",
		},
		{
			dst: &s.getRunStmt,
			query: `
				SELECT ` + runSummaryCols + `, report
				FROM runs WHERE id = ?
			`,
			errFmt: "store: prepare get run: %w",
		},
		{
			dst: &s.casesByRunStmt,
			query: `
				SELECT case_id, case_type, passed, score, response, error
				FROM case_results
				WHERE run_id = ?
				ORDER BY position ASC
			`,
			errFmt: "store: prepare get cases: %w",
		},
		{
			dst: &s.leaderboardStmt,
			query: `
				SELECT ` + runSummaryCols + `
				FROM runs
				WHERE eval_name = ?
				ORDER BY overall_score DESC, finished_at DESC
			`,
			errFmt: "store: prepare leaderboard: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.insertRunStmt,
		s.insertCaseStmt,
		s.getRunStmt,
		s.casesByRunStmt,
		s.leaderboardStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveReport persists a finished run and its case outcomes in one
// transaction, generating the run id.
func (s *SQLiteStore) SaveReport(ctx context.Context, report *runner.Report) (string, error) {
	if s == nil {
		return "", errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return "", errors.New("store: nil context")
	}
	if report == nil {
		return "", errors.New("store: nil report")
	}
	if report.StartedAt.IsZero() || report.FinishedAt.IsZero() {
		return "", errors.New("store: missing run timestamps")
	}

	id, err := newRunID()
	if err != nil {
		return "", fmt.Errorf("store: generate run id: %w", err)
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("store: marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	runStmt := tx.StmtContext(ctx, s.insertRunStmt)
	defer runStmt.Close()

	_, err = runStmt.ExecContext(
		ctx,
		id,
		report.EvalName,
		report.Provider,
		report.ModelID,
		report.StartedAt.UTC().UnixMilli(),
		report.FinishedAt.UTC().UnixMilli(),
		report.TotalTests,
		report.PassedTests,
		report.FailedTests,
		report.OverallScore,
		reportJSON,
	)
	if err != nil {
		return "", fmt.Errorf("store: insert run: %w", err)
	}

	caseStmt := tx.StmtContext(ctx, s.insertCaseStmt)
	defer caseStmt.Close()

	for i, res := range report.Results {
		_, err = caseStmt.ExecContext(
			ctx,
			id,
			i,
			res.CaseID,
			res.Type,
			res.Passed,
			res.Score,
			res.Response,
			res.Error,
		)
		if err != nil {
			return "", fmt.Errorf("store: insert case %q: %w", res.CaseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit run: %w", err)
	}
	return id, nil
}

// GetRun loads a run by id, including the full report.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty run id")
	}

	row := s.getRunStmt.QueryRowContext(ctx, id)
	var (
		rec        RunRecord
		startedMS  int64
		finishedMS int64
		reportJSON []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.EvalName,
		&rec.Provider,
		&rec.ModelID,
		&startedMS,
		&finishedMS,
		&rec.TotalCases,
		&rec.PassedCases,
		&rec.FailedCases,
		&rec.OverallScore,
		&reportJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}

	rec.StartedAt = time.UnixMilli(startedMS).UTC()
	rec.FinishedAt = time.UnixMilli(finishedMS).UTC()

	if len(reportJSON) > 0 {
		var report runner.Report
		if err := json.Unmarshal(reportJSON, &report); err != nil {
			return nil, fmt.Errorf("store: decode report: %w", err)
		}
		rec.Report = &report
	}
	return &rec, nil
}

// ListRuns returns run summaries matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	evalName := strings.TrimSpace(filter.EvalName)
	modelID := strings.TrimSpace(filter.ModelID)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + runSummaryCols + ` FROM runs WHERE 1=1`)

	var args []any
	if evalName != "" {
		sb.WriteString(` AND eval_name = ?`)
		args = append(args, evalName)
	}
	if modelID != "" {
		sb.WriteString(` AND model_id = ?`)
		args = append(args, modelID)
	}
	if !filter.Since.IsZero() {
		sb.WriteString(` AND started_at >= ?`)
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if !filter.Until.IsZero() {
		sb.WriteString(` AND started_at <= ?`)
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	sb.WriteString(` ORDER BY started_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()
	return scanRunRows(rows)
}

// GetCaseResults lists the case outcomes of a run in declaration order.
func (s *SQLiteStore) GetCaseResults(ctx context.Context, runID string) ([]CaseRow, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, errors.New("store: empty run id")
	}

	rows, err := s.casesByRunStmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("store: get case results: %w", err)
	}
	defer rows.Close()

	var out []CaseRow
	for rows.Next() {
		var cr CaseRow
		if err := rows.Scan(&cr.CaseID, &cr.Type, &cr.Passed, &cr.Score, &cr.Response, &cr.Error); err != nil {
			return nil, fmt.Errorf("store: scan case: %w", err)
		}
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan case rows: %w", err)
	}
	return out, nil
}

// Leaderboard returns each model's best run for an eval, highest score
// first. The query orders by score then recency, so the first row seen per
// model is its best.
func (s *SQLiteStore) Leaderboard(ctx context.Context, evalName string, limit int) ([]*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	evalName = strings.TrimSpace(evalName)
	if evalName == "" {
		return nil, errors.New("store: empty eval name")
	}

	rows, err := s.leaderboardStmt.QueryContext(ctx, evalName)
	if err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	defer rows.Close()

	all, err := scanRunRows(rows)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(all))
	var out []*RunRecord
	for _, rec := range all {
		if _, ok := seen[rec.ModelID]; ok {
			continue
		}
		seen[rec.ModelID] = struct{}{}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// CompareRuns diffs the case outcomes of two stored runs.
func (s *SQLiteStore) CompareRuns(ctx context.Context, runA, runB string) (*RunComparison, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	recA, err := s.GetRun(ctx, runA)
	if err != nil {
		return nil, fmt.Errorf("store: compare run %q: %w", runA, err)
	}
	recB, err := s.GetRun(ctx, runB)
	if err != nil {
		return nil, fmt.Errorf("store: compare run %q: %w", runB, err)
	}

	casesA, err := s.GetCaseResults(ctx, recA.ID)
	if err != nil {
		return nil, err
	}
	casesB, err := s.GetCaseResults(ctx, recB.ID)
	if err != nil {
		return nil, err
	}

	regressions, fixes, unchanged := compareCaseOutcomes(casesA, casesB)
	return &RunComparison{
		RunA:        recA,
		RunB:        recB,
		Regressions: regressions,
		Fixes:       fixes,
		Unchanged:   unchanged,
	}, nil
}

func scanRunRows(rows *sql.Rows) ([]*RunRecord, error) {
	var out []*RunRecord
	for rows.Next() {
		var (
			rec        RunRecord
			startedMS  int64
			finishedMS int64
		)
		err := rows.Scan(
			&rec.ID,
			&rec.EvalName,
			&rec.Provider,
			&rec.ModelID,
			&startedMS,
			&finishedMS,
			&rec.TotalCases,
			&rec.PassedCases,
			&rec.FailedCases,
			&rec.OverallScore,
		)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMS).UTC()
		rec.FinishedAt = time.UnixMilli(finishedMS).UTC()
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan run rows: %w", err)
	}
	return out, nil
}

func compareCaseOutcomes(casesA, casesB []CaseRow) (regressions, fixes, unchanged []string) {
	outcomesA := make(map[string]bool, len(casesA))
	for _, cr := range casesA {
		outcomesA[cr.CaseID] = cr.Passed
	}

	for _, cr := range casesB {
		passedA, ok := outcomesA[cr.CaseID]
		if !ok {
			continue
		}
		switch {
		case passedA && !cr.Passed:
			regressions = append(regressions, cr.CaseID)
		case !passedA && cr.Passed:
			fixes = append(fixes, cr.CaseID)
		default:
			unchanged = append(unchanged, cr.CaseID)
		}
	}

	sort.Strings(regressions)
	sort.Strings(fixes)
	sort.Strings(unchanged)
	return regressions, fixes, unchanged
}

func newRunID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("run_%s_%x", time.Now().UTC().Format("20060102T150405Z"), buf), nil
}
