package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/NiloCK/model-identity-eval/internal/store"
	"github.com/spf13/cobra"
)

type historyOptions struct {
	evalName string
	modelID  string
	limit    int
	since    string
}

func newHistoryCmd(st *cliState) *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.evalName, "eval", "", "only show runs for this eval")
	cmd.Flags().StringVar(&opts.modelID, "model", "", "only show runs for this model")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().StringVar(&opts.since, "since", "", "only show runs finished after this time (YYYY-MM-DD or RFC3339)")

	cmd.AddCommand(newHistoryShowCmd(st))

	return cmd
}

func newHistoryShowCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the case results of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, st, args[0])
		},
	}
}

func runHistoryList(cmd *cobra.Command, st *cliState, opts *historyOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("history: nil options")
	}

	since, err := parseSince(opts.since)
	if err != nil {
		return err
	}

	stor, err := openRunStore(st.cfg)
	if err != nil {
		return fmt.Errorf("history: open store: %w", err)
	}
	defer stor.Close()

	var reader store.RunReader = stor

	runs, err := reader.ListRuns(cmd.Context(), store.RunFilter{
		EvalName: opts.evalName,
		ModelID:  opts.modelID,
		Since:    since,
		Limit:    opts.limit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN_ID\tEVAL\tMODEL\tFINISHED\tPASSED\tFAILED\tSCORE")
	for _, rec := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.3f\n",
			rec.ID,
			rec.EvalName,
			rec.ModelID,
			formatTime(rec.FinishedAt),
			rec.PassedCases,
			rec.FailedCases,
			rec.OverallScore)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, st *cliState, runID string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("history: missing run id")
	}

	stor, err := openRunStore(st.cfg)
	if err != nil {
		return fmt.Errorf("history: open store: %w", err)
	}
	defer stor.Close()

	var reader store.RunReader = stor

	rec, err := reader.GetRun(cmd.Context(), runID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("history: run %q not found", runID)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run: %s\n", rec.ID)
	fmt.Fprintf(out, "Eval: %s\n", rec.EvalName)
	fmt.Fprintf(out, "Model: %s (%s)\n", rec.ModelID, rec.Provider)
	fmt.Fprintf(out, "Started: %s\n", formatTime(rec.StartedAt))
	fmt.Fprintf(out, "Finished: %s\n", formatTime(rec.FinishedAt))
	fmt.Fprintf(out, "Cases: %d passed=%d failed=%d score=%.3f\n",
		rec.TotalCases, rec.PassedCases, rec.FailedCases, rec.OverallScore)
	if rec.Report != nil && rec.Report.PassRate != "" {
		fmt.Fprintf(out, "Pass rate: %s\n", rec.Report.PassRate)
	}
	fmt.Fprintln(out)

	rows, err := reader.GetCaseResults(cmd.Context(), runID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tTYPE\tRESULT\tSCORE\tERROR")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%s\n",
			row.CaseID, row.Type, statusLabel(row.Passed), row.Score, row.Error)
	}
	return w.Flush()
}

func parseSince(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("history: invalid --since %q (expected YYYY-MM-DD or RFC3339)", s)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.UTC().Format(time.RFC3339)
}

func statusLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
