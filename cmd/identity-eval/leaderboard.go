package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/NiloCK/model-identity-eval/internal/leaderboard"
	"github.com/spf13/cobra"
)

type leaderboardOptions struct {
	evalName string
	limit    int
	format   string
}

func newLeaderboardCmd(st *cliState) *cobra.Command {
	var opts leaderboardOptions

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank models by their best stored run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLeaderboard(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.evalName, "eval", "", "eval to rank models on (required)")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum number of entries")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table|json")

	return cmd
}

func runLeaderboard(cmd *cobra.Command, st *cliState, opts *leaderboardOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("leaderboard: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("leaderboard: nil options")
	}

	evalName := strings.TrimSpace(opts.evalName)
	if evalName == "" {
		return fmt.Errorf("leaderboard: missing --eval")
	}

	stor, err := openRunStore(st.cfg)
	if err != nil {
		return fmt.Errorf("leaderboard: open store: %w", err)
	}
	defer stor.Close()

	entries, err := leaderboard.Build(cmd.Context(), stor, evalName, opts.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "", "table":
		if len(entries) == 0 {
			fmt.Fprintln(out, "No runs found.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tMODEL\tPROVIDER\tSCORE\tPASSED\tRUN_ID\tFINISHED")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.3f\t%d/%d\t%s\t%s\n",
				e.Rank,
				e.ModelID,
				e.Provider,
				e.OverallScore,
				e.PassedCases,
				e.TotalCases,
				e.RunID,
				formatTime(e.FinishedAt))
		}
		return w.Flush()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	default:
		return fmt.Errorf("leaderboard: invalid --format %q (expected table|json)", opts.format)
	}
}
