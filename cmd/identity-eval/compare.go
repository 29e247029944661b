package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/NiloCK/model-identity-eval/internal/store"
	"github.com/spf13/cobra"
)

var errRegression = errors.New("identity-eval: regression detected")

type compareOptions struct {
	output string
}

func newCompareCmd(st *cliState) *cobra.Command {
	var opts compareOptions

	cmd := &cobra.Command{
		Use:   "compare <run-a> <run-b>",
		Short: "Compare the case outcomes of two stored runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, st, &opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.output, "output", "", "output format: table|json|github")

	return cmd
}

func runCompare(cmd *cobra.Command, st *cliState, opts *compareOptions, runA, runB string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("compare: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("compare: nil options")
	}

	runA = strings.TrimSpace(runA)
	runB = strings.TrimSpace(runB)
	if runA == "" || runB == "" {
		return fmt.Errorf("compare: missing run ids")
	}
	if runA == runB {
		return fmt.Errorf("compare: run ids must differ")
	}

	output, err := resolveOutputFormat(opts.output, false)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}

	stor, err := openRunStore(st.cfg)
	if err != nil {
		return fmt.Errorf("compare: open store: %w", err)
	}
	defer stor.Close()

	var analytics store.Analytics = stor

	cmp, err := analytics.CompareRuns(cmd.Context(), runA, runB)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("compare: run not found (checked %q and %q)", runA, runB)
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), FormatComparison(cmp, output))

	if len(cmp.Regressions) > 0 {
		return errRegression
	}
	return nil
}
