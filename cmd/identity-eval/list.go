package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/NiloCK/model-identity-eval/internal/eval"
	"github.com/NiloCK/model-identity-eval/internal/provider"
	"github.com/NiloCK/model-identity-eval/internal/scoring"
	"github.com/spf13/cobra"
)

func newListCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List evals, providers, or scorers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runListEvals(cmd, st)
		},
	}

	cmd.AddCommand(newListEvalsCmd(st))
	cmd.AddCommand(newListProvidersCmd())
	cmd.AddCommand(newListScorersCmd())

	return cmd
}

func newListEvalsCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "evals",
		Short: "List eval definitions in the configured evals dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runListEvals(cmd, st)
		},
	}
}

func newListProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported provider kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			modes := provider.Modes()
			names := make([]string, len(modes))
			for i, m := range modes {
				names[i] = string(m)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Providers: %s\n", strings.Join(provider.Supported(), ", "))
			fmt.Fprintf(out, "Mock modes: %s\n", strings.Join(names, ", "))
			return nil
		},
	}
}

func newListScorersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scorers",
		Short: "List available scoring methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Scorers: %s\n", strings.Join(scoring.Methods(), ", "))
			return nil
		},
	}
}

func runListEvals(cmd *cobra.Command, st *cliState) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("list: missing config (internal error)")
	}

	configs, err := eval.LoadDir(evalsDir(st.cfg))
	if err != nil {
		return err
	}
	sort.Slice(configs, func(i, j int) bool {
		return strings.ToLower(configs[i].EvalName) < strings.ToLower(configs[j].EvalName)
	})

	out := cmd.OutOrStdout()
	if len(configs) == 0 {
		fmt.Fprintln(out, "No evals found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCASES\tMODELS\tSCORING\tDESCRIPTION")
	for _, cfg := range configs {
		method := cfg.Scoring.Method
		if method == "" {
			method = eval.DefaultScoringMethod
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			cfg.EvalName,
			len(cfg.TestCases),
			strings.Join(cfg.ModelIDs(), ","),
			method,
			cfg.Description)
	}
	return w.Flush()
}
