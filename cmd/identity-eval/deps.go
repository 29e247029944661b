package main

import (
	"fmt"
	"runtime/debug"
	"sort"
	"text/tabwriter"

	"github.com/NiloCK/model-identity-eval/internal/config"
	"github.com/NiloCK/model-identity-eval/internal/store"
	"github.com/spf13/cobra"
)

// Constructor seams swapped by tests.
var (
	loadHarness  = config.Load
	openRunStore = store.Open

	readBuildInfo = debug.ReadBuildInfo
)

func newDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Print build and dependency versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, ok := readBuildInfo()
			if !ok {
				return fmt.Errorf("deps: build info unavailable")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", info.Main.Path, info.GoVersion)

			deps := make([]*debug.Module, len(info.Deps))
			copy(deps, info.Deps)
			sort.Slice(deps, func(i, j int) bool { return deps[i].Path < deps[j].Path })

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, dep := range deps {
				mod := dep
				if mod.Replace != nil {
					mod = mod.Replace
				}
				fmt.Fprintf(w, "%s\t%s\n", mod.Path, mod.Version)
			}
			return w.Flush()
		},
	}
}
