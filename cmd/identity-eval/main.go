package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/NiloCK/model-identity-eval/internal/config"
	"github.com/spf13/cobra"
)

type cliState struct {
	configPath string
	cfg        *config.Config
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errEvalFailed) || errors.Is(err, errRegression) {
			osExit(1)
			return
		}
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:           "identity-eval",
		Short:         "Evaluate whether models report their own identity correctly",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadHarness(st.configPath)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", "", "path to harness config file (default "+config.DefaultPath+")")

	root.AddCommand(newRunCmd(st))
	root.AddCommand(newListCmd(st))
	root.AddCommand(newHistoryCmd(st))
	root.AddCommand(newCompareCmd(st))
	root.AddCommand(newLeaderboardCmd(st))
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newDepsCmd())
	return root
}
