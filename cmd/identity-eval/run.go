package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/NiloCK/model-identity-eval/internal/config"
	"github.com/NiloCK/model-identity-eval/internal/eval"
	"github.com/NiloCK/model-identity-eval/internal/provider"
	"github.com/NiloCK/model-identity-eval/internal/runner"
	"github.com/NiloCK/model-identity-eval/internal/store"
	"github.com/spf13/cobra"
)

var errEvalFailed = errors.New("identity-eval: eval failed")

type runOptions struct {
	providerKind string
	modelID      string
	mode         string
	response     string

	correctOnDirect    bool
	susceptible        bool
	acceptsCorrections bool

	filter      string
	output      string
	outPath     string
	noStore     bool
	threshold   float64
	maxTokens   int
	temperature float64
	verbose     bool
	ci          bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <eval>",
		Short: "Run an identity evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, st, &opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.providerKind, "provider", "mock", "provider kind: "+strings.Join(provider.Supported(), "|"))
	cmd.Flags().StringVar(&opts.modelID, "model", "", "model id to evaluate (defaults to the only configured model)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "mock response mode: correct|wrong_model|confused|refuses|custom")
	cmd.Flags().StringVar(&opts.response, "response", "", "literal response for --mode custom")
	cmd.Flags().BoolVar(&opts.correctOnDirect, "correct-on-direct", true, "adversarial mock answers direct questions correctly")
	cmd.Flags().BoolVar(&opts.susceptible, "susceptible", false, "adversarial mock falls for fake model switches")
	cmd.Flags().BoolVar(&opts.acceptsCorrections, "accepts-corrections", false, "adversarial mock accepts false identity corrections")
	cmd.Flags().StringVar(&opts.filter, "filter", "", `case filter expression, e.g. 'type == "direct"'`)
	cmd.Flags().StringVar(&opts.output, "output", "", "output format: table|json|github")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "write the report JSON to this path (bare names land in results_dir)")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "skip recording the run in history")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "minimum overall score between 0 and 1 (0 disables)")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "max tokens per response (0 uses the provider default)")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", 0, "sampling temperature")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "print per-case progress to stderr")
	cmd.Flags().BoolVar(&opts.ci, "ci", false, "force CI mode (github output and summaries)")

	return cmd
}

func runEvaluation(cmd *cobra.Command, st *cliState, opts *runOptions, evalRef string) error {
	if st == nil {
		return fmt.Errorf("run: nil state")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}
	if st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}

	ciMode := resolveCIMode(opts)

	output, err := resolveOutputFormat(opts.output, ciMode)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if opts.threshold < 0 || opts.threshold > 1 {
		return fmt.Errorf("run: threshold must be between 0 and 1 (got %v)", opts.threshold)
	}

	cfg, err := loadEvalConfig(st.cfg, evalRef)
	if err != nil {
		return err
	}

	filter, err := eval.NewFilter(opts.filter)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	modelID, err := resolveModelID(cfg, opts.modelID)
	if err != nil {
		return err
	}
	mc, _ := cfg.Model(modelID)

	prov, err := provider.New(st.cfg, provider.Spec{
		Kind:           opts.providerKind,
		ModelID:        modelID,
		Mode:           provider.Mode(strings.TrimSpace(opts.mode)),
		CustomResponse: opts.response,
		Behavior: provider.AdversarialBehavior{
			CorrectOnDirect:         opts.correctOnDirect,
			SusceptibleToFakeSwitch: opts.susceptible,
			AcceptsFalseCorrections: opts.acceptsCorrections,
		},
		Expected: mc.ExpectedAnswers,
	})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	var progress io.Writer
	if opts.verbose {
		progress = cmd.ErrOrStderr()
	}

	r, err := runner.New(cfg, runner.Options{
		Filter:      filter,
		MaxTokens:   opts.maxTokens,
		Temperature: opts.temperature,
		Progress:    progress,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := r.RunModel(ctx, prov, modelID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprint(out, FormatReport(report, output))

	if path := strings.TrimSpace(opts.outPath); path != "" {
		path = resolveReportPath(st.cfg, path)
		if err := runner.SaveReport(report, path); err != nil {
			return err
		}
		if output == FormatTable {
			_, _ = fmt.Fprintf(out, "Report saved: %s\n", path)
		}
	}

	if !opts.noStore {
		runID, err := saveRunToStore(ctx, st, report)
		if err != nil {
			return err
		}
		if output == FormatTable {
			_, _ = fmt.Fprintf(out, "Run stored: %s\n", runID)
		}
	}

	if ciMode {
		writeCIArtifacts(report, opts.threshold)
	}

	if report.FailedTests > 0 {
		return errEvalFailed
	}
	if opts.threshold > 0 && report.OverallScore < opts.threshold {
		return errEvalFailed
	}
	return nil
}

// loadEvalConfig resolves an eval reference: a path loads directly, a bare
// name is matched against the definitions in the configured evals dir.
func loadEvalConfig(hc *config.Config, ref string) (*eval.Config, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("run: missing eval name or path")
	}

	if looksLikePath(ref) {
		return eval.Load(ref)
	}

	dir := evalsDir(hc)
	configs, err := eval.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		if strings.EqualFold(strings.TrimSpace(cfg.EvalName), ref) {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("run: unknown eval %q (searched %s)", ref, dir)
}

func looksLikePath(ref string) bool {
	if strings.ContainsAny(ref, `/\`) {
		return true
	}
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func evalsDir(hc *config.Config) string {
	if hc != nil && strings.TrimSpace(hc.EvalsDir) != "" {
		return hc.EvalsDir
	}
	return "evals"
}

// resolveReportPath places bare file names under the configured results
// dir; anything with a directory component is used as-is.
func resolveReportPath(hc *config.Config, path string) string {
	if strings.ContainsAny(path, `/\`) {
		return path
	}
	if hc != nil && strings.TrimSpace(hc.ResultsDir) != "" {
		return filepath.Join(hc.ResultsDir, path)
	}
	return path
}

// resolveModelID defaults to the sole configured model when no flag is
// given; ambiguity is an error rather than a guess.
func resolveModelID(cfg *eval.Config, flagValue string) (string, error) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, nil
	}
	ids := cfg.ModelIDs()
	if len(ids) == 1 {
		return ids[0], nil
	}
	return "", fmt.Errorf("run: missing --model (configured: %s)", strings.Join(ids, ", "))
}

func saveRunToStore(ctx context.Context, st *cliState, report *runner.Report) (string, error) {
	if st == nil || st.cfg == nil {
		return "", fmt.Errorf("run: missing config (internal error)")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stor, err := openRunStore(st.cfg)
	if err != nil {
		return "", fmt.Errorf("run: open store: %w", err)
	}
	defer stor.Close()

	var writer store.RunWriter = stor

	runID, err := writer.SaveReport(ctx, report)
	if err != nil {
		return "", fmt.Errorf("run: save run: %w", err)
	}
	return runID, nil
}
