package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NiloCK/model-identity-eval/internal/adversarial"
	"github.com/NiloCK/model-identity-eval/internal/eval"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type generateOptions struct {
	categories  []string
	perCategory int
	seed        int64
	name        string
	basePath    string
	outPath     string
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an adversarial identity eval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, &opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.categories, "categories", nil, "case categories: direct|fake-switch|false-correction (default all)")
	cmd.Flags().IntVar(&opts.perCategory, "per-category", adversarial.DefaultPerCategory, "cases generated per category")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed for reproducible paraphrase choice")
	cmd.Flags().StringVar(&opts.name, "name", "", "eval name (default "+adversarial.DefaultEvalName+")")
	cmd.Flags().StringVar(&opts.basePath, "base", "", "eval file supplying model configs and scoring")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "write the eval to this path instead of stdout")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	if opts == nil {
		return fmt.Errorf("generate: nil options")
	}

	categories := make([]adversarial.Category, 0, len(opts.categories))
	for _, c := range opts.categories {
		categories = append(categories, adversarial.Category(strings.TrimSpace(c)))
	}

	cases, err := adversarial.Generate(adversarial.Options{
		Categories:  categories,
		PerCategory: opts.perCategory,
		Seed:        opts.seed,
	})
	if err != nil {
		return err
	}

	var base *eval.Config
	if path := strings.TrimSpace(opts.basePath); path != "" {
		base, err = eval.Load(path)
		if err != nil {
			return err
		}
	}

	cfg, err := adversarial.BuildConfig(opts.name, base, cases)
	if err != nil {
		return err
	}

	outPath := strings.TrimSpace(opts.outPath)
	if outPath == "" {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("generate: marshal eval: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if err := writeEvalFile(cfg, outPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Eval written: %s (%d cases)\n", outPath, len(cfg.TestCases))
	return nil
}

// writeEvalFile serializes the eval by the target extension, creating
// parent directories as needed.
func writeEvalFile(cfg *eval.Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("generate: unsupported output format %q (expected .json, .yaml, or .yml)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("generate: marshal eval: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("generate: create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("generate: write eval: %w", err)
	}
	return nil
}
