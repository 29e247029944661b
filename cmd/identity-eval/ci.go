package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/NiloCK/model-identity-eval/internal/ci"
	"github.com/NiloCK/model-identity-eval/internal/runner"
)

// ciReportPath is where CI runs drop the machine-readable report for
// later workflow steps to pick up.
const ciReportPath = "data/ci-results.json"

func resolveCIMode(opts *runOptions) bool {
	if opts != nil && opts.ci {
		return true
	}
	return ci.DetectCI()
}

// writeCIArtifacts publishes the run to the surrounding GitHub Actions
// job: step outputs, a markdown job summary, and a machine-readable
// report file. Failures are reported but never fail the run.
func writeCIArtifacts(report *runner.Report, threshold float64) {
	if report == nil {
		return
	}

	ci.SetOutput("overall_score", fmt.Sprintf("%.4f", report.OverallScore))
	ci.SetOutput("passed", strconv.FormatBool(report.FailedTests == 0))

	// A weighted score can miss the threshold even when every case passes,
	// which would otherwise only surface as an exit code.
	if threshold > 0 && report.OverallScore < threshold {
		ci.AddAnnotation(ci.LevelWarning, "", 0,
			fmt.Sprintf("overall score %.3f is below the threshold %.2f", report.OverallScore, threshold))
	}

	if err := ci.SetJobSummary(buildCIMarkdown(report, threshold)); err != nil {
		fmt.Fprintf(os.Stderr, "ci: write job summary: %v\n", err)
	}
	if err := runner.SaveReport(report, ciReportPath); err != nil {
		fmt.Fprintf(os.Stderr, "ci: write report: %v\n", err)
	}
}

func buildCIMarkdown(report *runner.Report, threshold float64) string {
	var b strings.Builder

	b.WriteString("## Identity Eval Results\n\n")
	if report == nil {
		b.WriteString("_No report produced._\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Eval: %s | Model: %s | Provider: %s\n\n",
		escapeMarkdownCell(report.EvalName), escapeMarkdownCell(report.ModelID), escapeMarkdownCell(report.Provider))
	if threshold > 0 {
		fmt.Fprintf(&b, "Threshold: %.2f\n\n", threshold)
	}
	fmt.Fprintf(&b, "Cases: %d | Passed: %d | Failed: %d | Overall: %.3f | Pass rate: %s\n\n",
		report.TotalTests, report.PassedTests, report.FailedTests, report.OverallScore, report.PassRate)

	if len(report.Results) == 0 {
		b.WriteString("_No cases run._\n")
		return b.String()
	}

	b.WriteString("| Case | Type | Result | Score | Error |\n")
	b.WriteString("| --- | --- | --- | ---: | --- |\n")
	for _, res := range report.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.3f | %s |\n",
			escapeMarkdownCell(res.CaseID),
			escapeMarkdownCell(res.Type),
			status,
			res.Score,
			escapeMarkdownCell(res.Error))
	}
	return b.String()
}

// escapeMarkdownCell keeps arbitrary strings from breaking table layout.
func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return s
}
