package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/NiloCK/model-identity-eval/internal/runner"
	"github.com/NiloCK/model-identity-eval/internal/store"
)

type OutputFormat string

const (
	FormatTable  OutputFormat = "table"
	FormatJSON   OutputFormat = "json"
	FormatGitHub OutputFormat = "github"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

func parseOutputFormat(s string) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table":
		return FormatTable
	case "json", "jsonl":
		return FormatJSON
	case "github", "gh":
		return FormatGitHub
	default:
		return ""
	}
}

// resolveOutputFormat picks the effective format: an explicit flag wins,
// otherwise CI mode defaults to github and everything else to table.
func resolveOutputFormat(flagValue string, ciMode bool) (OutputFormat, error) {
	if strings.TrimSpace(flagValue) != "" {
		out := parseOutputFormat(flagValue)
		if out == "" {
			return "", fmt.Errorf("invalid --output %q (expected table|json|github)", flagValue)
		}
		return out, nil
	}
	if ciMode {
		return FormatGitHub, nil
	}
	return FormatTable, nil
}

func coloredStatus(passed bool) string {
	if passed {
		return colorGreen + "PASS" + colorReset
	}
	return colorRed + "FAIL" + colorReset
}

func reportPassed(report *runner.Report) bool {
	return report != nil && report.FailedTests == 0
}

func FormatReport(report *runner.Report, format OutputFormat) string {
	switch format {
	case FormatTable:
		return formatReportTable(report)
	case FormatJSON:
		return formatReportJSON(report)
	case FormatGitHub:
		return formatReportGitHub(report)
	default:
		return fmt.Sprintf("error: unknown output format %q\n", format)
	}
}

func FormatComparison(cmp *store.RunComparison, format OutputFormat) string {
	switch format {
	case FormatTable:
		return formatComparisonTable(cmp)
	case FormatJSON:
		return formatComparisonJSON(cmp)
	case FormatGitHub:
		return formatComparisonGitHub(cmp)
	default:
		return fmt.Sprintf("error: unknown output format %q\n", format)
	}
}

func formatReportTable(report *runner.Report) string {
	if report == nil {
		return "Eval: <nil> " + coloredStatus(false) + "\n\n"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Eval: %s model=%s provider=%s %s\n",
		report.EvalName, report.ModelID, report.Provider, coloredStatus(reportPassed(report)))
	fmt.Fprintf(&buf, "Cases: %d passed=%d failed=%d overall=%.3f pass_rate=%s\n",
		report.TotalTests, report.PassedTests, report.FailedTests, report.OverallScore, report.PassRate)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tTYPE\tRESULT\tSCORE\tERROR")
	for _, res := range report.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%s\n",
			res.CaseID, res.Type, coloredStatus(res.Passed), res.Score, res.Error)
	}
	_ = tw.Flush()
	buf.WriteByte('\n')
	return buf.String()
}

func formatReportJSON(report *runner.Report) string {
	if report == nil {
		return "{\"error\":\"nil report\"}\n"
	}
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}\n", err.Error())
	}
	return string(b) + "\n"
}

func formatReportGitHub(report *runner.Report) string {
	if report == nil {
		return "::error::nil report\n"
	}

	var buf strings.Builder
	for _, res := range report.Results {
		if res.Passed {
			continue
		}
		msg := fmt.Sprintf("eval=%s model=%s case=%s score=%.3f",
			report.EvalName, report.ModelID, res.CaseID, res.Score)
		if res.Error != "" {
			msg += " error=" + res.Error
		}
		buf.WriteString("::error::")
		buf.WriteString(sanitizeGitHubAnnotation(msg))
		buf.WriteByte('\n')
	}

	buf.WriteString(fmt.Sprintf("Summary: eval=%s model=%s cases=%d passed=%d failed=%d overall=%.3f\n",
		report.EvalName, report.ModelID, report.TotalTests, report.PassedTests, report.FailedTests, report.OverallScore))
	return buf.String()
}

func sanitizeGitHubAnnotation(s string) string {
	// GitHub Actions commands treat CR/LF and percent-encoding specially.
	// Keep it simple: flatten newlines and carriage returns.
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func formatComparisonTable(cmp *store.RunComparison) string {
	if cmp == nil || cmp.RunA == nil || cmp.RunB == nil {
		return "Compare: <nil>\n\n"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Run A: %s eval=%s model=%s score=%.3f passed=%d/%d\n",
		cmp.RunA.ID, cmp.RunA.EvalName, cmp.RunA.ModelID, cmp.RunA.OverallScore, cmp.RunA.PassedCases, cmp.RunA.TotalCases)
	fmt.Fprintf(&buf, "Run B: %s eval=%s model=%s score=%.3f passed=%d/%d\n",
		cmp.RunB.ID, cmp.RunB.EvalName, cmp.RunB.ModelID, cmp.RunB.OverallScore, cmp.RunB.PassedCases, cmp.RunB.TotalCases)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tSTATUS")
	for _, id := range cmp.Regressions {
		fmt.Fprintf(tw, "%s\tregression\n", id)
	}
	for _, id := range cmp.Fixes {
		fmt.Fprintf(tw, "%s\tfix\n", id)
	}
	for _, id := range cmp.Unchanged {
		fmt.Fprintf(tw, "%s\tunchanged\n", id)
	}
	_ = tw.Flush()
	buf.WriteByte('\n')

	if len(cmp.Regressions) > 0 {
		fmt.Fprintf(&buf, "Regression: %s (cases=%d)\n\n", coloredStatus(false), len(cmp.Regressions))
	} else {
		fmt.Fprintf(&buf, "Regression: %s\n\n", coloredStatus(true))
	}
	return buf.String()
}

type jsonRunSummary struct {
	RunID        string  `json:"run_id"`
	EvalName     string  `json:"eval_name"`
	ModelID      string  `json:"model_id"`
	Provider     string  `json:"provider"`
	OverallScore float64 `json:"overall_score"`
	PassedCases  int     `json:"passed_cases"`
	TotalCases   int     `json:"total_cases"`
}

type jsonComparison struct {
	RunA        jsonRunSummary `json:"run_a"`
	RunB        jsonRunSummary `json:"run_b"`
	Regressions []string       `json:"regressions"`
	Fixes       []string       `json:"fixes"`
	Unchanged   []string       `json:"unchanged"`
	Regressed   bool           `json:"regressed"`
}

func runSummaryToJSON(rec *store.RunRecord) jsonRunSummary {
	if rec == nil {
		return jsonRunSummary{}
	}
	return jsonRunSummary{
		RunID:        rec.ID,
		EvalName:     rec.EvalName,
		ModelID:      rec.ModelID,
		Provider:     rec.Provider,
		OverallScore: rec.OverallScore,
		PassedCases:  rec.PassedCases,
		TotalCases:   rec.TotalCases,
	}
}

func formatComparisonJSON(cmp *store.RunComparison) string {
	if cmp == nil {
		return "{\"error\":\"nil comparison\"}\n"
	}

	out := jsonComparison{
		RunA:        runSummaryToJSON(cmp.RunA),
		RunB:        runSummaryToJSON(cmp.RunB),
		Regressions: copyCaseIDs(cmp.Regressions),
		Fixes:       copyCaseIDs(cmp.Fixes),
		Unchanged:   copyCaseIDs(cmp.Unchanged),
		Regressed:   len(cmp.Regressions) > 0,
	}

	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}\n", err.Error())
	}
	return string(b) + "\n"
}

func formatComparisonGitHub(cmp *store.RunComparison) string {
	if cmp == nil || cmp.RunA == nil || cmp.RunB == nil {
		return "::error::nil comparison\n"
	}

	var buf strings.Builder
	for _, id := range cmp.Regressions {
		msg := fmt.Sprintf("regression case=%s (passed in %s, failed in %s)", id, cmp.RunA.ID, cmp.RunB.ID)
		buf.WriteString("::warning::")
		buf.WriteString(sanitizeGitHubAnnotation(msg))
		buf.WriteByte('\n')
	}

	buf.WriteString(fmt.Sprintf("Summary: compare run_a=%s run_b=%s regressions=%d fixes=%d unchanged=%d\n",
		cmp.RunA.ID, cmp.RunB.ID, len(cmp.Regressions), len(cmp.Fixes), len(cmp.Unchanged)))
	return buf.String()
}

// copyCaseIDs keeps empty lists as [] rather than null in JSON output.
func copyCaseIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	return append(out, ids...)
}
