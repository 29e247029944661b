package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NiloCK/model-identity-eval/internal/runner"
)

func passingCIReport() *runner.Report {
	return &runner.Report{
		ModelID:      "mock-model-v1",
		EvalName:     "identity_v1",
		Provider:     "MockProvider",
		TotalTests:   2,
		PassedTests:  2,
		OverallScore: 1.5,
		PassRate:     "2/2 (150.0%)",
		Results: []runner.CaseResult{
			{CaseID: "direct-1", Type: "direct", Passed: true, Score: 1},
			{CaseID: "conv-1", Type: "conversational", Passed: true, Score: 1},
		},
	}
}

func TestResolveCIMode(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "")

	if resolveCIMode(nil) {
		t.Error("ci mode detected outside actions")
	}
	if !resolveCIMode(&runOptions{ci: true}) {
		t.Error("--ci flag ignored")
	}

	t.Setenv("GITHUB_ACTIONS", "true")
	if !resolveCIMode(nil) {
		t.Error("GITHUB_ACTIONS=true not detected")
	}

	t.Setenv("GITHUB_ACTIONS", "True")
	if !resolveCIMode(&runOptions{}) {
		t.Error("GITHUB_ACTIONS detection not case-insensitive")
	}
}

func TestBuildCIMarkdown(t *testing.T) {
	t.Parallel()

	report := passingCIReport()
	report.Results = append(report.Results, runner.CaseResult{
		CaseID: "adv-1", Type: "adversarial", Passed: false, Score: 0, Error: "bad|pipe\nnewline",
	})
	report.TotalTests = 3
	report.FailedTests = 1

	md := buildCIMarkdown(report, 0.8)
	for _, want := range []string{
		"## Identity Eval Results",
		"Eval: identity_v1 | Model: mock-model-v1 | Provider: MockProvider",
		"Threshold: 0.80",
		"Cases: 3 | Passed: 2 | Failed: 1 | Overall: 1.500 | Pass rate: 2/2 (150.0%)",
		"| Case | Type | Result | Score | Error |",
		"| direct-1 | direct | PASS | 1.000 | - |",
		`| adv-1 | adversarial | FAIL | 0.000 | bad\|pipe newline |`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	md = buildCIMarkdown(passingCIReport(), 0)
	if strings.Contains(md, "Threshold:") {
		t.Errorf("zero threshold still rendered:\n%s", md)
	}

	empty := passingCIReport()
	empty.Results = nil
	empty.TotalTests = 0
	empty.PassedTests = 0
	if md := buildCIMarkdown(empty, 0); !strings.Contains(md, "_No cases run._") {
		t.Errorf("empty report markdown = %q", md)
	}

	if md := buildCIMarkdown(nil, 0); !strings.Contains(md, "_No report produced._") {
		t.Errorf("nil report markdown = %q", md)
	}
}

func TestEscapeMarkdownCell(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"", "-"},
		{"  ", "-"},
		{"plain", "plain"},
		{"a|b", `a\|b`},
		{"a\r\nb", "a  b"},
		{" x ", "x"},
	}
	for _, tc := range cases {
		if got := escapeMarkdownCell(tc.in); got != tc.want {
			t.Errorf("escapeMarkdownCell(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWriteCIArtifacts(t *testing.T) {
	cliIntegrationMu.Lock()
	defer cliIntegrationMu.Unlock()

	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Errorf("restore wd: %v", err)
		}
	})

	outputPath := filepath.Join(dir, "github-output.txt")
	summaryPath := filepath.Join(dir, "step-summary.md")
	t.Setenv("GITHUB_OUTPUT", outputPath)
	t.Setenv("GITHUB_STEP_SUMMARY", summaryPath)

	writeCIArtifacts(nil, 0)
	if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
		t.Fatalf("nil report wrote outputs: %v", err)
	}

	writeCIArtifacts(passingCIReport(), 0.8)

	outB, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read outputs: %v", err)
	}
	if !strings.Contains(string(outB), "overall_score<<EOF\n1.5000\nEOF\n") {
		t.Errorf("outputs missing overall_score:\n%s", outB)
	}
	if !strings.Contains(string(outB), "passed<<EOF\ntrue\nEOF\n") {
		t.Errorf("outputs missing passed:\n%s", outB)
	}

	sumB, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(sumB), "## Identity Eval Results") || !strings.Contains(string(sumB), "Threshold: 0.80") {
		t.Errorf("summary content:\n%s", sumB)
	}

	repB, err := os.ReadFile(ciReportPath)
	if err != nil {
		t.Fatalf("read ci report: %v", err)
	}
	var rep runner.Report
	if err := json.Unmarshal(repB, &rep); err != nil {
		t.Fatalf("decode ci report: %v", err)
	}
	if rep.EvalName != "identity_v1" || rep.TotalTests != 2 {
		t.Errorf("ci report = %s with %d cases", rep.EvalName, rep.TotalTests)
	}

	// Below the threshold with all cases passing: "passed" stays true (it
	// tracks case failures), the threshold miss is the caller's exit code.
	missPath := filepath.Join(dir, "github-output-miss.txt")
	t.Setenv("GITHUB_OUTPUT", missPath)
	miss := passingCIReport()
	miss.OverallScore = 0.5
	miss.PassRate = "2/2 (50.0%)"
	writeCIArtifacts(miss, 0.8)

	missB, err := os.ReadFile(missPath)
	if err != nil {
		t.Fatalf("read miss outputs: %v", err)
	}
	if !strings.Contains(string(missB), "overall_score<<EOF\n0.5000\nEOF\n") {
		t.Errorf("miss outputs missing overall_score:\n%s", missB)
	}
	if !strings.Contains(string(missB), "passed<<EOF\ntrue\nEOF\n") {
		t.Errorf("miss outputs should report passed=true:\n%s", missB)
	}
}
