package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NiloCK/model-identity-eval/internal/config"
	"github.com/NiloCK/model-identity-eval/internal/eval"
)

func TestLooksLikePath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want bool
	}{
		{"identity_v1", false},
		{"evals/identity_v1.json", true},
		{`evals\identity_v1.json`, true},
		{"identity_v1.json", true},
		{"probes.yaml", true},
		{"probes.yml", true},
		{"notes.txt", false},
	}
	for _, tc := range cases {
		if got := looksLikePath(tc.in); got != tc.want {
			t.Errorf("looksLikePath(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLoadEvalConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	evals := filepath.Join(dir, "evals")
	writeWorkspaceFile(t, filepath.Join(evals, "identity_v1.json"), cliEvalJSON)
	hc := &config.Config{EvalsDir: evals}

	cfg, err := loadEvalConfig(hc, "identity_v1")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	if cfg.EvalName != "identity_v1" {
		t.Errorf("by name resolved %q", cfg.EvalName)
	}

	cfg, err = loadEvalConfig(hc, "IDENTITY_V1")
	if err != nil {
		t.Fatalf("case-insensitive name: %v", err)
	}
	if cfg.EvalName != "identity_v1" {
		t.Errorf("case-insensitive resolved %q", cfg.EvalName)
	}

	cfg, err = loadEvalConfig(hc, filepath.Join(evals, "identity_v1.json"))
	if err != nil {
		t.Fatalf("by path: %v", err)
	}
	if cfg.EvalName != "identity_v1" {
		t.Errorf("by path resolved %q", cfg.EvalName)
	}

	if _, err := loadEvalConfig(hc, "nope"); err == nil || !strings.Contains(err.Error(), `unknown eval "nope"`) {
		t.Errorf("unknown name err = %v", err)
	}
	if _, err := loadEvalConfig(hc, "  "); err == nil || !strings.Contains(err.Error(), "missing eval name or path") {
		t.Errorf("blank ref err = %v", err)
	}
}

func TestEvalsDir(t *testing.T) {
	t.Parallel()

	if got := evalsDir(nil); got != "evals" {
		t.Errorf("nil config dir = %q", got)
	}
	if got := evalsDir(&config.Config{EvalsDir: "  "}); got != "evals" {
		t.Errorf("blank config dir = %q", got)
	}
	if got := evalsDir(&config.Config{EvalsDir: "my-evals"}); got != "my-evals" {
		t.Errorf("configured dir = %q", got)
	}
}

func TestResolveReportPath(t *testing.T) {
	t.Parallel()

	hc := &config.Config{ResultsDir: "data/results"}

	cases := []struct {
		cfg  *config.Config
		in   string
		want string
	}{
		{hc, "report.json", filepath.Join("data", "results", "report.json")},
		{hc, "data/report.json", "data/report.json"},
		{hc, `data\report.json`, `data\report.json`},
		{&config.Config{}, "report.json", "report.json"},
		{nil, "report.json", "report.json"},
	}
	for _, tc := range cases {
		if got := resolveReportPath(tc.cfg, tc.in); got != tc.want {
			t.Errorf("resolveReportPath(%+v, %q) = %q, want %q", tc.cfg, tc.in, got, tc.want)
		}
	}
}

func TestResolveModelID(t *testing.T) {
	t.Parallel()

	multi := &eval.Config{ModelConfigs: map[string]eval.ModelConfig{
		"mock-model-v1": {},
		"gpt-4":         {},
	}}

	id, err := resolveModelID(multi, " mock-model-v1 ")
	if err != nil || id != "mock-model-v1" {
		t.Errorf("explicit flag: got %q, %v", id, err)
	}

	_, err = resolveModelID(multi, "")
	if err == nil || !strings.Contains(err.Error(), "missing --model (configured: gpt-4, mock-model-v1)") {
		t.Errorf("ambiguous default err = %v", err)
	}

	single := &eval.Config{ModelConfigs: map[string]eval.ModelConfig{"solo-model": {}}}
	id, err = resolveModelID(single, "")
	if err != nil || id != "solo-model" {
		t.Errorf("single default: got %q, %v", id, err)
	}
}

func TestParseSince(t *testing.T) {
	t.Parallel()

	ts, err := parseSince("")
	if err != nil || !ts.IsZero() {
		t.Errorf("empty since = %v, %v", ts, err)
	}

	ts, err = parseSince("2026-08-01")
	if err != nil || !ts.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date since = %v, %v", ts, err)
	}

	ts, err = parseSince("2026-08-01T12:30:00Z")
	if err != nil || !ts.Equal(time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)) {
		t.Errorf("rfc3339 since = %v, %v", ts, err)
	}

	if _, err := parseSince("yesterday"); err == nil || !strings.Contains(err.Error(), "invalid --since") {
		t.Errorf("bad since err = %v", err)
	}
}

func TestFormatTimeAndStatus(t *testing.T) {
	t.Parallel()

	if got := formatTime(time.Time{}); got != "-" {
		t.Errorf("zero time = %q", got)
	}

	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2026, 3, 1, 14, 0, 0, 0, loc)
	if got := formatTime(ts); got != "2026-03-01T12:00:00Z" {
		t.Errorf("formatTime = %q", got)
	}

	if statusLabel(true) != "PASS" || statusLabel(false) != "FAIL" {
		t.Error("status labels wrong")
	}
}
