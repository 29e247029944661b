// Package ci integrates eval runs with GitHub Actions: workflow command
// annotations, step outputs, and job summaries. Helpers degrade to plain
// prints or no-ops outside of Actions, so callers never need to guard on
// DetectCI themselves.
package ci

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// stdout is where workflow commands are printed; swapped in tests.
var stdout io.Writer = os.Stdout

// Annotation levels understood by GitHub Actions.
const (
	LevelError   = "error"
	LevelWarning = "warning"
	LevelNotice  = "notice"
)

// DetectCI reports whether the process is running under GitHub Actions.
func DetectCI() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GITHUB_ACTIONS")), "true")
}

// AddAnnotation emits a workflow annotation. Unknown levels downgrade to
// notice; file and line are attached when set.
func AddAnnotation(level, file string, line int, message string) {
	lvl := strings.ToLower(strings.TrimSpace(level))
	switch lvl {
	case LevelError, LevelWarning, LevelNotice:
	default:
		lvl = LevelNotice
	}

	msg := escapeCommandValue(message)
	file = strings.TrimSpace(file)

	switch {
	case file == "":
		fmt.Fprintf(stdout, "::%s::%s\n", lvl, msg)
	case line > 0:
		fmt.Fprintf(stdout, "::%s file=%s,line=%d::%s\n", lvl, file, line, msg)
	default:
		fmt.Fprintf(stdout, "::%s file=%s::%s\n", lvl, file, msg)
	}
}

// SetOutput publishes a step output. With GITHUB_OUTPUT set, the value is
// appended in heredoc form so multi-line values survive; otherwise the
// legacy set-output command is printed.
func SetOutput(name, value string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if path := strings.TrimSpace(os.Getenv("GITHUB_OUTPUT")); path != "" {
		_ = appendCommandFile(path, fmt.Sprintf("%s<<EOF\n%s\nEOF\n", name, value))
		return
	}
	fmt.Fprintf(stdout, "::set-output name=%s::%s\n", name, escapeCommandValue(value))
}

// SetJobSummary appends markdown to the job summary. Without
// GITHUB_STEP_SUMMARY in the environment it does nothing.
func SetJobSummary(markdown string) error {
	path := strings.TrimSpace(os.Getenv("GITHUB_STEP_SUMMARY"))
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	return appendCommandFile(path, markdown)
}

// StartGroup opens a collapsible log group.
func StartGroup(name string) {
	fmt.Fprintf(stdout, "::group::%s\n", escapeCommandValue(name))
}

// EndGroup closes the group opened by StartGroup.
func EndGroup() {
	fmt.Fprintln(stdout, "::endgroup::")
}

func appendCommandFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

// escapeCommandValue encodes the characters workflow commands reserve.
func escapeCommandValue(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}
