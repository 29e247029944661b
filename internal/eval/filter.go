package eval

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter selects test cases by an expression over their fields. The
// expression sees the env {id, type, prompt} and must yield a boolean, e.g.
// `type == "adversarial"` or `id startsWith "direct-"`.
type Filter struct {
	program *vm.Program
}

// NewFilter compiles a filter expression once. An empty expression yields a
// filter that matches every case.
func NewFilter(expression string) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return &Filter{}, nil
	}
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("eval: compile filter %q: %w", expression, err)
	}
	return &Filter{program: program}, nil
}

// Matches reports whether a test case satisfies the filter. Evaluation
// errors and non-boolean results count as no match.
func (f *Filter) Matches(tc TestCase) bool {
	if f == nil || f.program == nil {
		return true
	}

	typ := tc.Type
	if typ == "" {
		typ = DefaultCaseType
	}
	env := map[string]any{
		"id":     tc.ID,
		"type":   typ,
		"prompt": tc.Prompt,
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}
