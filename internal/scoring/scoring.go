// Package scoring decides whether a model response claims the right
// identity. Scorers are lexical and total: they take the response text plus
// the expected answers and always produce a result, never an error.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NiloCK/model-identity-eval/internal/eval"
)

// Scorer checks a response for the model's own identity and for claims of
// other configured identities. allModelNames is the flattened name list of
// every model in the eval config; names in the model's own expected set are
// skipped when looking for foreign claims.
type Scorer interface {
	Name() string
	Score(response string, expected eval.ExpectedAnswers, allModelNames []string) *Result
}

// Result holds the outcome of scoring a single response.
type Result struct {
	Passed  bool    `json:"passed"`
	Score   float64 `json:"score"` // binary: 1.0 pass, 0.0 fail
	Details Details `json:"details"`
}

// Details records what the scorer found in the response.
type Details struct {
	MatchedExpectedNames []string       `json:"matched_expected_names"`
	ClaimedOtherModels   []string       `json:"claimed_other_models"`
	HasCorrectIdentity   bool           `json:"has_correct_identity"`
	HasIncorrectIdentity bool           `json:"has_incorrect_identity"`
	ResponseExcerpt      string         `json:"response_excerpt"`
	Extra                map[string]any `json:"extra,omitempty"`
}

// UnknownScorerError reports a scoring method that is not registered.
type UnknownScorerError struct {
	Method    string
	Available []string
}

func (e *UnknownScorerError) Error() string {
	return fmt.Sprintf("scoring: unknown method %q (available: %s)", e.Method, strings.Join(e.Available, ", "))
}

var scorers = map[string]Scorer{
	"keyword_match": KeywordScorer{},
	"regex":         RegexScorer{},
}

// Lookup resolves a scoring method name.
func Lookup(method string) (Scorer, error) {
	s, ok := scorers[method]
	if !ok {
		return nil, &UnknownScorerError{Method: method, Available: Methods()}
	}
	return s, nil
}

// Methods returns the registered scoring method names, sorted.
func Methods() []string {
	names := make([]string, 0, len(scorers))
	for name := range scorers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const excerptLimit = 200

// excerpt truncates a response for inclusion in details.
func excerpt(response string) string {
	runes := []rune(response)
	if len(runes) <= excerptLimit {
		return response
	}
	return string(runes[:excerptLimit]) + "..."
}

// lowerSet builds a lowercased lookup set of names.
func lowerSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	return set
}

// finish assembles a result from the matched own names and claimed foreign
// names. Pass requires at least one own name and no foreign claims.
func finish(response string, matched, claimed []string) *Result {
	hasCorrect := len(matched) > 0
	hasIncorrect := len(claimed) > 0
	passed := hasCorrect && !hasIncorrect

	score := 0.0
	if passed {
		score = 1.0
	}

	return &Result{
		Passed: passed,
		Score:  score,
		Details: Details{
			MatchedExpectedNames: matched,
			ClaimedOtherModels:   claimed,
			HasCorrectIdentity:   hasCorrect,
			HasIncorrectIdentity: hasIncorrect,
			ResponseExcerpt:      excerpt(response),
		},
	}
}
