package scoring

import (
	"regexp"
	"strings"

	"github.com/NiloCK/model-identity-eval/internal/eval"
)

// RegexScorer matches identity names as whole words, case-insensitively.
// Word boundaries make it stricter than substring search: a name embedded in
// a longer word does not match, so no length floor is needed.
type RegexScorer struct{}

// Name returns the scorer identifier.
func (RegexScorer) Name() string {
	return "regex"
}

// Score checks the response for whole-word occurrences of the model's own
// names and of other configured identities.
func (RegexScorer) Score(response string, expected eval.ExpectedAnswers, allModelNames []string) *Result {
	matched := []string{}
	for _, name := range expected.ModelNames {
		if namePattern(name).MatchString(response) {
			matched = append(matched, name)
		}
	}

	ownNames := lowerSet(expected.ModelNames)
	claimed := []string{}
	for _, name := range allModelNames {
		if _, ok := ownNames[strings.ToLower(name)]; ok {
			continue
		}
		if namePattern(name).MatchString(response) {
			claimed = append(claimed, name)
		}
	}

	return finish(response, matched, claimed)
}

// namePattern builds a word-boundary pattern for an identity name. Regex
// metacharacters in the name are escaped, so compilation cannot fail.
func namePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
}
