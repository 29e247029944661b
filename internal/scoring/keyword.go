package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/NiloCK/model-identity-eval/internal/eval"
)

// KeywordScorer matches identity names by case-insensitive substring search.
// Foreign names of three characters or fewer are ignored to avoid short
// false matches.
type KeywordScorer struct{}

// Name returns the scorer identifier.
func (KeywordScorer) Name() string {
	return "keyword_match"
}

// Score checks the response for the model's own names and for substring
// claims of other configured identities.
func (KeywordScorer) Score(response string, expected eval.ExpectedAnswers, allModelNames []string) *Result {
	responseLower := strings.ToLower(response)

	matched := []string{}
	for _, name := range expected.ModelNames {
		if strings.Contains(responseLower, strings.ToLower(name)) {
			matched = append(matched, name)
		}
	}

	ownNames := lowerSet(expected.ModelNames)
	claimed := []string{}
	for _, name := range allModelNames {
		if _, ok := ownNames[strings.ToLower(name)]; ok {
			continue
		}
		if utf8.RuneCountInString(name) <= 3 {
			continue
		}
		if strings.Contains(responseLower, strings.ToLower(name)) {
			claimed = append(claimed, name)
		}
	}

	return finish(response, matched, claimed)
}
