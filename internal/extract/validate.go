package extract

import "strings"

// IsIgnorable reports whether an utterance should be skipped entirely:
// empty input, slash commands and echoed prompts ("> ...").
func IsIgnorable(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || strings.HasPrefix(text, "/") || strings.HasPrefix(text, ">")
}

// StatementValidator checks that a statement carries enough structure
// to be learned: at least two tokens, one of which is a linking word.
type StatementValidator struct {
	linking map[string]struct{}
}

// NewStatementValidator creates a validator for the given linking words
func NewStatementValidator(linkingWords []string) *StatementValidator {
	linking := make(map[string]struct{}, len(linkingWords))
	for _, w := range linkingWords {
		linking[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &StatementValidator{linking: linking}
}

// Valid reports whether tokens form an acceptable statement
func (v *StatementValidator) Valid(tokens []string) bool {
	if len(tokens) < 2 {
		return false
	}
	for _, t := range tokens {
		if _, ok := v.linking[t]; ok {
			return true
		}
	}
	return false
}
