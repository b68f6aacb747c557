package extract

import (
	"strings"

	"github.com/ppiankov/endi/internal/logging"
	"github.com/ppiankov/endi/internal/model"
	"go.uber.org/zap"
)

// Classifier assigns a PhraseType to raw text
type Classifier struct {
	questionStarters []string
	commandVerbs     []string
	logger           *zap.Logger
}

// NewClassifier creates a classifier with the given starter word lists
func NewClassifier(questionStarters, commandVerbs []string, logger *zap.Logger) *Classifier {
	return &Classifier{
		questionStarters: lowerAll(questionStarters),
		commandVerbs:     lowerAll(commandVerbs),
		logger:           logging.Component(logger, "classifier"),
	}
}

// Classify evaluates the heuristics in a fixed order; the first match wins.
// The all-"?" check must run before the trailing "?" check, and the starter
// word checks before the generic statement fallback.
func (c *Classifier) Classify(text string) model.PhraseType {
	trimmed := strings.TrimSpace(text)
	lowered := strings.ToLower(trimmed)

	switch {
	case trimmed == "":
		c.logger.Debug("empty text")
		return model.PhraseUnknown
	case strings.HasPrefix(trimmed, "/"):
		return model.PhraseCommand
	case strings.Trim(lowered, "?") == "":
		return model.PhraseUnknown
	case strings.HasSuffix(lowered, "?"):
		return model.PhraseQuestion
	case hasAnyPrefix(lowered, c.questionStarters):
		return model.PhraseQuestion
	case hasAnyPrefix(lowered, c.commandVerbs):
		return model.PhraseCommand
	case strings.HasSuffix(lowered, ".") || strings.Contains(lowered, " "):
		return model.PhraseStatement
	default:
		return model.PhraseUnknown
	}
}

// IsQuestionStarter reports whether word is one of the question starters.
// Unlike Classify it compares whole words.
func (c *Classifier) IsQuestionStarter(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	for _, s := range c.questionStarters {
		if s != "" && s == word {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, strings.ToLower(strings.TrimSpace(w)))
	}
	return out
}
