package extract

import (
	"strings"
	"unicode"

	"github.com/ppiankov/endi/internal/logging"
	"go.uber.org/zap"
)

// DefaultMaxTokens is used when no positive token limit is configured
const DefaultMaxTokens = 200

// dashReplacer unifies dash variants and slashes into a plain hyphen
var dashReplacer = strings.NewReplacer("—", "-", "–", "-", "―", "-", "/", "-")

// Clean normalizes an utterance: unifies dashes, strips everything except
// letters, digits, underscores, whitespace and hyphens, collapses whitespace
// and lower-cases the result.
func Clean(text string) string {
	text = dashReplacer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.ToLower(strings.Join(strings.Fields(collapseHyphens(b.String())), " "))
}

// collapseHyphens replaces runs of two or more hyphens with one
func collapseHyphens(text string) string {
	for strings.Contains(text, "--") {
		text = strings.ReplaceAll(text, "--", "-")
	}
	return text
}

// isDelimiter reports whether r separates tokens
func isDelimiter(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '.', ',', '!', '?', ';', ':', '"', '(', ')', '-', '—':
		return true
	}
	return false
}

// Tokenizer splits utterances into a bounded sequence of word tokens
type Tokenizer struct {
	maxTokens int
	logger    *zap.Logger
}

// NewTokenizer creates a tokenizer that keeps at most maxTokens tokens
func NewTokenizer(maxTokens int, logger *zap.Logger) *Tokenizer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Tokenizer{
		maxTokens: maxTokens,
		logger:    logging.Component(logger, "tokenizer"),
	}
}

// Tokenize cleans text and splits it into tokens.
// Inputs longer than the limit are truncated, never rejected.
func (t *Tokenizer) Tokenize(text string) []string {
	tokens := strings.FieldsFunc(Clean(text), isDelimiter)

	if len(tokens) > t.maxTokens {
		t.logger.Warn("token limit exceeded, truncating",
			zap.Int("tokens", len(tokens)),
			zap.Int("limit", t.maxTokens))
		tokens = tokens[:t.maxTokens]
	}

	t.logger.Debug("tokenized", zap.Strings("tokens", tokens))
	return tokens
}

// CountTokens returns the number of tokens Tokenize would produce
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.Tokenize(text))
}

// PreviewTokens logs the tokens of text and returns them
func (t *Tokenizer) PreviewTokens(text string) []string {
	tokens := t.Tokenize(text)
	t.logger.Info("token preview", zap.Strings("tokens", tokens))
	return tokens
}
