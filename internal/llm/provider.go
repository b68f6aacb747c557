// Package llm asks an external language model what unknown phrases mean.
package llm

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/endi/internal/model"
)

// ErrEmptyAnswer is returned when the model answers with nothing usable
var ErrEmptyAnswer = errors.New("empty answer")

// Config holds explainer configuration
type Config struct {
	// Provider name: "openai", "ollama", "anthropic", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic; Ollama needs none
	APIKey string

	// BaseURL overrides the provider's OpenAI-compatible endpoint
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts the llm and http sections into an explainer Config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
}

// SystemPrompt sets the explainer's answer format
const SystemPrompt = "Ты помогаешь ученику пополнять словарь. Отвечай по-русски одним " +
	"коротким предложением вида «X — это Y», без пояснений, списков и кавычек."

// BuildPrompt asks for the meaning of a phrase
func BuildPrompt(phrase string) string {
	return fmt.Sprintf("Что значит: '%s'? Дай определение одним предложением.", phrase)
}

// definitionSeparator joins a phrase to its meaning
const definitionSeparator = " — это "

// NormalizeDefinition reduces a model answer to one declarative sentence
// that starts with the phrase, so fact extraction takes the phrase as subject
func NormalizeDefinition(phrase, answer string) (string, error) {
	sentence := firstSentence(answer)
	if sentence == "" {
		return "", ErrEmptyAnswer
	}

	if !strings.HasPrefix(strings.ToLower(sentence), strings.ToLower(phrase)) {
		sentence = phrase + definitionSeparator + lowerFirst(sentence)
	}
	return sentence, nil
}

// firstSentence returns the first non-empty line, trimmed of markup and
// cut after its first sentence terminator
func firstSentence(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "\"'«»*`")
		if line == "" {
			continue
		}
		for i, r := range line {
			if r == '.' || r == '!' || r == '?' {
				rest := line[i+utf8.RuneLen(r):]
				if rest == "" || strings.HasPrefix(rest, " ") {
					return strings.TrimSpace(line[:i+utf8.RuneLen(r)])
				}
			}
		}
		return line
	}
	return ""
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
