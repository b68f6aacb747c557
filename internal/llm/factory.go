package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/endi/internal/model"
	"go.uber.org/zap"
)

// OpenAI-compatible endpoints of the supported providers
const (
	OllamaBaseURL    = "http://localhost:11434/v1"
	AnthropicBaseURL = "https://api.anthropic.com/v1/"
)

// NewExplainer builds the configured explainer.
// It returns nil without error when external AI is disabled.
func NewExplainer(cfg *model.Config, logger *zap.Logger) (*OpenAIExplainer, error) {
	if !cfg.Modules.EnableExternalAI {
		return nil, nil
	}

	config := ConfigFromModel(cfg)

	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIExplainer(config, logger)

	case "anthropic", "claude":
		if config.BaseURL == "" {
			config.BaseURL = AnthropicBaseURL
		}
		return NewOpenAIExplainer(config, logger)

	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = OllamaBaseURL
		}
		if config.APIKey == "" {
			config.APIKey = "ollama" // Ignored by Ollama, required by the client
		}
		return NewOpenAIExplainer(config, logger)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
