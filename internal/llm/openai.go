package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/endi/internal/logging"
	"github.com/ppiankov/endi/internal/util"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIExplainer explains phrases through any OpenAI-compatible
// chat completions endpoint
type OpenAIExplainer struct {
	client *openai.Client
	config Config
	logger *zap.Logger
}

// NewOpenAIExplainer creates a new explainer
func NewOpenAIExplainer(config Config, logger *zap.Logger) (*OpenAIExplainer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", providerName(config.Provider))
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy)
	clientConfig.HTTPClient = &http.Client{Transport: transport}

	return &OpenAIExplainer{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logging.Component(logger, "explainer"),
	}, nil
}

// Name returns the provider name
func (e *OpenAIExplainer) Name() string {
	return providerName(e.config.Provider)
}

// IsAvailable checks that the endpoint answers with the configured key
func (e *OpenAIExplainer) IsAvailable(ctx context.Context) bool {
	if _, err := e.client.ListModels(ctx); err != nil {
		e.logger.Warn("explainer endpoint check failed", zap.Error(err))
		return false
	}
	return true
}

// Explain returns a one-sentence definition of phrase
func (e *OpenAIExplainer) Explain(ctx context.Context, phrase string) (string, error) {
	model := e.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := e.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 200
	}

	timeout := time.Duration(e.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(phrase)},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", e.Name(), err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", e.Name())
	}

	sentence, err := NormalizeDefinition(phrase, resp.Choices[0].Message.Content)
	if err != nil {
		return "", err
	}

	e.logger.Debug("phrase explained",
		zap.String("phrase", phrase),
		zap.String("sentence", sentence),
		zap.Int("tokens", resp.Usage.TotalTokens))
	return sentence, nil
}

func providerName(provider string) string {
	if provider == "" {
		return "openai"
	}
	return strings.ToLower(provider)
}
