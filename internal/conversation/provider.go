package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/wolfman30/frontdesk/internal/observability/metrics"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
)

// ProviderSettings carries everything needed to build a model client.
type ProviderSettings struct {
	Provider         string
	FallbackProvider string
	// Model overrides the primary provider's default model id. Bedrock has
	// no default, so BedrockModelID doubles as its credential.
	Model          string
	BedrockModelID string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	// AWS is required only when bedrock is the primary or fallback provider.
	AWS *aws.Config
	// Metrics, when set, records the latency of fallback calls.
	Metrics *metrics.BridgeMetrics
}

// CheckCredentials reports a ConfigError when the named provider cannot be
// used. It never touches the network.
func (s ProviderSettings) CheckCredentials(provider string) error {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderBedrock:
		if strings.TrimSpace(s.BedrockModelID) == "" {
			return &ConfigError{Provider: ProviderBedrock, Key: "BEDROCK_MODEL_ID"}
		}
		if s.AWS == nil {
			return &ConfigError{Provider: ProviderBedrock, Key: "AWS_REGION"}
		}
	case ProviderOpenAI:
		if strings.TrimSpace(s.OpenAIAPIKey) == "" {
			return &ConfigError{Provider: ProviderOpenAI, Key: "OPENAI_API_KEY"}
		}
	case ProviderGemini:
		if strings.TrimSpace(s.GeminiAPIKey) == "" {
			return &ConfigError{Provider: ProviderGemini, Key: "GEMINI_API_KEY"}
		}
	default:
		return &ConfigError{Provider: provider, Key: "LLM_PROVIDER"}
	}
	return nil
}

// NewLLMClient builds the configured primary client, wrapped with a fallback
// provider when one is configured and credentialed. A missing primary
// credential returns a ConfigError; a missing fallback credential only logs.
func NewLLMClient(ctx context.Context, s ProviderSettings, logger *logging.Logger) (LLMClient, error) {
	if logger == nil {
		logger = logging.Default()
	}
	primary, err := s.build(ctx, s.Provider, s.Model)
	if err != nil {
		return nil, err
	}
	fallbackName := strings.ToLower(strings.TrimSpace(s.FallbackProvider))
	if fallbackName == "" || fallbackName == strings.ToLower(strings.TrimSpace(s.Provider)) {
		return primary, nil
	}
	fallback, err := s.build(ctx, fallbackName, "")
	if err != nil {
		logger.Warn("fallback LLM provider unavailable", "provider", fallbackName, "error", err)
		return primary, nil
	}
	return NewFallbackLLMClient(primary, fallback, fallbackName, s.Metrics, logger), nil
}

func (s ProviderSettings) build(ctx context.Context, provider, model string) (LLMClient, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if err := s.CheckCredentials(provider); err != nil {
		return nil, err
	}
	switch provider {
	case ProviderBedrock:
		if model == "" {
			model = s.BedrockModelID
		}
		return WithModel(NewBedrockLLMClient(bedrockruntime.NewFromConfig(*s.AWS)), model), nil
	case ProviderOpenAI:
		client, err := NewOpenAILLMClient(s.OpenAIAPIKey, s.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		return WithModel(client, model), nil
	case ProviderGemini:
		client, err := NewGeminiLLMClient(ctx, s.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return WithModel(client, model), nil
	}
	return nil, fmt.Errorf("conversation: unknown provider %q", provider)
}

// modelClient pins a provider-specific model id so callers never have to
// know which provider answers.
type modelClient struct {
	LLMClient
	model string
}

// WithModel returns a client that sets req.Model on every call. An empty
// model leaves the provider default in place.
func WithModel(client LLMClient, model string) LLMClient {
	return &modelClient{LLMClient: client, model: strings.TrimSpace(model)}
}

func (c *modelClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	req.Model = c.model
	return c.LLMClient.Complete(ctx, req)
}
