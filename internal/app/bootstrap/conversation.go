package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/wolfman30/frontdesk/internal/config"
	"github.com/wolfman30/frontdesk/internal/conversation"
	"github.com/wolfman30/frontdesk/internal/observability/metrics"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

// ProviderSettings maps config onto the model client settings. awsCfg may
// be nil when the AWS chain could not be loaded; bedrock then reports a
// missing AWS_REGION instead of failing later.
func ProviderSettings(cfg *appconfig.Config, awsCfg *aws.Config) conversation.ProviderSettings {
	bedrockModel := strings.TrimSpace(cfg.BedrockModelID)
	if bedrockModel == "" && cfg.LLMProvider == conversation.ProviderBedrock {
		bedrockModel = strings.TrimSpace(cfg.LLMModelID)
	}
	return conversation.ProviderSettings{
		Provider:         cfg.LLMProvider,
		FallbackProvider: cfg.LLMFallbackProvider,
		Model:            cfg.LLMModelID,
		BedrockModelID:   bedrockModel,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		GeminiAPIKey:     cfg.GeminiAPIKey,
		AWS:              awsCfg,
	}
}

// BuildConductor wires the model client, persona prompt and knowledge base.
// Missing provider credentials are not fatal: the conductor is returned in
// its unconfigured state and every bridge call reports the missing setting.
func BuildConductor(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, bridgeMetrics *metrics.BridgeMetrics, logger *logging.Logger) (*conversation.Conductor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	persona, err := conversation.LoadPrompt(cfg.PromptPath)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load prompt: %w", err)
	}
	kb, err := conversation.LoadKnowledgeBase(cfg.KnowledgeBasePath)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load knowledge base: %w", err)
	}

	settings := ProviderSettings(cfg, awsCfg)
	settings.Metrics = bridgeMetrics
	client, clientErr := conversation.NewLLMClient(ctx, settings, logger)
	switch {
	case clientErr == nil:
		logger.Info("using LLM provider", "provider", cfg.LLMProvider, "fallback", cfg.LLMFallbackProvider, "model", cfg.LLMModelID)
	case errors.Is(clientErr, conversation.ErrLLMNotConfigured):
		logger.Warn("LLM provider not configured; bridge calls will fail until credentials are set", "provider", cfg.LLMProvider, "error", clientErr)
	default:
		return nil, fmt.Errorf("bootstrap: build llm client: %w", clientErr)
	}

	return conversation.NewConductor(conversation.ConductorConfig{
		Client:        client,
		ClientErr:     clientErr,
		Provider:      cfg.LLMProvider,
		Persona:       persona,
		KnowledgeBase: kb,
		BusinessName:  cfg.BusinessName,
		Timeout:       cfg.LLMTimeout,
		Metrics:       bridgeMetrics,
		Logger:        logger,
	})
}
