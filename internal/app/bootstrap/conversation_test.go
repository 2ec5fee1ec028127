package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"

	appconfig "github.com/wolfman30/frontdesk/internal/config"
	"github.com/wolfman30/frontdesk/internal/conversation"
	"github.com/wolfman30/frontdesk/internal/observability/metrics"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

func TestBuildConductorRequiresConfig(t *testing.T) {
	if _, err := BuildConductor(context.Background(), nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestBuildConductorWithoutCredentialsIsUnconfigured(t *testing.T) {
	cfg := &appconfig.Config{LLMProvider: conversation.ProviderGemini, BusinessName: "Test Detailing"}

	conductor, err := BuildConductor(context.Background(), cfg, nil, metrics.NewBridgeMetrics(prometheus.NewRegistry()), logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ready := conductor.Ready()
	if !errors.Is(ready, conversation.ErrLLMNotConfigured) {
		t.Fatalf("expected ErrLLMNotConfigured, got %v", ready)
	}
	var cfgErr *conversation.ConfigError
	if !errors.As(ready, &cfgErr) || cfgErr.Key != "GEMINI_API_KEY" {
		t.Fatalf("expected missing GEMINI_API_KEY, got %v", ready)
	}
	if conductor.BusinessName() != "Test Detailing" {
		t.Fatalf("expected business name override, got %q", conductor.BusinessName())
	}
}

func TestBuildConductorWithOpenAIKeyIsReady(t *testing.T) {
	cfg := &appconfig.Config{LLMProvider: conversation.ProviderOpenAI, OpenAIAPIKey: "sk-test"}

	conductor, err := BuildConductor(context.Background(), cfg, nil, nil, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := conductor.Ready(); err != nil {
		t.Fatalf("expected ready conductor, got %v", err)
	}
}

func TestBuildConductorBadKnowledgeBasePath(t *testing.T) {
	cfg := &appconfig.Config{LLMProvider: conversation.ProviderOpenAI, KnowledgeBasePath: t.TempDir() + "/missing.yaml"}

	if _, err := BuildConductor(context.Background(), cfg, nil, nil, logging.New("error")); err == nil {
		t.Fatalf("expected knowledge base error")
	}
}

func TestProviderSettingsBedrockModelFallsBackToLLMModelID(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}
	cfg := &appconfig.Config{LLMProvider: conversation.ProviderBedrock, LLMModelID: "anthropic.claude-3-haiku"}

	s := ProviderSettings(cfg, &awsCfg)
	if s.BedrockModelID != "anthropic.claude-3-haiku" {
		t.Fatalf("expected bedrock model from LLM_MODEL_ID, got %q", s.BedrockModelID)
	}
	if err := s.CheckCredentials(conversation.ProviderBedrock); err != nil {
		t.Fatalf("expected bedrock to be credentialed, got %v", err)
	}

	cfg.LLMProvider = conversation.ProviderOpenAI
	if s := ProviderSettings(cfg, &awsCfg); s.BedrockModelID != "" {
		t.Fatalf("expected no bedrock model for openai primary, got %q", s.BedrockModelID)
	}
}
