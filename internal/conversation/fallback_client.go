package conversation

import (
	"context"
	"time"

	"github.com/wolfman30/frontdesk/internal/observability/metrics"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

// FallbackLLMClient sends a bridge request to a second provider when the
// primary one fails. Neither provider is retried, and a request whose
// context has already ended never reaches the fallback.
type FallbackLLMClient struct {
	primary      LLMClient
	fallback     LLMClient
	fallbackName string
	metrics      *metrics.BridgeMetrics
	logger       *logging.Logger
}

// NewFallbackLLMClient wraps primary with fallback, named fallbackName in
// logs and in the llm latency histogram. A nil fallback leaves primary as
// the only provider.
func NewFallbackLLMClient(primary, fallback LLMClient, fallbackName string, m *metrics.BridgeMetrics, logger *logging.Logger) *FallbackLLMClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{
		primary:      primary,
		fallback:     fallback,
		fallbackName: orDefault(fallbackName, "fallback"),
		metrics:      m,
		logger:       logger.Component("llm_fallback"),
	}
}

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, primaryErr := c.primary.Complete(ctx, req)
	if primaryErr == nil {
		return resp, nil
	}
	if c.fallback == nil || ctx.Err() != nil {
		return LLMResponse{}, primaryErr
	}
	c.logger.Warn("primary provider failed, asking fallback",
		"fallback_provider", c.fallbackName,
		"error", primaryErr,
	)

	start := time.Now()
	resp, err := c.fallback.Complete(ctx, req)
	if err != nil {
		c.metrics.ObserveLLMLatency(c.fallbackName, "fallback_error", time.Since(start).Seconds())
		c.logger.Error("fallback provider failed too",
			"fallback_provider", c.fallbackName,
			"primary_error", primaryErr,
			"error", err,
		)
		return LLMResponse{}, err
	}
	c.metrics.ObserveLLMLatency(c.fallbackName, "fallback_ok", time.Since(start).Seconds())
	return resp, nil
}
