package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/internal/observability/metrics"
	"github.com/wolfman30/frontdesk/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var conductorTracer = otel.Tracer("frontdesk.internal.conversation.conductor")

// Request shapes per operation.
const (
	decideMaxTokens      = 1024
	decideTemperature    = 0.7
	welcomeMaxTokens     = 256
	welcomeTemperature   = 0.8
	summaryMaxTokens     = 512
	summaryTemperature   = 0.7
	followupMaxTokens    = 256
	followupTemperature  = 0.7
	followupHistoryTurns = 8
)

// DailySummaryLabel is the date range shown with the owner summary.
const DailySummaryLabel = "Last 24 hours"

// ConductorConfig wires a Conductor. A nil Client means no provider is
// credentialed; ClientErr then explains why.
type ConductorConfig struct {
	Client        LLMClient
	ClientErr     error
	Provider      string
	Persona       string
	KnowledgeBase *KnowledgeBase
	BusinessName  string
	// Timeout bounds each model call. Zero leaves calls unbounded.
	Timeout time.Duration
	Metrics *metrics.BridgeMetrics
	Logger  *logging.Logger
}

// Conductor is the bridge between a lead conversation and the model: it
// assembles prompts, calls the gateway, validates the contract and applies
// the inference fallback.
type Conductor struct {
	client       LLMClient
	unavailable  error
	provider     string
	system       string
	businessName string
	timeout      time.Duration
	metrics      *metrics.BridgeMetrics
	logger       *logging.Logger
}

// NewConductor renders the system prompt once and returns a ready Conductor.
func NewConductor(cfg ConductorConfig) (*Conductor, error) {
	if cfg.KnowledgeBase == nil {
		return nil, errors.New("conversation: knowledge base is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if strings.TrimSpace(cfg.BusinessName) == "" {
		cfg.BusinessName = cfg.KnowledgeBase.Business.Name
	}
	system, err := SystemPrompt(cfg.Persona, cfg.BusinessName, cfg.KnowledgeBase)
	if err != nil {
		return nil, err
	}

	c := &Conductor{
		client:       cfg.Client,
		provider:     cfg.Provider,
		system:       system,
		businessName: cfg.BusinessName,
		timeout:      cfg.Timeout,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger.Component("conductor"),
	}
	if c.client == nil {
		c.unavailable = cfg.ClientErr
		if c.unavailable == nil || !errors.Is(c.unavailable, ErrLLMNotConfigured) {
			c.unavailable = &ConfigError{Provider: orDefault(cfg.Provider, "llm"), Key: "LLM_PROVIDER"}
		}
	}
	return c, nil
}

// Ready returns the configuration error every operation would fail with,
// or nil when a provider is available.
func (c *Conductor) Ready() error {
	return c.unavailable
}

// BusinessName is the persona name used in prompts.
func (c *Conductor) BusinessName() string {
	return c.businessName
}

// Decide produces the action for the lead's latest turn. Provider and parse
// failures become contracts; the only error is a missing configuration.
func (c *Conductor) Decide(ctx context.Context, lead *leads.Lead) (ActionContract, error) {
	if err := c.Ready(); err != nil {
		return ActionContract{}, err
	}
	ctx, span := conductorTracer.Start(ctx, "conversation.decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("frontdesk.lead_id", lead.ID),
		attribute.String("frontdesk.lead_status", string(lead.Status)),
		attribute.Int("frontdesk.message_count", len(lead.Messages)),
	)

	resp, err := c.complete(ctx, "decide", LLMRequest{
		System:      []string{c.system},
		Messages:    BuildTranscript(lead),
		MaxTokens:   decideMaxTokens,
		Temperature: decideTemperature,
	})
	if err != nil {
		span.RecordError(err)
		c.metrics.ObserveContract("provider_error")
		c.logger.Error("model call failed", "lead_id", lead.ID, "error", err)
		return ProviderFailureContract(err), nil
	}

	var contract ActionContract
	switch r := ParseContract(resp.Text).(type) {
	case Parsed:
		contract = r.Contract
		c.metrics.ObserveContract("ok")
		if !contract.HasFieldUpdates() {
			if inferred := InferLeadFields(lead, contract.Reply); inferred != nil {
				merged := inferred
				if contract.UpdatedLeadFields != nil {
					m := contract.UpdatedLeadFields.Merge(*inferred)
					merged = &m
				}
				contract.UpdatedLeadFields = merged
				status := ""
				if inferred.Status != nil {
					status = string(*inferred.Status)
				}
				c.metrics.ObserveInference(status)
				c.logger.Info("inferred lead fields from reply", "lead_id", lead.ID, "status", status)
			}
		}
	case ParseFailure:
		c.metrics.ObserveContract("parse_failure")
		c.logger.Warn("failed to parse action contract",
			"lead_id", lead.ID,
			"error", r.Reason,
			"raw", logging.Redact(resp.Text),
		)
		contract = FallbackContract(r.Raw)
	}

	span.SetAttributes(attribute.String("frontdesk.action", string(contract.Action)))
	return contract, nil
}

// Welcome writes the first message for a new lead. An empty reply is an error.
func (c *Conductor) Welcome(ctx context.Context, lead *leads.Lead) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	ctx, span := conductorTracer.Start(ctx, "conversation.welcome")
	defer span.End()
	span.SetAttributes(attribute.String("frontdesk.lead_id", lead.ID))

	system, err := renderPrompt("welcome", map[string]any{"BusinessName": c.businessName})
	if err != nil {
		return "", err
	}
	channel := string(lead.Channel)
	if channel == "" {
		channel = string(leads.ChannelWeb)
	}
	user, err := renderPrompt("welcome_user", map[string]any{
		"Name":       orDefault(lead.Name, "Unknown"),
		"JobDetails": orDefault(lead.JobDetails, "Not specified"),
		"Channel":    channel,
	})
	if err != nil {
		return "", err
	}
	return c.completeText(ctx, "welcome", system, user, welcomeMaxTokens, welcomeTemperature)
}

// SummaryContext is the aggregated view the owner summary is written from.
type SummaryContext struct {
	DateRangeLabel string
	Summary        leads.Summary
}

// OwnerSummary writes a markdown recap of recent leads.
func (c *Conductor) OwnerSummary(ctx context.Context, sc SummaryContext) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	ctx, span := conductorTracer.Start(ctx, "conversation.owner_summary")
	defer span.End()
	span.SetAttributes(attribute.Int("frontdesk.lead_count", sc.Summary.TotalCount))

	type statusCount struct {
		Status leads.Status
		Count  int
	}
	type leadLine struct {
		Name, Status, Revenue, Channel, Snippet string
	}
	statuses := make([]statusCount, 0, len(leads.Statuses))
	for _, s := range leads.Statuses {
		statuses = append(statuses, statusCount{Status: s, Count: sc.Summary.ByStatus[s]})
	}
	lines := make([]leadLine, 0, len(sc.Summary.RecentLeads))
	for _, l := range sc.Summary.RecentLeads {
		revenue := "TBD"
		if l.EstimatedRevenue > 0 {
			revenue = "$" + formatMoney(l.EstimatedRevenue)
		}
		lines = append(lines, leadLine{
			Name:    l.Name,
			Status:  string(l.Status),
			Revenue: revenue,
			Channel: string(l.Channel),
			Snippet: leads.LastMessageSnippet(l),
		})
	}

	system, err := renderPrompt("owner_summary", map[string]any{"BusinessName": c.businessName})
	if err != nil {
		return "", err
	}
	user, err := renderPrompt("owner_summary_user", map[string]any{
		"DateRangeLabel":        orDefault(sc.DateRangeLabel, DailySummaryLabel),
		"TotalCount":            sc.Summary.TotalCount,
		"TotalEstimatedRevenue": sc.Summary.TotalEstimatedRevenue,
		"Statuses":              statuses,
		"Leads":                 lines,
	})
	if err != nil {
		return "", err
	}
	return c.completeText(ctx, "owner_summary", system, user, summaryMaxTokens, summaryTemperature)
}

// OwnerFollowup drafts a message the owner can send to an escalated lead.
// Provider failures fall back to a fixed template; only a configuration
// error is returned.
func (c *Conductor) OwnerFollowup(ctx context.Context, lead *leads.Lead) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	ctx, span := conductorTracer.Start(ctx, "conversation.owner_followup")
	defer span.End()
	span.SetAttributes(attribute.String("frontdesk.lead_id", lead.ID))

	history := lead.Messages
	if len(history) > followupHistoryTurns {
		history = history[len(history)-followupHistoryTurns:]
	}
	transcript := "(No conversation yet)"
	if len(history) > 0 {
		parts := make([]string, 0, len(history))
		for _, m := range history {
			who := "ai"
			if m.From == leads.SenderUser {
				who = "customer"
			}
			parts = append(parts, who+": "+m.Body)
		}
		transcript = strings.Join(parts, "\n")
	}

	system, err := renderPrompt("owner_followup", map[string]any{"BusinessName": c.businessName})
	if err != nil {
		return "", err
	}
	user, err := renderPrompt("owner_followup_user", map[string]any{
		"BusinessName": c.businessName,
		"Name":         orDefault(lead.Name, "Unknown"),
		"Phone":        orDefault(lead.Phone, "Not provided"),
		"Service":      orDefault(lead.ServiceRequested, orDefault(lead.JobDetails, "car detailing")),
		"Location":     orDefault(lead.Location, "your area"),
		"Status":       string(lead.Status),
		"Transcript":   transcript,
	})
	if err != nil {
		return "", err
	}

	text, err := c.completeText(ctx, "owner_followup", system, user, followupMaxTokens, followupTemperature)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("owner follow-up generation failed", "lead_id", lead.ID, "error", err)
		return c.staticFollowup(lead), nil
	}
	return text, nil
}

func (c *Conductor) staticFollowup(lead *leads.Lead) string {
	return fmt.Sprintf("Hi %s, this is the owner from %s. I saw your conversation with our assistant and wanted to personally follow up. When is a good time to call you today?",
		lead.FirstName("there"), c.businessName)
}

// completeText runs a single-turn call and requires a non-empty answer.
func (c *Conductor) completeText(ctx context.Context, op, system, user string, maxTokens int32, temperature float32) (string, error) {
	resp, err := c.complete(ctx, op, LLMRequest{
		System:      []string{system},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: user}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("conversation: model returned an empty %s response", op)
	}
	return text, nil
}

// complete makes exactly one gateway call, bounded by the configured timeout.
func (c *Conductor) complete(ctx context.Context, op string, req LLMRequest) (LLMResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	ctx, span := conductorTracer.Start(ctx, "conversation.llm."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.provider),
		attribute.Int("llm.max_tokens", int(req.MaxTokens)),
	)

	start := time.Now()
	resp, err := c.client.Complete(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("llm.input_tokens", int(resp.Usage.InputTokens)),
			attribute.Int("llm.output_tokens", int(resp.Usage.OutputTokens)),
			attribute.String("llm.stop_reason", resp.StopReason),
		)
	}
	c.metrics.ObserveLLMLatency(orDefault(c.provider, "unknown"), status, time.Since(start).Seconds())
	return resp, err
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
