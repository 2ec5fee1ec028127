package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

// Bridge is the model-facing half of the front desk. *Conductor implements it.
type Bridge interface {
	Ready() error
	BusinessName() string
	Decide(ctx context.Context, lead *leads.Lead) (ActionContract, error)
	Welcome(ctx context.Context, lead *leads.Lead) (string, error)
	OwnerSummary(ctx context.Context, sc SummaryContext) (string, error)
	OwnerFollowup(ctx context.Context, lead *leads.Lead) (string, error)
}

// BookingConfirmer sends the confirmations for a lead that just booked.
type BookingConfirmer interface {
	Confirm(ctx context.Context, lead *leads.Lead) error
}

// ErrEmptyMessage is returned when a customer message has no text.
var ErrEmptyMessage = errors.New("conversation: message is required")

const (
	ownerSummaryWindow = 24 * time.Hour
	ownerSummaryLeads  = 10
)

// FrontDesk runs each conversation turn against the lead store: append the
// customer message, ask the bridge, apply field updates, append the reply,
// and confirm bookings. Turns for the same lead run one at a time.
type FrontDesk struct {
	repo      leads.Repository
	bridge    Bridge
	confirmer BookingConfirmer
	locker    *leads.Locker
	logger    *logging.Logger
	now       func() time.Time
}

// NewFrontDesk wires the service. confirmer may be nil.
func NewFrontDesk(repo leads.Repository, bridge Bridge, confirmer BookingConfirmer, logger *logging.Logger) *FrontDesk {
	if repo == nil {
		panic("conversation: lead repository cannot be nil")
	}
	if bridge == nil {
		panic("conversation: bridge cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FrontDesk{
		repo:      repo,
		bridge:    bridge,
		confirmer: confirmer,
		locker:    leads.NewLocker(),
		logger:    logger.Component("frontdesk"),
		now:       time.Now,
	}
}

// TurnResult is the outcome of one customer message.
type TurnResult struct {
	Lead   *leads.Lead    `json:"lead"`
	Action ActionContract `json:"action"`
}

// HandleMessage processes one customer message. An unknown lead, a missing
// LLM configuration or an empty message fail before anything is written.
func (f *FrontDesk) HandleMessage(ctx context.Context, leadID, body string) (TurnResult, error) {
	if strings.TrimSpace(body) == "" {
		return TurnResult{}, ErrEmptyMessage
	}
	unlock, err := f.locker.Lock(ctx, leadID)
	if err != nil {
		return TurnResult{}, err
	}
	defer unlock()

	if _, err := f.repo.GetByID(ctx, leadID); err != nil {
		return TurnResult{}, err
	}
	if err := f.bridge.Ready(); err != nil {
		return TurnResult{}, err
	}

	lead, err := f.repo.AppendMessage(ctx, leadID, leads.SenderUser, body)
	if err != nil {
		return TurnResult{}, fmt.Errorf("conversation: append user message: %w", err)
	}

	contract, err := f.bridge.Decide(ctx, lead)
	if err != nil {
		return TurnResult{}, err
	}

	if contract.HasFieldUpdates() {
		if _, err := f.repo.Update(ctx, leadID, *contract.UpdatedLeadFields); err != nil {
			return TurnResult{}, fmt.Errorf("conversation: apply lead fields: %w", err)
		}
	}
	lead, err = f.repo.AppendMessage(ctx, leadID, leads.SenderAI, contract.Reply)
	if err != nil {
		return TurnResult{}, fmt.Errorf("conversation: append reply: %w", err)
	}

	f.logger.Info("conversation turn handled",
		"lead_id", lead.ID,
		"action", contract.Action,
		"status", lead.Status,
	)

	if lead.Status == leads.StatusBooked && contract.Action == ActionCreateBooking && f.confirmer != nil {
		if err := f.confirmer.Confirm(ctx, lead); err != nil {
			f.logger.Error("failed to send booking confirmations", "lead_id", lead.ID, "error", err)
		}
	}
	return TurnResult{Lead: lead, Action: contract}, nil
}

// Welcome returns the lead's opening AI message, generating and storing it
// on the first call only. Model failures fall back to a fixed greeting.
func (f *FrontDesk) Welcome(ctx context.Context, leadID string) (leads.Message, error) {
	unlock, err := f.locker.Lock(ctx, leadID)
	if err != nil {
		return leads.Message{}, err
	}
	defer unlock()

	lead, err := f.repo.GetByID(ctx, leadID)
	if err != nil {
		return leads.Message{}, err
	}
	if existing, ok := lead.FirstAIMessage(); ok {
		return existing, nil
	}

	body, err := f.bridge.Welcome(ctx, lead)
	if err != nil {
		f.logger.Warn("welcome generation failed, using static greeting", "lead_id", leadID, "error", err)
		body = staticWelcome(f.bridge.BusinessName(), lead.JobDetails)
	}
	lead, err = f.repo.AppendMessage(ctx, leadID, leads.SenderAI, body)
	if err != nil {
		return leads.Message{}, fmt.Errorf("conversation: append welcome: %w", err)
	}
	stored, _ := lead.LastMessage()
	return stored, nil
}

func staticWelcome(businessName, jobDetails string) string {
	jobDetails = strings.TrimSpace(jobDetails)
	if jobDetails != "" {
		return fmt.Sprintf(`Hi! I'm your AI front desk for %s. I see you're interested in: "%s". I can confirm pricing, check availability, and help you lock in a booking so you don't have to repeat all that.`, businessName, jobDetails)
	}
	return fmt.Sprintf("Hi! I'm your AI front desk for %s. You can ask about pricing, availability this week, or help booking a full detail.", businessName)
}

// OwnerAssist drafts a follow-up for the owner to send to the lead.
func (f *FrontDesk) OwnerAssist(ctx context.Context, leadID string) (string, error) {
	lead, err := f.repo.GetByID(ctx, leadID)
	if err != nil {
		return "", err
	}
	f.logger.Info("generating owner follow-up", "lead_id", leadID, "status", lead.Status)
	return f.bridge.OwnerFollowup(ctx, lead)
}

// OwnerSummary writes the daily recap over leads created in the last 24 hours.
func (f *FrontDesk) OwnerSummary(ctx context.Context) (string, string, error) {
	all, err := f.repo.List(ctx)
	if err != nil {
		return "", "", fmt.Errorf("conversation: list leads: %w", err)
	}
	summary := leads.Summarize(all, leads.SummaryOptions{
		Now:         f.now(),
		Window:      ownerSummaryWindow,
		RecentLimit: ownerSummaryLeads,
	})
	text, err := f.bridge.OwnerSummary(ctx, SummaryContext{DateRangeLabel: DailySummaryLabel, Summary: summary})
	if err != nil {
		return "", "", err
	}
	return DailySummaryLabel, text, nil
}

// LLMConfigured reports whether model calls can be made.
func (f *FrontDesk) LLMConfigured() bool {
	return f.bridge.Ready() == nil
}
