package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/internal/notify"
	"github.com/wolfman30/frontdesk/internal/observability/metrics"
	"github.com/wolfman30/frontdesk/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// ConfirmerConfig wires a Confirmer. Sender is required; OwnerEmail may be
// empty, in which case the owner notice is skipped.
type ConfirmerConfig struct {
	Sender       notify.EmailSender
	OwnerEmail   string
	BusinessName string
	Location     *time.Location
	Archive      *ArchiveStore
	Metrics      *metrics.BridgeMetrics
	Logger       *logging.Logger
}

// Confirmer sends the owner notice and the customer confirmation for a
// booked lead, each with a calendar invite.
type Confirmer struct {
	sender       notify.EmailSender
	ownerEmail   string
	businessName string
	loc          *time.Location
	archive      *ArchiveStore
	metrics      *metrics.BridgeMetrics
	logger       *logging.Logger
	now          func() time.Time
}

func NewConfirmer(cfg ConfirmerConfig) *Confirmer {
	if cfg.Sender == nil {
		panic("booking: email sender cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Confirmer{
		sender:       cfg.Sender,
		ownerEmail:   strings.TrimSpace(cfg.OwnerEmail),
		businessName: cfg.BusinessName,
		loc:          cfg.Location,
		archive:      cfg.Archive,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger.Component("booking"),
		now:          time.Now,
	}
}

// Confirm sends both emails concurrently and returns the first failure.
// Leads that are not BOOKED are ignored.
func (c *Confirmer) Confirm(ctx context.Context, lead *leads.Lead) error {
	if lead.Status != leads.StatusBooked {
		return nil
	}
	now := c.now()
	details := BuildDetails(lead, c.businessName, now, c.loc)
	if !details.Slot.Resolved {
		c.logger.Warn("could not read chosen slot, using default time",
			"lead_id", lead.ID,
			"chosen_slot", lead.ChosenSlot,
			"start", details.Slot.Start,
		)
	}
	invite := details.Invite(lead.ID, now)

	var g errgroup.Group
	g.Go(func() error { return c.sendOwner(ctx, lead, details, invite) })
	g.Go(func() error { return c.sendCustomer(ctx, lead, details, invite) })
	if c.archive.Enabled() {
		g.Go(func() error {
			rec := BookingRecord{
				LeadID:     lead.ID,
				ArchivedAt: now.UTC(),
				Service:    details.Service,
				ChosenSlot: details.ChosenSlot,
				Start:      details.Slot.Start,
				End:        details.Slot.End,
				Location:   details.Location,
				Price:      details.Price,
				Lead:       lead,
			}
			if err := c.archive.Archive(ctx, rec, invite); err != nil {
				c.logger.Error("failed to archive booking", "lead_id", lead.ID, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.logger.Info("booking confirmations sent", "lead_id", lead.ID)
	return nil
}

func (c *Confirmer) sendOwner(ctx context.Context, lead *leads.Lead, d Details, invite string) error {
	if c.ownerEmail == "" {
		c.logger.Warn("no owner email configured, skipping owner notification", "lead_id", lead.ID)
		c.metrics.ObserveEmail("owner", "skipped")
		return nil
	}
	msg, err := d.OwnerEmail(c.ownerEmail, invite)
	if err != nil {
		return err
	}
	return c.send(ctx, "owner", lead.ID, msg)
}

func (c *Confirmer) sendCustomer(ctx context.Context, lead *leads.Lead, d Details, invite string) error {
	if d.Email == "" {
		c.logger.Info("customer has no email, skipping confirmation", "lead_id", lead.ID)
		c.metrics.ObserveEmail("customer", "skipped")
		return nil
	}
	msg, err := d.CustomerEmail(invite)
	if err != nil {
		return err
	}
	return c.send(ctx, "customer", lead.ID, msg)
}

func (c *Confirmer) send(ctx context.Context, kind, leadID string, msg notify.EmailMessage) error {
	if err := c.sender.Send(ctx, msg); err != nil {
		c.metrics.ObserveEmail(kind, "failed")
		return fmt.Errorf("booking: send %s email: %w", kind, err)
	}
	c.metrics.ObserveEmail(kind, "sent")
	c.logger.Info("booking email sent", "kind", kind, "lead_id", leadID, "to", msg.To)
	return nil
}
