package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/internal/observability/metrics"
)

func newTestConfirmer(sender *recordingSender, owner string, archive *ArchiveStore) *Confirmer {
	c := NewConfirmer(ConfirmerConfig{
		Sender:       sender,
		OwnerEmail:   owner,
		BusinessName: "Houston's Finest Mobile Detailing",
		Location:     time.UTC,
		Archive:      archive,
		Metrics:      metrics.NewBridgeMetrics(prometheus.NewRegistry()),
		Logger:       quietLogger(),
	})
	c.now = func() time.Time { return wednesday }
	return c
}

func TestConfirmer_SendsOwnerAndCustomer(t *testing.T) {
	sender := &recordingSender{}
	c := newTestConfirmer(sender, "owner@example.com", nil)

	if err := c.Confirm(context.Background(), bookedLead()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	owner, ok := sender.byRecipient("owner@example.com")
	if !ok || owner.Subject != "New Booking: Sarah Jones - Full Detail" {
		t.Fatalf("unexpected owner email %+v", owner)
	}
	customer, ok := sender.byRecipient("sarah@example.com")
	if !ok || !strings.HasPrefix(customer.Subject, "Booking Confirmed: Full Detail - ") {
		t.Fatalf("unexpected customer email %+v", customer)
	}
	if string(owner.Attachments[0].Content) != string(customer.Attachments[0].Content) {
		t.Fatal("both emails should carry the same invite")
	}
}

func TestConfirmer_SkipsMissingAddresses(t *testing.T) {
	sender := &recordingSender{}
	c := newTestConfirmer(sender, "", nil)
	lead := bookedLead()
	lead.Email = ""

	if err := c.Confirm(context.Background(), lead); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no emails, got %d", len(sender.sent))
	}
}

func TestConfirmer_IgnoresUnbookedLeads(t *testing.T) {
	sender := &recordingSender{}
	c := newTestConfirmer(sender, "owner@example.com", nil)
	lead := bookedLead()
	lead.Status = leads.StatusQualified

	if err := c.Confirm(context.Background(), lead); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no emails, got %d", len(sender.sent))
	}
}

func TestConfirmer_ReturnsSendFailure(t *testing.T) {
	sender := &recordingSender{failTo: map[string]error{"owner@example.com": errBoom}}
	c := newTestConfirmer(sender, "owner@example.com", nil)

	err := c.Confirm(context.Background(), bookedLead())
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected owner failure, got %v", err)
	}
	if _, ok := sender.byRecipient("sarah@example.com"); !ok {
		t.Fatal("customer email should still be sent")
	}
}

func TestConfirmer_Archives(t *testing.T) {
	s3 := newMockS3()
	sender := &recordingSender{}
	c := newTestConfirmer(sender, "owner@example.com", NewArchiveStore(s3, "bookings-bucket", quietLogger()))

	if err := c.Confirm(context.Background(), bookedLead()); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, ok := s3.object("bookings/2025/06/11/lead-1.ics"); !ok {
		t.Fatal("expected archived invite")
	}
	if _, ok := s3.object("bookings/2025/06/11/lead-1.json"); !ok {
		t.Fatal("expected archived record")
	}
}

func TestConfirmer_ArchiveFailureIsNotReturned(t *testing.T) {
	s3 := newMockS3()
	s3.putErr = errBoom
	c := newTestConfirmer(&recordingSender{}, "owner@example.com", NewArchiveStore(s3, "bookings-bucket", quietLogger()))

	if err := c.Confirm(context.Background(), bookedLead()); err != nil {
		t.Fatalf("archive errors should only be logged, got %v", err)
	}
}
