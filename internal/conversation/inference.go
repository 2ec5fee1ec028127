package conversation

import (
	"regexp"
	"strings"

	"github.com/wolfman30/frontdesk/internal/leads"
)

// inferenceInput is what the rules look at: the lowercased reply and the
// lead's job details as extra context for service classification.
type inferenceInput struct {
	reply      string
	jobDetails string
}

// inferenceRule contributes a patch when it matches. A terminal rule that
// matches ends evaluation. Rules see the patch accumulated so far.
type inferenceRule struct {
	name     string
	terminal bool
	apply    func(in inferenceInput, acc leads.Patch) (leads.Patch, bool)
}

// inferenceRules run in priority order. Escalation comes first and is
// terminal, so a reply that both confirms and defers to the owner escalates.
var inferenceRules = []inferenceRule{
	{name: "escalation", terminal: true, apply: escalationRule},
	{name: "booking", apply: bookingRule},
	{name: "service", apply: serviceRule},
	{name: "slot", apply: slotRule},
}

var escalationPhrases = []string{
	"outside our main service area",
	"outside our service area",
	"outside your main service area",
	"outside your service area",
	"we don't usually go that far",
	"check with our team",
	"check with my manager",
	"check with the team",
	"check with the manager",
}

var bookingPhrases = []string{
	"you're all set",
	"you are all set",
	"perfect! you're",
}

var slotPattern = regexp.MustCompile(`(?i)(tomorrow|today|monday|tuesday|wednesday|thursday|friday|saturday|sunday|[a-z]+\s+\d{1,2})\s+at\s+(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`)

// Revenue estimates used when the model names a service but no price.
const (
	fullDetailLargeRevenue = 165
	fullDetailRevenue      = 150
	interiorDetailRevenue  = 130
	exteriorWashRevenue    = 55
)

// InferLeadFields fills in lead updates from reply text when the model left
// updatedLeadFields empty. It returns nil when no rule matched.
func InferLeadFields(lead *leads.Lead, reply string) *leads.Patch {
	// models often emit typographic apostrophes ("you’re all set")
	normalized := strings.ReplaceAll(strings.ToLower(reply), "’", "'")
	in := inferenceInput{reply: normalized, jobDetails: lead.JobDetails}

	var acc leads.Patch
	for _, rule := range inferenceRules {
		patch, ok := rule.apply(in, acc)
		if !ok {
			continue
		}
		acc = acc.Merge(patch)
		if rule.terminal {
			break
		}
	}
	if acc.IsEmpty() {
		return nil
	}
	return &acc
}

func escalationRule(in inferenceInput, _ leads.Patch) (leads.Patch, bool) {
	if !containsAny(in.reply, escalationPhrases) {
		return leads.Patch{}, false
	}
	return leads.Patch{Status: leads.StatusPtr(leads.StatusEscalate)}, true
}

func bookingRule(in inferenceInput, _ leads.Patch) (leads.Patch, bool) {
	confirmed := containsAny(in.reply, bookingPhrases) ||
		(strings.Contains(in.reply, "confirmed") &&
			(strings.Contains(in.reply, "appointment") || strings.Contains(in.reply, "booking")))
	if !confirmed {
		return leads.Patch{}, false
	}
	return leads.Patch{Status: leads.StatusPtr(leads.StatusBooked)}, true
}

func serviceRule(in inferenceInput, _ leads.Patch) (leads.Patch, bool) {
	text := strings.ToLower(in.jobDetails + " " + in.reply)
	switch {
	case strings.Contains(text, "full") && strings.Contains(text, "detail"):
		revenue := float64(fullDetailRevenue)
		if containsAny(text, []string{"suv", "truck", "van"}) {
			revenue = fullDetailLargeRevenue
		}
		return leads.Patch{ServiceRequested: leads.String("Full Detail"), EstimatedRevenue: leads.Float(revenue)}, true
	case strings.Contains(text, "interior") && strings.Contains(text, "detail"):
		return leads.Patch{ServiceRequested: leads.String("Interior Detail"), EstimatedRevenue: leads.Float(interiorDetailRevenue)}, true
	case strings.Contains(text, "exterior") && (strings.Contains(text, "detail") || strings.Contains(text, "wash")):
		return leads.Patch{ServiceRequested: leads.String("Exterior Wash"), EstimatedRevenue: leads.Float(exteriorWashRevenue)}, true
	}
	return leads.Patch{}, false
}

// slotRule only runs for bookings and formats "<day> at <time>" as the slot.
func slotRule(in inferenceInput, acc leads.Patch) (leads.Patch, bool) {
	if acc.Status == nil || *acc.Status != leads.StatusBooked || acc.ChosenSlot != nil {
		return leads.Patch{}, false
	}
	m := slotPattern.FindStringSubmatch(in.reply)
	if m == nil {
		return leads.Patch{}, false
	}
	day := m[1]
	day = strings.ToUpper(day[:1]) + day[1:]
	return leads.Patch{ChosenSlot: leads.String(day + " at " + strings.TrimSpace(m[2]))}, true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
