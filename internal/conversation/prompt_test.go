package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/frontdesk/internal/leads"
)

func sampleLead() *leads.Lead {
	return &leads.Lead{
		ID:         "lead-1",
		CreatedAt:  time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Name:       "Sarah Jones",
		Phone:      "+17138642200",
		Channel:    leads.ChannelWeb,
		JobDetails: "Full detail for my SUV",
		Location:   "77008",
		Status:     leads.StatusNew,
		Messages:   []leads.Message{},
	}
}

func TestKnownFieldsBlock(t *testing.T) {
	lead := sampleLead()
	lead.EstimatedRevenue = 165
	block := KnownFieldsBlock(lead)

	for _, want := range []string{
		"=== CURRENT LEAD INFORMATION (Already Collected) ===\n",
		"Lead ID: lead-1\n",
		"Name: Sarah Jones\n",
		"Phone: +17138642200\n",
		"Email: (not provided)\n",
		"Channel: web\n",
		"Status: NEW\n",
		"Job Details: Full detail for my SUV\n",
		"Location/ZIP: 77008\n",
		"Estimated Revenue: $165\n",
		"STATE HINTS FOR YOU (the AI):\n",
	} {
		if !strings.Contains(block, want) {
			t.Errorf("block missing %q", want)
		}
	}
	for _, absent := range []string{"Service Requested:", "Preferred Time:", "Chosen Slot:"} {
		if strings.Contains(block, absent) {
			t.Errorf("block should omit empty field %q", absent)
		}
	}
	if block != KnownFieldsBlock(lead) {
		t.Fatal("block must be deterministic")
	}
}

func TestKnownFieldsBlock_PlaceholderPhone(t *testing.T) {
	lead := sampleLead()
	lead.Phone = "0000"
	if !strings.Contains(KnownFieldsBlock(lead), "Phone: 0000 (looks like a placeholder") {
		t.Fatal("expected placeholder phone to be flagged")
	}
}

func TestBuildTranscript_EmptyHistory(t *testing.T) {
	turns := BuildTranscript(sampleLead())
	if len(turns) != 1 || turns[0].Role != ChatRoleUser {
		t.Fatalf("expected one synthetic user turn, got %+v", turns)
	}
	if !strings.HasSuffix(turns[0].Content, newLeadTurn) || !strings.HasPrefix(turns[0].Content, "=== CURRENT LEAD") {
		t.Fatalf("unexpected opening turn: %q", turns[0].Content)
	}
}

func TestBuildTranscript_EndsWithUser(t *testing.T) {
	lead := sampleLead()
	lead.Messages = []leads.Message{
		{From: leads.SenderAI, Body: "Hi Sarah! What part of Houston are you in?"},
		{From: leads.SenderUser, Body: "Heights, 77008"},
		{From: leads.SenderAI, Body: "Great. When works for you?"},
		{From: leads.SenderUser, Body: "Saturday morning"},
	}
	turns := BuildTranscript(lead)
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}
	roles := []string{ChatRoleAssistant, ChatRoleUser, ChatRoleAssistant, ChatRoleUser}
	for i, role := range roles {
		if turns[i].Role != role {
			t.Fatalf("turn %d: expected %s, got %s", i, role, turns[i].Role)
		}
	}
	if turns[1].Content != "Heights, 77008" {
		t.Fatalf("earlier user turns must be verbatim, got %q", turns[1].Content)
	}
	if !strings.HasSuffix(turns[3].Content, "\n\nCustomer says: Saturday morning") ||
		!strings.HasPrefix(turns[3].Content, "=== CURRENT LEAD") {
		t.Fatalf("last user turn should carry the known fields: %q", turns[3].Content)
	}
}

func TestBuildTranscript_EndsWithAssistant(t *testing.T) {
	lead := sampleLead()
	lead.Messages = []leads.Message{
		{From: leads.SenderUser, Body: "How much?"},
		{From: leads.SenderAI, Body: "$150-$180 for an SUV."},
	}
	turns := BuildTranscript(lead)
	if len(turns) != 3 {
		t.Fatalf("expected synthetic continuation turn, got %d turns", len(turns))
	}
	if turns[0].Content != "How much?" {
		t.Fatalf("non-final user turn should be verbatim: %q", turns[0].Content)
	}
	last := turns[2]
	if last.Role != ChatRoleUser || !strings.HasSuffix(last.Content, continueTurn) {
		t.Fatalf("unexpected continuation turn: %+v", last)
	}
}

func TestSystemPrompt(t *testing.T) {
	kb, err := LoadKnowledgeBase("")
	if err != nil {
		t.Fatalf("load kb: %v", err)
	}
	prompt, err := SystemPrompt("# Persona", "Houston's Finest Mobile Detailing", kb)
	if err != nil {
		t.Fatalf("system prompt: %v", err)
	}
	if !strings.HasPrefix(prompt, "# Persona\n\n") {
		t.Fatal("persona must lead the prompt")
	}
	if !strings.Contains(prompt, "Exterior Wash, Interior Detail, Full Detail") {
		t.Fatal("expected service names from the knowledge base")
	}
	if !strings.Contains(prompt, "Houston, TX within about 25 miles") {
		t.Fatal("expected service area from the knowledge base")
	}
	if !strings.HasSuffix(prompt, "## Knowledge Base\n```yaml\n"+kb.Raw+"\n```") {
		t.Fatal("knowledge base must close the prompt in a yaml fence")
	}
}
