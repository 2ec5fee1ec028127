package conversation

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/wolfman30/frontdesk/internal/leads"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(
	template.New("prompts").
		Option("missingkey=error").
		Funcs(template.FuncMap{"join": strings.Join, "money": formatMoney}).
		ParseFS(promptFS, "prompts/*.tmpl"),
)

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("conversation: render %s prompt: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

const (
	customerSaysPrefix = "Customer says: "
	continueTurn       = "(Continue the conversation)"
	newLeadTurn        = "New lead just came in from the web form. Greet them warmly and start the qualification process based on what we already know."
)

// KnownFieldsBlock renders every known lead field with an instruction not to
// ask for it again. Output depends only on the lead.
func KnownFieldsBlock(lead *leads.Lead) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("=== CURRENT LEAD INFORMATION (Already Collected) ===")
	line("This is everything we ALREADY know about this customer from the web form and prior conversation.")
	line("DO NOT ask for any information that is already present and non-empty below.")
	line("")
	line("Lead ID: %s", lead.ID)
	line("Name: %s", orNotProvided(lead.Name))
	line("Phone: %s", phoneLine(lead.Phone))
	line("Email: %s", orNotProvided(lead.Email))
	line("Channel: %s", lead.Channel)
	line("Status: %s", lead.Status)
	if lead.ServiceRequested != "" {
		line("Service Requested: %s", lead.ServiceRequested)
	}
	if lead.JobDetails != "" {
		line("Job Details: %s", lead.JobDetails)
	}
	if lead.Location != "" {
		line("Location/ZIP: %s", lead.Location)
	}
	if lead.PreferredTimeWindow != "" {
		line("Preferred Time: %s", lead.PreferredTimeWindow)
	}
	if lead.ChosenSlot != "" {
		line("Chosen Slot: %s", lead.ChosenSlot)
	}
	if lead.EstimatedRevenue > 0 {
		line("Estimated Revenue: $%s", formatMoney(lead.EstimatedRevenue))
	}
	line("")
	line("IMPORTANT: Before asking the customer for ANY information (name, phone, email, service type, vehicle, ZIP, etc.),")
	line("FIRST check if it is already listed above. If it is present and looks valid, DO NOT ask for it again.")
	line("Only ask for information that is truly missing or incomplete.")
	line("")
	line("STATE HINTS FOR YOU (the AI):")
	line(`- If you have proposed exact time options and the customer clearly picks one (e.g., "2pm works", "tomorrow at 3"),`)
	line(`  treat that as a booking confirmation and set status = "BOOKED" in updatedLeadFields.`)
	line("- Always calculate estimatedRevenue as the midpoint of the price range from the knowledge base when booking.")
	line(`- Set status = "QUALIFIED" once you have service type, vehicle type, and valid ZIP code.`)
	line("===================================================")
	return b.String()
}

// BuildTranscript converts the lead's messages into model turns. The known
// fields block always rides on the final user turn: it is prepended to the
// customer's last message, or added as a synthetic turn when the history is
// empty or ends with an assistant reply.
func BuildTranscript(lead *leads.Lead) []ChatMessage {
	block := KnownFieldsBlock(lead)
	turns := make([]ChatMessage, 0, len(lead.Messages)+1)

	for i, msg := range lead.Messages {
		last := i == len(lead.Messages)-1
		switch {
		case msg.From == leads.SenderUser && last:
			turns = append(turns, ChatMessage{Role: ChatRoleUser, Content: block + "\n\n" + customerSaysPrefix + msg.Body})
		case msg.From == leads.SenderUser:
			turns = append(turns, ChatMessage{Role: ChatRoleUser, Content: msg.Body})
		default:
			turns = append(turns, ChatMessage{Role: ChatRoleAssistant, Content: msg.Body})
		}
	}

	switch {
	case len(turns) == 0:
		turns = append(turns, ChatMessage{Role: ChatRoleUser, Content: block + "\n\n" + newLeadTurn})
	case turns[len(turns)-1].Role == ChatRoleAssistant:
		turns = append(turns, ChatMessage{Role: ChatRoleUser, Content: block + "\n\n" + continueTurn})
	}
	return turns
}

// SystemPrompt joins the persona, the decision rules and the knowledge base.
func SystemPrompt(persona, businessName string, kb *KnowledgeBase) (string, error) {
	rules, err := renderPrompt("system_rules", map[string]any{
		"BusinessName": businessName,
		"ServiceNames": kb.ServiceNames(),
		"ServiceArea":  serviceAreaText(kb.Business.ServiceArea),
	})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(persona))
	b.WriteString("\n\n")
	b.WriteString(rules)
	b.WriteString("\n\n## Knowledge Base\n```yaml\n")
	b.WriteString(kb.Raw)
	b.WriteString("\n```")
	return b.String(), nil
}

func serviceAreaText(area ServiceArea) string {
	city := strings.TrimSpace(area.City)
	if city == "" {
		city = "the local area"
	}
	if area.RadiusMiles > 0 {
		return fmt.Sprintf("%s within about %d miles", city, area.RadiusMiles)
	}
	return city
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not provided)"
	}
	return s
}

func phoneLine(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return "(not provided)"
	}
	if leads.LooksLikePlaceholderPhone(phone) {
		return phone + " (looks like a placeholder; ask for a real number)"
	}
	return phone
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
