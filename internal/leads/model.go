package leads

import (
	"strings"
	"time"
)

// Status tracks how far a lead has progressed from intake to booking.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusQualified Status = "QUALIFIED"
	StatusBooked    Status = "BOOKED"
	StatusEscalate  Status = "ESCALATE"
)

// Statuses lists every status in dashboard order.
var Statuses = []Status{StatusNew, StatusQualified, StatusBooked, StatusEscalate}

// ParseStatus normalizes s and reports whether it is a known status.
func ParseStatus(s string) (Status, bool) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusNew, StatusQualified, StatusBooked, StatusEscalate:
		return status, true
	}
	return "", false
}

// Channel is the intake source of a lead.
type Channel string

const (
	ChannelWeb       Channel = "web"
	ChannelSMS       Channel = "sms"
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelInstagram Channel = "instagram"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one turn in a lead conversation.
type Message struct {
	ID        string    `json:"id"`
	From      Sender    `json:"from"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Lead is one customer inquiry tracked from intake to booking.
type Lead struct {
	ID                  string    `json:"id"`
	CreatedAt           time.Time `json:"createdAt"`
	Name                string    `json:"name"`
	Phone               string    `json:"phone"`
	Email               string    `json:"email,omitempty"`
	Channel             Channel   `json:"channel"`
	ServiceRequested    string    `json:"serviceRequested,omitempty"`
	JobDetails          string    `json:"jobDetails,omitempty"`
	Location            string    `json:"location,omitempty"`
	PreferredTimeWindow string    `json:"preferredTimeWindow,omitempty"`
	ChosenSlot          string    `json:"chosenSlot,omitempty"`
	EstimatedRevenue    float64   `json:"estimatedRevenue,omitempty"`
	Status              Status    `json:"status"`
	Messages            []Message `json:"messages"`
	Version             int64     `json:"version"`
}

// Clone returns a deep copy so callers never share message slices with a store.
func (l *Lead) Clone() *Lead {
	if l == nil {
		return nil
	}
	out := *l
	out.Messages = make([]Message, len(l.Messages))
	copy(out.Messages, l.Messages)
	return &out
}

// FirstAIMessage returns the first assistant message in the conversation.
func (l *Lead) FirstAIMessage() (Message, bool) {
	for _, msg := range l.Messages {
		if msg.From == SenderAI {
			return msg, true
		}
	}
	return Message{}, false
}

// LastMessage returns the most recent message, if any.
func (l *Lead) LastMessage() (Message, bool) {
	if len(l.Messages) == 0 {
		return Message{}, false
	}
	return l.Messages[len(l.Messages)-1], true
}

// FirstName returns the first word of the lead's name, or fallback.
func (l *Lead) FirstName(fallback string) string {
	fields := strings.Fields(l.Name)
	if len(fields) == 0 {
		return fallback
	}
	return fields[0]
}
