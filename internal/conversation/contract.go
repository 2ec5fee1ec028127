package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wolfman30/frontdesk/internal/leads"
)

// Action is the routing decision carried by an ActionContract.
type Action string

const (
	ActionSendMessage   Action = "send_message"
	ActionOfferSlots    Action = "offer_slots"
	ActionCreateBooking Action = "create_booking"
	ActionFlagForReview Action = "flag_for_review"
)

// Valid reports whether a is one of the four routable actions.
func (a Action) Valid() bool {
	switch a {
	case ActionSendMessage, ActionOfferSlots, ActionCreateBooking, ActionFlagForReview:
		return true
	}
	return false
}

type SlotParams struct {
	Datetime string  `json:"datetime"`
	Duration float64 `json:"duration,omitempty"`
}

type LeadParams struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Zip   string `json:"zip,omitempty"`
}

// Parameters is the action-specific payload.
type Parameters struct {
	Slot   *SlotParams `json:"slot,omitempty"`
	Lead   *LeadParams `json:"lead,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

// ActionContract is the model's structured decision for one conversation turn.
type ActionContract struct {
	Reply             string       `json:"reply"`
	Action            Action       `json:"action"`
	Parameters        *Parameters  `json:"parameters,omitempty"`
	UpdatedLeadFields *leads.Patch `json:"updatedLeadFields,omitempty"`
}

// HasFieldUpdates reports whether the contract carries a non-empty patch.
func (c ActionContract) HasFieldUpdates() bool {
	return c.UpdatedLeadFields != nil && !c.UpdatedLeadFields.IsEmpty()
}

// ParseResult is either Parsed or ParseFailure.
type ParseResult interface {
	isParseResult()
}

// Parsed holds a contract that passed validation.
type Parsed struct {
	Contract ActionContract
}

// ParseFailure keeps the raw model text and the reason it was rejected.
type ParseFailure struct {
	Raw    string
	Reason error
}

func (Parsed) isParseResult()       {}
func (ParseFailure) isParseResult() {}

const (
	processingReply      = "I'm processing your request. One moment please."
	providerFailureReply = "I'm having trouble processing your request right now. Let me have someone from our team reach out to you shortly."
)

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// wireContract mirrors ActionContract with loose types so one malformed
// optional field cannot reject an otherwise usable reply.
type wireContract struct {
	Reply             *string         `json:"reply"`
	Action            *string         `json:"action"`
	Parameters        json.RawMessage `json:"parameters"`
	UpdatedLeadFields json.RawMessage `json:"updatedLeadFields"`
}

// ParseContract extracts a contract from model text. The JSON may sit in a
// fenced code block (with or without a json tag) or be the whole text.
// Only reply and action are validated; parameters and updatedLeadFields are
// taken as given and dropped when they are not objects.
func ParseContract(raw string) ParseResult {
	candidate := raw
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	}

	var wire wireContract
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &wire); err != nil {
		return ParseFailure{Raw: raw, Reason: fmt.Errorf("invalid JSON: %w", err)}
	}
	if wire.Reply == nil || *wire.Reply == "" {
		return ParseFailure{Raw: raw, Reason: errors.New(`missing or invalid "reply" field`)}
	}
	if wire.Action == nil || *wire.Action == "" {
		return ParseFailure{Raw: raw, Reason: errors.New(`missing or invalid "action" field`)}
	}
	action := Action(*wire.Action)
	if !action.Valid() {
		return ParseFailure{Raw: raw, Reason: fmt.Errorf("invalid action type: %s", action)}
	}

	contract := ActionContract{Reply: *wire.Reply, Action: action}
	if isJSONObject(wire.Parameters) {
		var params Parameters
		if err := json.Unmarshal(wire.Parameters, &params); err == nil {
			contract.Parameters = &params
		}
	}
	if isJSONObject(wire.UpdatedLeadFields) {
		var patch leads.Patch
		if err := json.Unmarshal(wire.UpdatedLeadFields, &patch); err == nil {
			contract.UpdatedLeadFields = &patch
		}
	}
	return Parsed{Contract: contract}
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}

// FallbackContract turns unusable model output into a plain reply so the
// customer still sees something.
func FallbackContract(raw string) ActionContract {
	reply := strings.TrimSpace(raw)
	if reply == "" {
		reply = processingReply
	}
	return ActionContract{Reply: reply, Action: ActionSendMessage}
}

// ProviderFailureContract escalates a turn the model could not answer.
func ProviderFailureContract(err error) ActionContract {
	reason := "Unknown error"
	if err != nil {
		reason = err.Error()
	}
	return ActionContract{
		Reply:      providerFailureReply,
		Action:     ActionFlagForReview,
		Parameters: &Parameters{Reason: "AI error: " + reason},
	}
}

// Resolve returns the parsed contract, or the fallback for a failure.
func Resolve(result ParseResult) ActionContract {
	switch r := result.(type) {
	case Parsed:
		return r.Contract
	case ParseFailure:
		return FallbackContract(r.Raw)
	}
	return FallbackContract("")
}
