package leads

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Patch is a partial update to a lead. Nil fields leave the stored value
// untouched; non-nil fields overwrite it. ID, CreatedAt and Messages are
// never patchable.
type Patch struct {
	Name                *string  `json:"name,omitempty"`
	Phone               *string  `json:"phone,omitempty"`
	Email               *string  `json:"email,omitempty"`
	Channel             *Channel `json:"channel,omitempty"`
	ServiceRequested    *string  `json:"serviceRequested,omitempty"`
	JobDetails          *string  `json:"jobDetails,omitempty"`
	Location            *string  `json:"location,omitempty"`
	PreferredTimeWindow *string  `json:"preferredTimeWindow,omitempty"`
	ChosenSlot          *string  `json:"chosenSlot,omitempty"`
	EstimatedRevenue    *float64 `json:"estimatedRevenue,omitempty"`
	Status              *Status  `json:"status,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Email == nil && p.Channel == nil &&
		p.ServiceRequested == nil && p.JobDetails == nil && p.Location == nil &&
		p.PreferredTimeWindow == nil && p.ChosenSlot == nil &&
		p.EstimatedRevenue == nil && p.Status == nil
}

// Merge returns p with every non-nil field of over applied on top.
func (p Patch) Merge(over Patch) Patch {
	out := p
	if over.Name != nil {
		out.Name = over.Name
	}
	if over.Phone != nil {
		out.Phone = over.Phone
	}
	if over.Email != nil {
		out.Email = over.Email
	}
	if over.Channel != nil {
		out.Channel = over.Channel
	}
	if over.ServiceRequested != nil {
		out.ServiceRequested = over.ServiceRequested
	}
	if over.JobDetails != nil {
		out.JobDetails = over.JobDetails
	}
	if over.Location != nil {
		out.Location = over.Location
	}
	if over.PreferredTimeWindow != nil {
		out.PreferredTimeWindow = over.PreferredTimeWindow
	}
	if over.ChosenSlot != nil {
		out.ChosenSlot = over.ChosenSlot
	}
	if over.EstimatedRevenue != nil {
		out.EstimatedRevenue = over.EstimatedRevenue
	}
	if over.Status != nil {
		out.Status = over.Status
	}
	return out
}

// Apply writes the non-nil fields of p onto lead.
func (p Patch) Apply(lead *Lead) {
	if p.Name != nil {
		lead.Name = *p.Name
	}
	if p.Phone != nil {
		lead.Phone = *p.Phone
	}
	if p.Email != nil {
		lead.Email = *p.Email
	}
	if p.Channel != nil {
		lead.Channel = *p.Channel
	}
	if p.ServiceRequested != nil {
		lead.ServiceRequested = *p.ServiceRequested
	}
	if p.JobDetails != nil {
		lead.JobDetails = *p.JobDetails
	}
	if p.Location != nil {
		lead.Location = *p.Location
	}
	if p.PreferredTimeWindow != nil {
		lead.PreferredTimeWindow = *p.PreferredTimeWindow
	}
	if p.ChosenSlot != nil {
		lead.ChosenSlot = *p.ChosenSlot
	}
	if p.EstimatedRevenue != nil {
		lead.EstimatedRevenue = *p.EstimatedRevenue
	}
	if p.Status != nil {
		lead.Status = *p.Status
	}
}

// UnmarshalJSON decodes model-produced field updates leniently. Values of
// the wrong JSON type are coerced where the intent is obvious ("$150" for a
// revenue, "booked" for a status) and dropped otherwise, so one odd field
// never discards the rest of the patch.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Patch{}
	p.Name = lenientString(raw["name"])
	p.Phone = lenientString(raw["phone"])
	p.Email = lenientString(raw["email"])
	p.ServiceRequested = lenientString(raw["serviceRequested"])
	p.JobDetails = lenientString(raw["jobDetails"])
	p.Location = lenientString(raw["location"])
	p.PreferredTimeWindow = lenientString(raw["preferredTimeWindow"])
	p.ChosenSlot = lenientString(raw["chosenSlot"])
	p.EstimatedRevenue = lenientNumber(raw["estimatedRevenue"])
	if s := lenientString(raw["channel"]); s != nil {
		switch ch := Channel(strings.ToLower(*s)); ch {
		case ChannelWeb, ChannelSMS, ChannelWhatsApp, ChannelInstagram:
			p.Channel = &ch
		}
	}
	if s := lenientString(raw["status"]); s != nil {
		if status, ok := ParseStatus(*s); ok {
			p.Status = &status
		}
	}
	return nil
}

func lenientString(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		s = n.String()
		return &s
	}
	return nil
}

func lenientNumber(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &f
	}
	return nil
}

// String, Float and StatusPtr build patch fields inline.
func String(s string) *string    { return &s }
func Float(f float64) *float64   { return &f }
func StatusPtr(s Status) *Status { return &s }
