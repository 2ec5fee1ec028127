package leads

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateLeadRequest is the web-form payload that opens a lead.
type CreateLeadRequest struct {
	Name                string  `json:"name"`
	Phone               string  `json:"phone"`
	Email               string  `json:"email,omitempty" validate:"omitempty,email"`
	Channel             Channel `json:"channel,omitempty" validate:"omitempty,oneof=web sms whatsapp instagram"`
	ServiceRequested    string  `json:"serviceRequested,omitempty"`
	JobDetails          string  `json:"jobDetails,omitempty"`
	Location            string  `json:"location,omitempty"`
	PreferredTimeWindow string  `json:"preferredTimeWindow,omitempty"`
}

// Validate applies form defaults and rejects malformed optional fields.
// A missing name becomes "Unknown" and a missing channel becomes web; the
// form never rejects a lead for lacking contact details.
func (r *CreateLeadRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		r.Name = "Unknown"
	}
	r.Email = strings.TrimSpace(r.Email)
	r.Channel = Channel(strings.ToLower(strings.TrimSpace(string(r.Channel))))
	if r.Channel == "" {
		r.Channel = ChannelWeb
	}
	r.Phone = NormalizePhone(r.Phone)

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Field() {
				case "Channel":
					return ErrInvalidChannel
				case "Email":
					return ErrInvalidEmail
				}
			}
		}
		return err
	}
	return nil
}

// newLead builds the initial record for a validated request.
func newLead(req *CreateLeadRequest, now time.Time) *Lead {
	return &Lead{
		ID:                  uuid.NewString(),
		CreatedAt:           now.UTC(),
		Name:                req.Name,
		Phone:               req.Phone,
		Email:               req.Email,
		Channel:             req.Channel,
		ServiceRequested:    req.ServiceRequested,
		JobDetails:          req.JobDetails,
		Location:            req.Location,
		PreferredTimeWindow: req.PreferredTimeWindow,
		Status:              StatusNew,
		Messages:            []Message{},
		Version:             1,
	}
}

func newMessage(from Sender, body string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		From:      from,
		Body:      body,
		CreatedAt: now.UTC(),
	}
}
