package booking

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/internal/notify"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("emails").Option("missingkey=error").ParseFS(templateFS, "templates/*.html.tmpl"))
	textTemplates = texttemplate.Must(texttemplate.New("emails").Option("missingkey=error").ParseFS(templateFS, "templates/*.txt.tmpl"))
)

// Defaults used when a booked lead is missing details.
const (
	DefaultService  = "Car Detailing Service"
	DefaultSlot     = "TBD"
	DefaultLocation = "Customer location"

	icsFilename    = "booking.ics"
	icsContentType = "text/calendar; charset=utf-8; method=REQUEST"
)

// Details is everything the confirmation emails and invite say about a booking.
type Details struct {
	BusinessName string
	CustomerName string
	// Who names the customer in subjects and titles: name, else phone.
	Who        string
	FirstName  string
	Phone      string
	Email      string
	Service    string
	JobDetails string
	ChosenSlot string
	Date       string
	Time       string
	Duration   string
	Price      string
	Location   string
	MapsURL    string
	Transcript string
	Slot       Slot
}

// BuildDetails resolves the lead's chosen slot and fills in defaults.
func BuildDetails(lead *leads.Lead, businessName string, now time.Time, loc *time.Location) Details {
	slot := ResolveSlot(lead.ChosenSlot, now, loc)
	d := Details{
		BusinessName: businessName,
		CustomerName: orDefault(lead.Name, "Not provided"),
		FirstName:    lead.FirstName("there"),
		Phone:        orDefault(lead.Phone, "Not provided"),
		Email:        strings.TrimSpace(lead.Email),
		Who:          orDefault(lead.Name, lead.Phone),
		Service:      orDefault(lead.ServiceRequested, DefaultService),
		JobDetails:   strings.TrimSpace(lead.JobDetails),
		ChosenSlot:   orDefault(lead.ChosenSlot, DefaultSlot),
		Date:         slot.Start.Format("Monday, January 2, 2006"),
		Time:         slot.Start.Format("3:04 PM"),
		Duration:     formatDuration(slot.End.Sub(slot.Start)),
		Location:     orDefault(lead.Location, DefaultLocation),
		Transcript:   Transcript(lead),
		Slot:         slot,
	}
	if lead.EstimatedRevenue > 0 {
		d.Price = "$" + strconv.FormatFloat(lead.EstimatedRevenue, 'f', -1, 64)
	}
	if loc := strings.TrimSpace(lead.Location); loc != "" {
		d.MapsURL = MapsURL(loc)
	}
	return d
}

// MapsURL links to a Google Maps search for the location.
func MapsURL(location string) string {
	return "https://www.google.com/maps/search/?" + url.Values{"api": {"1"}, "query": {location}}.Encode()
}

// Transcript renders the conversation for the owner.
func Transcript(lead *leads.Lead) string {
	lines := make([]string, 0, len(lead.Messages))
	for _, m := range lead.Messages {
		who := "AI"
		if m.From == leads.SenderUser {
			who = "Customer"
		}
		lines = append(lines, who+": "+m.Body)
	}
	return strings.Join(lines, "\n\n")
}

// Invite builds the calendar invite for the booking.
func (d Details) Invite(leadID string, stamp time.Time) string {
	var desc strings.Builder
	fmt.Fprintf(&desc, "Service: %s\nCustomer: %s\nPhone: %s\n", d.Service, d.Who, d.Phone)
	if d.Email != "" {
		fmt.Fprintf(&desc, "Email: %s\n", d.Email)
	}
	if d.JobDetails != "" {
		fmt.Fprintf(&desc, "Details: %s\n", d.JobDetails)
	}
	ev := Event{
		UID:         leadID + "@frontdesk",
		Title:       d.Service + " - " + d.Who,
		Start:       d.Slot.Start,
		End:         d.Slot.End,
		Location:    d.Location,
		Description: strings.TrimSpace(desc.String()),
		Stamp:       stamp,
	}
	if d.Email != "" {
		ev.Attendees = append(ev.Attendees, Attendee{Name: d.CustomerName, Email: d.Email})
	}
	return CreateICS(ev)
}

// OwnerEmail is the new-booking notice sent to the business owner.
func (d Details) OwnerEmail(to, ics string) (notify.EmailMessage, error) {
	return d.render(to, "", fmt.Sprintf("New Booking: %s - %s", d.Who, d.Service), "owner", ics)
}

// CustomerEmail is the confirmation sent to the customer.
func (d Details) CustomerEmail(ics string) (notify.EmailMessage, error) {
	return d.render(d.Email, d.CustomerName, fmt.Sprintf("Booking Confirmed: %s - %s", d.Service, d.Date), "customer", ics)
}

func (d Details) render(to, toName, subject, name, ics string) (notify.EmailMessage, error) {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html.tmpl", d); err != nil {
		return notify.EmailMessage{}, fmt.Errorf("booking: render %s html: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt.tmpl", d); err != nil {
		return notify.EmailMessage{}, fmt.Errorf("booking: render %s text: %w", name, err)
	}
	return notify.EmailMessage{
		To:      to,
		ToName:  toName,
		Subject: subject,
		Body:    strings.TrimSpace(text.String()),
		HTML:    html.String(),
		Attachments: []notify.Attachment{{
			Filename:    icsFilename,
			ContentType: icsContentType,
			Content:     []byte(ics),
		}},
	}, nil
}

func formatDuration(d time.Duration) string {
	hours := d.Hours()
	if hours == 1 {
		return "1 hour"
	}
	return strconv.FormatFloat(hours, 'f', -1, 64) + " hours"
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
