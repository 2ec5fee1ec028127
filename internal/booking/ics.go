package booking

import (
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const icsProductID = "-//Agent Jones//Car Detailing Booking//EN"

// Event is a single calendar invite.
type Event struct {
	UID         string
	Title       string
	Start       time.Time
	End         time.Time
	Location    string
	Description string
	Attendees   []Attendee
	// Stamp defaults to the current time.
	Stamp time.Time
}

type Attendee struct {
	Name  string
	Email string
}

// CreateICS renders a METHOD:REQUEST calendar with one confirmed event.
// Times are written in UTC.
func CreateICS(ev Event) string {
	cal := ics.NewCalendarFor("frontdesk")
	cal.SetProductId(icsProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodRequest)

	uid := ev.UID
	if uid == "" {
		uid = uuid.NewString() + "@frontdesk"
	}
	stamp := ev.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	event := cal.AddEvent(uid)
	event.SetDtStampTime(stamp)
	event.SetStartAt(ev.Start)
	event.SetEndAt(ev.End)
	event.SetSummary(ev.Title)
	if ev.Location != "" {
		event.SetLocation(ev.Location)
	}
	if ev.Description != "" {
		event.SetDescription(ev.Description)
	}
	for _, a := range ev.Attendees {
		if a.Email == "" {
			continue
		}
		var params []ics.PropertyParameter
		if a.Name != "" {
			params = append(params, ics.WithCN(a.Name))
		}
		event.AddAttendee(a.Email, params...)
	}
	event.SetStatus(ics.ObjectStatusConfirmed)
	event.SetProperty(ics.ComponentPropertySequence, "0")
	return cal.Serialize()
}
