package booking

import (
	"strings"
	"testing"
	"time"
)

func TestCreateICS(t *testing.T) {
	start := time.Date(2025, 6, 14, 15, 0, 0, 0, time.UTC)
	out := CreateICS(Event{
		UID:         "lead-1@frontdesk",
		Title:       "Full Detail - Sarah Jones",
		Start:       start,
		End:         start.Add(DefaultDuration),
		Location:    "77008",
		Description: "Service: Full Detail",
		Attendees:   []Attendee{{Name: "Sarah Jones", Email: "sarah@example.com"}, {Name: "No Email"}},
		Stamp:       time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC),
	})

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//Agent Jones//Car Detailing Booking//EN",
		"METHOD:REQUEST",
		"CALSCALE:GREGORIAN",
		"BEGIN:VEVENT",
		"UID:lead-1@frontdesk",
		"DTSTAMP:20250611T150000Z",
		"DTSTART:20250614T150000Z",
		"DTEND:20250614T170000Z",
		"SUMMARY:Full Detail - Sarah Jones",
		"LOCATION:77008",
		"mailto:sarah@example.com",
		"STATUS:CONFIRMED",
		"SEQUENCE:0",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("invite missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "ATTENDEE") != 1 {
		t.Errorf("attendees without email must be skipped:\n%s", out)
	}
}

func TestCreateICS_GeneratesUID(t *testing.T) {
	start := time.Now()
	a := CreateICS(Event{Title: "x", Start: start, End: start.Add(time.Hour)})
	b := CreateICS(Event{Title: "x", Start: start, End: start.Add(time.Hour)})
	if !strings.Contains(a, "@frontdesk") || a == b {
		t.Fatal("expected a unique generated UID per invite")
	}
}
