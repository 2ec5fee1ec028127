package booking

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDuration is how long a detailing appointment is blocked for.
const DefaultDuration = 2 * time.Hour

// fallbackHour is used when the chosen slot cannot be read: tomorrow at 2pm.
const fallbackHour = 14

// Slot is a concrete appointment window in the business timezone.
type Slot struct {
	Start time.Time
	End   time.Time
	// Resolved is false when the chosen slot text could not be parsed and
	// the default slot was used instead.
	Resolved bool
}

var slotText = regexp.MustCompile(`(?i)\b(today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday|([a-z]{3,9})\.?\s+(\d{1,2})(?:st|nd|rd|th)?)\s+at\s+(\d{1,2})(?::(\d{2}))?\s*([ap])?\.?m?\.?\b`)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ResolveSlot turns a chosen-slot label such as "Saturday at 10am",
// "Tomorrow at 2:30 pm" or "June 12 at 9am" into a start time in loc. Labels
// it cannot read fall back to tomorrow at 2pm. Relative days are resolved
// against now; a weekday means its next occurrence that is still ahead.
func ResolveSlot(chosen string, now time.Time, loc *time.Location) Slot {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	if start, ok := parseSlot(chosen, now, loc); ok {
		return Slot{Start: start, End: start.Add(DefaultDuration), Resolved: true}
	}
	y, m, d := now.AddDate(0, 0, 1).Date()
	start := time.Date(y, m, d, fallbackHour, 0, 0, 0, loc)
	return Slot{Start: start, End: start.Add(DefaultDuration)}
}

func parseSlot(chosen string, now time.Time, loc *time.Location) (time.Time, bool) {
	m := slotText.FindStringSubmatch(chosen)
	if m == nil {
		return time.Time{}, false
	}
	hour, minute, ok := clock(m[4], m[5], m[6])
	if !ok {
		return time.Time{}, false
	}

	day := strings.ToLower(m[1])
	at := func(y int, mo time.Month, d int) time.Time {
		return time.Date(y, mo, d, hour, minute, 0, 0, loc)
	}
	y, mo, d := now.Date()

	switch {
	case day == "today":
		return at(y, mo, d), true
	case day == "tomorrow":
		y, mo, d = now.AddDate(0, 0, 1).Date()
		return at(y, mo, d), true
	}
	if wd, ok := weekdays[day]; ok {
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		start := at(y, mo, d).AddDate(0, 0, ahead)
		if !start.After(now) {
			start = start.AddDate(0, 0, 7)
		}
		return start, true
	}

	month, ok := parseMonth(m[2])
	if !ok {
		return time.Time{}, false
	}
	dayOfMonth, err := strconv.Atoi(m[3])
	if err != nil || dayOfMonth < 1 || dayOfMonth > 31 {
		return time.Time{}, false
	}
	start := at(y, month, dayOfMonth)
	if start.Day() != dayOfMonth {
		return time.Time{}, false
	}
	if start.Before(now) {
		start = at(y+1, month, dayOfMonth)
	}
	return start, true
}

// clock converts "2", "30", "p" into 14:30. Without a meridiem, hours before
// 8 are read as afternoon since nobody books a 3am detail.
func clock(h, min, meridiem string) (int, int, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, false
	}
	minute := 0
	if min != "" {
		if minute, err = strconv.Atoi(min); err != nil || minute > 59 {
			return 0, 0, false
		}
	}
	switch strings.ToLower(meridiem) {
	case "a":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "p":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, false
		}
		if hour >= 1 && hour < 8 {
			hour += 12
		}
	}
	return hour, minute, true
}

func parseMonth(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSuffix(s, "."))
	if len(s) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if s == name || (len(s) <= len(name) && strings.HasPrefix(name, s)) {
			return m, true
		}
	}
	return 0, false
}
