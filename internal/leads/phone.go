package leads

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultPhoneRegion = "US"

// NormalizePhone formats parseable numbers as E.164 and otherwise returns the
// trimmed input unchanged. Leads are never rejected for an odd phone value.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return raw
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// LooksLikePlaceholderPhone flags test values such as "0000" or "test".
func LooksLikePlaceholderPhone(phone string) bool {
	phone = strings.ToLower(strings.TrimSpace(phone))
	if phone == "" || strings.Contains(phone, "test") {
		return true
	}
	digits := 0
	nonZero := false
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
			if r != '0' {
				nonZero = true
			}
		}
	}
	return digits < 7 || !nonZero
}
