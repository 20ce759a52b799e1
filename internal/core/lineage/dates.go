package lineage

import (
	"strings"
	"time"
)

// Historical dates arrive in many shapes; anything outside these layouts is
// treated as unknown and skipped by date checks.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006-1-2",
	"2006/1/2",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2006",
	"2006-01",
	"2006/01",
	"2006",
}

// ParseDate returns the earliest instant the string can denote.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	upper := strings.ToUpper(s)
	for _, layout := range dateLayouts {
		candidate := s
		if strings.Contains(layout, "Jan") {
			// GEDCOM months are upper case (12 JAN 1900).
			candidate = titleMonth(upper)
		}
		if t, err := time.Parse(layout, candidate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func titleMonth(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if len(f) == 3 && f[0] >= 'A' && f[0] <= 'Z' {
			fields[i] = f[:1] + strings.ToLower(f[1:])
		}
	}
	return strings.Join(fields, " ")
}

// yearsBetween measures b - a in 365-day years.
func yearsBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24 / 365
}
