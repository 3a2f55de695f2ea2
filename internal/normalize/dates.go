package normalize

import (
	"strings"
	"time"
)

// Date formats accepted on input. ISO 8601 forms come first.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02",
	"02Jan2006",
	"01/02/2006",
	"1/2/2006",
}

// ParseDate attempts to parse a date string in the accepted formats and
// truncates it to a calendar date. Returns nil if the input is empty or
// unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// ParseDatePtr is ParseDate for optional columns.
func ParseDatePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	return ParseDate(*s)
}

// DaysBetween returns the whole calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// StudyDay derives the study day of date relative to the reference start.
// Day 1 is the reference date itself; there is no day 0.
func StudyDay(date, ref time.Time) int {
	d := DaysBetween(ref, date)
	if d >= 0 {
		return d + 1
	}
	return d
}
