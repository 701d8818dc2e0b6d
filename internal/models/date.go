// ABOUTME: Calendar-day helpers shared by habits, moods, and alert windows.
// ABOUTME: Dates are UTC midnights; DateRange bounds are inclusive.
package models

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar-day format.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day, expressed as UTC midnight.
// The wall-clock date in t's own location is preserved.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (use YYYY-MM-DD)", ErrInvalidInput, s)
	}
	return t, nil
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// DaysBetween returns the whole number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// DateRange is an inclusive range of calendar days.
// A zero Start or End leaves that side open.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TrailingDays returns the n-day window ending on (and including) today.
func TrailingDays(today time.Time, n int) DateRange {
	end := Day(today)
	if n < 1 {
		n = 1
	}
	return DateRange{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

// Contains reports whether the calendar day of t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	if !r.Start.IsZero() && d.Before(Day(r.Start)) {
		return false
	}
	if !r.End.IsZero() && d.After(Day(r.End)) {
		return false
	}
	return true
}

// Validate rejects ranges whose start is after their end.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && Day(r.Start).After(Day(r.End)) {
		return fmt.Errorf("%w: range start %s is after end %s",
			ErrInvalidInput, FormatDate(r.Start), FormatDate(r.End))
	}
	return nil
}
