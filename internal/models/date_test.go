// ABOUTME: Tests for calendar-day helpers and DateRange.
// ABOUTME: Verifies inclusive bounds and open-ended ranges.
package models

import (
	"errors"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2024-01-05"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseDate("05/01/2024"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseDate bad format = %v, want ErrInvalidInput", err)
	}
}

func TestDayKeepsLocalCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	late := time.Date(2024, 1, 1, 23, 30, 0, 0, loc)
	if got := FormatDate(Day(late)); got != "2024-01-01" {
		t.Errorf("Day() = %s, want 2024-01-01", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := mustDate(t, "2024-02-28")
	b := mustDate(t, "2024-03-01")
	if got := DaysBetween(a, b); got != 2 {
		t.Errorf("DaysBetween = %d, want 2 (leap year)", got)
	}
}

func TestTrailingDays(t *testing.T) {
	today := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	r := TrailingDays(today, 7)

	if FormatDate(r.Start) != "2024-01-04" || FormatDate(r.End) != "2024-01-10" {
		t.Errorf("TrailingDays = %s..%s, want 2024-01-04..2024-01-10",
			FormatDate(r.Start), FormatDate(r.End))
	}
	if !r.Contains(mustDate(t, "2024-01-04")) || !r.Contains(mustDate(t, "2024-01-10")) {
		t.Error("expected both bounds to be inclusive")
	}
	if r.Contains(mustDate(t, "2024-01-03")) || r.Contains(mustDate(t, "2024-01-11")) {
		t.Error("expected dates outside the window to be excluded")
	}
}

func TestDateRangeOpenEnded(t *testing.T) {
	var r DateRange
	if !r.Contains(mustDate(t, "1999-12-31")) {
		t.Error("zero range should contain every date")
	}

	r = DateRange{Start: mustDate(t, "2024-01-01")}
	if r.Contains(mustDate(t, "2023-12-31")) {
		t.Error("open-ended range should still honor its start")
	}
	if !r.Contains(mustDate(t, "2030-01-01")) {
		t.Error("open-ended range should have no end")
	}
}

func TestDateRangeValidate(t *testing.T) {
	r := DateRange{Start: mustDate(t, "2024-02-01"), End: mustDate(t, "2024-01-01")}
	if err := r.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Validate() = %v, want ErrInvalidInput", err)
	}
}
