// ABOUTME: Tests for RiskAlert construction and the open-to-resolved transition.
// ABOUTME: Resolved alerts must never be resolved again.
package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewRiskAlert(t *testing.T) {
	userID := uuid.New()
	a := NewRiskAlert(userID, AlertMultipleNegativeMoods, SeverityHigh, "3 negative moods").
		WithData("count", 3)

	if a.IsResolved {
		t.Error("new alert should be open")
	}
	if a.UserID != userID {
		t.Error("UserID mismatch")
	}
	if a.RelatedData["count"] != 3 {
		t.Errorf("RelatedData[count] = %v, want 3", a.RelatedData["count"])
	}
}

func TestRiskAlertResolve(t *testing.T) {
	a := NewRiskAlert(uuid.New(), AlertInactiveUser, SeverityMedium, "quiet week")
	at := time.Now()

	if err := a.Resolve("dr.kim", at); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !a.IsResolved || a.ResolvedBy == nil || *a.ResolvedBy != "dr.kim" {
		t.Error("expected alert to be resolved by dr.kim")
	}
	if a.ResolvedAt == nil || !a.ResolvedAt.Equal(at) {
		t.Error("expected ResolvedAt to be set")
	}

	if err := a.Resolve("someone-else", time.Now()); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("second Resolve = %v, want ErrInvalidInput", err)
	}
	if *a.ResolvedBy != "dr.kim" {
		t.Error("resolved alert must not change resolver")
	}
}

func TestParseAlertKind(t *testing.T) {
	if k, err := ParseAlertKind("inactive_user"); err != nil || k != AlertInactiveUser {
		t.Errorf("ParseAlertKind(inactive_user) = %s, %v", k, err)
	}
	if _, err := ParseAlertKind("bogus"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseAlertKind(bogus) = %v, want ErrInvalidInput", err)
	}
}

func TestAlertFilterMatches(t *testing.T) {
	userID := uuid.New()
	kind := AlertMultipleNegativeMoods
	a := NewRiskAlert(userID, kind, SeverityHigh, "")

	if !(AlertFilter{UserID: &userID, Kind: &kind, Unresolved: true}).Matches(a) {
		t.Error("expected open alert to match")
	}
	_ = a.Resolve("reviewer", time.Now())
	if (AlertFilter{Unresolved: true}).Matches(a) {
		t.Error("resolved alert should not match Unresolved filter")
	}
	other := uuid.New()
	if (AlertFilter{UserID: &other}).Matches(a) {
		t.Error("alert for another user should not match")
	}
}
