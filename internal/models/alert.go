// ABOUTME: RiskAlert model with kind and severity enums.
// ABOUTME: Alerts start open and move to resolved exactly once.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertKind identifies the rule that produced an alert.
type AlertKind string

const (
	AlertMultipleNegativeMoods AlertKind = "multiple_negative_moods"
	AlertInactiveUser          AlertKind = "inactive_user"
	AlertRiskMood              AlertKind = "risk_mood"
	AlertTherapistAssigned     AlertKind = "therapist_assigned"
)

// AllAlertKinds lists every known alert kind.
var AllAlertKinds = []AlertKind{
	AlertMultipleNegativeMoods, AlertInactiveUser, AlertRiskMood, AlertTherapistAssigned,
}

// ParseAlertKind validates an alert kind string.
func ParseAlertKind(s string) (AlertKind, error) {
	for _, k := range AllAlertKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown alert kind %q", ErrInvalidInput, s)
}

// Severity ranks how urgently a reviewer should look at an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskAlert is produced by the risk monitor on behalf of a user.
type RiskAlert struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Kind        AlertKind      `json:"alert_kind"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	RelatedData map[string]any `json:"related_data,omitempty"`
	IsResolved  bool           `json:"is_resolved"`
	ResolvedBy  *string        `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewRiskAlert creates an open alert.
func NewRiskAlert(userID uuid.UUID, kind AlertKind, severity Severity, description string) *RiskAlert {
	return &RiskAlert{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        kind,
		Severity:    severity,
		Description: description,
		RelatedData: map[string]any{},
		CreatedAt:   time.Now(),
	}
}

// WithData sets a key in the kind-specific payload.
func (a *RiskAlert) WithData(key string, value any) *RiskAlert {
	if a.RelatedData == nil {
		a.RelatedData = map[string]any{}
	}
	a.RelatedData[key] = value
	return a
}

// Resolve moves an open alert to resolved. Resolved is terminal.
func (a *RiskAlert) Resolve(by string, at time.Time) error {
	if a.IsResolved {
		return fmt.Errorf("%w: alert %s is already resolved", ErrInvalidInput, a.ID.String()[:8])
	}
	if by == "" {
		return fmt.Errorf("%w: resolver cannot be empty", ErrInvalidInput)
	}
	a.IsResolved = true
	a.ResolvedBy = &by
	a.ResolvedAt = &at
	return nil
}

// AlertFilter narrows ListAlerts results. Nil fields match everything.
type AlertFilter struct {
	UserID     *uuid.UUID
	Kind       *AlertKind
	Unresolved bool
	Limit      int
}

// Matches reports whether a satisfies the filter, ignoring Limit.
func (f AlertFilter) Matches(a *RiskAlert) bool {
	if f.UserID != nil && a.UserID != *f.UserID {
		return false
	}
	if f.Kind != nil && a.Kind != *f.Kind {
		return false
	}
	if f.Unresolved && a.IsResolved {
		return false
	}
	return true
}
