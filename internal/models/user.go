// ABOUTME: User model carrying the baseline risk level used to pick candidates.
// ABOUTME: Profile management lives outside this tool; only risk fields are kept.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RiskLevel is a user's baseline risk classification.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AllRiskLevels lists risk levels from lowest to highest.
var AllRiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// ElevatedRiskLevels is the default candidate filter for risk monitor cycles.
var ElevatedRiskLevels = []RiskLevel{RiskHigh, RiskCritical}

// ParseRiskLevel validates a risk level string.
func ParseRiskLevel(s string) (RiskLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range AllRiskLevels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unknown risk level %q", ErrInvalidInput, s)
}

// User is the subject of mood records, habits, and alerts.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	RiskLevel RiskLevel `json:"risk_level"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser creates an active user at low risk.
func NewUser(name string) *User {
	return &User{
		ID:        uuid.New(),
		Name:      name,
		RiskLevel: RiskLow,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

// WithRiskLevel sets the baseline risk level.
func (u *User) WithRiskLevel(l RiskLevel) *User {
	u.RiskLevel = l
	return u
}

// DisplayName falls back to a short ID when the user has no name.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID.String()[:8]
}
