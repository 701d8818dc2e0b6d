// ABOUTME: Alert rules evaluated by the risk monitor for one user.
// ABOUTME: Each rule owns one alert kind and decides whether it fires.
package risk

import (
	"fmt"

	"github.com/harperreed/vigil/internal/models"
	"github.com/harperreed/vigil/internal/mood"
)

// Rule inspects a user's mood records inside the evaluation window and
// returns the alert it would raise, or nil when it does not fire.
type Rule interface {
	Kind() models.AlertKind
	Evaluate(u *models.User, records []*models.MoodRecord, window models.DateRange) *models.RiskAlert
}

// NegativeMoodRule fires when at least Threshold records in the window
// carry a mood from Negative.
type NegativeMoodRule struct {
	Negative   mood.Set
	Threshold  int
	WindowDays int
}

// Kind implements Rule.
func (r NegativeMoodRule) Kind() models.AlertKind {
	return models.AlertMultipleNegativeMoods
}

// Evaluate implements Rule.
func (r NegativeMoodRule) Evaluate(u *models.User, records []*models.MoodRecord, window models.DateRange) *models.RiskAlert {
	n := mood.NegativeCount(records, window, r.Negative)
	if n < r.Threshold {
		return nil
	}
	desc := fmt.Sprintf("%s logged %d negative moods in the last %d days", u.DisplayName(), n, r.WindowDays)
	return models.NewRiskAlert(u.ID, r.Kind(), models.SeverityHigh, desc).
		WithData("count", n)
}

// InactivityRule fires when the user has no mood records in the window.
type InactivityRule struct {
	WindowDays int
}

// Kind implements Rule.
func (r InactivityRule) Kind() models.AlertKind {
	return models.AlertInactiveUser
}

// Evaluate implements Rule.
func (r InactivityRule) Evaluate(u *models.User, records []*models.MoodRecord, window models.DateRange) *models.RiskAlert {
	if len(mood.Filter(records, window)) > 0 {
		return nil
	}
	desc := fmt.Sprintf("%s has not logged a mood in the last %d days", u.DisplayName(), r.WindowDays)
	return models.NewRiskAlert(u.ID, r.Kind(), models.SeverityMedium, desc).
		WithData("window_days", r.WindowDays)
}
