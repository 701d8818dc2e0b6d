// ABOUTME: MoodRecord model and Mood enum for daily reflections.
// ABOUTME: One record per user per calendar day; later writes overwrite.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mood is a label from the fixed mood enumeration.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodAngry   Mood = "angry"
	MoodAnxious Mood = "anxious"
	MoodCalm    Mood = "calm"
	MoodExcited Mood = "excited"
	MoodNeutral Mood = "neutral"
)

// AllMoods lists every mood in canonical order.
// Dominant-mood ties resolve to the earliest entry here.
var AllMoods = []Mood{
	MoodHappy, MoodSad, MoodAngry, MoodAnxious, MoodCalm, MoodExcited, MoodNeutral,
}

// DefaultNegativeMoods is the negative set used when none is configured.
var DefaultNegativeMoods = []Mood{MoodSad, MoodAngry, MoodAnxious}

// IsValidMood checks if a string is a valid mood label.
func IsValidMood(s string) bool {
	for _, m := range AllMoods {
		if string(m) == s {
			return true
		}
	}
	return false
}

// ParseMood normalizes and validates a mood label.
func ParseMood(s string) (Mood, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !IsValidMood(s) {
		return "", fmt.Errorf("%w: unknown mood %q", ErrInvalidInput, s)
	}
	return Mood(s), nil
}

// ParseMoods validates a list of mood labels.
func ParseMoods(labels []string) ([]Mood, error) {
	moods := make([]Mood, 0, len(labels))
	for _, l := range labels {
		m, err := ParseMood(l)
		if err != nil {
			return nil, err
		}
		moods = append(moods, m)
	}
	return moods, nil
}

// MoodRecord is one dated mood observation for one user.
type MoodRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Date      time.Time `json:"date"`
	Mood      Mood      `json:"mood"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMoodRecord creates a MoodRecord for the calendar day of date.
func NewMoodRecord(userID uuid.UUID, date time.Time, mood Mood) *MoodRecord {
	now := time.Now()
	return &MoodRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      Day(date),
		Mood:      mood,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithContent sets the free-text reflection.
func (r *MoodRecord) WithContent(content string) *MoodRecord {
	r.Content = content
	return r
}

// Validate rejects records with unknown moods or missing owners.
func (r *MoodRecord) Validate() error {
	if r.UserID == uuid.Nil {
		return fmt.Errorf("%w: mood record has no user", ErrInvalidInput)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: mood record has no date", ErrInvalidInput)
	}
	if !IsValidMood(string(r.Mood)) {
		return fmt.Errorf("%w: unknown mood %q", ErrInvalidInput, r.Mood)
	}
	return nil
}
