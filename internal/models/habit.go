// ABOUTME: Habit model with completion dates and streak counters.
// ABOUTME: Streaks are derived by the streak package, never patched in place.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Habit is one habit owned by one user.
type Habit struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Name          string      `json:"name"`
	Completions   []time.Time `json:"completions"` // ascending, unique calendar days
	CurrentStreak int         `json:"current_streak"`
	LongestStreak int         `json:"longest_streak"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewHabit creates a new Habit with no completions.
func NewHabit(userID uuid.UUID, name string) *Habit {
	now := time.Now()
	return &Habit{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the habit has an owner and a name.
func (h *Habit) Validate() error {
	if h.UserID == uuid.Nil {
		return fmt.Errorf("%w: habit has no user", ErrInvalidInput)
	}
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("%w: habit name cannot be empty", ErrInvalidInput)
	}
	return nil
}

// HasCompletion reports whether the calendar day of d is already recorded.
func (h *Habit) HasCompletion(d time.Time) bool {
	day := Day(d)
	for _, c := range h.Completions {
		if c.Equal(day) {
			return true
		}
	}
	return false
}

// LastCompletion returns the most recent completion date, or the zero time.
func (h *Habit) LastCompletion() time.Time {
	if len(h.Completions) == 0 {
		return time.Time{}
	}
	return h.Completions[len(h.Completions)-1]
}

// Clone returns a deep copy of the habit.
func (h Habit) Clone() Habit {
	c := h
	c.Completions = append([]time.Time(nil), h.Completions...)
	return c
}
