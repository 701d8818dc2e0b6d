// ABOUTME: Repository interface for the signal engine's persistence store.
// ABOUTME: Defines the contract for users, habits, mood records, and risk alerts.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/models"
)

// Repository defines the storage interface for vigil data.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, idOrPrefix string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	FindCandidateUsers(ctx context.Context, levels []models.RiskLevel, activeOnly bool) ([]*models.User, error)

	// Habit operations
	CreateHabit(ctx context.Context, h *models.Habit) error
	GetHabit(ctx context.Context, idOrPrefix string) (*models.Habit, error)
	// AddHabitCompletion atomically adds a completion day and recomputes the
	// streaks from the stored set. changed is false if the day was present.
	AddHabitCompletion(ctx context.Context, idOrPrefix string, date time.Time) (*models.Habit, bool, error)
	ListHabits(ctx context.Context, userID *uuid.UUID) ([]*models.Habit, error)

	// Mood operations. UpsertMoodRecord overwrites the record for the same
	// user and day and returns what was stored.
	UpsertMoodRecord(ctx context.Context, r *models.MoodRecord) (*models.MoodRecord, error)
	FindMoodRecords(ctx context.Context, userID uuid.UUID, window models.DateRange) ([]*models.MoodRecord, error)

	// Alert operations. CreateAlert returns models.ErrConflictingAlert when
	// an unresolved alert of the same kind already exists for the user.
	CreateAlert(ctx context.Context, a *models.RiskAlert) error
	GetAlert(ctx context.Context, idOrPrefix string) (*models.RiskAlert, error)
	FindUnresolvedAlert(ctx context.Context, userID uuid.UUID, kind models.AlertKind) (*models.RiskAlert, error)
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.RiskAlert, error)
	ResolveAlert(ctx context.Context, idOrPrefix, resolvedBy string) (*models.RiskAlert, error)

	// Lifecycle
	Close() error
}
