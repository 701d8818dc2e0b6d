// ABOUTME: Signal & alerting engine: the entry point callers use for habits, moods, and alerts.
// ABOUTME: Composes the streak tracker, mood aggregator, and risk monitor over one store.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/logger"
	"github.com/harperreed/vigil/internal/models"
	"github.com/harperreed/vigil/internal/mood"
	"github.com/harperreed/vigil/internal/retry"
	"github.com/harperreed/vigil/internal/risk"
)

// Store is the persistence surface the engine depends on.
type Store interface {
	risk.Store
	GetUser(ctx context.Context, idOrPrefix string) (*models.User, error)
	FindCandidateUsers(ctx context.Context, levels []models.RiskLevel, activeOnly bool) ([]*models.User, error)
	AddHabitCompletion(ctx context.Context, idOrPrefix string, date time.Time) (*models.Habit, bool, error)
	UpsertMoodRecord(ctx context.Context, r *models.MoodRecord) (*models.MoodRecord, error)
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.RiskAlert, error)
	ResolveAlert(ctx context.Context, idOrPrefix, resolvedBy string) (*models.RiskAlert, error)
}

// Classifier guesses a mood label from free text. It is consulted only
// when a mood is logged without an explicit label.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.Mood, error)
}

// Options configures an Engine.
type Options struct {
	Risk       risk.Config
	Classifier Classifier
	Retry      retry.Policy
	Logger     *log.Logger
}

// Engine is safe for concurrent use.
type Engine struct {
	store      Store
	monitor    *risk.Monitor
	negative   mood.Set
	windowDays int
	classifier Classifier
	retry      retry.Policy
	log        *log.Logger
	now        func() time.Time
}

// New creates an Engine over store.
func New(store Store, opts Options) *Engine {
	if opts.Retry.MaxTries == 0 {
		opts.Retry = retry.DefaultPolicy
	}
	if opts.Risk.Retry.MaxTries == 0 {
		opts.Risk.Retry = opts.Retry
	}
	if opts.Risk.Logger == nil {
		opts.Risk.Logger = opts.Logger
	}
	if opts.Risk.NegativeMoods == nil {
		opts.Risk.NegativeMoods = mood.DefaultNegative()
	}
	if opts.Risk.WindowDays <= 0 {
		opts.Risk.WindowDays = risk.DefaultWindowDays
	}
	if opts.Risk.Now == nil {
		opts.Risk.Now = time.Now
	}

	return &Engine{
		store:      store,
		monitor:    risk.New(store, opts.Risk),
		negative:   opts.Risk.NegativeMoods,
		windowDays: opts.Risk.WindowDays,
		classifier: opts.Classifier,
		retry:      opts.Retry,
		log:        logger.OrDiscard(opts.Logger),
		now:        opts.Risk.Now,
	}
}

// RecordHabitCompletion marks date as done for the habit and persists the
// recomputed streaks. Recording a day that is already complete returns the
// stored habit without writing.
func (e *Engine) RecordHabitCompletion(ctx context.Context, habitID string, date time.Time) (*models.Habit, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: completion date is required", models.ErrInvalidInput)
	}

	var changed bool
	h, err := retry.Do(ctx, e.retry, func() (*models.Habit, error) {
		h, c, err := e.store.AddHabitCompletion(ctx, habitID, date)
		changed = c
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("record completion: %w", err)
	}

	if !changed {
		e.log.Debug("completion already recorded", "habit", h.ID, "date", models.FormatDate(date))
		return h, nil
	}
	e.log.Info("habit completed", "habit", h.ID, "date", models.FormatDate(date),
		"current", h.CurrentStreak, "longest", h.LongestStreak)
	return h, nil
}

// MoodInsights is mood.Insights plus the negative count for the same window.
type MoodInsights struct {
	UserID uuid.UUID        `json:"user_id"`
	Window models.DateRange `json:"window"`
	mood.Insights
	NegativeCount int `json:"negative_count"`
}

// ComputeMoodInsights aggregates the user's mood records inside window.
// A zero window means the trailing risk window ending today.
func (e *Engine) ComputeMoodInsights(ctx context.Context, userID string, window models.DateRange) (*MoodInsights, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if window == (models.DateRange{}) {
		window = models.TrailingDays(e.now(), e.windowDays)
	}

	u, err := retry.Do(ctx, e.retry, func() (*models.User, error) {
		return e.store.GetUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	records, err := retry.Do(ctx, e.retry, func() ([]*models.MoodRecord, error) {
		return e.store.FindMoodRecords(ctx, u.ID, window)
	})
	if err != nil {
		return nil, fmt.Errorf("find mood records: %w", err)
	}

	return &MoodInsights{
		UserID:        u.ID,
		Window:        window,
		Insights:      mood.Aggregate(records, window),
		NegativeCount: mood.NegativeCount(records, window, e.negative),
	}, nil
}

// RunRiskMonitorCycle evaluates active users at the given risk levels,
// defaulting to high and critical.
func (e *Engine) RunRiskMonitorCycle(ctx context.Context, levels ...models.RiskLevel) (*risk.CycleResult, error) {
	if len(levels) == 0 {
		levels = models.ElevatedRiskLevels
	}
	parsed := make([]models.RiskLevel, 0, len(levels))
	for _, l := range levels {
		p, err := models.ParseRiskLevel(string(l))
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, p)
	}
	levels = parsed

	candidates, err := retry.Do(ctx, e.retry, func() ([]*models.User, error) {
		return e.store.FindCandidateUsers(ctx, levels, true)
	})
	if err != nil {
		return nil, fmt.Errorf("find candidate users: %w", err)
	}

	e.log.Debug("risk cycle starting", "levels", levels, "candidates", len(candidates))
	return e.monitor.Run(ctx, candidates)
}

// LogMood records the user's mood for date, overwriting any earlier entry
// for the same day. An empty label is filled in by the classifier from
// content when one is configured.
func (e *Engine) LogMood(ctx context.Context, userID string, date time.Time, label, content string) (*models.MoodRecord, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: mood date is required", models.ErrInvalidInput)
	}

	var m models.Mood
	switch {
	case strings.TrimSpace(label) != "":
		parsed, err := models.ParseMood(label)
		if err != nil {
			return nil, err
		}
		m = parsed
	case e.classifier != nil && strings.TrimSpace(content) != "":
		guessed, err := e.classifier.Classify(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("classify mood: %w", err)
		}
		if !models.IsValidMood(string(guessed)) {
			return nil, fmt.Errorf("%w: classifier returned unknown mood %q", models.ErrInvalidInput, guessed)
		}
		m = guessed
	default:
		return nil, fmt.Errorf("%w: mood label is required", models.ErrInvalidInput)
	}

	u, err := retry.Do(ctx, e.retry, func() (*models.User, error) {
		return e.store.GetUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	rec := models.NewMoodRecord(u.ID, date, m).WithContent(content)
	stored, err := retry.Do(ctx, e.retry, func() (*models.MoodRecord, error) {
		return e.store.UpsertMoodRecord(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("save mood record: %w", err)
	}
	return stored, nil
}

// ListAlerts returns alerts matching filter, newest first.
func (e *Engine) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.RiskAlert, error) {
	return retry.Do(ctx, e.retry, func() ([]*models.RiskAlert, error) {
		return e.store.ListAlerts(ctx, filter)
	})
}

// ResolveAlert moves an open alert to resolved on behalf of a reviewer.
func (e *Engine) ResolveAlert(ctx context.Context, alertID, resolvedBy string) (*models.RiskAlert, error) {
	if strings.TrimSpace(resolvedBy) == "" {
		return nil, fmt.Errorf("%w: reviewer is required", models.ErrInvalidInput)
	}
	a, err := retry.Do(ctx, e.retry, func() (*models.RiskAlert, error) {
		return e.store.ResolveAlert(ctx, alertID, resolvedBy)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("alert resolved", "alert", a.ID, "user", a.UserID, "kind", a.Kind, "by", resolvedBy)
	return a, nil
}
