// ABOUTME: Risk monitor cycle: evaluates candidate users and creates deduplicated alerts.
// ABOUTME: Users run in parallel; each (user, kind) evaluate-then-create is serialized.
package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/keylock"
	"github.com/harperreed/vigil/internal/logger"
	"github.com/harperreed/vigil/internal/models"
	"github.com/harperreed/vigil/internal/mood"
	"github.com/harperreed/vigil/internal/retry"
	"golang.org/x/sync/errgroup"
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultThreshold   = 3
	DefaultWindowDays  = 7
	DefaultConcurrency = 4
	DefaultUserTimeout = 10 * time.Second
)

// Store is the slice of the persistence store the monitor needs.
type Store interface {
	FindMoodRecords(ctx context.Context, userID uuid.UUID, window models.DateRange) ([]*models.MoodRecord, error)
	FindUnresolvedAlert(ctx context.Context, userID uuid.UUID, kind models.AlertKind) (*models.RiskAlert, error)
	CreateAlert(ctx context.Context, a *models.RiskAlert) error
}

// Config tunes a Monitor.
type Config struct {
	NegativeMoods    mood.Set
	Threshold        int
	WindowDays       int
	UserTimeout      time.Duration
	Concurrency      int
	InactivityAlerts bool
	Retry            retry.Policy
	Now              func() time.Time
	Logger           *log.Logger
}

// Failure records why one candidate could not be evaluated.
type Failure struct {
	UserID uuid.UUID `json:"user_id"`
	Err    error     `json:"-"`
}

// Error returns the failure message.
func (f Failure) Error() string {
	return fmt.Sprintf("user %s: %v", f.UserID, f.Err)
}

// CycleResult is the outcome of one Run.
type CycleResult struct {
	Created   []*models.RiskAlert `json:"created"`
	Failures  []Failure           `json:"failures"`
	Evaluated int                 `json:"evaluated"`
	Skipped   int                 `json:"skipped"`
}

// Monitor evaluates rules for candidate users and writes alerts through a Store.
type Monitor struct {
	store  Store
	rules  []Rule
	cfg    Config
	locks  *keylock.Locker
	log    *log.Logger
	window func() models.DateRange
}

// New creates a Monitor. The negative-mood rule is always installed;
// the inactivity rule only when cfg.InactivityAlerts is set.
func New(store Store, cfg Config) *Monitor {
	if cfg.NegativeMoods == nil {
		cfg.NegativeMoods = mood.DefaultNegative()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.UserTimeout <= 0 {
		cfg.UserTimeout = DefaultUserTimeout
	}
	if cfg.Retry.MaxTries == 0 {
		cfg.Retry = retry.DefaultPolicy
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rules := []Rule{NegativeMoodRule{
		Negative:   cfg.NegativeMoods,
		Threshold:  cfg.Threshold,
		WindowDays: cfg.WindowDays,
	}}
	if cfg.InactivityAlerts {
		rules = append(rules, InactivityRule{WindowDays: cfg.WindowDays})
	}

	m := &Monitor{
		store: store,
		rules: rules,
		cfg:   cfg,
		locks: keylock.New(),
		log:   logger.OrDiscard(cfg.Logger),
	}
	m.window = func() models.DateRange {
		return models.TrailingDays(m.cfg.Now(), m.cfg.WindowDays)
	}
	return m
}

// Rules returns the installed rules in evaluation order.
func (m *Monitor) Rules() []Rule {
	return m.rules
}

// Run evaluates every candidate once. A failing or timed-out candidate is
// recorded in the result and never stops the others. The returned error
// is non-nil only when ctx itself ended before the cycle finished.
func (m *Monitor) Run(ctx context.Context, candidates []*models.User) (*CycleResult, error) {
	window := m.window()
	created := make([][]*models.RiskAlert, len(candidates))
	errs := make([]error, len(candidates))

	var g errgroup.Group
	g.SetLimit(m.cfg.Concurrency)
	for i, u := range candidates {
		if u == nil {
			continue
		}
		g.Go(func() error {
			created[i], errs[i] = m.evaluate(ctx, u, window)
			return nil
		})
	}
	_ = g.Wait()

	res := &CycleResult{Created: []*models.RiskAlert{}, Failures: []Failure{}}
	for i, u := range candidates {
		if u == nil {
			res.Skipped++
			continue
		}
		res.Evaluated++
		res.Created = append(res.Created, created[i]...)
		if errs[i] != nil {
			res.Failures = append(res.Failures, Failure{UserID: u.ID, Err: errs[i]})
			m.log.Warn("risk evaluation failed", "user", u.ID, "err", errs[i])
		}
	}

	m.log.Info("risk cycle complete",
		"candidates", len(candidates),
		"created", len(res.Created),
		"failures", len(res.Failures),
		"window_start", models.FormatDate(window.Start),
		"window_end", models.FormatDate(window.End))

	return res, ctx.Err()
}

// evaluate runs every rule for one user under the per-user timeout.
func (m *Monitor) evaluate(ctx context.Context, u *models.User, window models.DateRange) ([]*models.RiskAlert, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.UserTimeout)
	defer cancel()

	records, err := retry.Do(ctx, m.cfg.Retry, func() ([]*models.MoodRecord, error) {
		return m.store.FindMoodRecords(ctx, u.ID, window)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch mood records: %w", err)
	}

	var out []*models.RiskAlert
	var errs []error
	for _, rule := range m.rules {
		candidate := rule.Evaluate(u, records, window)
		if candidate == nil {
			continue
		}
		a, err := m.createOnce(ctx, candidate)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rule.Kind(), err))
			continue
		}
		if a != nil {
			out = append(out, a)
		}
	}
	return out, errors.Join(errs...)
}

// createOnce stores a unless an unresolved alert of the same kind already
// exists for the user. It returns nil, nil when the alert was deduplicated.
func (m *Monitor) createOnce(ctx context.Context, a *models.RiskAlert) (*models.RiskAlert, error) {
	key := a.UserID.String() + ":" + string(a.Kind)
	unlock, err := m.locks.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := retry.Do(ctx, m.cfg.Retry, func() (*models.RiskAlert, error) {
		return m.store.FindUnresolvedAlert(ctx, a.UserID, a.Kind)
	})
	switch {
	case err == nil:
		m.log.Debug("alert already open", "user", a.UserID, "kind", a.Kind, "alert", existing.ID)
		return nil, nil
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("find unresolved alert: %w", err)
	}

	err = retry.Run(ctx, m.cfg.Retry, func() error {
		return m.store.CreateAlert(ctx, a)
	})
	if errors.Is(err, models.ErrConflictingAlert) {
		// Another process won the race; the store kept exactly one.
		m.log.Debug("alert created concurrently", "user", a.UserID, "kind", a.Kind)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}

	m.log.Info("alert created", "user", a.UserID, "kind", a.Kind, "severity", a.Severity, "alert", a.ID)
	return a, nil
}
