// ABOUTME: Badger-backed key/value implementation of Repository.
// ABOUTME: Type-prefixed keys; an open-alert index key enforces alert dedup.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/models"
	"github.com/harperreed/vigil/internal/streak"
)

const (
	UserPrefix      = "user:"
	HabitPrefix     = "habit:"
	MoodPrefix      = "mood:"  // mood:<user_id>:<YYYY-MM-DD>
	AlertPrefix     = "alert:" // alert:<id>
	OpenAlertPrefix = "open:"  // open:<user_id>:<kind> -> alert id
)

// KVStore stores vigil data in an embedded Badger database.
type KVStore struct {
	db  *badger.DB
	dir string
}

// OpenKV opens or creates a Badger database in dir.
func OpenKV(dir string) (*KVStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &KVStore{db: db, dir: dir}, nil
}

// OpenKVInMemory opens a Badger database that lives only in memory.
func OpenKVInMemory() (*KVStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &KVStore{db: db}, nil
}

// Close closes the Badger database.
func (s *KVStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateUser stores a new user.
func (s *KVStore) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := models.ParseRiskLevel(string(u.RiskLevel)); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return s.update(ctx, "create user", func(txn *badger.Txn) error {
		return setNew(txn, UserPrefix+u.ID.String(), u)
	})
}

// GetUser retrieves a user by ID or ID prefix.
func (s *KVStore) GetUser(ctx context.Context, idOrPrefix string) (*models.User, error) {
	var u models.User
	err := s.view(ctx, "get user", func(txn *badger.Txn) error {
		return getByIDPrefix(txn, UserPrefix, idOrPrefix, &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser replaces a stored user.
func (s *KVStore) UpdateUser(ctx context.Context, u *models.User) error {
	if _, err := models.ParseRiskLevel(string(u.RiskLevel)); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return s.update(ctx, "update user", func(txn *badger.Txn) error {
		key := UserPrefix + u.ID.String()
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return setJSON(txn, key, u)
	})
}

// ListUsers returns all users ordered by name.
func (s *KVStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := listJSON[models.User](ctx, s, "list users", UserPrefix)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID.String() < users[j].ID.String()
	})
	return users, nil
}

// FindCandidateUsers returns users at one of levels, optionally only active ones.
func (s *KVStore) FindCandidateUsers(ctx context.Context, levels []models.RiskLevel, activeOnly bool) ([]*models.User, error) {
	all, err := listJSON[models.User](ctx, s, "find candidate users", UserPrefix)
	if err != nil {
		return nil, err
	}
	var users []*models.User
	for _, u := range all {
		if activeOnly && !u.Active {
			continue
		}
		if len(levels) > 0 && !containsLevel(levels, u.RiskLevel) {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// CreateHabit stores a new habit.
func (s *KVStore) CreateHabit(ctx context.Context, h *models.Habit) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return s.update(ctx, "create habit", func(txn *badger.Txn) error {
		if err := requireUser(txn, h.UserID); err != nil {
			return err
		}
		return setNew(txn, HabitPrefix+h.ID.String(), h)
	})
}

// GetHabit retrieves a habit by ID or ID prefix.
func (s *KVStore) GetHabit(ctx context.Context, idOrPrefix string) (*models.Habit, error) {
	var h models.Habit
	err := s.view(ctx, "get habit", func(txn *badger.Txn) error {
		return getByIDPrefix(txn, HabitPrefix, idOrPrefix, &h)
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// AddHabitCompletion records the calendar day of date for a habit and stores
// the recomputed streaks in one transaction. A concurrent write to the same
// habit surfaces as ErrStoreUnavailable and is safe to retry.
func (s *KVStore) AddHabitCompletion(ctx context.Context, idOrPrefix string, date time.Time) (*models.Habit, bool, error) {
	var updated models.Habit
	var changed bool
	err := s.update(ctx, "add completion", func(txn *badger.Txn) error {
		var h models.Habit
		if err := getByIDPrefix(txn, HabitPrefix, idOrPrefix, &h); err != nil {
			return err
		}
		updated, changed = streak.RecordCompletion(h, date)
		if !changed {
			return nil
		}
		updated.UpdatedAt = time.Now()
		return setJSON(txn, HabitPrefix+updated.ID.String(), &updated)
	})
	if err != nil {
		return nil, false, err
	}
	return &updated, changed, nil
}

// ListHabits returns habits, optionally for a single user, ordered by name.
func (s *KVStore) ListHabits(ctx context.Context, userID *uuid.UUID) ([]*models.Habit, error) {
	all, err := listJSON[models.Habit](ctx, s, "list habits", HabitPrefix)
	if err != nil {
		return nil, err
	}
	var habits []*models.Habit
	for _, h := range all {
		if userID != nil && h.UserID != *userID {
			continue
		}
		habits = append(habits, h)
	}
	sort.Slice(habits, func(i, j int) bool {
		if habits[i].Name != habits[j].Name {
			return habits[i].Name < habits[j].Name
		}
		return habits[i].ID.String() < habits[j].ID.String()
	})
	return habits, nil
}

// UpsertMoodRecord writes the record under its (user, day) key, keeping the
// original ID and CreatedAt when a record for that day already exists.
func (s *KVStore) UpsertMoodRecord(ctx context.Context, r *models.MoodRecord) (*models.MoodRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("upsert mood record: %w", err)
	}

	stored := *r
	stored.Date = models.Day(r.Date)
	stored.UpdatedAt = time.Now()

	err := s.update(ctx, "upsert mood record", func(txn *badger.Txn) error {
		if err := requireUser(txn, r.UserID); err != nil {
			return err
		}
		key := moodKey(r.UserID, r.Date)
		var existing models.MoodRecord
		err := getJSON(txn, key, &existing)
		switch {
		case err == nil:
			stored.ID = existing.ID
			stored.CreatedAt = existing.CreatedAt
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return setJSON(txn, key, &stored)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// FindMoodRecords returns a user's records inside window, oldest first.
func (s *KVStore) FindMoodRecords(ctx context.Context, userID uuid.UUID, window models.DateRange) ([]*models.MoodRecord, error) {
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("find mood records: %w", err)
	}
	// Day keys sort lexically in date order, so the prefix scan is already ascending.
	all, err := listJSON[models.MoodRecord](ctx, s, "find mood records", MoodPrefix+userID.String()+":")
	if err != nil {
		return nil, err
	}
	var records []*models.MoodRecord
	for _, r := range all {
		if window.Contains(r.Date) {
			records = append(records, r)
		}
	}
	return records, nil
}

// CreateAlert stores a new alert. The open-alert index key and the alert
// are written in one transaction; Badger's conflict detection turns a
// concurrent create for the same key into ErrStoreUnavailable so the
// caller retries and then sees the conflict.
func (s *KVStore) CreateAlert(ctx context.Context, a *models.RiskAlert) error {
	if _, err := models.ParseAlertKind(string(a.Kind)); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return s.update(ctx, "create alert", func(txn *badger.Txn) error {
		if err := requireUser(txn, a.UserID); err != nil {
			return err
		}
		if err := setNew(txn, AlertPrefix+a.ID.String(), a); err != nil {
			return err
		}
		if a.IsResolved {
			return nil
		}
		idx := openAlertKey(a.UserID, a.Kind)
		_, err := txn.Get([]byte(idx))
		if err == nil {
			return fmt.Errorf("%w: %s for user %s", models.ErrConflictingAlert, a.Kind, a.UserID)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(idx), []byte(a.ID.String()))
	})
}

// GetAlert retrieves an alert by ID or ID prefix.
func (s *KVStore) GetAlert(ctx context.Context, idOrPrefix string) (*models.RiskAlert, error) {
	var a models.RiskAlert
	err := s.view(ctx, "get alert", func(txn *badger.Txn) error {
		return getByIDPrefix(txn, AlertPrefix, idOrPrefix, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindUnresolvedAlert returns the open alert of kind for the user, or
// models.ErrNotFound when there is none.
func (s *KVStore) FindUnresolvedAlert(ctx context.Context, userID uuid.UUID, kind models.AlertKind) (*models.RiskAlert, error) {
	var a models.RiskAlert
	err := s.view(ctx, "find unresolved alert", func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(openAlertKey(userID, kind)))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, AlertPrefix+string(id), &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAlerts returns alerts matching filter, newest first.
func (s *KVStore) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.RiskAlert, error) {
	all, err := listJSON[models.RiskAlert](ctx, s, "list alerts", AlertPrefix)
	if err != nil {
		return nil, err
	}
	var alerts []*models.RiskAlert
	for _, a := range all {
		if filter.Matches(a) {
			alerts = append(alerts, a)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	if filter.Limit > 0 && len(alerts) > filter.Limit {
		alerts = alerts[:filter.Limit]
	}
	return alerts, nil
}

// ResolveAlert marks an open alert resolved and drops its open-alert index key.
func (s *KVStore) ResolveAlert(ctx context.Context, idOrPrefix, resolvedBy string) (*models.RiskAlert, error) {
	var a models.RiskAlert
	err := s.update(ctx, "resolve alert", func(txn *badger.Txn) error {
		if err := getByIDPrefix(txn, AlertPrefix, idOrPrefix, &a); err != nil {
			return err
		}
		if err := a.Resolve(resolvedBy, time.Now()); err != nil {
			return err
		}
		if err := txn.Delete([]byte(openAlertKey(a.UserID, a.Kind))); err != nil {
			return err
		}
		return setJSON(txn, AlertPrefix+a.ID.String(), &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// view runs fn in a read-only transaction and maps Badger errors.
func (s *KVStore) view(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return kvErr(op, s.db.View(fn))
}

// update runs fn in a read-write transaction and maps Badger errors.
func (s *KVStore) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return kvErr(op, s.db.Update(fn))
}

func kvErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case errors.Is(err, badger.ErrConflict), errors.Is(err, badger.ErrBlockedWrites):
		return fmt.Errorf("%s: %w: %v", op, models.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func moodKey(userID uuid.UUID, date time.Time) string {
	return MoodPrefix + userID.String() + ":" + models.FormatDate(date)
}

func openAlertKey(userID uuid.UUID, kind models.AlertKind) string {
	return OpenAlertPrefix + userID.String() + ":" + string(kind)
}

func requireUser(txn *badger.Txn, userID uuid.UUID) error {
	_, err := txn.Get([]byte(UserPrefix + userID.String()))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
	}
	return err
}

func containsLevel(levels []models.RiskLevel, l models.RiskLevel) bool {
	for _, x := range levels {
		if x == l {
			return true
		}
	}
	return false
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

// setNew is setJSON that refuses to overwrite an existing key.
func setNew(txn *badger.Txn, key string, v any) error {
	if _, err := txn.Get([]byte(key)); err == nil {
		return fmt.Errorf("%w: %s already exists", models.ErrInvalidInput, key)
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	return setJSON(txn, key, v)
}

// getByIDPrefix decodes the single record whose key starts with
// typePrefix+idPrefix. Zero or multiple matches are errors.
func getByIDPrefix(txn *badger.Txn, typePrefix, idPrefix string, v any) error {
	if idPrefix == "" {
		return fmt.Errorf("%w: empty ID", models.ErrInvalidInput)
	}
	search := []byte(typePrefix + idPrefix)

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var match []byte
	for it.Seek(search); it.ValidForPrefix(search); it.Next() {
		if match != nil {
			return fmt.Errorf("%w: ambiguous prefix %s matches multiple records", models.ErrInvalidInput, idPrefix)
		}
		match = it.Item().KeyCopy(nil)
	}
	if match == nil {
		return fmt.Errorf("%w: %s", models.ErrNotFound, idPrefix)
	}
	return getJSON(txn, string(match), v)
}

// listJSON decodes every value under prefix in key order.
func listJSON[T any](ctx context.Context, s *KVStore, op, prefix string) ([]*T, error) {
	var results []*T
	err := s.view(ctx, op, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			var v T
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			results = append(results, &v)
		}
		return nil
	})
	return results, err
}
