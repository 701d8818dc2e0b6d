// ABOUTME: Habit operations for SQLite storage.
// ABOUTME: Completion dates live in their own table, one row per day.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/models"
	"github.com/harperreed/vigil/internal/streak"
)

const habitColumns = `id, user_id, name, current_streak, longest_streak, created_at, updated_at`

// CreateHabit stores a new habit and any completions it already has.
func (d *DB) CreateHabit(ctx context.Context, h *models.Habit) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("create habit: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("create habit", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID.String(), h.UserID.String(), h.Name, h.CurrentStreak, h.LongestStreak,
		h.CreatedAt.Format(time.RFC3339), h.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return wrapErr("create habit", err)
	}
	if err := insertCompletions(ctx, tx, h); err != nil {
		return err
	}

	return wrapErr("create habit", tx.Commit())
}

// GetHabit retrieves a habit with its completions by ID or ID prefix.
func (d *DB) GetHabit(ctx context.Context, idOrPrefix string) (*models.Habit, error) {
	id, err := d.resolveID(ctx, "habits", idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}

	row := d.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if err != nil {
		return nil, wrapErr("get habit", err)
	}
	if err := loadCompletions(ctx, d.db, h); err != nil {
		return nil, err
	}
	return h, nil
}

// AddHabitCompletion records the calendar day of date for a habit and
// writes the recomputed streaks. Reading the stored set, inserting the day,
// and updating the counters share one IMMEDIATE transaction, so concurrent
// writers on the same database file (other processes included) queue on the
// write lock instead of overwriting each other. changed is false when the
// day was already recorded.
func (d *DB) AddHabitCompletion(ctx context.Context, idOrPrefix string, date time.Time) (*models.Habit, bool, error) {
	id, err := d.resolveID(ctx, "habits", idOrPrefix)
	if err != nil {
		return nil, false, fmt.Errorf("add completion: %w", err)
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, false, wrapErr("add completion", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return nil, false, wrapErr("add completion", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), `ROLLBACK`)
		}
	}()

	h, err := scanHabit(conn.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if err != nil {
		return nil, false, wrapErr("add completion", err)
	}
	if err := loadCompletions(ctx, conn, h); err != nil {
		return nil, false, err
	}

	updated, changed := streak.RecordCompletion(*h, date)
	if changed {
		updated.UpdatedAt = time.Now()
		if _, err := conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO habit_completions (habit_id, day) VALUES (?, ?)`,
			id, models.FormatDate(date)); err != nil {
			return nil, false, wrapErr("add completion", err)
		}
		if _, err := conn.ExecContext(ctx, `
			UPDATE habits SET current_streak = ?, longest_streak = ?, updated_at = ?
			WHERE id = ?`,
			updated.CurrentStreak, updated.LongestStreak, updated.UpdatedAt.Format(time.RFC3339), id); err != nil {
			return nil, false, wrapErr("add completion", err)
		}
	}

	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		return nil, false, wrapErr("add completion", err)
	}
	committed = true
	return &updated, changed, nil
}

// ListHabits returns habits, optionally for a single user, ordered by name.
func (d *DB) ListHabits(ctx context.Context, userID *uuid.UUID) ([]*models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits`
	var args []interface{}
	if userID != nil {
		query += ` WHERE user_id = ?`
		args = append(args, userID.String())
	}
	query += ` ORDER BY name, id`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list habits", err)
	}

	var habits []*models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, wrapErr("list habits", err)
	}
	rows.Close()

	for _, h := range habits {
		if err := loadCompletions(ctx, d.db, h); err != nil {
			return nil, err
		}
	}
	return habits, nil
}

func insertCompletions(ctx context.Context, tx *sql.Tx, h *models.Habit) error {
	for _, c := range h.Completions {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO habit_completions (habit_id, day) VALUES (?, ?)`,
			h.ID.String(), models.FormatDate(c))
		if err != nil {
			return wrapErr("insert completion", err)
		}
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Conn.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadCompletions(ctx context.Context, q querier, h *models.Habit) error {
	rows, err := q.QueryContext(ctx,
		`SELECT day FROM habit_completions WHERE habit_id = ? ORDER BY day`, h.ID.String())
	if err != nil {
		return wrapErr("load completions", err)
	}
	defer rows.Close()

	h.Completions = nil
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return fmt.Errorf("scan completion: %w", err)
		}
		t, err := time.Parse(models.DateLayout, day)
		if err != nil {
			return fmt.Errorf("parse completion %q: %w", day, err)
		}
		h.Completions = append(h.Completions, t)
	}
	return wrapErr("load completions", rows.Err())
}

func scanHabit(row rowScanner) (*models.Habit, error) {
	var h models.Habit
	var idStr, userID, createdAt, updatedAt string
	err := row.Scan(&idStr, &userID, &h.Name, &h.CurrentStreak, &h.LongestStreak, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	h.ID, _ = uuid.Parse(idStr)
	h.UserID, _ = uuid.Parse(userID)
	h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	h.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &h, nil
}
