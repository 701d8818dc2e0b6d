// ABOUTME: Mood record operations for SQLite storage.
// ABOUTME: Writes upsert on (user, day) so a day never holds two records.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/models"
)

const moodColumns = `id, user_id, day, mood, content, created_at, updated_at`

// UpsertMoodRecord inserts the record, or overwrites the mood and content of
// the existing record for the same user and day. The stored record is returned;
// on overwrite it keeps the original ID and CreatedAt.
func (d *DB) UpsertMoodRecord(ctx context.Context, r *models.MoodRecord) (*models.MoodRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("upsert mood record: %w", err)
	}

	now := time.Now()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO mood_records (`+moodColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, day) DO UPDATE SET
			mood = excluded.mood,
			content = excluded.content,
			updated_at = excluded.updated_at`,
		r.ID.String(), r.UserID.String(), models.FormatDate(r.Date), string(r.Mood), r.Content,
		r.CreatedAt.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, wrapErr("upsert mood record", err)
	}

	row := d.db.QueryRowContext(ctx,
		`SELECT `+moodColumns+` FROM mood_records WHERE user_id = ? AND day = ?`,
		r.UserID.String(), models.FormatDate(r.Date))
	stored, err := scanMoodRecord(row)
	if err != nil {
		return nil, wrapErr("upsert mood record", err)
	}
	return stored, nil
}

// FindMoodRecords returns a user's records inside window, oldest first.
func (d *DB) FindMoodRecords(ctx context.Context, userID uuid.UUID, window models.DateRange) ([]*models.MoodRecord, error) {
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("find mood records: %w", err)
	}

	query := `SELECT ` + moodColumns + ` FROM mood_records WHERE user_id = ?`
	args := []interface{}{userID.String()}
	if !window.Start.IsZero() {
		query += ` AND day >= ?`
		args = append(args, models.FormatDate(window.Start))
	}
	if !window.End.IsZero() {
		query += ` AND day <= ?`
		args = append(args, models.FormatDate(window.End))
	}
	query += ` ORDER BY day`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("find mood records", err)
	}
	defer rows.Close()

	var records []*models.MoodRecord
	for rows.Next() {
		r, err := scanMoodRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mood record: %w", err)
		}
		records = append(records, r)
	}
	return records, wrapErr("find mood records", rows.Err())
}

func scanMoodRecord(row rowScanner) (*models.MoodRecord, error) {
	var r models.MoodRecord
	var idStr, userID, day, mood, createdAt, updatedAt string
	if err := row.Scan(&idStr, &userID, &day, &mood, &r.Content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.ID, _ = uuid.Parse(idStr)
	r.UserID, _ = uuid.Parse(userID)
	r.Date, _ = time.Parse(models.DateLayout, day)
	r.Mood = models.Mood(mood)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &r, nil
}
