// ABOUTME: Risk alert operations for SQLite storage.
// ABOUTME: A partial unique index rejects a second open alert per user and kind.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/models"
)

const alertColumns = `id, user_id, alert_kind, severity, description, related_data,
	is_resolved, resolved_by, resolved_at, created_at`

// CreateAlert stores a new alert. If an unresolved alert of the same kind
// already exists for the user it returns models.ErrConflictingAlert.
func (d *DB) CreateAlert(ctx context.Context, a *models.RiskAlert) error {
	if _, err := models.ParseAlertKind(string(a.Kind)); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	related, err := json.Marshal(a.RelatedData)
	if err != nil {
		return fmt.Errorf("create alert: marshal related data: %w", err)
	}

	var resolvedAt *string
	if a.ResolvedAt != nil {
		s := a.ResolvedAt.Format(time.RFC3339)
		resolvedAt = &s
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO risk_alerts (`+alertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.UserID.String(), string(a.Kind), string(a.Severity), a.Description,
		string(related), a.IsResolved, a.ResolvedBy, resolvedAt, a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isOpenAlertConflict(err) {
			return fmt.Errorf("create alert: %w: %s for user %s", models.ErrConflictingAlert, a.Kind, a.UserID)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("create alert: %w: alert %s already exists", models.ErrInvalidInput, a.ID)
		}
		return wrapErr("create alert", err)
	}
	return nil
}

// GetAlert retrieves an alert by ID or ID prefix.
func (d *DB) GetAlert(ctx context.Context, idOrPrefix string) (*models.RiskAlert, error) {
	id, err := d.resolveID(ctx, "risk_alerts", idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	row := d.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM risk_alerts WHERE id = ?`, id)
	a, err := scanAlert(row)
	if err != nil {
		return nil, wrapErr("get alert", err)
	}
	return a, nil
}

// FindUnresolvedAlert returns the open alert of kind for the user, or
// models.ErrNotFound when there is none.
func (d *DB) FindUnresolvedAlert(ctx context.Context, userID uuid.UUID, kind models.AlertKind) (*models.RiskAlert, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+alertColumns+` FROM risk_alerts
		WHERE user_id = ? AND alert_kind = ? AND is_resolved = 0`,
		userID.String(), string(kind))
	a, err := scanAlert(row)
	if err != nil {
		return nil, wrapErr("find unresolved alert", err)
	}
	return a, nil
}

// ListAlerts returns alerts matching filter, newest first.
func (d *DB) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.RiskAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM risk_alerts WHERE 1=1`
	var args []interface{}
	if filter.UserID != nil {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID.String())
	}
	if filter.Kind != nil {
		query += ` AND alert_kind = ?`
		args = append(args, string(*filter.Kind))
	}
	if filter.Unresolved {
		query += ` AND is_resolved = 0`
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list alerts", err)
	}
	defer rows.Close()

	var alerts []*models.RiskAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, wrapErr("list alerts", rows.Err())
}

// ResolveAlert marks an open alert resolved. Resolving an already resolved
// alert fails with models.ErrInvalidInput.
func (d *DB) ResolveAlert(ctx context.Context, idOrPrefix, resolvedBy string) (*models.RiskAlert, error) {
	a, err := d.GetAlert(ctx, idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}
	if err := a.Resolve(resolvedBy, time.Now()); err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}

	res, err := d.db.ExecContext(ctx, `
		UPDATE risk_alerts SET is_resolved = 1, resolved_by = ?, resolved_at = ?
		WHERE id = ? AND is_resolved = 0`,
		*a.ResolvedBy, a.ResolvedAt.Format(time.RFC3339), a.ID.String())
	if err != nil {
		return nil, wrapErr("resolve alert", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Another reviewer got there first.
		return nil, fmt.Errorf("resolve alert: %w: alert %s is already resolved", models.ErrInvalidInput, a.ID.String()[:8])
	}
	return a, nil
}

func scanAlert(row rowScanner) (*models.RiskAlert, error) {
	var a models.RiskAlert
	var idStr, userID, kind, severity, related, createdAt string
	var resolvedBy, resolvedAt sql.NullString

	err := row.Scan(&idStr, &userID, &kind, &severity, &a.Description, &related,
		&a.IsResolved, &resolvedBy, &resolvedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	a.ID, _ = uuid.Parse(idStr)
	a.UserID, _ = uuid.Parse(userID)
	a.Kind = models.AlertKind(kind)
	a.Severity = models.Severity(severity)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if err := json.Unmarshal([]byte(related), &a.RelatedData); err != nil {
		return nil, fmt.Errorf("decode related data: %w", err)
	}
	if resolvedBy.Valid {
		a.ResolvedBy = &resolvedBy.String
	}
	if resolvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, resolvedAt.String)
		a.ResolvedAt = &t
	}
	return &a, nil
}
