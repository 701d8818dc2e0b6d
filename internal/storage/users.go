// ABOUTME: User operations for SQLite storage.
// ABOUTME: Includes the candidate query used by risk monitor cycles.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/models"
)

const userColumns = `id, name, risk_level, active, created_at`

// CreateUser stores a new user.
func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := models.ParseRiskLevel(string(u.RiskLevel)); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID.String(), u.Name, string(u.RiskLevel), u.Active,
		u.CreatedAt.Format(time.RFC3339),
	)
	return wrapErr("create user", err)
}

// GetUser retrieves a user by ID or ID prefix.
func (d *DB) GetUser(ctx context.Context, idOrPrefix string) (*models.User, error) {
	id, err := d.resolveID(ctx, "users", idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, wrapErr("get user", err)
	}
	return u, nil
}

// UpdateUser replaces a user's name, risk level, and active flag.
func (d *DB) UpdateUser(ctx context.Context, u *models.User) error {
	if _, err := models.ParseRiskLevel(string(u.RiskLevel)); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	res, err := d.db.ExecContext(ctx, `
		UPDATE users SET name = ?, risk_level = ?, active = ? WHERE id = ?`,
		u.Name, string(u.RiskLevel), u.Active, u.ID.String())
	if err != nil {
		return wrapErr("update user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update user: %w: %s", models.ErrNotFound, u.ID)
	}
	return nil
}

// ListUsers returns all users ordered by name.
func (d *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, id`)
	if err != nil {
		return nil, wrapErr("list users", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// FindCandidateUsers returns users at one of levels, optionally only active ones.
// An empty levels slice matches every level.
func (d *DB) FindCandidateUsers(ctx context.Context, levels []models.RiskLevel, activeOnly bool) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	var args []interface{}

	if len(levels) > 0 {
		placeholders := make([]string, len(levels))
		for i, l := range levels {
			placeholders[i] = "?"
			args = append(args, string(l))
		}
		query += ` AND risk_level IN (` + strings.Join(placeholders, ", ") + `)`
	}
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY id`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("find candidate users", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var idStr, riskLevel, createdAt string
	if err := row.Scan(&idStr, &u.Name, &riskLevel, &u.Active, &createdAt); err != nil {
		return nil, err
	}
	u.ID, _ = uuid.Parse(idStr)
	u.RiskLevel = models.RiskLevel(riskLevel)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
