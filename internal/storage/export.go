// ABOUTME: Export and import functionality for vigil data.
// ABOUTME: Supports JSON (full backup) and YAML (human-readable) formats.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/vigil/internal/models"
	"github.com/harperreed/vigil/internal/streak"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for vigil data.
type ExportData struct {
	Version     string               `json:"version" yaml:"version"`
	ExportedAt  time.Time            `json:"exported_at" yaml:"exported_at"`
	Tool        string               `json:"tool" yaml:"tool"`
	Users       []*models.User       `json:"users" yaml:"users"`
	Habits      []*models.Habit      `json:"habits" yaml:"habits"`
	MoodRecords []*models.MoodRecord `json:"mood_records" yaml:"mood_records"`
	Alerts      []*models.RiskAlert  `json:"alerts" yaml:"alerts"`
}

// GetAllData retrieves all data from r for export.
func GetAllData(ctx context.Context, r Repository) (*ExportData, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	habits, err := r.ListHabits(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	var moods []*models.MoodRecord
	for _, u := range users {
		records, err := r.FindMoodRecords(ctx, u.ID, models.DateRange{})
		if err != nil {
			return nil, fmt.Errorf("list mood records for %s: %w", u.ID, err)
		}
		moods = append(moods, records...)
	}

	alerts, err := r.ListAlerts(ctx, models.AlertFilter{})
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	return &ExportData{
		Version:     "1.0",
		ExportedAt:  time.Now(),
		Tool:        "vigil",
		Users:       users,
		Habits:      habits,
		MoodRecords: moods,
		Alerts:      alerts,
	}, nil
}

// ImportData writes exported data into r. Habit streaks are rebuilt from
// their completion dates. An open alert that collides with one already in r
// is skipped rather than duplicated.
func ImportData(ctx context.Context, r Repository, data *ExportData) error {
	for _, u := range data.Users {
		if err := r.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("import user: %w", err)
		}
	}

	for _, h := range data.Habits {
		rebuilt := streak.Rebuild(*h)
		if err := r.CreateHabit(ctx, &rebuilt); err != nil {
			return fmt.Errorf("import habit: %w", err)
		}
	}

	for _, m := range data.MoodRecords {
		if _, err := r.UpsertMoodRecord(ctx, m); err != nil {
			return fmt.Errorf("import mood record: %w", err)
		}
	}

	for _, a := range data.Alerts {
		if err := r.CreateAlert(ctx, a); err != nil {
			if errors.Is(err, models.ErrConflictingAlert) {
				continue
			}
			return fmt.Errorf("import alert: %w", err)
		}
	}

	return nil
}

// ExportJSON exports all data as JSON.
func ExportJSON(ctx context.Context, r Repository) ([]byte, error) {
	data, err := GetAllData(ctx, r)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ImportJSON imports data from a JSON export.
func ImportJSON(ctx context.Context, r Repository, raw []byte) error {
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("%w: parse JSON: %v", models.ErrInvalidInput, err)
	}
	return ImportData(ctx, r, &data)
}

type yamlUser struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	RiskLevel string `yaml:"risk_level"`
	Active    bool   `yaml:"active"`
}

type yamlHabit struct {
	ID            string   `yaml:"id"`
	User          string   `yaml:"user"`
	Name          string   `yaml:"name"`
	CurrentStreak int      `yaml:"current_streak"`
	LongestStreak int      `yaml:"longest_streak"`
	Completions   []string `yaml:"completions,omitempty"`
}

type yamlMood struct {
	Date    string `yaml:"date"`
	Mood    string `yaml:"mood"`
	Content string `yaml:"content,omitempty"`
}

type yamlAlert struct {
	ID          string         `yaml:"id"`
	User        string         `yaml:"user"`
	Kind        string         `yaml:"kind"`
	Severity    string         `yaml:"severity"`
	Description string         `yaml:"description"`
	RelatedData map[string]any `yaml:"related_data,omitempty"`
	Resolved    bool           `yaml:"resolved"`
	ResolvedBy  string         `yaml:"resolved_by,omitempty"`
	CreatedAt   string         `yaml:"created_at"`
}

// ExportYAML exports all data as YAML with mood records grouped by user.
func ExportYAML(ctx context.Context, r Repository) ([]byte, error) {
	data, err := GetAllData(ctx, r)
	if err != nil {
		return nil, err
	}

	out := struct {
		Version    string                `yaml:"version"`
		ExportedAt string                `yaml:"exported_at"`
		Tool       string                `yaml:"tool"`
		Users      []yamlUser            `yaml:"users"`
		Habits     []yamlHabit           `yaml:"habits"`
		Moods      map[string][]yamlMood `yaml:"moods"`
		Alerts     []yamlAlert           `yaml:"alerts"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Moods:      make(map[string][]yamlMood),
	}

	for _, u := range data.Users {
		out.Users = append(out.Users, yamlUser{
			ID:        u.ID.String()[:8],
			Name:      u.Name,
			RiskLevel: string(u.RiskLevel),
			Active:    u.Active,
		})
	}

	for _, h := range data.Habits {
		yh := yamlHabit{
			ID:            h.ID.String()[:8],
			User:          h.UserID.String()[:8],
			Name:          h.Name,
			CurrentStreak: h.CurrentStreak,
			LongestStreak: h.LongestStreak,
		}
		for _, c := range h.Completions {
			yh.Completions = append(yh.Completions, models.FormatDate(c))
		}
		out.Habits = append(out.Habits, yh)
	}

	for _, m := range data.MoodRecords {
		key := m.UserID.String()[:8]
		out.Moods[key] = append(out.Moods[key], yamlMood{
			Date:    models.FormatDate(m.Date),
			Mood:    string(m.Mood),
			Content: m.Content,
		})
	}

	for _, a := range data.Alerts {
		ya := yamlAlert{
			ID:          a.ID.String()[:8],
			User:        a.UserID.String()[:8],
			Kind:        string(a.Kind),
			Severity:    string(a.Severity),
			Description: a.Description,
			RelatedData: a.RelatedData,
			Resolved:    a.IsResolved,
			CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		}
		if a.ResolvedBy != nil {
			ya.ResolvedBy = *a.ResolvedBy
		}
		out.Alerts = append(out.Alerts, ya)
	}

	return yaml.Marshal(out)
}
