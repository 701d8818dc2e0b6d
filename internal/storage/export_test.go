// ABOUTME: Tests for JSON and YAML export plus JSON import.
// ABOUTME: Import rebuilds streaks and skips conflicting open alerts.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/vigil/internal/models"
	"gopkg.in/yaml.v3"
)

func TestExportJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := setupTestDB(t)
	u := populate(t, src)

	raw, err := ExportJSON(ctx, src)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if data.Tool != "vigil" || len(data.Users) != 1 || len(data.MoodRecords) != 3 {
		t.Errorf("export = %+v", data)
	}

	dst := setupTestKV(t)
	if err := ImportJSON(ctx, dst, raw); err != nil {
		t.Fatalf("ImportJSON failed: %v", err)
	}
	records, err := dst.FindMoodRecords(ctx, u.ID, models.DateRange{})
	if err != nil || len(records) != 3 {
		t.Errorf("imported records = %d, %v", len(records), err)
	}
}

func TestImportJSONInvalid(t *testing.T) {
	err := ImportJSON(context.Background(), setupTestKV(t), []byte("{not json"))
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("ImportJSON = %v, want ErrInvalidInput", err)
	}
}

func TestImportRebuildsStreaks(t *testing.T) {
	ctx := context.Background()
	dst := setupTestDB(t)

	u := models.NewUser("ana")
	h := models.NewHabit(u.ID, "stretch")
	// Stale counters and unsorted dates as a hand-edited backup might have.
	h.Completions = []time.Time{day(t, "2024-01-03"), day(t, "2024-01-01"), day(t, "2024-01-02")}
	h.CurrentStreak = 0

	data := &ExportData{Users: []*models.User{u}, Habits: []*models.Habit{h}}
	if err := ImportData(ctx, dst, data); err != nil {
		t.Fatalf("ImportData failed: %v", err)
	}

	got, err := dst.GetHabit(ctx, h.ID.String())
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if got.CurrentStreak != 3 || got.LongestStreak != 3 {
		t.Errorf("streaks = %d/%d, want 3/3", got.CurrentStreak, got.LongestStreak)
	}
}

func TestImportSkipsConflictingOpenAlert(t *testing.T) {
	ctx := context.Background()
	dst := setupTestKV(t)
	u := createUser(t, dst, "ana", models.RiskHigh)

	existing := models.NewRiskAlert(u.ID, models.AlertMultipleNegativeMoods, models.SeverityHigh, "existing")
	if err := dst.CreateAlert(ctx, existing); err != nil {
		t.Fatalf("CreateAlert failed: %v", err)
	}

	incoming := models.NewRiskAlert(u.ID, models.AlertMultipleNegativeMoods, models.SeverityHigh, "incoming")
	if err := ImportData(ctx, dst, &ExportData{Alerts: []*models.RiskAlert{incoming}}); err != nil {
		t.Fatalf("ImportData failed: %v", err)
	}

	open, err := dst.ListAlerts(ctx, models.AlertFilter{Unresolved: true})
	if err != nil || len(open) != 1 || open[0].ID != existing.ID {
		t.Errorf("open alerts = %v, %v; want only the existing alert", open, err)
	}
}

func TestImportFailsOnDuplicateAlertID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, dst Repository) {
		ctx := context.Background()
		u := createUser(t, dst, "ana", models.RiskHigh)

		a := models.NewRiskAlert(u.ID, models.AlertInactiveUser, models.SeverityMedium, "old")
		if err := a.Resolve("dr.kim", time.Now()); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if err := dst.CreateAlert(ctx, a); err != nil {
			t.Fatalf("CreateAlert failed: %v", err)
		}

		err := ImportData(ctx, dst, &ExportData{Alerts: []*models.RiskAlert{a}})
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("ImportData = %v, want ErrInvalidInput", err)
		}
	})
}

func TestExportYAML(t *testing.T) {
	ctx := context.Background()
	src := setupTestKV(t)
	u := populate(t, src)

	raw, err := ExportYAML(ctx, src)
	if err != nil {
		t.Fatalf("ExportYAML failed: %v", err)
	}

	var out map[string]any
	if err := yaml.Unmarshal(raw, &out); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	moods, ok := out["moods"].(map[string]any)
	if !ok {
		t.Fatalf("moods section missing: %v", out["moods"])
	}
	if _, ok := moods[u.ID.String()[:8]]; !ok {
		t.Errorf("moods not grouped by user prefix: %v", moods)
	}
	if !strings.Contains(string(raw), "multiple_negative_moods") {
		t.Error("expected alert kind in YAML export")
	}
}
