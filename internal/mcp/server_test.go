// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, tool handlers, and the open alerts resource.
package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/vigil/internal/engine"
	"github.com/harperreed/vigil/internal/models"
	"github.com/harperreed/vigil/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// setupTestServer creates a server over a fresh database in a temp directory.
func setupTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "vigil.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	server, err := NewServer(engine.New(db, engine.Options{}))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server, db
}

func seedUser(t *testing.T, db *storage.DB, level models.RiskLevel) *models.User {
	t.Helper()
	u := models.NewUser("riley").WithRiskLevel(level)
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func daysAgo(n int) string {
	return models.FormatDate(models.Day(time.Now()).AddDate(0, 0, -n))
}

func TestNewServer(t *testing.T) {
	server, _ := setupTestServer(t)

	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.engine == nil {
		t.Error("Expected non-nil engine")
	}
}

func TestHandleRecordHabitCompletion(t *testing.T) {
	server, db := setupTestServer(t)
	ctx := context.Background()
	u := seedUser(t, db, models.RiskLow)
	h := models.NewHabit(u.ID, "walk")
	if err := db.CreateHabit(ctx, h); err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}

	tests := []struct {
		name        string
		input       recordHabitInput
		wantErr     bool
		wantCurrent int
	}{
		{"first day", recordHabitInput{HabitID: h.ID.String(), Date: "2024-01-01"}, false, 1},
		{"next day by prefix", recordHabitInput{HabitID: h.ID.String()[:8], Date: "2024-01-02"}, false, 2},
		{"repeat is a no-op", recordHabitInput{HabitID: h.ID.String(), Date: "2024-01-02"}, false, 2},
		{"bad date", recordHabitInput{HabitID: h.ID.String(), Date: "01/02/2024"}, true, 0},
		{"unknown habit", recordHabitInput{HabitID: "ffffffff", Date: "2024-01-03"}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := server.handleRecordHabitCompletion(ctx, &mcp.CallToolRequest{}, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if out.CurrentStreak != tt.wantCurrent {
				t.Errorf("CurrentStreak = %d, want %d", out.CurrentStreak, tt.wantCurrent)
			}
			if out.Name != "walk" {
				t.Errorf("Name = %q, want walk", out.Name)
			}
		})
	}
}

func TestHandleLogMood(t *testing.T) {
	server, db := setupTestServer(t)
	ctx := context.Background()
	u := seedUser(t, db, models.RiskLow)

	_, out, err := server.handleLogMood(ctx, &mcp.CallToolRequest{}, logMoodInput{
		UserID:  u.ID.String()[:8],
		Date:    "2024-02-01",
		Mood:    "calm",
		Content: "quiet day",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Mood != "calm" || out.Date != "2024-02-01" {
		t.Errorf("output = %+v", out)
	}

	_, _, err = server.handleLogMood(ctx, &mcp.CallToolRequest{}, logMoodInput{
		UserID: u.ID.String(),
		Mood:   "melancholy",
	})
	if err == nil || !strings.Contains(err.Error(), "unknown mood") {
		t.Errorf("Expected unknown mood error, got %v", err)
	}
}

func TestHandleMoodInsights(t *testing.T) {
	server, db := setupTestServer(t)
	ctx := context.Background()
	u := seedUser(t, db, models.RiskLow)

	for d, m := range map[string]string{"2024-01-01": "sad", "2024-01-02": "sad", "2024-01-03": "happy"} {
		if _, _, err := server.handleLogMood(ctx, &mcp.CallToolRequest{}, logMoodInput{UserID: u.ID.String(), Date: d, Mood: m}); err != nil {
			t.Fatalf("log mood: %v", err)
		}
	}

	_, out, err := server.handleMoodInsights(ctx, &mcp.CallToolRequest{}, moodInsightsInput{
		UserID: u.ID.String(),
		Start:  "2024-01-01",
		End:    "2024-01-31",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ins, ok := out.(*engine.MoodInsights)
	if !ok {
		t.Fatalf("output type = %T", out)
	}
	if ins.Dominant != models.MoodSad || ins.Total != 3 || ins.NegativeCount != 2 {
		t.Errorf("insights = %+v", ins)
	}

	if _, _, err := server.handleMoodInsights(ctx, &mcp.CallToolRequest{}, moodInsightsInput{
		UserID: u.ID.String(),
		Start:  "2024-02-01",
		End:    "2024-01-01",
	}); err == nil {
		t.Error("Expected error for inverted window")
	}
}

func TestHandleRunRiskCycleAndResolve(t *testing.T) {
	server, db := setupTestServer(t)
	ctx := context.Background()
	u := seedUser(t, db, models.RiskCritical)

	for i := 0; i < 3; i++ {
		if _, _, err := server.handleLogMood(ctx, &mcp.CallToolRequest{}, logMoodInput{
			UserID: u.ID.String(), Date: daysAgo(i), Mood: "anxious",
		}); err != nil {
			t.Fatalf("log mood: %v", err)
		}
	}

	_, out, err := server.handleRunRiskCycle(ctx, &mcp.CallToolRequest{}, runRiskCycleInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Evaluated != 1 || len(out.Created) != 1 {
		t.Fatalf("cycle = %+v", out)
	}
	if out.Created[0].Kind != "multiple_negative_moods" || out.Created[0].Severity != "high" {
		t.Errorf("alert = %+v", out.Created[0])
	}

	_, again, err := server.handleRunRiskCycle(ctx, &mcp.CallToolRequest{}, runRiskCycleInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(again.Created) != 0 {
		t.Errorf("second cycle created %d alerts, want 0", len(again.Created))
	}

	_, resolved, err := server.handleResolveAlert(ctx, &mcp.CallToolRequest{}, resolveAlertInput{
		ID:         out.Created[0].ID[:8],
		ResolvedBy: "dr.kim",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !resolved.Resolved || resolved.ResolvedBy != "dr.kim" {
		t.Errorf("resolved = %+v", resolved)
	}

	if _, _, err := server.handleResolveAlert(ctx, &mcp.CallToolRequest{}, resolveAlertInput{
		ID: out.Created[0].ID, ResolvedBy: "dr.kim",
	}); err == nil {
		t.Error("Expected error resolving an already resolved alert")
	}
}

func TestHandleRunRiskCycleInvalidLevel(t *testing.T) {
	server, _ := setupTestServer(t)
	_, _, err := server.handleRunRiskCycle(context.Background(), &mcp.CallToolRequest{}, runRiskCycleInput{
		RiskLevels: []string{"extreme"},
	})
	if err == nil {
		t.Error("Expected error for unknown risk level")
	}
}

func TestHandleListAlerts(t *testing.T) {
	server, db := setupTestServer(t)
	ctx := context.Background()
	u := seedUser(t, db, models.RiskHigh)

	_, out, err := server.handleListAlerts(ctx, &mcp.CallToolRequest{}, listAlertsInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if m, ok := out.(map[string]any); !ok || m["message"] != "No alerts found." {
		t.Errorf("empty output = %v", out)
	}

	a := models.NewRiskAlert(u.ID, models.AlertInactiveUser, models.SeverityMedium, "quiet")
	if err := db.CreateAlert(ctx, a); err != nil {
		t.Fatalf("CreateAlert failed: %v", err)
	}

	_, out, err = server.handleListAlerts(ctx, &mcp.CallToolRequest{}, listAlertsInput{
		UserID:     u.ID.String(),
		Kind:       "inactive_user",
		Unresolved: true,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	m := out.(map[string]any)
	if m["count"] != 1 {
		t.Errorf("count = %v, want 1", m["count"])
	}

	for _, in := range []listAlertsInput{{UserID: "abc"}, {Kind: "bogus"}} {
		if _, _, err := server.handleListAlerts(ctx, &mcp.CallToolRequest{}, in); err == nil {
			t.Errorf("Expected error for %+v", in)
		}
	}
}

func TestHandleOpenAlertsResource(t *testing.T) {
	server, db := setupTestServer(t)
	ctx := context.Background()
	u := seedUser(t, db, models.RiskHigh)

	open := models.NewRiskAlert(u.ID, models.AlertMultipleNegativeMoods, models.SeverityHigh, "open")
	closed := models.NewRiskAlert(u.ID, models.AlertInactiveUser, models.SeverityMedium, "closed")
	for _, a := range []*models.RiskAlert{open, closed} {
		if err := db.CreateAlert(ctx, a); err != nil {
			t.Fatalf("CreateAlert failed: %v", err)
		}
	}
	if _, err := db.ResolveAlert(ctx, closed.ID.String(), "dr.kim"); err != nil {
		t.Fatalf("ResolveAlert failed: %v", err)
	}

	result, err := server.handleOpenAlertsResource(ctx, &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("Expected one content entry, got %d", len(result.Contents))
	}
	c := result.Contents[0]
	if c.URI != "vigil://alerts/open" || c.MIMEType != "application/json" {
		t.Errorf("content = %s %s", c.URI, c.MIMEType)
	}

	var body struct {
		Count      int            `json:"count"`
		BySeverity map[string]int `json:"by_severity"`
	}
	if err := json.Unmarshal([]byte(c.Text), &body); err != nil {
		t.Fatalf("resource is not JSON: %v", err)
	}
	if body.Count != 1 || body.BySeverity["high"] != 1 {
		t.Errorf("body = %+v", body)
	}
}
