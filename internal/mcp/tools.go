// ABOUTME: MCP tool implementations for vigil.
// ABOUTME: Habit completions, mood logging and insights, risk cycles, and alert review.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_habit_completion",
		Description: "Mark a habit done for a day and return the updated streaks",
	}, s.handleRecordHabitCompletion)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_mood",
		Description: "Record a user's mood for a day, replacing any earlier entry for that day",
	}, s.handleLogMood)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "mood_insights",
		Description: "Mood distribution, dominant mood, trend, and negative count for a user",
	}, s.handleMoodInsights)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_risk_cycle",
		Description: "Evaluate elevated-risk users and create deduplicated risk alerts",
	}, s.handleRunRiskCycle)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_alerts",
		Description: "List risk alerts, newest first, optionally filtered",
	}, s.handleListAlerts)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "resolve_alert",
		Description: "Mark an open risk alert as resolved by a reviewer",
	}, s.handleResolveAlert)
}

// Tool input/output types

type recordHabitInput struct {
	HabitID string `json:"habit_id" jsonschema:"Habit ID or prefix"`
	Date    string `json:"date,omitempty" jsonschema:"Completion day (YYYY-MM-DD), defaults to today"`
}

type habitOutput struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	Message       string `json:"message"`
}

type logMoodInput struct {
	UserID  string `json:"user_id" jsonschema:"User ID or prefix"`
	Date    string `json:"date,omitempty" jsonschema:"Day of the reflection (YYYY-MM-DD), defaults to today"`
	Mood    string `json:"mood,omitempty" jsonschema:"One of happy, sad, angry, anxious, calm, excited, neutral"`
	Content string `json:"content,omitempty" jsonschema:"Free-text reflection"`
}

type moodOutput struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Mood    string `json:"mood"`
	Message string `json:"message"`
}

type moodInsightsInput struct {
	UserID string `json:"user_id" jsonschema:"User ID or prefix"`
	Start  string `json:"start,omitempty" jsonschema:"First day of the window (YYYY-MM-DD)"`
	End    string `json:"end,omitempty" jsonschema:"Last day of the window (YYYY-MM-DD)"`
}

type runRiskCycleInput struct {
	RiskLevels []string `json:"risk_levels,omitempty" jsonschema:"Candidate risk levels, defaults to high and critical"`
}

type cycleOutput struct {
	Evaluated int           `json:"evaluated"`
	Created   []alertOutput `json:"created"`
	Failures  []failure     `json:"failures"`
	Message   string        `json:"message"`
}

type failure struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

type alertOutput struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Kind        string `json:"alert_kind"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Resolved    bool   `json:"is_resolved"`
	ResolvedBy  string `json:"resolved_by,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type listAlertsInput struct {
	UserID     string `json:"user_id,omitempty" jsonschema:"Only alerts for this full user ID"`
	Kind       string `json:"alert_kind,omitempty" jsonschema:"Only alerts of this kind"`
	Unresolved bool   `json:"unresolved,omitempty" jsonschema:"Only open alerts"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type resolveAlertInput struct {
	ID         string `json:"id" jsonschema:"Alert ID or prefix"`
	ResolvedBy string `json:"resolved_by" jsonschema:"Reviewer resolving the alert"`
}

func toAlertOutput(a *models.RiskAlert) alertOutput {
	out := alertOutput{
		ID:          a.ID.String(),
		UserID:      a.UserID.String(),
		Kind:        string(a.Kind),
		Severity:    string(a.Severity),
		Description: a.Description,
		Resolved:    a.IsResolved,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
	if a.ResolvedBy != nil {
		out.ResolvedBy = *a.ResolvedBy
	}
	return out
}

// dayOrToday parses a YYYY-MM-DD day, defaulting to today when empty.
func dayOrToday(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return models.Day(time.Now()), nil
	}
	return models.ParseDate(s)
}

// Tool handlers

func (s *Server) handleRecordHabitCompletion(ctx context.Context, req *mcp.CallToolRequest, input recordHabitInput) (*mcp.CallToolResult, habitOutput, error) {
	day, err := dayOrToday(input.Date)
	if err != nil {
		return nil, habitOutput{}, err
	}

	h, err := s.engine.RecordHabitCompletion(ctx, input.HabitID, day)
	if err != nil {
		return nil, habitOutput{}, fmt.Errorf("failed to record completion: %w", err)
	}

	return nil, habitOutput{
		ID:            h.ID.String()[:8],
		Name:          h.Name,
		CurrentStreak: h.CurrentStreak,
		LongestStreak: h.LongestStreak,
		Message: fmt.Sprintf("%s done on %s (streak %d, best %d)",
			h.Name, models.FormatDate(day), h.CurrentStreak, h.LongestStreak),
	}, nil
}

func (s *Server) handleLogMood(ctx context.Context, req *mcp.CallToolRequest, input logMoodInput) (*mcp.CallToolResult, moodOutput, error) {
	day, err := dayOrToday(input.Date)
	if err != nil {
		return nil, moodOutput{}, err
	}

	rec, err := s.engine.LogMood(ctx, input.UserID, day, input.Mood, input.Content)
	if err != nil {
		return nil, moodOutput{}, fmt.Errorf("failed to log mood: %w", err)
	}

	return nil, moodOutput{
		ID:      rec.ID.String()[:8],
		Date:    models.FormatDate(rec.Date),
		Mood:    string(rec.Mood),
		Message: fmt.Sprintf("Logged %s for %s", rec.Mood, models.FormatDate(rec.Date)),
	}, nil
}

func (s *Server) handleMoodInsights(ctx context.Context, req *mcp.CallToolRequest, input moodInsightsInput) (*mcp.CallToolResult, any, error) {
	var window models.DateRange
	if input.Start != "" {
		d, err := models.ParseDate(input.Start)
		if err != nil {
			return nil, nil, err
		}
		window.Start = d
	}
	if input.End != "" {
		d, err := models.ParseDate(input.End)
		if err != nil {
			return nil, nil, err
		}
		window.End = d
	}

	ins, err := s.engine.ComputeMoodInsights(ctx, input.UserID, window)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute insights: %w", err)
	}
	return nil, ins, nil
}

func (s *Server) handleRunRiskCycle(ctx context.Context, req *mcp.CallToolRequest, input runRiskCycleInput) (*mcp.CallToolResult, cycleOutput, error) {
	levels := make([]models.RiskLevel, 0, len(input.RiskLevels))
	for _, l := range input.RiskLevels {
		lvl, err := models.ParseRiskLevel(l)
		if err != nil {
			return nil, cycleOutput{}, err
		}
		levels = append(levels, lvl)
	}

	res, err := s.engine.RunRiskMonitorCycle(ctx, levels...)
	if err != nil {
		return nil, cycleOutput{}, fmt.Errorf("risk cycle failed: %w", err)
	}

	out := cycleOutput{
		Evaluated: res.Evaluated,
		Created:   []alertOutput{},
		Failures:  []failure{},
	}
	for _, a := range res.Created {
		out.Created = append(out.Created, toAlertOutput(a))
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, failure{UserID: f.UserID.String(), Error: f.Err.Error()})
	}
	out.Message = fmt.Sprintf("Evaluated %d users: %d alerts created, %d failures",
		res.Evaluated, len(out.Created), len(out.Failures))
	return nil, out, nil
}

func (s *Server) handleListAlerts(ctx context.Context, req *mcp.CallToolRequest, input listAlertsInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	filter := models.AlertFilter{Unresolved: input.Unresolved, Limit: input.Limit}
	if input.UserID != "" {
		id, err := uuid.Parse(input.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: user_id must be a full UUID", models.ErrInvalidInput)
		}
		filter.UserID = &id
	}
	if input.Kind != "" {
		k, err := models.ParseAlertKind(input.Kind)
		if err != nil {
			return nil, nil, err
		}
		filter.Kind = &k
	}

	alerts, err := s.engine.ListAlerts(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	if len(alerts) == 0 {
		return nil, map[string]any{"message": "No alerts found."}, nil
	}

	out := make([]alertOutput, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertOutput(a))
	}
	return nil, map[string]any{"alerts": out, "count": len(out)}, nil
}

func (s *Server) handleResolveAlert(ctx context.Context, req *mcp.CallToolRequest, input resolveAlertInput) (*mcp.CallToolResult, alertOutput, error) {
	a, err := s.engine.ResolveAlert(ctx, input.ID, input.ResolvedBy)
	if err != nil {
		return nil, alertOutput{}, fmt.Errorf("failed to resolve alert: %w", err)
	}
	return nil, toAlertOutput(a), nil
}
