// ABOUTME: MCP resource implementations for vigil.
// ABOUTME: Provides vigil://alerts/open, the reviewer queue of unresolved alerts.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/vigil/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const openAlertsURI = "vigil://alerts/open"

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         openAlertsURI,
		Name:        "Open Risk Alerts",
		Description: "Unresolved risk alerts awaiting review, newest first",
		MIMEType:    "application/json",
	}, s.handleOpenAlertsResource)
}

func (s *Server) handleOpenAlertsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	alerts, err := s.engine.ListAlerts(ctx, models.AlertFilter{Unresolved: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	bySeverity := make(map[string]int)
	out := make([]alertOutput, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertOutput(a))
		bySeverity[string(a.Severity)]++
	}

	result := map[string]any{
		"alerts":      out,
		"count":       len(out),
		"by_severity": bySeverity,
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      openAlertsURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
