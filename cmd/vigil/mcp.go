// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for assistant integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/vigil/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server.

The server communicates via stdin/stdout.

  {
    "mcpServers": {
      "vigil": {
        "command": "vigil",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  record_habit_completion  Mark a habit done and return streaks
  log_mood                 Record a user's mood for a day
  mood_insights            Distribution, dominant mood, trend
  run_risk_cycle           Evaluate users and create alerts
  list_alerts              List risk alerts
  resolve_alert            Resolve an open alert

AVAILABLE RESOURCES:

  vigil://alerts/open      Unresolved alerts awaiting review`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(eng)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		appLog.Info("mcp server starting")
		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
