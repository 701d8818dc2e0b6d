// ABOUTME: Root Cobra command for vigil CLI.
// ABOUTME: Loads config and handles storage, logger, and engine lifecycle via PersistentPre/PostRunE.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/vigil/internal/config"
	"github.com/harperreed/vigil/internal/engine"
	"github.com/harperreed/vigil/internal/logger"
	"github.com/harperreed/vigil/internal/models"
	"github.com/harperreed/vigil/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	repo   storage.Repository
	eng    *engine.Engine
	appLog *log.Logger

	flagBackend string
	flagDataDir string
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Habit streaks, mood insights, and risk alerts",
	Long: `Vigil tracks daily mood reflections and habit completions per user and
derives three signals from them: habit streaks, mood trends, and
deduplicated risk alerts for reviewers.

QUICK START:

  $ vigil user add "Riley" --risk high       # Add a user at elevated risk
  $ vigil mood log riley-id sad "long day"   # Log today's mood
  $ vigil habit add riley-id walk            # Create a habit
  $ vigil habit done habit-id                # Mark it done today
  $ vigil mood insights riley-id             # Distribution, dominant mood, trend

RISK ALERTS:

  $ vigil risk run                  # Evaluate high/critical users
  $ vigil risk alerts --open        # Reviewer queue
  $ vigil risk resolve abc123 --by dr.kim

  At most one unresolved alert exists per user and alert kind.

MCP INTEGRATION:

  Run 'vigil mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "vigil": { "command": "vigil", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  SQLite at ~/.local/share/vigil/vigil.db by default, or Badger with
  "backend": "badger" in ~/.config/vigil/config.json.
  Logs rotate under ~/.local/share/vigil/logs/.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip storage init for commands that don't need it
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		return openResources()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeResources()
	},
}

// Execute runs the root command and releases storage even when a
// subcommand fails.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := closeResources(); err == nil {
		err = cerr
	}
	return err
}

func openResources() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flagBackend != "" {
		cfg.Backend = flagBackend
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagDebug {
		cfg.Debug = true
	}

	appLog, err = logger.New(logger.Config{Debug: cfg.Debug, LogDir: cfg.GetLogDir()})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	monitorCfg, err := cfg.MonitorConfig()
	if err != nil {
		return fmt.Errorf("invalid risk config: %w", err)
	}
	monitorCfg.Logger = appLog

	repo, err = cfg.OpenStorage()
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	eng = engine.New(repo, engine.Options{Risk: monitorCfg, Logger: appLog})
	appLog.Debug("storage opened", "backend", cfg.GetBackend(), "data_dir", cfg.GetDataDir())
	return nil
}

func closeResources() error {
	if repo == nil {
		return nil
	}
	err := repo.Close()
	repo, eng = nil, nil
	return err
}

// parseDay parses YYYY-MM-DD, "today", or "yesterday". Empty means today.
func parseDay(s string) (time.Time, error) {
	today := models.Day(time.Now())
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	return models.ParseDate(s)
}

// parseWindow builds an inclusive range from optional --since/--until flags.
func parseWindow(since, until string) (models.DateRange, error) {
	var r models.DateRange
	if since != "" {
		d, err := models.ParseDate(since)
		if err != nil {
			return r, err
		}
		r.Start = d
	}
	if until != "" {
		d, err := models.ParseDate(until)
		if err != nil {
			return r, err
		}
		r.End = d
	}
	return r, r.Validate()
}

func shortID(s fmt.Stringer) string {
	return s.String()[:8]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "storage backend: sqlite or badger (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "log debug output to stderr")
}
