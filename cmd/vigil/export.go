// ABOUTME: CLI commands for exporting and importing vigil data.
// ABOUTME: Supports JSON (full backup) and YAML (human-readable) export, JSON import.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/vigil/internal/storage"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export vigil data",
	Long: `Export vigil data.

FORMATS:

  json   Full JSON export (suitable for backup/restore)
  yaml   YAML export (human-readable, moods grouped by user)

EXAMPLES:

  vigil export json                  # Export all data as JSON
  vigil export json -o backup.json   # Save to file
  vigil export yaml`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var data []byte
		var err error
		switch args[0] {
		case "json":
			data, err = storage.ExportJSON(ctx, repo)
		case "yaml":
			data, err = storage.ExportYAML(ctx, repo)
		default:
			return fmt.Errorf("unknown format: %s (use json or yaml)", args[0])
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Println(string(data))
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import vigil data from JSON",
	Long: `Import vigil data from a JSON backup file.

Habit streaks are recomputed from completion dates. An open alert that
collides with one already open for the same user and kind is skipped.
Duplicate users or habits (same ID) cause an error.

EXAMPLES:

  vigil import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		if err := storage.ImportJSON(context.Background(), repo, data); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		color.Green("✓ Imported from %s", args[0])
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
