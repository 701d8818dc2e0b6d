// ABOUTME: CLI command for migrating data between storage backends.
// ABOUTME: Copies everything from the configured backend into another one.
package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/harperreed/vigil/internal/config"
	"github.com/harperreed/vigil/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateTo     string
	migrateToDir  string
	migrateDryRun bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy data to another storage backend",
	Long: `Copy all users, habits, mood records, and alerts from the configured
backend into another backend.

IMPORTANT:

  - The destination must be empty; existing records cause errors
  - Run with --dry-run first to see what would be migrated
  - Update "backend" in ~/.config/vigil/config.json afterwards

USAGE:

  vigil migrate --to badger --dry-run
  vigil migrate --to badger
  vigil migrate --to sqlite --to-dir /backups/vigil`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if migrateTo == cfg.GetBackend() && migrateToDir == "" {
			return fmt.Errorf("destination is the configured backend; pass --to-dir for a separate copy")
		}

		dstDir := migrateToDir
		if dstDir == "" {
			dstDir = cfg.GetDataDir()
		}
		dstDir = config.ExpandPath(dstDir)

		if migrateDryRun {
			color.Yellow("Dry run mode - no changes will be made")
			data, err := storage.GetAllData(ctx, repo)
			if err != nil {
				return fmt.Errorf("read source: %w", err)
			}
			fmt.Printf("Would migrate %d users, %d habits, %d mood records, %d alerts\n",
				len(data.Users), len(data.Habits), len(data.MoodRecords), len(data.Alerts))
			fmt.Printf("  to %s at %s\n", migrateTo, dstDir)
			return nil
		}

		if migrateTo == config.BackendBadger {
			nonEmpty, err := storage.IsDirNonEmpty(filepath.Join(dstDir, "kv"))
			if err != nil {
				return err
			}
			if nonEmpty {
				return fmt.Errorf("destination %s already has data", filepath.Join(dstDir, "kv"))
			}
		}

		dst, err := config.OpenBackend(migrateTo, dstDir)
		if err != nil {
			return fmt.Errorf("open destination: %w", err)
		}
		defer dst.Close()

		summary, err := storage.MigrateData(ctx, repo, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.Green("✓ Migrated %d users, %d habits, %d mood records, %d alerts",
			summary.Users, summary.Habits, summary.MoodRecords, summary.Alerts)
		fmt.Printf("  to %s at %s\n", migrateTo, dstDir)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", config.BackendBadger, "destination backend: sqlite or badger")
	migrateCmd.Flags().StringVar(&migrateToDir, "to-dir", "", "destination data directory (default: configured data dir)")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	rootCmd.AddCommand(migrateCmd)
}
