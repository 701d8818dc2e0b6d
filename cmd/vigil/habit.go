// ABOUTME: CLI commands for habits and streaks.
// ABOUTME: Supports add, done (record a completion), and list.
package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harperreed/vigil/internal/models"
	"github.com/spf13/cobra"
)

var (
	habitDate string
	habitUser string
)

var habitCmd = &cobra.Command{
	Use:     "habit",
	Aliases: []string{"h"},
	Short:   "Manage habits and record completions",
	Long: `Manage habits and record daily completions.

The current streak counts consecutive days ending at the most recent
completion. The longest streak never goes down. Recording a day twice
changes nothing, and backfilling an older day is allowed.`,
}

var habitAddCmd = &cobra.Command{
	Use:   "add <user-id> <name>",
	Short: "Create a habit for a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		u, err := repo.GetUser(ctx, args[0])
		if err != nil {
			return fmt.Errorf("user not found: %w", err)
		}

		h := models.NewHabit(u.ID, args[1])
		if err := repo.CreateHabit(ctx, h); err != nil {
			return fmt.Errorf("failed to create habit: %w", err)
		}

		color.Green("✓ Added habit %s for %s", h.Name, u.DisplayName())
		fmt.Printf("  %s\n", color.New(color.Faint).Sprint(shortID(h.ID)))
		return nil
	},
}

var habitDoneCmd = &cobra.Command{
	Use:   "done <habit-id>",
	Short: "Mark a habit done for a day",
	Long: `Mark a habit done for a day (default today).

Examples:
  vigil habit done abc123
  vigil habit done abc123 --date yesterday
  vigil habit done abc123 --date 2024-01-05`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDay(habitDate)
		if err != nil {
			return err
		}

		h, err := eng.RecordHabitCompletion(context.Background(), args[0], day)
		if err != nil {
			return fmt.Errorf("failed to record completion: %w", err)
		}

		color.Green("✓ %s done on %s", h.Name, models.FormatDate(day))
		fmt.Printf("  streak %d, best %d\n", h.CurrentStreak, h.LongestStreak)
		return nil
	},
}

var habitListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List habits with their streaks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		var userID *uuid.UUID
		if habitUser != "" {
			u, err := repo.GetUser(ctx, habitUser)
			if err != nil {
				return fmt.Errorf("user not found: %w", err)
			}
			userID = &u.ID
		}

		habits, err := repo.ListHabits(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list habits: %w", err)
		}

		if len(habits) == 0 {
			fmt.Println("No habits found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, h := range habits {
			last := "never"
			if len(h.Completions) > 0 {
				last = models.FormatDate(h.LastCompletion())
			}
			fmt.Printf("%s %s streak %-3d best %-3d %s\n",
				faint.Sprint(shortID(h.ID)),
				padRight(truncate(h.Name, 24), 24),
				h.CurrentStreak,
				h.LongestStreak,
				faint.Sprint("last "+last))
		}
		return nil
	},
}

func init() {
	habitDoneCmd.Flags().StringVarP(&habitDate, "date", "d", "", "day completed (YYYY-MM-DD, today, yesterday)")
	habitListCmd.Flags().StringVarP(&habitUser, "user", "u", "", "only habits for this user")

	habitCmd.AddCommand(habitAddCmd, habitDoneCmd, habitListCmd)
	rootCmd.AddCommand(habitCmd)
}
