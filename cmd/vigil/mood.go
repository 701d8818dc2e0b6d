// ABOUTME: CLI commands for mood records and insights.
// ABOUTME: Supports log (one record per user per day), list, and insights.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/vigil/internal/models"
	"github.com/spf13/cobra"
)

var (
	moodDate  string
	moodSince string
	moodUntil string
)

var moodCmd = &cobra.Command{
	Use:     "mood",
	Aliases: []string{"m"},
	Short:   "Log moods and view insights",
	Long: `Log daily mood reflections and view mood insights.

MOODS:

  happy, sad, angry, anxious, calm, excited, neutral

  A user has at most one mood per day; logging again for the same day
  replaces the earlier entry.`,
}

var moodLogCmd = &cobra.Command{
	Use:   "log <user-id> <mood> [reflection...]",
	Short: "Log a user's mood for a day",
	Long: `Log a user's mood for a day (default today).

Examples:
  vigil mood log abc123 calm
  vigil mood log abc123 anxious "big presentation tomorrow"
  vigil mood log abc123 sad --date 2024-01-02`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDay(moodDate)
		if err != nil {
			return err
		}
		content := strings.Join(args[2:], " ")

		rec, err := eng.LogMood(context.Background(), args[0], day, args[1], content)
		if err != nil {
			return fmt.Errorf("failed to log mood: %w", err)
		}

		color.Green("✓ Logged %s for %s", rec.Mood, models.FormatDate(rec.Date))
		return nil
	},
}

var moodListCmd = &cobra.Command{
	Use:     "list <user-id>",
	Aliases: []string{"ls"},
	Short:   "List a user's mood records",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := parseWindow(moodSince, moodUntil)
		if err != nil {
			return err
		}

		ctx := context.Background()
		u, err := repo.GetUser(ctx, args[0])
		if err != nil {
			return fmt.Errorf("user not found: %w", err)
		}

		records, err := repo.FindMoodRecords(ctx, u.ID, window)
		if err != nil {
			return fmt.Errorf("failed to list moods: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No mood records found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, r := range records {
			note := ""
			if r.Content != "" {
				note = faint.Sprintf(" (%s)", truncate(r.Content, 40))
			}
			fmt.Printf("%s %s%s\n", models.FormatDate(r.Date), padRight(string(r.Mood), 8), note)
		}
		return nil
	},
}

var moodInsightsCmd = &cobra.Command{
	Use:   "insights <user-id>",
	Short: "Show mood distribution, dominant mood, and trend",
	Long: `Show mood distribution, dominant mood, trend, and negative count.

Without --since/--until the window is the risk monitor's trailing
window ending today. Ties for the dominant mood go to the mood listed
first in: happy, sad, angry, anxious, calm, excited, neutral.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := parseWindow(moodSince, moodUntil)
		if err != nil {
			return err
		}

		ins, err := eng.ComputeMoodInsights(context.Background(), args[0], window)
		if err != nil {
			return fmt.Errorf("failed to compute insights: %w", err)
		}

		faint := color.New(color.Faint)
		fmt.Printf("%s %s to %s\n", color.New(color.Bold).Sprint("Window"),
			dateOrOpen(ins.Window.Start), dateOrOpen(ins.Window.End))

		if ins.Total == 0 {
			fmt.Println("No mood records in window.")
			return nil
		}

		fmt.Printf("Dominant  %s\n", color.CyanString(string(ins.Dominant)))
		fmt.Printf("Negative  %d of %d\n", ins.NegativeCount, ins.Total)
		fmt.Println()
		for _, m := range models.AllMoods {
			n := ins.Distribution[m]
			if n == 0 {
				continue
			}
			fmt.Printf("  %s %s %d\n", padRight(string(m), 8), strings.Repeat("█", n), n)
		}
		fmt.Println()
		for _, p := range ins.Trend {
			fmt.Printf("  %s %s\n", faint.Sprint(models.FormatDate(p.Date)), p.Mood)
		}
		return nil
	},
}

func dateOrOpen(t time.Time) string {
	if t.IsZero() {
		return "…"
	}
	return models.FormatDate(t)
}

func init() {
	moodLogCmd.Flags().StringVarP(&moodDate, "date", "d", "", "day of the reflection (YYYY-MM-DD, today, yesterday)")
	for _, c := range []*cobra.Command{moodListCmd, moodInsightsCmd} {
		c.Flags().StringVar(&moodSince, "since", "", "first day (YYYY-MM-DD)")
		c.Flags().StringVar(&moodUntil, "until", "", "last day (YYYY-MM-DD)")
	}

	moodCmd.AddCommand(moodLogCmd, moodListCmd, moodInsightsCmd)
	rootCmd.AddCommand(moodCmd)
}
