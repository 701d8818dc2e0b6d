// ABOUTME: CLI commands for the risk monitor and alert review.
// ABOUTME: Supports run (one monitor cycle), alerts (list), and resolve.
package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/vigil/internal/models"
	"github.com/spf13/cobra"
)

var (
	riskLevels  []string
	alertsUser  string
	alertsKind  string
	alertsOpen  bool
	alertsLimit int
	resolveBy   string
)

var riskCmd = &cobra.Command{
	Use:     "risk",
	Aliases: []string{"r"},
	Short:   "Run the risk monitor and review alerts",
	Long: `Run the risk monitor and review the alerts it creates.

RULES:

  multiple_negative_moods  negative moods in the trailing window reach the
                           threshold (default 3 in 7 days), severity high
  inactive_user            no moods in the window (opt-in via
                           "inactivity_alerts" in config), severity medium

  A user never has more than one unresolved alert of the same kind.
  Once resolved, a fresh qualifying condition creates a new alert.`,
}

var riskRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one risk monitor cycle",
	Long: `Evaluate active users at the given risk levels (default from config,
otherwise high and critical) and create any new alerts.

Examples:
  vigil risk run
  vigil risk run --levels medium,high,critical`,
	RunE: func(cmd *cobra.Command, args []string) error {
		levels, err := cfg.GetRiskLevels()
		if err != nil {
			return err
		}
		if len(riskLevels) > 0 {
			levels = nil
			for _, s := range riskLevels {
				l, err := models.ParseRiskLevel(s)
				if err != nil {
					return err
				}
				levels = append(levels, l)
			}
		}

		res, err := eng.RunRiskMonitorCycle(context.Background(), levels...)
		if err != nil {
			return fmt.Errorf("risk cycle failed: %w", err)
		}

		fmt.Printf("Evaluated %d users\n", res.Evaluated)
		for _, a := range res.Created {
			printAlert(a)
		}
		if len(res.Created) == 0 {
			fmt.Println("No new alerts.")
		}
		for _, f := range res.Failures {
			color.Yellow("! %s: %v", shortID(f.UserID), f.Err)
		}
		return nil
	},
}

var riskAlertsCmd = &cobra.Command{
	Use:     "alerts",
	Aliases: []string{"ls"},
	Short:   "List risk alerts",
	Long: `List risk alerts, newest first.

Examples:
  vigil risk alerts --open
  vigil risk alerts --user abc123 --kind multiple_negative_moods`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		filter := models.AlertFilter{Unresolved: alertsOpen, Limit: alertsLimit}

		if alertsUser != "" {
			u, err := repo.GetUser(ctx, alertsUser)
			if err != nil {
				return fmt.Errorf("user not found: %w", err)
			}
			filter.UserID = &u.ID
		}
		if alertsKind != "" {
			k, err := models.ParseAlertKind(alertsKind)
			if err != nil {
				return err
			}
			filter.Kind = &k
		}

		alerts, err := eng.ListAlerts(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list alerts: %w", err)
		}

		if len(alerts) == 0 {
			fmt.Println("No alerts found.")
			return nil
		}
		for _, a := range alerts {
			printAlert(a)
		}
		return nil
	},
}

var riskResolveCmd = &cobra.Command{
	Use:   "resolve <alert-id>",
	Short: "Resolve an open alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := eng.ResolveAlert(context.Background(), args[0], resolveBy)
		if err != nil {
			return fmt.Errorf("failed to resolve alert: %w", err)
		}
		color.Green("✓ Resolved %s by %s", shortID(a.ID), resolveBy)
		return nil
	},
}

func printAlert(a *models.RiskAlert) {
	faint := color.New(color.Faint)
	status := color.New(color.FgRed).Sprint("open    ")
	if a.IsResolved {
		status = faint.Sprint("resolved")
	}
	fmt.Printf("%s %s %s %s %s\n",
		faint.Sprint(shortID(a.ID)),
		status,
		padRight(string(a.Severity), 8),
		padRight(string(a.Kind), 24),
		a.Description)
}

func init() {
	riskRunCmd.Flags().StringSliceVar(&riskLevels, "levels", nil, "candidate risk levels (comma separated)")
	riskAlertsCmd.Flags().StringVarP(&alertsUser, "user", "u", "", "only alerts for this user")
	riskAlertsCmd.Flags().StringVarP(&alertsKind, "kind", "k", "", "only alerts of this kind")
	riskAlertsCmd.Flags().BoolVar(&alertsOpen, "open", false, "only unresolved alerts")
	riskAlertsCmd.Flags().IntVarP(&alertsLimit, "limit", "n", 20, "max results")
	riskResolveCmd.Flags().StringVar(&resolveBy, "by", "", "reviewer resolving the alert")
	_ = riskResolveCmd.MarkFlagRequired("by")

	riskCmd.AddCommand(riskRunCmd, riskAlertsCmd, riskResolveCmd)
	rootCmd.AddCommand(riskCmd)
}
