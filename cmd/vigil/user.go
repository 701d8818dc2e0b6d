// ABOUTME: CLI commands for managing users.
// ABOUTME: Supports add, list, and update of risk level and active status.
package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/vigil/internal/models"
	"github.com/spf13/cobra"
)

var (
	userRisk     string
	userInactive bool
	userActive   bool
)

var userCmd = &cobra.Command{
	Use:     "user",
	Aliases: []string{"u"},
	Short:   "Manage users",
	Long: `Manage the users whose moods and habits vigil tracks.

Risk levels: low, medium, high, critical. The risk monitor only
evaluates active users at high or critical risk unless told otherwise.`,
}

var userAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a user",
	Long: `Add a user.

Examples:
  vigil user add "Riley"
  vigil user add "Sam" --risk high`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := models.ParseRiskLevel(userRisk)
		if err != nil {
			return err
		}

		u := models.NewUser(args[0]).WithRiskLevel(level)
		if err := repo.CreateUser(context.Background(), u); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		color.Green("✓ Added user %s", u.Name)
		fmt.Printf("  %s risk=%s\n", color.New(color.Faint).Sprint(shortID(u.ID)), u.RiskLevel)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := repo.ListUsers(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, u := range users {
			status := ""
			if !u.Active {
				status = faint.Sprint(" (inactive)")
			}
			fmt.Printf("%s %s %s%s\n",
				faint.Sprint(shortID(u.ID)),
				padRight(u.Name, 20),
				riskColor(u.RiskLevel).Sprint(u.RiskLevel),
				status)
		}
		return nil
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a user's risk level or active status",
	Long: `Change a user's risk level or active status.

Examples:
  vigil user update abc123 --risk critical
  vigil user update abc123 --inactive
  vigil user update abc123 --active`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		u, err := repo.GetUser(ctx, args[0])
		if err != nil {
			return fmt.Errorf("user not found: %w", err)
		}

		if cmd.Flags().Changed("risk") {
			level, err := models.ParseRiskLevel(userRisk)
			if err != nil {
				return err
			}
			u.RiskLevel = level
		}
		if userInactive && userActive {
			return fmt.Errorf("--active and --inactive are mutually exclusive")
		}
		if userInactive {
			u.Active = false
		}
		if userActive {
			u.Active = true
		}

		if err := repo.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		color.Green("✓ Updated %s", u.DisplayName())
		return nil
	},
}

func riskColor(l models.RiskLevel) *color.Color {
	switch l {
	case models.RiskCritical:
		return color.New(color.FgRed, color.Bold)
	case models.RiskHigh:
		return color.New(color.FgRed)
	case models.RiskMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func init() {
	userAddCmd.Flags().StringVarP(&userRisk, "risk", "r", "low", "baseline risk level")
	userUpdateCmd.Flags().StringVarP(&userRisk, "risk", "r", "low", "baseline risk level")
	userUpdateCmd.Flags().BoolVar(&userInactive, "inactive", false, "mark the user inactive")
	userUpdateCmd.Flags().BoolVar(&userActive, "active", false, "mark the user active")

	userCmd.AddCommand(userAddCmd, userListCmd, userUpdateCmd)
	rootCmd.AddCommand(userCmd)
}
