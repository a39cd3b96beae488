package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapjot/snapjot/internal/calendar"
	"github.com/snapjot/snapjot/internal/cli"
	"github.com/snapjot/snapjot/internal/common"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
		Long:  `Authenticate with external services like Google Calendar.`,
	}

	cmd.AddCommand(authCalendarCmd())

	return cmd
}

func authCalendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "Connect a Google Calendar account",
		Long: `Authorize snapjot to sync events with your Google Calendar.

This command will:
1. Start a local web server for the OAuth callback
2. Open the Google consent page in your browser
3. Save the resulting token for future syncs

Captured events are pushed automatically once a token is saved.`,
		RunE: runAuthCalendar,
	}
}

func runAuthCalendar(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg := calendarOAuthConfig()
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return common.NewUserError(
			"calendar.client_id and calendar.client_secret must be set in config",
			common.ErrMissingConfig)
	}

	token, err := calendar.GetOrCreateToken(ctx, cfg)
	if err != nil {
		return fmt.Errorf("calendar authentication failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
		fmt.Sprintf("Calendar connected. Token saved to %s (expires %s)",
			cfg.TokenFile, token.Expiry.Format("2006-01-02 15:04"))))
	return nil
}
