package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/snapjot/snapjot/internal/cli"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync events with the external calendar",
		Long: `Push locally created events that have not reached the calendar yet,
then pull remote changes and reconcile them into the local database.
Remote edits win only when they are strictly newer than the local copy.`,
		RunE: runSync,
	}

	cmd.Flags().Duration("since", 30*24*time.Hour, "how far back to look for events")

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	interrupt := cli.NewInterruptHandler(cmd.OutOrStdout())
	ctx := interrupt.HandleInterrupts(cmd.Context())

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	bridge := initBridge(ctx, store, logger)
	if !bridge.Authenticated() {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Not authenticated with the calendar. Run: snapjot auth calendar"))
		return nil
	}

	since, _ := cmd.Flags().GetDuration("since")
	userID := currentUserID()
	start := parseSince(since)

	// Push local events that were captured while sync was unavailable.
	events, err := store.ListEventsByRange(ctx, userID, start, start.Add(2*since))
	if err != nil {
		return fmt.Errorf("failed to list local events: %w", err)
	}

	var unsynced int
	for _, event := range events {
		if event.ExternalID == "" {
			unsynced++
		}
	}

	pushed := 0
	if unsynced > 0 {
		bar := progressbar.NewOptions(unsynced,
			progressbar.OptionSetWriter(cmd.OutOrStdout()),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Pushing events...[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(cmd.OutOrStdout())
			}),
		)

		for i := range events {
			event := events[i]
			if event.ExternalID != "" {
				continue
			}
			externalID, pushErr := bridge.Push(ctx, &event)
			if pushErr != nil {
				logger.Warn("failed to push event", "event_id", event.ID, "error", pushErr)
				_ = bar.Add(1)
				continue
			}
			if externalID != "" {
				event.ExternalID = externalID
				if updateErr := store.UpdateEvent(ctx, &event); updateErr != nil {
					logger.Warn("failed to record external id", "event_id", event.ID, "error", updateErr)
				} else {
					pushed++
				}
			}
			_ = bar.Add(1)
		}
	}

	// Pull remote changes.
	applied, err := bridge.Pull(ctx, userID, start)
	if err != nil {
		return fmt.Errorf("failed to pull calendar changes: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
		fmt.Sprintf("Sync complete: %d pushed, %d pulled", pushed, applied)))

	if interrupt.WasInterrupted() {
		return ctx.Err()
	}
	return nil
}
