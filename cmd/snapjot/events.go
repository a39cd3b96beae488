package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/snapjot/snapjot/internal/cli"
	"github.com/snapjot/snapjot/internal/model"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Work with captured events",
	}

	cmd.AddCommand(eventsRmCmd())

	return cmd
}

func eventsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [event-id]",
		Short: "Delete an event and its calendar copy",
		Long: `Delete a locally stored event. When the event was synced, the external
calendar copy is removed too; a failed remote delete is logged and does
not block the local deletion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			deleter, store, err := initDeleter(ctx, slog.Default())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := deleter.Delete(ctx, currentUserID(), model.KindEvent, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Event deleted"))
			return nil
		},
	}
}
