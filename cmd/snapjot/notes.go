package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snapjot/snapjot/internal/cli"
	"github.com/snapjot/snapjot/internal/model"
	"github.com/snapjot/snapjot/internal/service"
)

func notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Work with captured notes",
	}

	cmd.AddCommand(notesListCmd())
	cmd.AddCommand(notesPinCmd())
	cmd.AddCommand(notesRmCmd())

	return cmd
}

func notesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, pinned first",
		RunE:  runNotesList,
	}

	cmd.Flags().String("tag", "", "only notes carrying this tag")
	cmd.Flags().Bool("pinned", false, "only pinned notes")
	cmd.Flags().Int("limit", 50, "maximum number of notes to show")

	return cmd
}

func runNotesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tag, _ := cmd.Flags().GetString("tag")
	pinned, _ := cmd.Flags().GetBool("pinned")
	limit, _ := cmd.Flags().GetInt("limit")

	notes, err := store.ListNotes(ctx, currentUserID(), service.NoteFilter{
		Tag:        tag,
		PinnedOnly: pinned,
		Limit:      limit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(notes) == 0 {
		fmt.Fprintln(out, cli.SubtleStyle.Render("No notes found."))
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle("Notes"))
	for _, note := range notes {
		title := note.Title
		if note.Pinned {
			title = cli.PinIcon + " " + title
		}
		line := cli.BoldStyle.Render(title)
		if len(note.Tags) > 0 {
			line += cli.SubtleStyle.Render("  #" + strings.Join(note.Tags, " #"))
		}
		line += cli.SubtleStyle.Render("  " + note.ID)
		fmt.Fprintln(out, line)
	}
	return nil
}

func notesRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [note-id]",
		Short: "Delete a note and its photo attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			deleter, store, err := initDeleter(ctx, slog.Default())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := deleter.Delete(ctx, currentUserID(), model.KindNote, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Note deleted"))
			return nil
		},
	}
}

func notesPinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin [note-id]",
		Short: "Pin a note to the top of listings",
		Args:  cobra.ExactArgs(1),
		RunE:  runNotesPin,
	}

	cmd.Flags().Bool("unpin", false, "remove the pin instead")

	return cmd
}

func runNotesPin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	note, err := store.GetNote(ctx, currentUserID(), args[0])
	if err != nil {
		return err
	}

	unpin, _ := cmd.Flags().GetBool("unpin")
	note.Pinned = !unpin
	if err := store.UpdateNote(ctx, note); err != nil {
		return err
	}

	if unpin {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Note unpinned"))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Note pinned"))
	}
	return nil
}
