package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapjot/snapjot/internal/cli"
	"github.com/snapjot/snapjot/internal/model"
	"github.com/snapjot/snapjot/internal/service"
)

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work with captured tasks",
	}

	cmd.AddCommand(tasksListCmd())
	cmd.AddCommand(tasksDoneCmd())
	cmd.AddCommand(tasksRmCmd())

	return cmd
}

func tasksListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, soonest due first",
		RunE:  runTasksList,
	}

	cmd.Flags().Bool("all", false, "include completed tasks")
	cmd.Flags().Duration("due", 0, "only tasks due within this window (e.g. 72h)")
	cmd.Flags().Int("limit", 50, "maximum number of tasks to show")

	return cmd
}

func runTasksList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	all, _ := cmd.Flags().GetBool("all")
	due, _ := cmd.Flags().GetDuration("due")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := service.TaskFilter{
		PendingOnly: !all,
		Limit:       limit,
	}
	if due > 0 {
		cutoff := time.Now().Add(due)
		filter.DueBefore = &cutoff
	}

	tasks, err := store.ListTasks(ctx, currentUserID(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, cli.SubtleStyle.Render("No tasks found."))
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle("Tasks"))
	for _, task := range tasks {
		fmt.Fprintln(out, formatTaskLine(task))
	}
	return nil
}

func formatTaskLine(task model.Task) string {
	status := "[ ]"
	if task.Completed {
		status = "[x]"
	}

	line := fmt.Sprintf("%s %s", status, task.Title)
	if task.Priority == model.PriorityHigh {
		line = cli.BoldStyle.Render(line)
	}
	if task.DueDate != nil {
		line += cli.SubtleStyle.Render("  due " + task.DueDate.Format("Mon Jan 2 15:04"))
	}
	line += cli.SubtleStyle.Render("  " + task.ID)
	return line
}

func tasksRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [task-id]",
		Short: "Delete a task and its photo attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			deleter, store, err := initDeleter(ctx, slog.Default())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := deleter.Delete(ctx, currentUserID(), model.KindTask, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Task deleted"))
			return nil
		},
	}
}

func tasksDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [task-id]",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CompleteTask(ctx, currentUserID(), args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Task completed"))
			return nil
		},
	}
}
