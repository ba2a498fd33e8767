package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"autoplan/internal/app"
	"autoplan/internal/planner"
	"autoplan/internal/store"
)

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and edit the task store",
	}
	cmd.AddCommand(tasksListCmd())
	cmd.AddCommand(tasksAddCmd())
	cmd.AddCommand(tasksDoneCmd())
	return cmd
}

func tasksListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cfgPath, logger())
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.Store().Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range snap.SortedTasks() {
				if t.Completed && !all {
					continue
				}
				line := fmt.Sprintf("%s  %s  %s spent %s",
					shortID(t.ID), t.Title, t.Estimate, t.Spent)
				if tags := snap.EffectiveTagNames(t); len(tags) > 0 {
					line += "  #" + strings.Join(tags, " #")
				}
				if due, ok := planner.ResolveDeadline(t, time.Local); ok {
					line += "  due " + due.Format("2006-01-02")
				}
				if t.Completed {
					line += "  (done)"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include completed tasks")
	return cmd
}

func tasksAddCmd() *cobra.Command {
	var (
		estimate string
		project  string
		tags     []string
		due      string
		notes    string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")

			a, err := app.New(cfgPath, logger())
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			est, err := time.ParseDuration(estimate)
			if err != nil {
				return fmt.Errorf("invalid --estimate %q: %w", estimate, err)
			}

			f := store.TaskFields{Title: &title, Estimate: &est}
			if notes != "" {
				f.Notes = &notes
			}
			if project != "" {
				p, err := a.Store().EnsureProject(ctx, project)
				if err != nil {
					return err
				}
				f.ProjectID = &p.ID
			}
			if len(tags) > 0 {
				var ids []string
				for _, name := range tags {
					tg, err := a.Store().EnsureTag(ctx, name)
					if err != nil {
						return err
					}
					ids = append(ids, tg.ID)
				}
				f.TagIDs = &ids
			}
			if due != "" {
				d, ok := planner.ParseDeadlineDate(due, time.Local)
				if !ok {
					return fmt.Errorf("invalid --due %q", due)
				}
				f.Due = &d
			}

			id, err := a.Store().CreateTask(ctx, f)
			if err != nil {
				return err
			}
			fmt.Printf("added %s\n", shortID(id))
			return nil
		},
	}

	cmd.Flags().StringVar(&estimate, "estimate", "1h", "estimated effort (Go duration, e.g. 4h30m)")
	cmd.Flags().StringVar(&project, "project", "", "project title")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag name (repeatable)")
	cmd.Flags().StringVar(&due, "due", "", "due date (e.g. 2026-09-15)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	return cmd
}

func tasksDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id-prefix>",
		Short: "Mark a task complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cfgPath, logger())
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			snap, err := a.Store().Snapshot(ctx)
			if err != nil {
				return err
			}
			var match *planner.Task
			for _, t := range snap.SortedTasks() {
				if strings.HasPrefix(t.ID, args[0]) {
					if match != nil {
						return fmt.Errorf("id prefix %q is ambiguous", args[0])
					}
					match = t
				}
			}
			if match == nil {
				return fmt.Errorf("no task with id prefix %q", args[0])
			}

			done := true
			if err := a.Store().UpdateTask(ctx, match.ID, store.TaskFields{Completed: &done}); err != nil {
				return err
			}
			fmt.Printf("done %s  %s\n", shortID(match.ID), match.Title)
			return nil
		},
	}
}

// shortID trims an id for display. Hand-entered ids may be shorter than a
// uuid, so never assume the length.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
