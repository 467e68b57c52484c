package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smarttask/internal/model"
	"smarttask/internal/query"
)

func newAddCmd() *cobra.Command {
	var (
		description string
		due         string
		priority    string
		allowPast   bool
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			now := app.Clock.Now()
			dueAt, err := parseDue(due, now, app.Engine.Location())
			if err != nil {
				return err
			}
			if !allowPast && !app.Engine.Schedulable(dueAt) {
				return &model.ValidationError{Field: "dueDate", Reason: "must be in the future (use --allow-past to override)"}
			}

			input := model.TaskInput{
				Title:       strings.Join(args, " "),
				Description: description,
				DueDate:     dueAt,
			}
			if priority != "" {
				if input.Priority, err = model.ParsePriority(priority); err != nil {
					return err
				}
			}

			id, err := app.Tasks.CreateTask(cmd.Context(), input)
			if err != nil {
				return fmt.Errorf("create task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&due, "due", "", "due date: YYYY-MM-DD HH:MM, RFC 3339 or +2h")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Low, Medium or High (default Medium)")
	cmd.Flags().BoolVar(&allowPast, "allow-past", false, "accept a due date that already passed")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		sortBy   string
		priority string
		status   string
		text     string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			view, err := buildView(sortBy, priority, status, text)
			if err != nil {
				return err
			}
			tasks, err := app.Tasks.QueryTasks(cmd.Context(), view)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d task(s), %s\n", len(tasks), describeCriteria(view.Criteria, view.Sort))
			renderTaskList(out, tasks, app.Engine)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "date", "date, priority, alphabetical or created")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "only tasks with this priority")
	cmd.Flags().StringVar(&status, "status", "all", "all, open or done")
	cmd.Flags().StringVarP(&text, "query", "q", "", "only tasks whose title or description contains this text")
	return cmd
}

func buildView(sortBy, priority, status, text string) (query.View, error) {
	key, err := query.ParseSortKey(sortBy)
	if err != nil {
		return query.View{}, err
	}
	view := query.View{Sort: key, Criteria: query.Criteria{Text: text}}
	if priority != "" {
		p, err := model.ParsePriority(priority)
		if err != nil {
			return query.View{}, err
		}
		view.Criteria.Priority = &p
	}
	if view.Criteria.Completed, err = parseStatus(status); err != nil {
		return query.View{}, err
	}
	return view, nil
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			id, err := app.Tasks.ResolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			task, err := app.Tasks.GetTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			renderTaskDetail(cmd.OutOrStdout(), *task, app.Engine)
			return nil
		},
	}
}

func newEditCmd() *cobra.Command {
	var title, description, due, priority string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task; omitted flags stay unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			id, err := app.Tasks.ResolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var update model.TaskUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				update.Title = &title
			}
			if flags.Changed("description") {
				update.Description = &description
			}
			if flags.Changed("due") {
				dueAt, err := parseDue(due, app.Clock.Now(), app.Engine.Location())
				if err != nil {
					return err
				}
				update.DueDate = &dueAt
			}
			if flags.Changed("priority") {
				p, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				update.Priority = &p
			}
			if update.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change.")
				return nil
			}

			if err := app.Tasks.UpdateTask(cmd.Context(), id, update); err != nil {
				return fmt.Errorf("update task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", shortID(id))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVar(&due, "due", "", "new due date")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority")
	return cmd
}

// newDoneCmd builds "done" (completed=true) or "reopen" (completed=false).
func newDoneCmd(completed bool) *cobra.Command {
	use, short, verb := "done <id>...", "Mark tasks completed", "Completed"
	if !completed {
		use, short, verb = "reopen <id>...", "Mark tasks not completed", "Reopened"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			for _, raw := range args {
				id, err := app.Tasks.ResolveID(cmd.Context(), raw)
				if err != nil {
					return err
				}
				if err := app.Tasks.SetCompleted(cmd.Context(), id, completed); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s task %s\n", verb, shortID(id))
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete tasks permanently",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			for _, raw := range args {
				// Deleting an unknown id is not an error, so a failed lookup falls
				// through with the raw value.
				id, err := app.Tasks.ResolveID(cmd.Context(), raw)
				if errors.Is(err, model.ErrNotFound) {
					id = raw
				} else if err != nil {
					return err
				}
				if err := app.Tasks.DeleteTask(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", shortID(id))
			}
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Find tasks whose title or description contains text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			tasks, err := app.Tasks.SearchTasks(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			renderTaskList(cmd.OutOrStdout(), tasks, app.Engine)
			return nil
		},
	}
}
