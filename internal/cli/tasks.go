package cli

import (
	"fmt"

	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/store"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Task commands (on --board)",
	}
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	cmd.AddCommand(newTasksEditCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task>",
		Short: "Show a task by id or title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := resolveBoard(cmd.Context(), app.ops(), app.cfg.Board)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := resolveTask(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, taskView(t))
		},
	}
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var (
		title       string
		description string
		column      string
		subtasks    []string
		bottom      bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task (top of the column unless --bottom)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := resolveColumn(b, column)
			if err != nil {
				return writeErr(cmd, err)
			}
			in := model.CreateTaskInput{Title: title, Description: description, ColumnID: c.ID}
			for _, s := range subtasks {
				in.Subtasks = append(in.Subtasks, model.NewSubtask{Title: s})
			}
			place := mutate.PlaceTop
			if bottom {
				place = mutate.PlaceBottom
			}
			op, err := ops.CreateTask(b.ID, in, place)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			fresh, err := ops.LoadBoard(cmd.Context(), b.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := resolveTask(fresh, op.CreatedID().String())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, taskView(t))
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&column, "column", "", "Column id or name")
	cmd.Flags().StringArrayVar(&subtasks, "subtask", nil, "Subtask title (repeatable)")
	cmd.Flags().BoolVar(&bottom, "bottom", false, "Append to the bottom of the column")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var column string
	var index int

	cmd := &cobra.Command{
		Use:   "move <task>",
		Short: "Move a task within or across columns",
		Long: "Move a task to --index (0 = top) of --column. Without --column the task stays in its column;\n" +
			"without --index it goes to the bottom.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := resolveTask(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			dst := t.ColumnID
			if column != "" {
				c, err := resolveColumn(b, column)
				if err != nil {
					return writeErr(cmd, err)
				}
				dst = c.ID
			}
			to := index
			if to < 0 {
				ci, _ := store.FindColumn(&b, dst)
				to = len(b.Columns[ci].Tasks)
			}
			op, err := ops.MoveTask(b.ID, t.ID, dst, to)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			moved, _ := ops.Boards.Get(store.BoardKey(b.ID))
			out, err := resolveTask(moved, t.ID.String())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": out.ID, "column_id": out.ColumnID, "position": out.Position, "noop": op.Noop})
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Destination column id or name (default: current column)")
	cmd.Flags().IntVar(&index, "index", -1, "Destination index in display order (default: bottom)")
	return cmd
}

func newTasksEditCmd(app *App) *cobra.Command {
	var title, description, column string

	cmd := &cobra.Command{
		Use:   "edit <task>",
		Short: "Edit a task's title, description or column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := resolveTask(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			var ch mutate.TaskChanges
			if cmd.Flags().Changed("title") {
				ch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				ch.Description = &description
			}
			if column != "" {
				c, err := resolveColumn(b, column)
				if err != nil {
					return writeErr(cmd, err)
				}
				ch.ColumnID = &c.ID
			}
			op, err := ops.UpdateTask(b.ID, t.ID, ch)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			cur, _ := ops.Boards.Get(store.BoardKey(b.ID))
			out, err := resolveTask(cur, t.ID.String())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, taskView(out))
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&column, "column", "", "Move to the bottom of this column")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <task>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := resolveTask(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := confirm(cmd, fmt.Sprintf("Are you sure you want to delete %s?", t.Title), yes); err != nil {
				return writeErr(cmd, err)
			}
			op, err := ops.DeleteTask(b.ID, t.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"deleted": t.ID})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
