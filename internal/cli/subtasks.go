package cli

import (
	"kanban-cli/internal/model"
	"kanban-cli/internal/store"

	"github.com/spf13/cobra"
)

func newSubtasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subtasks",
		Aliases: []string{"subtask"},
		Short:   "Subtask commands (on --board)",
	}
	cmd.AddCommand(newSubtasksToggleCmd(app))
	cmd.AddCommand(newSubtasksAddCmd(app))
	cmd.AddCommand(newSubtasksDeleteCmd(app))
	return cmd
}

func newSubtasksToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <subtask>",
		Short: "Flip a subtask between done and not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, _, err := resolveSubtask(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			op, err := ops.ToggleSubtask(b.ID, s.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			cur, _ := ops.Boards.Get(store.BoardKey(b.ID))
			after, _, _ := store.FindSubtask(&cur, s.ID)
			return writeOut(cmd, app, after)
		},
	}
}

func newSubtasksAddCmd(app *App) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "add <task>",
		Short: "Add a subtask to a task",
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
			op, err := ops.AddSubtask(b.ID, t.ID, title)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			return writeOut(cmd, app, model.Subtask{ID: op.CreatedID(), Title: title, TaskID: t.ID})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Subtask title")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newSubtasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <subtask>",
		Aliases: []string{"delete"},
		Short:   "Delete a subtask",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, _, err := resolveSubtask(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			op, err := ops.DeleteSubtask(b.ID, s.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"deleted": s.ID})
		},
	}
}
