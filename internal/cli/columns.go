package cli

import (
	"fmt"

	"kanban-cli/internal/model"

	"github.com/spf13/cobra"
)

func newColumnsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "columns",
		Aliases: []string{"column"},
		Short:   "Column commands (on --board)",
	}
	cmd.AddCommand(newColumnsAddCmd(app))
	cmd.AddCommand(newColumnsRenameCmd(app))
	cmd.AddCommand(newColumnsDeleteCmd(app))
	return cmd
}

func newColumnsAddCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a column to the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
			if err != nil {
				return writeErr(cmd, err)
			}
			op, err := ops.CreateColumn(b.ID, name)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			return writeOut(cmd, app, model.Column{ID: op.CreatedID(), Name: name, BoardID: b.ID})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Column name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newColumnsRenameCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <column>",
		Short: "Rename a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := resolveColumn(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			op, err := ops.RenameColumn(b.ID, c.ID, name)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			return writeOut(cmd, app, model.Column{ID: c.ID, Name: name, BoardID: b.ID})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New column name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newColumnsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <column>",
		Aliases: []string{"delete"},
		Short:   "Delete a column and its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := resolveColumn(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := confirm(cmd, fmt.Sprintf("Are you sure you want to delete %s?", c.Name), yes); err != nil {
				return writeErr(cmd, err)
			}
			op, err := ops.DeleteColumn(b.ID, c.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"deleted": c.ID})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
