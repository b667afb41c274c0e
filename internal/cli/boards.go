package cli

import (
	"fmt"

	"kanban-cli/internal/model"

	"github.com/spf13/cobra"
)

func newBoardsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "boards",
		Aliases: []string{"board"},
		Short:   "Board commands",
	}
	cmd.AddCommand(newBoardsListCmd(app))
	cmd.AddCommand(newBoardsShowCmd(app))
	cmd.AddCommand(newBoardsCreateCmd(app))
	cmd.AddCommand(newBoardsRenameCmd(app))
	cmd.AddCommand(newBoardsDeleteCmd(app))
	return cmd
}

func newBoardsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := app.ops().LoadBoards(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if bs == nil {
				bs = []model.Board{}
			}
			return writeOut(cmd, app, boardList(bs))
		},
	}
}

func newBoardsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [<board>]",
		Short: "Show a board with its columns and tasks (default: --board)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := resolveBoard(cmd.Context(), app.ops(), boardArg(app, args))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, boardView(b))
		},
	}
}

func newBoardsCreateCmd(app *App) *cobra.Command {
	var name string
	var columns []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			if _, err := ops.LoadBoards(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			op, err := ops.CreateBoard(name, columns)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			b, err := ops.LoadBoard(cmd.Context(), op.CreatedID())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, boardView(b))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Board name")
	cmd.Flags().StringArrayVar(&columns, "column", nil, "Column name (repeatable; default: Todo, Done)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBoardsRenameCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <board>",
		Short: "Rename a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			op, err := ops.RenameBoard(b.ID, name)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			b.Name = name
			return writeOut(cmd, app, model.Board{ID: b.ID, Name: b.Name})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New board name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBoardsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <board>",
		Aliases: []string{"delete"},
		Short:   "Delete a board with all of its columns and tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			b, err := resolveBoard(cmd.Context(), ops, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := confirm(cmd, fmt.Sprintf("Are you sure you want to delete %s?", b.Name), yes); err != nil {
				return writeErr(cmd, err)
			}
			op, err := ops.DeleteBoard(b.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mustWait(cmd, op); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"deleted": b.ID})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
