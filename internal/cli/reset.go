package cli

import (
	"kanban-cli/internal/store"

	"github.com/spf13/cobra"
)

func newResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset-db",
		Short: "Ask the server to restore its seed data (deletes every board)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := confirm(cmd, "Reset the database? This deletes every board and restores the seed data.", yes); err != nil {
				return writeErr(cmd, err)
			}
			ops := app.ops()
			if err := ops.ResetDatabase(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			bs, _ := ops.Index.Get(store.BoardsKey)
			return writeOut(cmd, app, boardList(bs))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
