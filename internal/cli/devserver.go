package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"kanban-cli/internal/devserver"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newDevServerCmd(app *App) *cobra.Command {
	var addr, dbPath string
	var reset bool

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run the local reference board API (SQLite-backed, seeded on first start)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.cfg.DevServer.Addr
			}
			if dbPath == "" {
				dbPath = app.cfg.DevServer.DBPath
			}

			ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := devserver.Open(ctx, dbPath)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = db.Close() }()

			if reset {
				err = db.Reset(ctx)
			} else {
				err = db.SeedIfEmpty(ctx)
			}
			if err != nil {
				return writeErr(cmd, err)
			}

			e := devserver.New(db, app.log)
			errCh := make(chan error, 1)
			go func() { errCh <- e.Start(addr) }()
			app.log.WithFields(log.Fields{"addr": addr, "db": dbPath}).Info("devserver listening")
			app.printer(cmd).Step("Board API on %s (db %s); Ctrl-C to stop", addr, dbPath)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return writeErr(cmd, err)
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: devserver.addr from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file (default: devserver.db_path from config; :memory: for a throwaway)")
	cmd.Flags().BoolVar(&reset, "reset", false, "Restore the seed data before serving")
	return cmd
}
