package cli

import (
	"kanban-cli/internal/assist"
	"kanban-cli/internal/config"
	"kanban-cli/internal/logging"
	"kanban-cli/internal/signal"
	"kanban-cli/internal/tui"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runTUI starts the interactive board. Logs go to --log-file only; stderr belongs to
// the alt screen.
func runTUI(cmd *cobra.Command, app *App) error {
	logger := app.log
	if app.logFile == nil {
		logger = logging.Discard()
	}
	logger.WithFields(log.Fields{"api": app.cfg.APIURL, "board": app.cfg.Board}).Info("starting tui")

	stateDir, err := config.Dir()
	if err != nil {
		logger.WithError(err).Warn("no config dir; tui state will not be saved")
	}
	err = tui.Run(cmd.Context(), tui.Options{
		Ops:            app.opsWith(logger),
		Assistant:      assist.New(app.cfg.AssistURL, app.cfg.RequestTimeout, logger),
		Hub:            signal.NewHub(),
		Board:          app.cfg.Board,
		HighlightDelay: app.cfg.HighlightDelay,
		Logger:         logger,
		StateDir:       stateDir,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
