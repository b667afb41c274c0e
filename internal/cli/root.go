package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"kanban-cli/internal/api"
	"kanban-cli/internal/config"
	"kanban-cli/internal/format"
	"kanban-cli/internal/logging"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/printer"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	APIURL     string
	Board      string
	PrettyJSON bool
	Format     string
	Debug      bool
	LogFile    string

	cfg     *config.Config
	log     *log.Logger
	logFile *os.File
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "kanban",
		Short:        "Kanban board client (TUI + scriptable CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive board
  kanban

  # Scriptable commands
  kanban boards list
  kanban tasks move "Build UI for search" --column Doing

  # Ask the assistant
  kanban chat "add a task called Ship it to Todo"

  # Direct board lookup (shortcut for: kanban boards show <board-id>)
  kanban 1
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logFile != nil {
			return app.logFile.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("KANBAN_CONFIG", ""), "Path to config.yaml (default: user config dir)")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Board API base URL (overrides config and KANBAN_API_URL)")
	cmd.PersistentFlags().StringVar(&app.Board, "board", "", "Active board id or name (overrides config and KANBAN_BOARD)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("KANBAN_FORMAT", "json"), "Output format (json|text)")
	cmd.PersistentFlags().BoolVar(&app.Debug, "debug", false, "Debug logging")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("KANBAN_LOG_FILE", ""), "Append logs to this file instead of stderr")

	cmd.AddCommand(newBoardsCmd(app))
	cmd.AddCommand(newColumnsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newSubtasksCmd(app))
	cmd.AddCommand(newChatCmd(app))
	cmd.AddCommand(newIntentCmd(app))
	cmd.AddCommand(newResetCmd(app))
	cmd.AddCommand(newDevServerCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// setup loads config and builds the logger once per invocation. Flags win over the
// environment, which wins over the file.
func (app *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return writeErr(cmd, err)
	}
	if app.APIURL != "" {
		cfg.SetAPIURL(app.APIURL)
		if err := cfg.Validate(); err != nil {
			return writeErr(cmd, err)
		}
	}
	if app.Board != "" {
		cfg.Board = app.Board
	}
	if app.Debug {
		cfg.LogLevel = "debug"
	}
	app.cfg = cfg

	var out io.Writer = cmd.ErrOrStderr()
	if app.LogFile != "" {
		f, err := os.OpenFile(app.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return writeErr(cmd, fmt.Errorf("open log file: %w", err))
		}
		app.logFile = f
		out = f
	}
	app.log = logging.New(cfg.LogLevel, cfg.LogFormat, out)
	return nil
}

func (app *App) ops() *mutate.Ops {
	return app.opsWith(app.log)
}

func (app *App) opsWith(logger *log.Logger) *mutate.Ops {
	return mutate.NewOps(api.New(app.cfg.APIURL, app.cfg.RequestTimeout, logger), nil, nil, logger)
}

func (app *App) printer(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

type envelope struct {
	Data any `json:"data"`
}

// writeOut writes v as {"data": v}. With --format text, values that know how to
// render themselves skip the envelope.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	if app.Format == "text" {
		if t, ok := v.(format.Texter); ok {
			return format.Write(cmd.OutOrStdout(), t, app.Format, app.PrettyJSON)
		}
	}
	return format.Write(cmd.OutOrStdout(), envelope{Data: v}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

// mustWait settles an op and reports the server error, if any.
func mustWait(cmd *cobra.Command, op *mutate.Op) error {
	if err := op.Wait(cmd.Context()); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func boardArg(app *App, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return app.cfg.Board
}

