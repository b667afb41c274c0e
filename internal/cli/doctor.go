package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kanban-cli/internal/config"

	"github.com/spf13/cobra"
)

var errDoctorIssuesFound = errors.New("doctor found problems")

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

type doctorReport struct {
	Checks []doctorCheck `json:"checks"`
}

func (r doctorReport) HasErrors() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return true
		}
	}
	return false
}

func (r doctorReport) Text() string {
	var sb strings.Builder
	for _, c := range r.Checks {
		mark := "ok  "
		if !c.OK {
			mark = "FAIL"
		}
		fmt.Fprintf(&sb, "%s %-8s %s\n", mark, c.Name, c.Detail)
	}
	return sb.String()
}

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the config, the board API and the selected board",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report doctorReport
			add := func(name string, err error, detail string) {
				c := doctorCheck{Name: name, OK: err == nil, Detail: detail}
				if err != nil {
					c.Detail = err.Error()
				}
				report.Checks = append(report.Checks, c)
			}

			path := app.ConfigPath
			if path == "" {
				path, _ = config.Path()
			}
			add("config", nil, path)

			ops := app.ops()
			start := time.Now()
			bs, err := ops.LoadBoards(cmd.Context())
			add("api", err, fmt.Sprintf("%s: %d boards in %s", app.cfg.APIURL, len(bs), time.Since(start).Round(time.Millisecond)))

			if err == nil && app.cfg.Board != "" {
				b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
				add("board", err, fmt.Sprintf("%s (%s): %d columns", b.Name, b.ID, len(b.Columns)))
			}
			add("assist", nil, app.cfg.AssistURL)

			if err := writeOut(cmd, app, report); err != nil {
				return err
			}
			if fail && report.HasErrors() {
				return errDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if a check fails")
	return cmd
}
