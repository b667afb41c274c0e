package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"kanban-cli/internal/chat"

	"github.com/fatih/color"
)

// Printer writes colored status lines and chat transcript entries for line-mode
// commands. NO_COLOR disables colors.
type Printer struct {
	out io.Writer
	err io.Writer

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	cyan   *color.Color
	faint  *color.Color
	bold   *color.Color
}

func New(out, errOut io.Writer) *Printer {
	p := &Printer{
		out:    out,
		err:    errOut,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed, color.Bold),
		cyan:   color.New(color.FgCyan),
		faint:  color.New(color.Faint),
		bold:   color.New(color.Bold),
	}
	if os.Getenv("NO_COLOR") != "" {
		p.DisableColor()
	}
	return p
}

// DisableColor turns off escape sequences for this printer only.
func (p *Printer) DisableColor() {
	for _, c := range []*color.Color{p.green, p.yellow, p.red, p.cyan, p.faint, p.bold} {
		c.DisableColor()
	}
}

// EnableColor forces escape sequences, even when out is not a terminal.
func (p *Printer) EnableColor() {
	for _, c := range []*color.Color{p.green, p.yellow, p.red, p.cyan, p.faint, p.bold} {
		c.EnableColor()
	}
}

func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	p.green.Fprintln(p.out, msg)
}

func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

func (p *Printer) Warning(format string, a ...any) {
	p.yellow.Fprintln(p.out, "! "+fmt.Sprintf(format, a...))
}

func (p *Printer) Step(format string, a ...any) {
	p.cyan.Fprintln(p.out, "→ "+fmt.Sprintf(format, a...))
}

// Error prints title and explanation to the error writer and returns an error carrying
// the title, for cobra to exit with.
func (p *Printer) Error(title, explanation string) error {
	p.red.Fprintln(p.err, title)
	if explanation != "" {
		fmt.Fprintln(p.err, explanation)
	}
	return fmt.Errorf("%s", title)
}

// Ask prints a yes/no question; the default answer is no.
func (p *Printer) Ask(question string) {
	p.yellow.Fprintf(p.out, "? %s ", question)
	p.faint.Fprintln(p.out, "[y/N]")
}

// Message prints one transcript entry.
func (p *Printer) Message(m chat.Message) {
	switch {
	case m.Type == chat.KindConfirmation:
		p.Ask(m.Content)
	case m.Role == chat.RoleUser:
		p.bold.Fprintln(p.out, "> "+m.Content)
	case m.Role == chat.RoleAssistant:
		p.cyan.Fprintln(p.out, m.Content)
	case strings.HasPrefix(m.Content, "Failed: "), strings.HasPrefix(m.Content, "Error"):
		p.red.Fprintln(p.out, m.Content)
	default:
		p.green.Fprintln(p.out, m.Content)
	}
}
