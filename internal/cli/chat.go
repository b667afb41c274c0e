package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"kanban-cli/internal/assist"
	"kanban-cli/internal/bridge"
	"kanban-cli/internal/chat"
	"kanban-cli/internal/model"
	"kanban-cli/internal/printer"

	"github.com/spf13/cobra"
)

// lineNav tracks the active board for line-mode chat.
type lineNav struct {
	mu    sync.Mutex
	board model.ID
}

func (n *lineNav) OpenBoard(id model.ID, _ string) {
	n.mu.Lock()
	n.board = id
	n.mu.Unlock()
}

func (n *lineNav) Home() {
	n.mu.Lock()
	n.board = ""
	n.mu.Unlock()
}

func (n *lineNav) context() bridge.Context {
	n.mu.Lock()
	defer n.mu.Unlock()
	return bridge.Context{BoardID: n.board}
}

func newChatCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "chat [<message>...]",
		Short: "Talk to the board assistant",
		Long: "Send one message, or read one message per line from stdin until EOF or \"exit\".\n" +
			"Deletions the assistant asks for are confirmed with y/N unless --yes is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ops := app.ops()
			nav := &lineNav{}
			if app.cfg.Board != "" {
				b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
				if err != nil {
					return writeErr(cmd, err)
				}
				nav.board = b.ID
			}
			br := bridge.New(ops, bridge.Options{Navigator: nav, HighlightDelay: app.cfg.HighlightDelay, Logger: app.log})
			asst := assist.New(app.cfg.AssistURL, app.cfg.RequestTimeout, app.log)
			sess := chat.NewSession(asst, br, chat.Options{Context: nav.context, Logger: app.log})

			c := &chatLoop{sess: sess, p: app.printer(cmd), in: bufio.NewReader(cmd.InOrStdin()), yes: yes}
			if len(args) > 0 {
				c.turn(cmd, strings.Join(args, " "))
				return nil
			}
			for {
				line, err := c.in.ReadString('\n')
				text := strings.TrimSpace(line)
				if text == "exit" || text == "quit" {
					return nil
				}
				if text != "" {
					c.turn(cmd, text)
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return writeErr(cmd, err)
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm every deletion without asking")
	return cmd
}

type chatLoop struct {
	sess *chat.Session
	p    *printer.Printer
	in   *bufio.Reader
	yes  bool
	seen int
}

// turn sends one message, prints the new transcript entries and answers every
// confirmation it raises before returning.
func (c *chatLoop) turn(cmd *cobra.Command, text string) {
	c.sess.Send(cmd.Context(), text)
	c.flush()
	for c.sess.State() == chat.AwaitingConfirmation {
		if c.yes || readYes(c.in) {
			_ = c.sess.Accept(cmd.Context())
		} else {
			_ = c.sess.Reject()
		}
		c.flush()
	}
}

func (c *chatLoop) flush() {
	msgs := c.sess.Messages()
	for _, m := range msgs[c.seen:] {
		c.p.Message(m)
	}
	c.seen = len(msgs)
}

func newIntentCmd(app *App) *cobra.Command {
	var rawArgs string
	var yes bool

	cmd := &cobra.Command{
		Use:   "intent [<name>]",
		Short: "Run one assistant intent directly (lists intents without a name)",
		Example: strings.TrimSpace(`
  kanban intent
  kanban --board 1 intent bridge_create_task --args '{"title":"Ship it","column_name":"Todo"}'
  kanban --board 1 intent bridge_delete_task --args '{"task_title":"Ship it"}' --yes
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, bridge.Intents())
			}
			name := args[0]
			in, err := bridge.ParseArgs(rawArgs)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("--args: %w", err))
			}
			ops := app.ops()
			nav := &lineNav{}
			if app.cfg.Board != "" {
				b, err := resolveBoard(cmd.Context(), ops, app.cfg.Board)
				if err != nil {
					return writeErr(cmd, err)
				}
				nav.board = b.ID
			}
			if bridge.IsDestructive(name) {
				if err := confirm(cmd, fmt.Sprintf("Are you sure you want to delete %s?", in.Subject()), yes); err != nil {
					return writeErr(cmd, err)
				}
			}
			br := bridge.New(ops, bridge.Options{Navigator: nav, HighlightDelay: app.cfg.HighlightDelay, Logger: app.log})
			res := br.Execute(cmd.Context(), name, in, nav.context())
			if err := writeOut(cmd, app, res); err != nil {
				return err
			}
			if !res.OK {
				return errors.New(res.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rawArgs, "args", "", "Intent arguments as a JSON object")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt for deletions")
	return cmd
}
