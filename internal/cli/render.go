package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"kanban-cli/internal/model"
	"kanban-cli/internal/printer"
	"kanban-cli/internal/store"

	"github.com/spf13/cobra"
)

type boardList []model.Board

func (l boardList) Text() string {
	var sb strings.Builder
	for _, b := range l {
		fmt.Fprintf(&sb, "%s\t%s\n", b.ID, b.Name)
	}
	return sb.String()
}

type boardView model.Board

func (v boardView) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", v.Name, v.ID)
	for _, c := range v.Columns {
		fmt.Fprintf(&sb, "\n%s (%d)\n", c.Name, len(c.Tasks))
		for _, t := range store.OrderedTasks(c) {
			done, total := t.CompletedSubtasks()
			if total > 0 {
				fmt.Fprintf(&sb, "  - %s [%d/%d]\n", t.Title, done, total)
			} else {
				fmt.Fprintf(&sb, "  - %s\n", t.Title)
			}
		}
	}
	return sb.String()
}

type taskView model.Task

func (v taskView) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", v.Title, v.ID)
	if d := strings.TrimSpace(v.Description); d != "" {
		fmt.Fprintf(&sb, "\n%s\n", d)
	}
	if len(v.Subtasks) > 0 {
		sb.WriteString("\n")
	}
	for _, s := range v.Subtasks {
		mark := " "
		if s.IsCompleted {
			mark = "x"
		}
		fmt.Fprintf(&sb, "  [%s] %s\n", mark, s.Title)
	}
	return sb.String()
}

// confirm asks a yes/no question on stderr, keeping stdout for the result, and reads
// the answer from stdin. yes skips the question.
func confirm(cmd *cobra.Command, question string, yes bool) error {
	if yes {
		return nil
	}
	printer.New(cmd.ErrOrStderr(), cmd.ErrOrStderr()).Ask(question)
	if !readYes(bufio.NewReader(cmd.InOrStdin())) {
		return errDeclined
	}
	return nil
}

func readYes(r *bufio.Reader) bool {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
