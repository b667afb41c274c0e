package tui

import (
	"fmt"
	"strings"
	"time"

	"kanban-cli/internal/model"
	"kanban-cli/internal/store"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type columnsSelection struct {
	Col  int
	Item int
	// TaskID is the stable selected task; it wins over Item when the task moves.
	TaskID model.ID
}

type boardColumn struct {
	id    model.ID
	label string
	tasks []model.Task
}

type columnsBoard struct {
	cols []boardColumn
}

// buildColumnsBoard snapshots a board tree in display order.
func buildColumnsBoard(b model.Board) columnsBoard {
	cols := make([]boardColumn, 0, len(b.Columns))
	for _, c := range b.Columns {
		lbl := strings.TrimSpace(c.Name)
		if lbl == "" {
			lbl = "(column)"
		}
		cols = append(cols, boardColumn{id: c.ID, label: lbl, tasks: store.OrderedTasks(c)})
	}
	return columnsBoard{cols: cols}
}

func (b columnsBoard) indexOfTask(id model.ID) (int, int, bool) {
	if id.IsZero() {
		return 0, 0, false
	}
	for ci := range b.cols {
		for ti := range b.cols[ci].tasks {
			if b.cols[ci].tasks[ti].ID == id {
				return ci, ti, true
			}
		}
	}
	return 0, 0, false
}

func (b columnsBoard) clamp(sel columnsSelection) columnsSelection {
	if len(b.cols) == 0 {
		return columnsSelection{Item: -1}
	}
	if ci, ti, ok := b.indexOfTask(sel.TaskID); ok {
		sel.Col, sel.Item = ci, ti
	} else {
		sel.TaskID = ""
	}
	sel.Col = max(0, min(sel.Col, len(b.cols)-1))
	n := len(b.cols[sel.Col].tasks)
	if n == 0 {
		sel.Item = -1
		return sel
	}
	sel.Item = max(0, min(sel.Item, n-1))
	sel.TaskID = b.cols[sel.Col].tasks[sel.Item].ID
	return sel
}

func (b columnsBoard) selectedTask(sel columnsSelection) (model.Task, bool) {
	sel = b.clamp(sel)
	if len(b.cols) == 0 || sel.Item < 0 {
		return model.Task{}, false
	}
	return b.cols[sel.Col].tasks[sel.Item], true
}

// renderColumns draws one pane per column. Tasks in flash are drawn with the
// highlight background until their deadline passes.
func renderColumns(board columnsBoard, sel columnsSelection, flash map[model.ID]time.Time, now time.Time, width, height int) string {
	width = max(width, 0)
	height = max(height, 0)
	n := len(board.cols)
	if n == 0 {
		return normalizePane(styleMuted().Render("This board has no columns. Press a to add one."), width, height)
	}
	sel = board.clamp(sel)

	gap := 2
	avail := max(width-gap*(n-1), n)
	colW := max(avail/n, 12)

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Background(colorControlBg)
	headerSelectedStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)

	itemStyle := lipgloss.NewStyle().Width(colW).Padding(0, 1)
	itemSelectedStyle := itemStyle.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	itemFlashStyle := itemStyle.Background(colorFlashBg)
	innerW := max(colW-2, 0)

	renderCard := func(t model.Task, selected bool) string {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			title = "(untitled)"
		}
		lines := wrapWords(title, innerW)
		titleStyle := lipgloss.NewStyle().Bold(true)
		if selected {
			titleStyle = titleStyle.Foreground(colorSelectedFg).Background(colorSelectedBg)
		}
		content := make([]string, 0, len(lines)+1)
		for _, ln := range lines {
			content = append(content, titleStyle.Render(ln))
		}
		if done, total := t.CompletedSubtasks(); total > 0 {
			meta := fmt.Sprintf("%d of %d subtasks", done, total)
			content = append(content, styleMuted().Render(truncateText(meta, innerW)))
		}
		if store.ProvisionalID(t.ID) {
			content = append(content, styleMuted().Render("saving…"))
		}
		inner := normalizePane(strings.Join(content, "\n"), innerW, 0)
		switch {
		case selected:
			return itemSelectedStyle.Render(inner)
		case now.Before(flash[t.ID]):
			return itemFlashStyle.Render(inner)
		default:
			return itemStyle.Render(inner)
		}
	}

	renderCol := func(ci int, c boardColumn) string {
		hs := headerStyle
		if ci == sel.Col {
			hs = headerSelectedStyle
		}
		lines := []string{hs.Width(colW).Render(truncateText(fmt.Sprintf("%s (%d)", c.label, len(c.tasks)), colW))}
		if len(c.tasks) == 0 {
			lines = append(lines, styleMuted().Render("(empty)"))
			return normalizePane(strings.Join(lines, "\n"), colW, height)
		}
		lines = append(lines, "")
		for i, t := range c.tasks {
			lines = append(lines, strings.Split(renderCard(t, ci == sel.Col && i == sel.Item), "\n")...)
			if i < len(c.tasks)-1 {
				lines = append(lines, styleMuted().Render(" "+strings.Repeat("─", max(colW-2, 0))+" "))
			}
		}
		return normalizePane(strings.Join(lines, "\n"), colW, height)
	}

	out := renderCol(0, board.cols[0])
	sep := strings.Repeat(" ", gap)
	for i := 1; i < n; i++ {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, sep, renderCol(i, board.cols[i]))
	}
	return normalizePane(out, width, height)
}

// wrapWords wraps plain text at maxW cells, hard-cutting words wider than a line.
func wrapWords(s string, maxW int) []string {
	if maxW <= 0 {
		return []string{""}
	}
	var lines []string
	cur := ""
	for _, w := range strings.Fields(s) {
		for xansi.StringWidth(w) > maxW {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			lines = append(lines, xansi.Cut(w, 0, maxW))
			w = xansi.Cut(w, maxW, xansi.StringWidth(w))
		}
		switch {
		case cur == "":
			cur = w
		case xansi.StringWidth(cur)+1+xansi.StringWidth(w) <= maxW:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
		}
	}
	if cur != "" || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}
