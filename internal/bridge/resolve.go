package bridge

import (
	"fmt"
	"strings"

	"kanban-cli/internal/model"

	"github.com/sahilm/fuzzy"
)

// matchName finds the first name equal to want, ignoring case.
func matchName(want string, names []string) (int, bool) {
	for i, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), want) {
			return i, true
		}
	}
	return -1, false
}

// didYouMean returns " Did you mean 'X'?" for the closest fuzzy match, or "".
func didYouMean(want string, names []string) string {
	if want == "" || len(names) == 0 {
		return ""
	}
	lower := make([]string, len(names))
	for i, n := range names {
		lower[i] = strings.ToLower(n)
	}
	matches := fuzzy.Find(strings.ToLower(want), lower)
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf(" Did you mean '%s'?", names[matches[0].Index])
}

func boardNames(bs []model.Board) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Name
	}
	return out
}

func findBoard(bs []model.Board, name string) (model.Board, bool) {
	i, ok := matchName(name, boardNames(bs))
	if !ok {
		return model.Board{}, false
	}
	return bs[i], true
}

func columnNames(b model.Board) []string {
	out := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		out[i] = c.Name
	}
	return out
}

func findColumn(b model.Board, name string) (model.Column, bool) {
	i, ok := matchName(name, columnNames(b))
	if !ok {
		return model.Column{}, false
	}
	return b.Columns[i], true
}

// findTask scans columns in board order and returns the first task whose title matches.
func findTask(b model.Board, title string) (model.Task, bool) {
	for _, c := range b.Columns {
		for _, t := range c.Tasks {
			if strings.EqualFold(strings.TrimSpace(t.Title), title) {
				return t, true
			}
		}
	}
	return model.Task{}, false
}

func taskTitles(b model.Board) []string {
	var out []string
	for _, c := range b.Columns {
		for _, t := range c.Tasks {
			out = append(out, t.Title)
		}
	}
	return out
}

func findSubtask(t model.Task, title string) (model.Subtask, bool) {
	for _, s := range t.Subtasks {
		if strings.EqualFold(strings.TrimSpace(s.Title), title) {
			return s, true
		}
	}
	return model.Subtask{}, false
}

func subtaskTitles(t model.Task) []string {
	out := make([]string, len(t.Subtasks))
	for i, s := range t.Subtasks {
		out[i] = s.Title
	}
	return out
}
