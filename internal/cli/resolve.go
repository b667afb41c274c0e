package cli

import (
	"context"
	"strings"

	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/store"
)

func sameRef(id model.ID, name, ref string) bool {
	ref = strings.TrimSpace(ref)
	return id.String() == ref || strings.EqualFold(strings.TrimSpace(name), ref)
}

// resolveBoard accepts a board id or a case-insensitive name and returns the loaded
// tree (now also in ops.Boards).
func resolveBoard(ctx context.Context, ops *mutate.Ops, ref string) (model.Board, error) {
	if strings.TrimSpace(ref) == "" {
		return model.Board{}, errNoBoard
	}
	bs, err := ops.LoadBoards(ctx)
	if err != nil {
		return model.Board{}, err
	}
	for _, b := range bs {
		if sameRef(b.ID, b.Name, ref) {
			return ops.LoadBoard(ctx, b.ID)
		}
	}
	return model.Board{}, errNotFound("board", ref)
}

func resolveColumn(b model.Board, ref string) (model.Column, error) {
	for _, c := range b.Columns {
		if sameRef(c.ID, c.Name, ref) {
			return c, nil
		}
	}
	return model.Column{}, errNotFound("column", ref)
}

// resolveTask searches columns left to right, each in display order.
func resolveTask(b model.Board, ref string) (model.Task, error) {
	for _, c := range b.Columns {
		for _, t := range store.OrderedTasks(c) {
			if sameRef(t.ID, t.Title, ref) {
				return t, nil
			}
		}
	}
	return model.Task{}, errNotFound("task", ref)
}

func resolveSubtask(b model.Board, ref string) (model.Subtask, model.Task, error) {
	for _, c := range b.Columns {
		for _, t := range store.OrderedTasks(c) {
			for _, s := range t.Subtasks {
				if sameRef(s.ID, s.Title, ref) {
					return s, t, nil
				}
			}
		}
	}
	return model.Subtask{}, model.Task{}, errNotFound("subtask", ref)
}
