package store

import (
	"errors"
	"fmt"
	"strings"

	"kanban-cli/internal/model"
)

var (
	ErrNoMove          = errors.New("task is already at that position")
	ErrTaskNotFound    = errors.New("task not found")
	ErrColumnNotFound  = errors.New("column not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
)

// BoardCache holds one column tree per board key.
type BoardCache = Cache[model.Board]

// BoardListCache holds the board summaries under BoardsKey.
type BoardListCache = Cache[[]model.Board]

func NewBoardCache() *BoardCache { return NewCache(CloneBoard) }

func NewBoardListCache() *BoardListCache { return NewCache(CloneBoards) }

// CloneBoard deep-copies a board down to its subtasks.
func CloneBoard(b model.Board) model.Board {
	out := b
	if b.Columns == nil {
		return out
	}
	out.Columns = make([]model.Column, len(b.Columns))
	for i, c := range b.Columns {
		nc := c
		if c.Tasks != nil {
			nc.Tasks = make([]model.Task, len(c.Tasks))
			for j, t := range c.Tasks {
				nt := t
				if t.Subtasks != nil {
					nt.Subtasks = append([]model.Subtask(nil), t.Subtasks...)
				}
				nc.Tasks[j] = nt
			}
		}
		out.Columns[i] = nc
	}
	return out
}

func CloneBoards(bs []model.Board) []model.Board {
	if bs == nil {
		return nil
	}
	out := make([]model.Board, len(bs))
	for i, b := range bs {
		out[i] = CloneBoard(b)
	}
	return out
}

// TaskRef locates a task inside a board tree.
type TaskRef struct {
	Col  int
	Task int
}

func FindColumn(b *model.Board, id model.ID) (int, bool) {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func FindTask(b *model.Board, id model.ID) (TaskRef, bool) {
	for ci := range b.Columns {
		for ti := range b.Columns[ci].Tasks {
			if b.Columns[ci].Tasks[ti].ID == id {
				return TaskRef{Col: ci, Task: ti}, true
			}
		}
	}
	return TaskRef{}, false
}

// MoveTask removes a task from its column, computes its new position from the
// destination neighbors at toIndex (display order, without the moved task) and appends
// it to the destination column with the new owning column id. Both list edits happen
// on the same tree, so ownership never diverges.
//
// ErrNoMove is returned when the task would land where it already is.
func MoveTask(b *model.Board, taskID, toColumnID model.ID, toIndex int) (model.Task, error) {
	ref, ok := FindTask(b, taskID)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	dst, ok := FindColumn(b, toColumnID)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrColumnNotFound, toColumnID)
	}

	src := &b.Columns[ref.Col]
	task := src.Tasks[ref.Task]

	if ref.Col == dst {
		cur := IndexOfTask(*src, taskID)
		clamped := toIndex
		if clamped < 0 {
			clamped = 0
		}
		if clamped > len(src.Tasks)-1 {
			clamped = len(src.Tasks) - 1
		}
		if clamped == cur {
			return task, ErrNoMove
		}
	}

	src.Tasks = append(src.Tasks[:ref.Task:ref.Task], src.Tasks[ref.Task+1:]...)

	col := &b.Columns[dst]
	pos := PositionAt(positions(OrderedTasks(*col)), toIndex)
	if err := ValidPosition(pos); err != nil {
		return model.Task{}, err
	}
	task.Position = pos
	task.ColumnID = col.ID
	col.Tasks = append(col.Tasks, task)
	return task, nil
}

// InsertTask adds a task to the column named by task.ColumnID.
func InsertTask(b *model.Board, task model.Task) error {
	ci, ok := FindColumn(b, task.ColumnID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, task.ColumnID)
	}
	if err := ValidPosition(task.Position); err != nil {
		return err
	}
	b.Columns[ci].Tasks = append(b.Columns[ci].Tasks, task)
	return nil
}

func RemoveTask(b *model.Board, taskID model.ID) (model.Task, error) {
	ref, ok := FindTask(b, taskID)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	col := &b.Columns[ref.Col]
	task := col.Tasks[ref.Task]
	col.Tasks = append(col.Tasks[:ref.Task:ref.Task], col.Tasks[ref.Task+1:]...)
	return task, nil
}

// UpdateTask edits a task in place through fn.
func UpdateTask(b *model.Board, taskID model.ID, fn func(*model.Task)) error {
	ref, ok := FindTask(b, taskID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	fn(&b.Columns[ref.Col].Tasks[ref.Task])
	return nil
}

// SetSubtaskCompleted sets the completion flag and returns the owning task id.
func SetSubtaskCompleted(b *model.Board, subtaskID model.ID, done bool) (model.ID, error) {
	for ci := range b.Columns {
		for ti := range b.Columns[ci].Tasks {
			t := &b.Columns[ci].Tasks[ti]
			for si := range t.Subtasks {
				if t.Subtasks[si].ID == subtaskID {
					t.Subtasks[si].IsCompleted = done
					return t.ID, nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSubtaskNotFound, subtaskID)
}

// FindSubtask returns the subtask and its owning task.
func FindSubtask(b *model.Board, subtaskID model.ID) (model.Subtask, model.Task, bool) {
	for _, c := range b.Columns {
		for _, t := range c.Tasks {
			for _, s := range t.Subtasks {
				if s.ID == subtaskID {
					return s, t, true
				}
			}
		}
	}
	return model.Subtask{}, model.Task{}, false
}

func RemoveSubtask(b *model.Board, subtaskID model.ID) error {
	for ci := range b.Columns {
		for ti := range b.Columns[ci].Tasks {
			t := &b.Columns[ci].Tasks[ti]
			for si := range t.Subtasks {
				if t.Subtasks[si].ID == subtaskID {
					t.Subtasks = append(t.Subtasks[:si:si], t.Subtasks[si+1:]...)
					return nil
				}
			}
		}
	}
	return fmt.Errorf("%w: %s", ErrSubtaskNotFound, subtaskID)
}

// TopPosition returns a position that sorts before every task in the column.
func TopPosition(col model.Column) float64 {
	sorted := OrderedTasks(col)
	if len(sorted) == 0 {
		return PositionInitial()
	}
	return PositionBefore(sorted[0].Position)
}

// BottomPosition returns a position that sorts after every task in the column.
func BottomPosition(col model.Column) float64 {
	sorted := OrderedTasks(col)
	if len(sorted) == 0 {
		return PositionInitial()
	}
	return PositionAfter(sorted[len(sorted)-1].Position)
}

// ProvisionalID marks entities created optimistically before the server assigns an id.
func ProvisionalID(id model.ID) bool {
	return strings.HasPrefix(id.String(), "tmp-")
}
