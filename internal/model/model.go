package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a board, column, task or subtask.
//
// The backend is not consistent about id types (boards and columns are numeric,
// tasks and subtasks are sometimes strings), so ID accepts both JSON numbers and
// JSON strings. Ids in canonical integer form ("12", not "012" or "+12") are written
// back as numbers; everything else stays a string.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

func (id ID) numeric() bool {
	s := string(id)
	if s == "" {
		return false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == s
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(b), err)
	}
	*id = ID(n.String())
	return nil
}

type Board struct {
	ID      ID       `json:"id"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns,omitempty"`
}

type Column struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	BoardID ID     `json:"board_id,omitempty"`
	Tasks   []Task `json:"tasks,omitempty"`
}

type Task struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    float64   `json:"position"`
	ColumnID    ID        `json:"column_id"`
	Subtasks    []Subtask `json:"subtasks,omitempty"`
}

type Subtask struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
	TaskID      ID     `json:"task_id,omitempty"`
}

// CompletedSubtasks returns (done, total) for progress display.
func (t Task) CompletedSubtasks() (int, int) {
	done := 0
	for _, s := range t.Subtasks {
		if s.IsCompleted {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// Request bodies.

type NewColumn struct {
	Name string `json:"name"`
}

type CreateBoardInput struct {
	Name    string      `json:"name"`
	Columns []NewColumn `json:"columns"`
}

type UpdateBoardInput struct {
	Name *string `json:"name,omitempty"`
}

type CreateColumnInput struct {
	Name    string `json:"name"`
	BoardID ID     `json:"board_id"`
}

type UpdateColumnInput struct {
	Name *string `json:"name,omitempty"`
}

type NewSubtask struct {
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

type CreateTaskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ColumnID    ID           `json:"column_id"`
	Position    float64      `json:"position"`
	Subtasks    []NewSubtask `json:"subtasks,omitempty"`
}

type UpdateTaskInput struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	ColumnID    *ID      `json:"column_id,omitempty"`
	Position    *float64 `json:"position,omitempty"`
}

// MoveTaskInput is the body persisted for a drag-and-drop move.
type MoveTaskInput struct {
	ColumnID ID      `json:"column_id"`
	Position float64 `json:"position"`
}

type CreateSubtaskInput struct {
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
	TaskID      ID     `json:"task_id"`
}

type UpdateSubtaskInput struct {
	Title       *string `json:"title,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}
