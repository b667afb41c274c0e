package bridge

import (
	"context"
	"strconv"
	"sync"

	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/store"
)

// memBackend is a small in-memory backend so refreshes observe committed writes.
type memBackend struct {
	mu     sync.Mutex
	boards []model.Board
	next   int
	fail   map[string]error
	calls  []string
}

var _ mutate.Backend = (*memBackend)(nil)

func newMemBackend() *memBackend {
	return &memBackend{
		fail: map[string]error{},
		boards: []model.Board{
			{ID: "1", Name: "Platform", Columns: []model.Column{
				{ID: "10", Name: "Todo", BoardID: "1", Tasks: []model.Task{
					{ID: "100", Title: "Groceries", Position: 10000, ColumnID: "10", Subtasks: []model.Subtask{
						{ID: "500", Title: "Buy milk", TaskID: "100"},
					}},
					{ID: "101", Title: "Old Task", Position: 20000, ColumnID: "10"},
				}},
				{ID: "20", Name: "Done", BoardID: "1"},
			}},
			{ID: "2", Name: "Roadmap", Columns: []model.Column{{ID: "30", Name: "Later", BoardID: "2"}}},
		},
		next: 1000,
	}
}

func (m *memBackend) enter(name string) error {
	m.calls = append(m.calls, name)
	return m.fail[name]
}

func (m *memBackend) id() model.ID {
	m.next++
	return model.ID(strconv.Itoa(m.next))
}

func (m *memBackend) board(id model.ID) *model.Board {
	for i := range m.boards {
		if m.boards[i].ID == id {
			return &m.boards[i]
		}
	}
	return nil
}

func (m *memBackend) boardOfTask(id model.ID) *model.Board {
	for i := range m.boards {
		if _, ok := store.FindTask(&m.boards[i], id); ok {
			return &m.boards[i]
		}
	}
	return nil
}

func (m *memBackend) called(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *memBackend) ListBoards(ctx context.Context) ([]model.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListBoards"); err != nil {
		return nil, err
	}
	out := make([]model.Board, len(m.boards))
	for i, b := range m.boards {
		out[i] = model.Board{ID: b.ID, Name: b.Name}
	}
	return out, nil
}

func (m *memBackend) GetBoard(ctx context.Context, id model.ID) (model.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetBoard"); err != nil {
		return model.Board{}, err
	}
	b := m.board(id)
	if b == nil {
		return model.Board{}, mutate.NotFoundError{Kind: "board", ID: id.String()}
	}
	return store.CloneBoard(*b), nil
}

func (m *memBackend) CreateBoard(ctx context.Context, in model.CreateBoardInput) (model.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateBoard"); err != nil {
		return model.Board{}, err
	}
	b := model.Board{ID: m.id(), Name: in.Name}
	for _, c := range in.Columns {
		b.Columns = append(b.Columns, model.Column{ID: m.id(), Name: c.Name, BoardID: b.ID})
	}
	m.boards = append(m.boards, b)
	return b, nil
}

func (m *memBackend) UpdateBoard(ctx context.Context, id model.ID, in model.UpdateBoardInput) (model.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateBoard"); err != nil {
		return model.Board{}, err
	}
	b := m.board(id)
	if in.Name != nil {
		b.Name = *in.Name
	}
	return *b, nil
}

func (m *memBackend) DeleteBoard(ctx context.Context, id model.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteBoard"); err != nil {
		return err
	}
	for i := range m.boards {
		if m.boards[i].ID == id {
			m.boards = append(m.boards[:i], m.boards[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memBackend) CreateColumn(ctx context.Context, in model.CreateColumnInput) (model.Column, error) {
	return model.Column{}, m.enter("CreateColumn")
}

func (m *memBackend) UpdateColumn(ctx context.Context, id model.ID, in model.UpdateColumnInput) (model.Column, error) {
	return model.Column{}, m.enter("UpdateColumn")
}

func (m *memBackend) DeleteColumn(ctx context.Context, id model.ID) error {
	return m.enter("DeleteColumn")
}

func (m *memBackend) CreateTask(ctx context.Context, in model.CreateTaskInput) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateTask"); err != nil {
		return model.Task{}, err
	}
	t := model.Task{ID: m.id(), Title: in.Title, Description: in.Description, Position: in.Position, ColumnID: in.ColumnID}
	for _, s := range in.Subtasks {
		t.Subtasks = append(t.Subtasks, model.Subtask{ID: m.id(), Title: s.Title, IsCompleted: s.IsCompleted, TaskID: t.ID})
	}
	for i := range m.boards {
		if _, ok := store.FindColumn(&m.boards[i], in.ColumnID); ok {
			_ = store.InsertTask(&m.boards[i], t)
		}
	}
	return t, nil
}

func (m *memBackend) UpdateTask(ctx context.Context, id model.ID, in model.UpdateTaskInput) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateTask"); err != nil {
		return model.Task{}, err
	}
	b := m.boardOfTask(id)
	if in.ColumnID != nil {
		t, _ := store.RemoveTask(b, id)
		t.ColumnID = *in.ColumnID
		if in.Position != nil {
			t.Position = *in.Position
		}
		_ = store.InsertTask(b, t)
	}
	_ = store.UpdateTask(b, id, func(t *model.Task) {
		if in.Title != nil {
			t.Title = *in.Title
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
	})
	ref, _ := store.FindTask(b, id)
	return b.Columns[ref.Col].Tasks[ref.Task], nil
}

func (m *memBackend) MoveTask(ctx context.Context, id model.ID, in model.MoveTaskInput) (model.Task, error) {
	col, pos := in.ColumnID, in.Position
	return m.UpdateTask(ctx, id, model.UpdateTaskInput{ColumnID: &col, Position: &pos})
}

func (m *memBackend) DeleteTask(ctx context.Context, id model.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteTask"); err != nil {
		return err
	}
	if b := m.boardOfTask(id); b != nil {
		_, _ = store.RemoveTask(b, id)
	}
	return nil
}

func (m *memBackend) CreateSubtask(ctx context.Context, in model.CreateSubtaskInput) (model.Subtask, error) {
	return model.Subtask{}, m.enter("CreateSubtask")
}

func (m *memBackend) UpdateSubtask(ctx context.Context, id model.ID, in model.UpdateSubtaskInput) (model.Subtask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateSubtask"); err != nil {
		return model.Subtask{}, err
	}
	for i := range m.boards {
		if in.IsCompleted != nil {
			if _, err := store.SetSubtaskCompleted(&m.boards[i], id, *in.IsCompleted); err == nil {
				break
			}
		}
	}
	return model.Subtask{ID: id}, nil
}

func (m *memBackend) DeleteSubtask(ctx context.Context, id model.ID) error {
	return m.enter("DeleteSubtask")
}

func (m *memBackend) ResetDatabase(ctx context.Context) error {
	return m.enter("ResetDatabase")
}
