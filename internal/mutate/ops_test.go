package mutate

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"kanban-cli/internal/model"
	"kanban-cli/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBoard is the tree the coordinator and ops tests patch. Assertions use testify,
// like the other library packages.
func testBoard() model.Board {
	return model.Board{
		ID:   "1",
		Name: "Platform",
		Columns: []model.Column{
			{ID: "10", Name: "Todo", BoardID: "1", Tasks: []model.Task{
				{ID: "t-50", Title: "Groceries", Position: 50, ColumnID: "10", Subtasks: []model.Subtask{
					{ID: "s-1", Title: "Buy milk", TaskID: "t-50"},
				}},
				{ID: "t-100", Title: "Taxes", Position: 100, ColumnID: "10"},
			}},
			{ID: "20", Name: "Done", BoardID: "1"},
		},
	}
}

type fakeBackend struct {
	mu    sync.Mutex
	err   error
	calls []string
	moves []model.MoveTaskInput
	subs  []model.UpdateSubtaskInput
	next  int
}

func (f *fakeBackend) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeBackend) id() model.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return model.ID("srv-" + strconv.Itoa(f.next))
}

func (f *fakeBackend) ListBoards(ctx context.Context) ([]model.Board, error) {
	return []model.Board{{ID: "1", Name: "Platform"}}, f.record("ListBoards")
}
func (f *fakeBackend) GetBoard(ctx context.Context, id model.ID) (model.Board, error) {
	return testBoard(), f.record("GetBoard")
}
func (f *fakeBackend) CreateBoard(ctx context.Context, in model.CreateBoardInput) (model.Board, error) {
	return model.Board{ID: f.id(), Name: in.Name}, f.record("CreateBoard")
}
func (f *fakeBackend) UpdateBoard(ctx context.Context, id model.ID, in model.UpdateBoardInput) (model.Board, error) {
	return model.Board{ID: id}, f.record("UpdateBoard")
}
func (f *fakeBackend) DeleteBoard(ctx context.Context, id model.ID) error {
	return f.record("DeleteBoard")
}
func (f *fakeBackend) CreateColumn(ctx context.Context, in model.CreateColumnInput) (model.Column, error) {
	return model.Column{ID: f.id(), Name: in.Name}, f.record("CreateColumn")
}
func (f *fakeBackend) UpdateColumn(ctx context.Context, id model.ID, in model.UpdateColumnInput) (model.Column, error) {
	return model.Column{ID: id}, f.record("UpdateColumn")
}
func (f *fakeBackend) DeleteColumn(ctx context.Context, id model.ID) error {
	return f.record("DeleteColumn")
}
func (f *fakeBackend) CreateTask(ctx context.Context, in model.CreateTaskInput) (model.Task, error) {
	return model.Task{ID: f.id(), Title: in.Title}, f.record("CreateTask")
}
func (f *fakeBackend) UpdateTask(ctx context.Context, id model.ID, in model.UpdateTaskInput) (model.Task, error) {
	return model.Task{ID: id}, f.record("UpdateTask")
}
func (f *fakeBackend) MoveTask(ctx context.Context, id model.ID, in model.MoveTaskInput) (model.Task, error) {
	f.mu.Lock()
	f.moves = append(f.moves, in)
	f.mu.Unlock()
	return model.Task{ID: id}, f.record("MoveTask")
}
func (f *fakeBackend) DeleteTask(ctx context.Context, id model.ID) error {
	return f.record("DeleteTask")
}
func (f *fakeBackend) CreateSubtask(ctx context.Context, in model.CreateSubtaskInput) (model.Subtask, error) {
	return model.Subtask{ID: f.id()}, f.record("CreateSubtask")
}
func (f *fakeBackend) UpdateSubtask(ctx context.Context, id model.ID, in model.UpdateSubtaskInput) (model.Subtask, error) {
	f.mu.Lock()
	f.subs = append(f.subs, in)
	f.mu.Unlock()
	return model.Subtask{ID: id}, f.record("UpdateSubtask")
}
func (f *fakeBackend) DeleteSubtask(ctx context.Context, id model.ID) error {
	return f.record("DeleteSubtask")
}
func (f *fakeBackend) ResetDatabase(ctx context.Context) error { return f.record("ResetDatabase") }

func newTestOps(t *testing.T, be *fakeBackend) *Ops {
	t.Helper()
	o := NewOps(be, nil, nil, nil)
	o.Boards.Load(store.BoardKey("1"), testBoard())
	return o
}

func currentBoard(t *testing.T, o *Ops) model.Board {
	t.Helper()
	b, ok := o.Boards.Get(store.BoardKey("1"))
	require.True(t, ok)
	return b
}

func TestOps_MoveTaskToEmptyColumn(t *testing.T) {
	be := &fakeBackend{}
	o := newTestOps(t, be)

	op, err := o.MoveTask("1", "t-50", "20", 0)
	require.NoError(t, err)

	// Optimistic state is visible before the server call.
	b := currentBoard(t, o)
	require.Len(t, b.Columns[1].Tasks, 1)
	assert.Equal(t, model.ID("20"), b.Columns[1].Tasks[0].ColumnID)
	assert.Equal(t, store.DefaultPosition, b.Columns[1].Tasks[0].Position)
	assert.Empty(t, be.calls)

	require.NoError(t, op.Wait(context.Background()))
	require.Len(t, be.moves, 1)
	assert.Equal(t, model.MoveTaskInput{ColumnID: "20", Position: store.DefaultPosition}, be.moves[0])
}

func TestOps_MoveTaskSameSpotIsNoop(t *testing.T) {
	be := &fakeBackend{}
	o := newTestOps(t, be)

	op, err := o.MoveTask("1", "t-100", "10", 1)
	require.NoError(t, err)
	assert.True(t, op.Noop)
	require.NoError(t, op.Wait(context.Background()))
	assert.Empty(t, be.calls)
}

func TestOps_MoveTaskTwiceIsIdempotent(t *testing.T) {
	be := &fakeBackend{}
	o := newTestOps(t, be)

	op, err := o.MoveTask("1", "t-50", "10", 1)
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	first := currentBoard(t, o)

	op, err = o.MoveTask("1", "t-50", "10", 1)
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	second := currentBoard(t, o)

	assert.Equal(t, store.OrderedTasks(first.Columns[0]), store.OrderedTasks(second.Columns[0]))
	assert.Len(t, be.moves, 1)
}

func TestOps_ToggleSubtaskRollsBackOnServerError(t *testing.T) {
	be := &fakeBackend{err: errors.New("API Error: Internal Server Error")}
	o := newTestOps(t, be)

	op, err := o.ToggleSubtask("1", "s-1")
	require.NoError(t, err)
	assert.Equal(t, model.ID("t-50"), op.TaskID)

	s, _, _ := store.FindSubtask(ptr(currentBoard(t, o)), "s-1")
	assert.True(t, s.IsCompleted, "optimistic flip is visible immediately")

	err = op.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Internal Server Error")

	s, _, _ = store.FindSubtask(ptr(currentBoard(t, o)), "s-1")
	assert.False(t, s.IsCompleted)
	require.Len(t, be.subs, 1)
	assert.True(t, *be.subs[0].IsCompleted)
}

func TestOps_CreateTaskAtTop(t *testing.T) {
	be := &fakeBackend{}
	o := newTestOps(t, be)

	op, err := o.CreateTask("1", model.CreateTaskInput{
		Title:    "Write docs",
		ColumnID: "10",
		Subtasks: []model.NewSubtask{{Title: "Outline"}},
	}, PlaceTop)
	require.NoError(t, err)

	b := currentBoard(t, o)
	top := store.OrderedTasks(b.Columns[0])[0]
	assert.Equal(t, "Write docs", top.Title)
	assert.Equal(t, 25.0, top.Position)
	assert.True(t, store.ProvisionalID(top.ID))
	require.Len(t, top.Subtasks, 1)

	require.NoError(t, op.Wait(context.Background()))
	assert.Equal(t, model.ID("srv-1"), op.CreatedID())
	assert.Equal(t, model.ID("srv-1"), op.TaskID)
}

func TestOps_UpdateTaskMovesToBottomOfTarget(t *testing.T) {
	be := &fakeBackend{}
	o := newTestOps(t, be)

	title := "Taxes 2026"
	done := model.ID("20")
	op, err := o.UpdateTask("1", "t-100", TaskChanges{Title: &title, ColumnID: &done})
	require.NoError(t, err)

	b := currentBoard(t, o)
	require.Len(t, b.Columns[1].Tasks, 1)
	assert.Equal(t, "Taxes 2026", b.Columns[1].Tasks[0].Title)
	require.NoError(t, op.Wait(context.Background()))
}

func TestOps_DeleteTaskFailureRestoresTask(t *testing.T) {
	be := &fakeBackend{err: errors.New("boom")}
	o := newTestOps(t, be)

	op, err := o.DeleteTask("1", "t-100")
	require.NoError(t, err)
	assert.Len(t, currentBoard(t, o).Columns[0].Tasks, 1)

	require.Error(t, op.Wait(context.Background()))
	assert.Equal(t, testBoard(), currentBoard(t, o))
}

func TestOps_RenameBoardPatchesIndexAndTree(t *testing.T) {
	be := &fakeBackend{err: errors.New("boom")}
	o := newTestOps(t, be)
	o.Index.Load(store.BoardsKey, []model.Board{{ID: "1", Name: "Platform"}})

	op, err := o.RenameBoard("1", "Core")
	require.NoError(t, err)
	idx, _ := o.Index.Get(store.BoardsKey)
	assert.Equal(t, "Core", idx[0].Name)
	assert.Equal(t, "Core", currentBoard(t, o).Name)

	require.Error(t, op.Wait(context.Background()))
	idx, _ = o.Index.Get(store.BoardsKey)
	assert.Equal(t, "Platform", idx[0].Name)
	assert.Equal(t, "Platform", currentBoard(t, o).Name)
}

func TestOps_CreateAndDeleteBoard(t *testing.T) {
	be := &fakeBackend{}
	o := newTestOps(t, be)
	o.Index.Load(store.BoardsKey, []model.Board{{ID: "1", Name: "Platform"}})

	op, err := o.CreateBoard("Roadmap", nil)
	require.NoError(t, err)
	idx, _ := o.Index.Get(store.BoardsKey)
	assert.Len(t, idx, 2)
	require.NoError(t, op.Wait(context.Background()))

	op, err = o.DeleteBoard("1")
	require.NoError(t, err)
	idx, _ = o.Index.Get(store.BoardsKey)
	require.Len(t, idx, 1)
	assert.Equal(t, "Roadmap", idx[0].Name)
	require.NoError(t, op.Wait(context.Background()))
}

func TestOps_ColumnLifecycle(t *testing.T) {
	be := &fakeBackend{}
	o := newTestOps(t, be)

	op, err := o.CreateColumn("1", "Review")
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	assert.Len(t, currentBoard(t, o).Columns, 3)

	op, err = o.RenameColumn("1", "20", "Shipped")
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	assert.Equal(t, "Shipped", currentBoard(t, o).Columns[1].Name)

	op, err = o.DeleteColumn("1", "20")
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	assert.Len(t, currentBoard(t, o).Columns, 2)
}

func TestOps_UnloadedBoard(t *testing.T) {
	o := NewOps(&fakeBackend{}, nil, nil, nil)
	_, err := o.MoveTask("9", "t-1", "10", 0)
	var nf NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func ptr(b model.Board) *model.Board { return &b }
