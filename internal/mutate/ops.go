package mutate

import (
	"context"
	"errors"
	"strings"

	"kanban-cli/internal/model"
	"kanban-cli/internal/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Backend is the persistence contract the board operations write through.
type Backend interface {
	ListBoards(ctx context.Context) ([]model.Board, error)
	GetBoard(ctx context.Context, id model.ID) (model.Board, error)
	CreateBoard(ctx context.Context, in model.CreateBoardInput) (model.Board, error)
	UpdateBoard(ctx context.Context, id model.ID, in model.UpdateBoardInput) (model.Board, error)
	DeleteBoard(ctx context.Context, id model.ID) error

	CreateColumn(ctx context.Context, in model.CreateColumnInput) (model.Column, error)
	UpdateColumn(ctx context.Context, id model.ID, in model.UpdateColumnInput) (model.Column, error)
	DeleteColumn(ctx context.Context, id model.ID) error

	CreateTask(ctx context.Context, in model.CreateTaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id model.ID, in model.UpdateTaskInput) (model.Task, error)
	MoveTask(ctx context.Context, id model.ID, in model.MoveTaskInput) (model.Task, error)
	DeleteTask(ctx context.Context, id model.ID) error

	CreateSubtask(ctx context.Context, in model.CreateSubtaskInput) (model.Subtask, error)
	UpdateSubtask(ctx context.Context, id model.ID, in model.UpdateSubtaskInput) (model.Subtask, error)
	DeleteSubtask(ctx context.Context, id model.ID) error

	ResetDatabase(ctx context.Context) error
}

// Placement picks where a new task lands in its column.
type Placement int

const (
	PlaceTop Placement = iota
	PlaceBottom
)

// Op is a board mutation whose optimistic patch is already visible in the cache.
// Wait performs the server call and rolls the patch back if it fails.
type Op struct {
	Key    store.Key
	TaskID model.ID
	Noop   bool

	created model.ID
	settle  func(context.Context) error
}

func (op *Op) Wait(ctx context.Context) error {
	if op == nil || op.Noop || op.settle == nil {
		return nil
	}
	return op.settle(ctx)
}

// Async settles the op in the background; the channel yields one value and closes.
func (op *Op) Async(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- op.Wait(ctx)
	}()
	return done
}

// CreatedID is the server-assigned id of a created entity, known after Wait succeeds.
func (op *Op) CreatedID() model.ID {
	if op == nil {
		return ""
	}
	return op.created
}

type settler interface {
	Commit() error
	Rollback(cause error) error
}

func settleAll(ctx context.Context, call func(context.Context) error, ps []settler) error {
	err := call(ctx)
	for _, p := range ps {
		if err == nil {
			_ = p.Commit()
			continue
		}
		_ = p.Rollback(err)
	}
	return err
}

// Ops groups the board mutations. Each one patches the caches through a Coordinator
// and hands back an Op for the server round trip.
type Ops struct {
	api    Backend
	Boards *store.BoardCache
	Index  *store.BoardListCache

	boards *Coordinator[model.Board]
	index  *Coordinator[[]model.Board]
	log    log.FieldLogger
}

func NewOps(api Backend, boards *store.BoardCache, index *store.BoardListCache, logger log.FieldLogger) *Ops {
	if boards == nil {
		boards = store.NewBoardCache()
	}
	if index == nil {
		index = store.NewBoardListCache()
	}
	o := &Ops{
		api:    api,
		Boards: boards,
		Index:  index,
		boards: NewCoordinator(boards, logger),
		index:  NewCoordinator(index, logger),
		log:    logger,
	}
	if o.log == nil {
		o.log = o.boards.log
	}
	return o
}

func provisionalID() model.ID { return model.ID("tmp-" + uuid.NewString()) }

func (o *Ops) newOp(key store.Key, taskID model.ID, call func(context.Context) error, ps ...settler) *Op {
	return &Op{
		Key:    key,
		TaskID: taskID,
		settle: func(ctx context.Context) error { return settleAll(ctx, call, ps) },
	}
}

func (o *Ops) board(boardID model.ID) (model.Board, error) {
	b, ok := o.Boards.Get(store.BoardKey(boardID))
	if !ok {
		return model.Board{}, errNotLoaded(boardID.String())
	}
	return b, nil
}

// Loading (authoritative writes).

func (o *Ops) LoadBoards(ctx context.Context) ([]model.Board, error) {
	bs, err := o.api.ListBoards(ctx)
	if err != nil {
		return nil, err
	}
	o.Index.Load(store.BoardsKey, bs)
	return bs, nil
}

func (o *Ops) LoadBoard(ctx context.Context, id model.ID) (model.Board, error) {
	b, err := o.api.GetBoard(ctx, id)
	if err != nil {
		return model.Board{}, err
	}
	if b.ID.IsZero() {
		b.ID = id
	}
	o.Boards.Load(store.BoardKey(id), b)
	o.log.WithFields(log.Fields{"board": id.String(), "columns": len(b.Columns)}).Debug("board loaded")
	return b, nil
}

// ResetDatabase asks the backend to restore its seed data and reloads the board list.
func (o *Ops) ResetDatabase(ctx context.Context) error {
	if err := o.api.ResetDatabase(ctx); err != nil {
		return err
	}
	_, err := o.LoadBoards(ctx)
	return err
}

// Tasks.

// MoveTask moves a task to toIndex (display order) of toColumnID. Dropping a task back
// where it started yields a Noop op and takes no snapshot.
func (o *Ops) MoveTask(boardID, taskID, toColumnID model.ID, toIndex int) (*Op, error) {
	key := store.BoardKey(boardID)
	cur, err := o.board(boardID)
	if err != nil {
		return nil, err
	}
	if _, err := store.MoveTask(&cur, taskID, toColumnID, toIndex); err != nil {
		if errors.Is(err, store.ErrNoMove) {
			return &Op{Key: key, TaskID: taskID, Noop: true}, nil
		}
		return nil, err
	}

	var moved model.Task
	p, err := o.boards.Apply(key, func(b *model.Board) error {
		t, err := store.MoveTask(b, taskID, toColumnID, toIndex)
		moved = t
		return err
	})
	if err != nil {
		return nil, err
	}
	call := func(ctx context.Context) error {
		_, err := o.api.MoveTask(ctx, taskID, model.MoveTaskInput{ColumnID: moved.ColumnID, Position: moved.Position})
		return err
	}
	return o.newOp(key, taskID, call, p), nil
}

// TaskChanges lists the optional edits of UpdateTask.
type TaskChanges struct {
	Title       *string
	Description *string
	ColumnID    *model.ID
}

func (o *Ops) UpdateTask(boardID, taskID model.ID, ch TaskChanges) (*Op, error) {
	key := store.BoardKey(boardID)
	cur, err := o.board(boardID)
	if err != nil {
		return nil, err
	}
	ref, ok := store.FindTask(&cur, taskID)
	if !ok {
		return nil, NotFoundError{Kind: "task", ID: taskID.String()}
	}
	curTask := cur.Columns[ref.Col].Tasks[ref.Task]
	if ch.ColumnID != nil && *ch.ColumnID == curTask.ColumnID {
		ch.ColumnID = nil
	}
	if ch.Title == nil && ch.Description == nil && ch.ColumnID == nil {
		return &Op{Key: key, TaskID: taskID, Noop: true}, nil
	}

	in := model.UpdateTaskInput{Title: ch.Title, Description: ch.Description}
	p, err := o.boards.Apply(key, func(b *model.Board) error {
		if ch.ColumnID != nil {
			dst, ok := store.FindColumn(b, *ch.ColumnID)
			if !ok {
				return NotFoundError{Kind: "column", ID: ch.ColumnID.String()}
			}
			moved, err := store.MoveTask(b, taskID, *ch.ColumnID, len(b.Columns[dst].Tasks))
			if err != nil {
				return err
			}
			col, pos := moved.ColumnID, moved.Position
			in.ColumnID, in.Position = &col, &pos
		}
		return store.UpdateTask(b, taskID, func(t *model.Task) {
			if ch.Title != nil {
				t.Title = *ch.Title
			}
			if ch.Description != nil {
				t.Description = *ch.Description
			}
		})
	})
	if err != nil {
		return nil, err
	}
	call := func(ctx context.Context) error {
		_, err := o.api.UpdateTask(ctx, taskID, in)
		return err
	}
	return o.newOp(key, taskID, call, p), nil
}

// CreateTask inserts a provisional task right away; the server-assigned id is
// available from CreatedID after Wait and replaces the provisional one on refresh.
func (o *Ops) CreateTask(boardID model.ID, in model.CreateTaskInput, place Placement) (*Op, error) {
	key := store.BoardKey(boardID)
	if _, err := o.board(boardID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.New("task title is required")
	}
	tmp := provisionalID()
	p, err := o.boards.Apply(key, func(b *model.Board) error {
		ci, ok := store.FindColumn(b, in.ColumnID)
		if !ok {
			return NotFoundError{Kind: "column", ID: in.ColumnID.String()}
		}
		if place == PlaceTop {
			in.Position = store.TopPosition(b.Columns[ci])
		} else {
			in.Position = store.BottomPosition(b.Columns[ci])
		}
		t := model.Task{ID: tmp, Title: in.Title, Description: in.Description, Position: in.Position, ColumnID: in.ColumnID}
		for _, s := range in.Subtasks {
			t.Subtasks = append(t.Subtasks, model.Subtask{ID: provisionalID(), Title: s.Title, IsCompleted: s.IsCompleted, TaskID: tmp})
		}
		return store.InsertTask(b, t)
	})
	if err != nil {
		return nil, err
	}
	op := &Op{Key: key, TaskID: tmp}
	call := func(ctx context.Context) error {
		t, err := o.api.CreateTask(ctx, in)
		if err != nil {
			return err
		}
		op.created = t.ID
		op.TaskID = t.ID
		return nil
	}
	op.settle = func(ctx context.Context) error { return settleAll(ctx, call, []settler{p}) }
	return op, nil
}

func (o *Ops) DeleteTask(boardID, taskID model.ID) (*Op, error) {
	key := store.BoardKey(boardID)
	if _, err := o.board(boardID); err != nil {
		return nil, err
	}
	p, err := o.boards.Apply(key, func(b *model.Board) error {
		_, err := store.RemoveTask(b, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	call := func(ctx context.Context) error { return o.api.DeleteTask(ctx, taskID) }
	return o.newOp(key, taskID, call, p), nil
}

// Subtasks.

// ToggleSubtask flips a subtask's completion flag.
func (o *Ops) ToggleSubtask(boardID, subtaskID model.ID) (*Op, error) {
	cur, err := o.board(boardID)
	if err != nil {
		return nil, err
	}
	s, _, ok := store.FindSubtask(&cur, subtaskID)
	if !ok {
		return nil, NotFoundError{Kind: "subtask", ID: subtaskID.String()}
	}
	return o.SetSubtask(boardID, subtaskID, !s.IsCompleted)
}

func (o *Ops) SetSubtask(boardID, subtaskID model.ID, done bool) (*Op, error) {
	key := store.BoardKey(boardID)
	if _, err := o.board(boardID); err != nil {
		return nil, err
	}
	var owner model.ID
	p, err := o.boards.Apply(key, func(b *model.Board) error {
		id, err := store.SetSubtaskCompleted(b, subtaskID, done)
		owner = id
		return err
	})
	if err != nil {
		return nil, err
	}
	call := func(ctx context.Context) error {
		_, err := o.api.UpdateSubtask(ctx, subtaskID, model.UpdateSubtaskInput{IsCompleted: &done})
		return err
	}
	return o.newOp(key, owner, call, p), nil
}

func (o *Ops) AddSubtask(boardID, taskID model.ID, title string) (*Op, error) {
	key := store.BoardKey(boardID)
	if _, err := o.board(boardID); err != nil {
		return nil, err
	}
	in := model.CreateSubtaskInput{Title: title, TaskID: taskID}
	p, err := o.boards.Apply(key, func(b *model.Board) error {
		return store.UpdateTask(b, taskID, func(t *model.Task) {
			t.Subtasks = append(t.Subtasks, model.Subtask{ID: provisionalID(), Title: title, TaskID: taskID})
		})
	})
	if err != nil {
		return nil, err
	}
	op := &Op{Key: key, TaskID: taskID}
	call := func(ctx context.Context) error {
		s, err := o.api.CreateSubtask(ctx, in)
		if err != nil {
			return err
		}
		op.created = s.ID
		return nil
	}
	op.settle = func(ctx context.Context) error { return settleAll(ctx, call, []settler{p}) }
	return op, nil
}

func (o *Ops) DeleteSubtask(boardID, subtaskID model.ID) (*Op, error) {
	key := store.BoardKey(boardID)
	cur, err := o.board(boardID)
	if err != nil {
		return nil, err
	}
	_, parent, ok := store.FindSubtask(&cur, subtaskID)
	if !ok {
		return nil, NotFoundError{Kind: "subtask", ID: subtaskID.String()}
	}
	p, err := o.boards.Apply(key, func(b *model.Board) error { return store.RemoveSubtask(b, subtaskID) })
	if err != nil {
		return nil, err
	}
	call := func(ctx context.Context) error { return o.api.DeleteSubtask(ctx, subtaskID) }
	return o.newOp(key, parent.ID, call, p), nil
}

// Columns.

func (o *Ops) CreateColumn(boardID model.ID, name string) (*Op, error) {
	key := store.BoardKey(boardID)
	if _, err := o.board(boardID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("column name is required")
	}
	p, err := o.boards.Apply(key, func(b *model.Board) error {
		b.Columns = append(b.Columns, model.Column{ID: provisionalID(), Name: name, BoardID: boardID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	op := &Op{Key: key}
	call := func(ctx context.Context) error {
		c, err := o.api.CreateColumn(ctx, model.CreateColumnInput{Name: name, BoardID: boardID})
		if err != nil {
			return err
		}
		op.created = c.ID
		return nil
	}
	op.settle = func(ctx context.Context) error { return settleAll(ctx, call, []settler{p}) }
	return op, nil
}

func (o *Ops) RenameColumn(boardID, columnID model.ID, name string) (*Op, error) {
	key := store.BoardKey(boardID)
	if _, err := o.board(boardID); err != nil {
		return nil, err
	}
	p, err := o.boards.Apply(key, func(b *model.Board) error {
		ci, ok := store.FindColumn(b, columnID)
		if !ok {
			return NotFoundError{Kind: "column", ID: columnID.String()}
		}
		b.Columns[ci].Name = name
		return nil
	})
	if err != nil {
		return nil, err
	}
	call := func(ctx context.Context) error {
		_, err := o.api.UpdateColumn(ctx, columnID, model.UpdateColumnInput{Name: &name})
		return err
	}
	return o.newOp(key, "", call, p), nil
}

func (o *Ops) DeleteColumn(boardID, columnID model.ID) (*Op, error) {
	key := store.BoardKey(boardID)
	if _, err := o.board(boardID); err != nil {
		return nil, err
	}
	p, err := o.boards.Apply(key, func(b *model.Board) error {
		ci, ok := store.FindColumn(b, columnID)
		if !ok {
			return NotFoundError{Kind: "column", ID: columnID.String()}
		}
		b.Columns = append(b.Columns[:ci:ci], b.Columns[ci+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	call := func(ctx context.Context) error { return o.api.DeleteColumn(ctx, columnID) }
	return o.newOp(key, "", call, p), nil
}

// Boards.

// DefaultColumns are used when a board is created without column names.
var DefaultColumns = []string{"Todo", "Done"}

func (o *Ops) CreateBoard(name string, columns []string) (*Op, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("board name is required")
	}
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	in := model.CreateBoardInput{Name: name}
	for _, c := range columns {
		in.Columns = append(in.Columns, model.NewColumn{Name: c})
	}
	p, err := o.index.Apply(store.BoardsKey, func(bs *[]model.Board) error {
		*bs = append(*bs, model.Board{ID: provisionalID(), Name: name})
		return nil
	})
	if err != nil {
		return nil, err
	}
	op := &Op{Key: store.BoardsKey}
	call := func(ctx context.Context) error {
		b, err := o.api.CreateBoard(ctx, in)
		if err != nil {
			return err
		}
		op.created = b.ID
		return nil
	}
	op.settle = func(ctx context.Context) error { return settleAll(ctx, call, []settler{p}) }
	return op, nil
}

// RenameBoard renames the board in the board list and, when it is cached, in its tree.
func (o *Ops) RenameBoard(boardID model.ID, name string) (*Op, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("board name is required")
	}
	ps := []settler{}
	p, err := o.index.Apply(store.BoardsKey, func(bs *[]model.Board) error {
		for i := range *bs {
			if (*bs)[i].ID == boardID {
				(*bs)[i].Name = name
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps = append(ps, p)
	if _, ok := o.Boards.Get(store.BoardKey(boardID)); ok {
		bp, err := o.boards.Apply(store.BoardKey(boardID), func(b *model.Board) error {
			b.Name = name
			return nil
		})
		if err != nil {
			_ = p.Rollback(err)
			return nil, err
		}
		ps = append(ps, bp)
	}
	call := func(ctx context.Context) error {
		_, err := o.api.UpdateBoard(ctx, boardID, model.UpdateBoardInput{Name: &name})
		return err
	}
	return o.newOp(store.BoardsKey, "", call, ps...), nil
}

func (o *Ops) DeleteBoard(boardID model.ID) (*Op, error) {
	p, err := o.index.Apply(store.BoardsKey, func(bs *[]model.Board) error {
		out := (*bs)[:0:0]
		for _, b := range *bs {
			if b.ID != boardID {
				out = append(out, b)
			}
		}
		*bs = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	call := func(ctx context.Context) error { return o.api.DeleteBoard(ctx, boardID) }
	return o.newOp(store.BoardsKey, "", call, p), nil
}
