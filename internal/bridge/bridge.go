// Package bridge turns named intents with human-readable arguments into board
// operations. Every outcome, including failures, is a Result; Execute never returns
// an error.
package bridge

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"kanban-cli/internal/logging"
	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/signal"
	"kanban-cli/internal/store"

	log "github.com/sirupsen/logrus"
)

const (
	GetBoards       = "bridge_get_boards"
	GetBoardDetails = "bridge_get_board_details"
	CreateBoard     = "bridge_create_board"
	UpdateBoard     = "bridge_update_board"
	DeleteBoard     = "bridge_delete_board"
	CreateTask      = "bridge_create_task"
	UpdateTask      = "bridge_update_task"
	DeleteTask      = "bridge_delete_task"
	ToggleSubtask   = "bridge_toggle_subtask"
)

const destructivePrefix = "bridge_delete_"

// IsDestructive reports whether an intent deletes something.
func IsDestructive(name string) bool {
	return strings.HasPrefix(name, destructivePrefix)
}

// DefaultHighlightDelay gives a refreshed board time to render before the flash.
const DefaultHighlightDelay = time.Second

// Result is the outcome of one intent.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func ok(msg string) Result   { return Result{OK: true, Message: msg} }
func fail(msg string) Result { return Result{Message: msg} }

// Context is what the caller is looking at when the intent arrives.
type Context struct {
	BoardID model.ID
}

// Navigator moves the caller's view. Either method may be a no-op.
type Navigator interface {
	OpenBoard(id model.ID, name string)
	Home()
}

type noNav struct{}

func (noNav) OpenBoard(model.ID, string) {}
func (noNav) Home()                      {}

type Options struct {
	Hub            *signal.Hub
	Navigator      Navigator
	HighlightDelay time.Duration
	Logger         log.FieldLogger
}

type Bridge struct {
	ops   *mutate.Ops
	hub   *signal.Hub
	nav   Navigator
	delay time.Duration
	log   log.FieldLogger
}

type handler func(b *Bridge, ctx context.Context, args Args, bc Context) (Result, error)

var intents = map[string]handler{
	GetBoards:       (*Bridge).getBoards,
	GetBoardDetails: (*Bridge).getBoardDetails,
	CreateBoard:     (*Bridge).createBoard,
	UpdateBoard:     (*Bridge).updateBoard,
	DeleteBoard:     (*Bridge).deleteBoard,
	CreateTask:      (*Bridge).createTask,
	UpdateTask:      (*Bridge).updateTask,
	DeleteTask:      (*Bridge).deleteTask,
	ToggleSubtask:   (*Bridge).toggleSubtask,
}

// Intents lists the supported intent names, sorted.
func Intents() []string {
	out := make([]string, 0, len(intents))
	for n := range intents {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func New(ops *mutate.Ops, opts Options) *Bridge {
	b := &Bridge{ops: ops, hub: opts.Hub, nav: opts.Navigator, delay: opts.HighlightDelay, log: opts.Logger}
	if b.nav == nil {
		b.nav = noNav{}
	}
	if b.delay <= 0 {
		b.delay = DefaultHighlightDelay
	}
	if b.log == nil {
		b.log = logging.Discard()
	}
	return b
}

// Execute runs one intent.
func (b *Bridge) Execute(ctx context.Context, name string, args Args, bc Context) Result {
	h, found := intents[name]
	if !found {
		b.log.WithField("intent", name).Debug("unknown intent")
		return fail("Function '" + name + "' not implemented.")
	}
	if args == nil {
		args = Args{}
	}
	res, err := h(b, ctx, args, bc)
	if err != nil {
		b.log.WithFields(log.Fields{"intent": name, "error": err}).Warn("intent failed")
		return fail("Error: " + err.Error())
	}
	b.log.WithFields(log.Fields{"intent": name, "ok": res.OK}).Debug("intent executed")
	return res
}

// errRequired formats a missing-argument error the way the assistant expects to read it.
func errRequired(names ...string) error {
	if len(names) == 1 {
		return errors.New(names[0] + " is required")
	}
	return errors.New(strings.Join(names, " and ") + " are required")
}

// activeBoard returns the cached tree of the active board, loading it on a miss.
func (b *Bridge) activeBoard(ctx context.Context, bc Context) (model.Board, bool, error) {
	if bc.BoardID.IsZero() {
		return model.Board{}, false, nil
	}
	if cur, ok := b.ops.Boards.Get(store.BoardKey(bc.BoardID)); ok {
		return cur, true, nil
	}
	cur, err := b.ops.LoadBoard(ctx, bc.BoardID)
	if err != nil {
		return model.Board{}, false, err
	}
	return cur, true, nil
}

// refresh reloads a board after a successful mutation so server-assigned ids replace
// provisional ones. A failed refresh keeps the optimistic state and is only logged.
func (b *Bridge) refresh(ctx context.Context, boardID model.ID) {
	if boardID.IsZero() {
		return
	}
	if _, err := b.ops.LoadBoard(ctx, boardID); err != nil {
		b.log.WithFields(log.Fields{"board": boardID.String(), "error": err}).Warn("refresh failed")
	}
}

func (b *Bridge) refreshBoards(ctx context.Context) {
	if _, err := b.ops.LoadBoards(ctx); err != nil {
		b.log.WithField("error", err).Warn("board list refresh failed")
	}
}

func (b *Bridge) highlight(taskID model.ID) {
	if b.hub == nil || taskID.IsZero() {
		return
	}
	b.hub.Schedule(taskID, b.delay)
}
