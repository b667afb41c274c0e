package tui

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kanban-cli/internal/api"
	"kanban-cli/internal/bridge"
	"kanban-cli/internal/devserver"
	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/signal"
	"kanban-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
	log "github.com/sirupsen/logrus"
)

type appHarness struct {
	ctx    context.Context
	db     *devserver.DB
	client *api.Client
	ops    *mutate.Ops
	hub    *signal.Hub
}

// newAppHarness serves the seeded dev server over httptest. UI tests use plain testing
// with t.Fatalf, as the cli and cmd/kanban tests do.
func newAppHarness(t *testing.T) appHarness {
	t.Helper()
	ctx := context.Background()
	db, err := devserver.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.SeedIfEmpty(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := httptest.NewServer(devserver.New(db, nil))
	t.Cleanup(srv.Close)
	client := api.New(srv.URL, 5*time.Second, nil)
	return appHarness{
		ctx:    ctx,
		db:     db,
		client: client,
		ops:    mutate.NewOps(client, nil, nil, nil),
		hub:    signal.NewHub(),
	}
}

func send(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(appModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return am, cmd
}

// drain runs cmd and feeds its message back, once. Batches are run in order.
func drain(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				m, _ = send(t, m, c())
			}
		}
		return m
	}
	m, _ = send(t, m, msg)
	return m
}

func keys(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// openLaunchBoard returns a model showing the seeded "Platform Launch" board.
func openLaunchBoard(t *testing.T, h appHarness) appModel {
	t.Helper()
	m := newAppModel(h.ctx, Options{Ops: h.ops, Hub: h.hub, Board: "platform launch"})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, cmd := send(t, m, loadBoardsCmd(h.ctx, h.ops)())
	m = drain(t, m, cmd)
	if m.view != viewBoard || m.board.Name != "Platform Launch" {
		t.Fatalf("expected Platform Launch open, got view=%d board=%q status=%q", m.view, m.board.Name, m.status)
	}
	if len(m.cols.cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(m.cols.cols))
	}
	return m
}

func TestApp_OpensStartBoardAndRenders(t *testing.T) {
	h := newAppHarness(t)
	m := openLaunchBoard(t, h)
	out := xansi.Strip(m.View())
	for _, want := range []string{"Kanban › Platform Launch", "Todo (3)", "Doing", "Done"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
}

func TestApp_UnknownStartBoardSetsError(t *testing.T) {
	h := newAppHarness(t)
	m := newAppModel(h.ctx, Options{Ops: h.ops, Board: "nope"})
	m, cmd := send(t, m, loadBoardsCmd(h.ctx, h.ops)())
	if cmd != nil || m.view != viewBoards || !m.statusErr {
		t.Fatalf("expected error on boards view, got view=%d status=%q", m.view, m.status)
	}
}

func TestApp_MoveDownIsOptimisticThenPersists(t *testing.T) {
	h := newAppHarness(t)
	m := openLaunchBoard(t, h)
	first := m.cols.cols[0].tasks[0]

	m, cmd := send(t, m, keys("J"))
	if got := m.cols.cols[0].tasks[1].ID; got != first.ID {
		t.Fatalf("expected %s at index 1 before the server answers, got %s", first.ID, got)
	}
	if m.inFlight != 1 {
		t.Fatalf("expected one op in flight, got %d", m.inFlight)
	}
	m = drain(t, m, cmd)
	if m.statusErr || m.inFlight != 0 {
		t.Fatalf("unexpected status %q (inFlight=%d)", m.status, m.inFlight)
	}
	if m.sel.TaskID != first.ID || m.sel.Item != 1 {
		t.Fatalf("expected selection to follow the task, got %+v", m.sel)
	}

	fresh := mutate.NewOps(h.client, nil, nil, nil)
	b, err := fresh.LoadBoard(h.ctx, m.board.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	cb := buildColumnsBoard(b)
	if cb.cols[0].tasks[1].ID != first.ID {
		t.Fatalf("server order not updated: %+v", cb.cols[0].tasks)
	}
}

func TestApp_MoveAtEdgeIsIgnored(t *testing.T) {
	h := newAppHarness(t)
	m := openLaunchBoard(t, h)
	if _, cmd := send(t, m, keys("K")); cmd != nil {
		t.Fatalf("expected no command when moving the top task up")
	}
	if _, cmd := send(t, m, keys("H")); cmd != nil {
		t.Fatalf("expected no command when moving left of the first column")
	}
}

func TestApp_FailedMoveRollsBack(t *testing.T) {
	h := newAppHarness(t)
	m := openLaunchBoard(t, h)
	first := m.cols.cols[0].tasks[0]
	if err := h.db.DeleteTask(h.ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyShiftRight})
	if ci, _, ok := m.cols.indexOfTask(first.ID); !ok || ci != 1 {
		t.Fatalf("expected optimistic move into Doing, got col %d ok=%v", ci, ok)
	}
	m = drain(t, m, cmd)
	if !m.statusErr {
		t.Fatalf("expected an error status")
	}
	if ci, ti, ok := m.cols.indexOfTask(first.ID); !ok || ci != 0 || ti != 0 {
		t.Fatalf("expected task back at Todo[0], got %d,%d ok=%v", ci, ti, ok)
	}
}

func selectTask(t *testing.T, m appModel, id model.ID) appModel {
	t.Helper()
	ci, ti, ok := m.cols.indexOfTask(id)
	if !ok {
		t.Fatalf("task %s not on the board", id)
	}
	m.sel = columnsSelection{Col: ci, Item: ti, TaskID: id}
	return m
}

func TestApp_SecondMoveWaitsForFirstToSettle(t *testing.T) {
	h := newAppHarness(t)
	m := openLaunchBoard(t, h)
	gone := m.cols.cols[0].tasks[0]
	other := m.cols.cols[0].tasks[1]
	if err := h.db.DeleteTask(h.ctx, gone.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	m, first := send(t, m, tea.KeyMsg{Type: tea.KeyShiftRight})
	if first == nil || m.inFlight != 1 {
		t.Fatalf("expected first move in flight, got inFlight=%d", m.inFlight)
	}

	m = selectTask(t, m, other.ID)
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyShiftRight})
	if cmd != nil || m.inFlight != 1 {
		t.Fatalf("expected second move refused while the first settles, inFlight=%d", m.inFlight)
	}
	if !strings.Contains(m.status, "Still saving") {
		t.Fatalf("expected saving status, got %q", m.status)
	}
	if ci, _, _ := m.cols.indexOfTask(other.ID); ci != 0 {
		t.Fatalf("expected %s to stay in Todo, got column %d", other.ID, ci)
	}

	m, reload := send(t, m, first())
	if !m.statusErr || reload == nil {
		t.Fatalf("expected error status and a reload, got status=%q", m.status)
	}
	m = drain(t, m, reload)
	if _, _, ok := m.cols.indexOfTask(gone.ID); ok {
		t.Fatalf("expected deleted task gone after reload")
	}

	m = selectTask(t, m, other.ID)
	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyShiftRight})
	if cmd == nil {
		t.Fatalf("expected move accepted once nothing is in flight")
	}
	m = drain(t, m, cmd)
	if m.statusErr {
		t.Fatalf("unexpected error %q", m.status)
	}

	b, err := mutate.NewOps(h.client, nil, nil, nil).LoadBoard(h.ctx, m.board.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	server := buildColumnsBoard(b)
	sci, _, ok := server.indexOfTask(other.ID)
	lci, _, _ := m.cols.indexOfTask(other.ID)
	if !ok || sci != 1 || lci != sci {
		t.Fatalf("expected %s in Doing locally and on the server, got local=%d server=%d", other.ID, lci, sci)
	}
}

func TestApp_DeleteTaskNeedsConfirmation(t *testing.T) {
	h := newAppHarness(t)
	m := openLaunchBoard(t, h)
	first := m.cols.cols[0].tasks[0]

	m, _ = send(t, m, keys("x"))
	if m.confirm == nil {
		t.Fatalf("expected confirm modal")
	}
	if !strings.Contains(xansi.Strip(m.View()), "Delete task") {
		t.Fatalf("expected modal in view")
	}
	m, cmd := send(t, m, keys("n"))
	if m.confirm != nil || cmd != nil {
		t.Fatalf("expected cancel to close the modal without a command")
	}
	if _, _, ok := m.cols.indexOfTask(first.ID); !ok {
		t.Fatalf("task removed after cancel")
	}

	m, _ = send(t, m, keys("x"))
	m, cmd = send(t, m, keys("y"))
	if _, _, ok := m.cols.indexOfTask(first.ID); ok {
		t.Fatalf("expected task gone optimistically")
	}
	m = drain(t, m, cmd)
	if m.statusErr {
		t.Fatalf("unexpected error %q", m.status)
	}
	if len(m.cols.cols[0].tasks) != 2 {
		t.Fatalf("expected 2 tasks left, got %d", len(m.cols.cols[0].tasks))
	}
}

func TestApp_NewTaskLandsOnTop(t *testing.T) {
	h := newAppHarness(t)
	m := openLaunchBoard(t, h)

	m, _ = send(t, m, keys("n"))
	if m.inputKind != inputNewTask {
		t.Fatalf("expected task input")
	}
	m, _ = send(t, m, keys("Write docs"))
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	top := m.cols.cols[0].tasks[0]
	if top.Title != "Write docs" || !strings.HasPrefix(top.ID.String(), "tmp-") {
		t.Fatalf("expected provisional task on top, got %+v", top)
	}

	// Provisional tasks cannot be moved yet.
	if _, c := send(t, m, keys("J")); c != nil {
		t.Fatalf("expected move of provisional task to be blocked")
	}

	m, cmd = send(t, m, cmd())
	if cmd == nil {
		t.Fatalf("expected reload after create")
	}
	m = drain(t, m, cmd)
	top = m.cols.cols[0].tasks[0]
	if top.Title != "Write docs" || strings.HasPrefix(top.ID.String(), "tmp-") {
		t.Fatalf("expected server task on top after reload, got %+v", top)
	}
}

func TestApp_TaskViewTogglesSubtask(t *testing.T) {
	h := newAppHarness(t)
	m := openLaunchBoard(t, h)

	m, _ = send(t, m, keys("l"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != viewTask {
		t.Fatalf("expected task view")
	}
	task, _ := m.selectedTask()
	before, _ := task.CompletedSubtasks()

	m, _ = send(t, m, keys("j"))
	m, _ = send(t, m, keys("j"))
	m, cmd := send(t, m, keys(" "))
	task, _ = m.selectedTask()
	after, _ := task.CompletedSubtasks()
	if after == before {
		t.Fatalf("expected optimistic toggle, still %d done", after)
	}
	m = drain(t, m, cmd)
	if m.statusErr {
		t.Fatalf("unexpected error %q", m.status)
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.view != viewBoard {
		t.Fatalf("expected esc back to the board")
	}
}

func TestApp_NavigatorAndHighlights(t *testing.T) {
	h := newAppHarness(t)
	m := openLaunchBoard(t, h)
	first := m.cols.cols[0].tasks[0]

	m, _ = send(t, m, highlightMsg{TaskID: first.ID, At: time.Now()})
	if until, ok := m.flash[first.ID]; !ok || !until.After(time.Now()) {
		t.Fatalf("expected task to flash")
	}
	m.flash[first.ID] = time.Now().Add(-time.Second)
	m, _ = send(t, m, flashExpiredMsg{})
	if len(m.flash) != 0 {
		t.Fatalf("expected expired flash to be cleared")
	}

	nav := navigator{ch: m.nav}
	for i := 0; i < 20; i++ {
		nav.Home() // must not block once the buffer is full
	}
	m, cmd := send(t, m, <-m.nav)
	if m.view != viewBoards || !m.active.get().IsZero() || cmd == nil {
		t.Fatalf("expected home navigation, got view=%d", m.view)
	}
}

func TestApp_AssistantDeleteWaitsForAnswer(t *testing.T) {
	h := newAppHarness(t)
	m := openLaunchBoard(t, h)
	first := m.cols.cols[0].tasks[0]

	m.sess.Dispatch(h.ctx, bridge.DeleteTask, bridge.Args{"task_title": first.Title})
	if !strings.Contains(xansi.Strip(m.View()), "Assistant wants to delete") {
		t.Fatalf("expected assistant confirmation modal")
	}
	// Board keys are swallowed while the question is open.
	if _, cmd := send(t, m, keys("J")); cmd != nil {
		t.Fatalf("expected board keys to be ignored")
	}

	m, cmd := send(t, m, keys("n"))
	m = drain(t, m, cmd)
	if _, ok := m.sess.Pending(); ok {
		t.Fatalf("expected nothing pending after cancel")
	}
	if _, _, ok := m.cols.indexOfTask(first.ID); !ok {
		t.Fatalf("task deleted despite cancel")
	}

	m.sess.Dispatch(h.ctx, bridge.DeleteTask, bridge.Args{"task_title": first.Title})
	m, cmd = send(t, m, keys("y"))
	m = drain(t, m, cmd)
	if _, _, ok := m.cols.indexOfTask(first.ID); ok {
		t.Fatalf("expected task deleted after confirm")
	}
}

func TestApp_RestoresSavedBoard(t *testing.T) {
	h := newAppHarness(t)
	st := &store.TUIState{BoardID: "2", ShowChat: true}
	m := newAppModel(h.ctx, Options{Ops: h.ops, State: st})
	if !m.showChat {
		t.Fatalf("expected chat pane restored")
	}
	m, cmd := send(t, m, loadBoardsCmd(h.ctx, h.ops)())
	m = drain(t, m, cmd)
	if m.board.Name != "Marketing Plan" {
		t.Fatalf("expected saved board open, got %q", m.board.Name)
	}
	if len(st.RecentBoardIDs) == 0 || st.RecentBoardIDs[0] != "2" {
		t.Fatalf("expected visit recorded, got %v", st.RecentBoardIDs)
	}
}

func TestApp_StaleSavedBoardIsDropped(t *testing.T) {
	h := newAppHarness(t)
	m := newAppModel(h.ctx, Options{Ops: h.ops, State: &store.TUIState{BoardID: "999"}})
	m, cmd := send(t, m, loadBoardsCmd(h.ctx, h.ops)())
	if cmd != nil || m.view != viewBoards || m.statusErr {
		t.Fatalf("expected quiet fallback to the board list, got view=%d status=%q", m.view, m.status)
	}
}

func TestApp_NoLoggerWritesNowhere(t *testing.T) {
	h := newAppHarness(t)
	m := newAppModel(h.ctx, Options{Ops: h.ops})
	l, ok := m.log.(*log.Logger)
	if !ok || l.Out != io.Discard {
		t.Fatalf("expected a discarding logger under the alt screen, got %T", m.log)
	}
}
