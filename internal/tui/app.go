package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"kanban-cli/internal/bridge"
	"kanban-cli/internal/chat"
	"kanban-cli/internal/logging"
	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/signal"
	"kanban-cli/internal/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
)

type view int

const (
	viewBoards view = iota
	viewBoard
	viewTask
)

type inputKind int

const (
	inputNone inputKind = iota
	inputNewTask
	inputNewColumn
)

const flashDuration = 1500 * time.Millisecond

// Messages.
type (
	boardsLoadedMsg struct {
		boards []model.Board
		err    error
	}
	boardLoadedMsg struct {
		id    model.ID
		board model.Board
		err   error
	}
	opDoneMsg struct {
		label  string
		op     *mutate.Op
		reload bool
		err    error
	}
	navMsg struct {
		home bool
		id   model.ID
		name string
	}
	highlightMsg     signal.Highlight
	flashExpiredMsg  struct{}
	chatDoneMsg      struct{}
	highlightsClosed struct{}
)

// activeBoard is the board the user is looking at. The chat session reads it from
// its own goroutine.
type activeBoard struct {
	mu sync.Mutex
	id model.ID
}

func (a *activeBoard) set(id model.ID) {
	a.mu.Lock()
	a.id = id
	a.mu.Unlock()
}

func (a *activeBoard) get() model.ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id
}

// navigator forwards bridge navigation into the program. Sends never block: a full
// buffer drops the request.
type navigator struct{ ch chan navMsg }

func (n navigator) OpenBoard(id model.ID, name string) {
	select {
	case n.ch <- navMsg{id: id, name: name}:
	default:
	}
}

func (n navigator) Home() {
	select {
	case n.ch <- navMsg{home: true}:
	default:
	}
}

type confirmState struct {
	title string
	body  string
	focus confirmModalFocus
	onYes func(m *appModel) tea.Cmd
}

type appModel struct {
	ctx  context.Context
	ops  *mutate.Ops
	sess *chat.Session
	log  log.FieldLogger

	nav        chan navMsg
	highlights <-chan signal.Highlight
	active     *activeBoard
	startBoard string
	// startQuiet is set when startBoard came from saved state; a stale id is dropped
	// without an error.
	startQuiet bool
	state      *store.TUIState

	width  int
	height int
	view   view

	boards list.Model
	board  model.Board
	cols   columnsBoard
	sel    columnsSelection
	subSel int

	chat     chatPane
	showChat bool

	input     textinput.Model
	inputKind inputKind
	editor    textarea.Model
	editing   bool

	confirm   *confirmState
	chatFocus confirmModalFocus
	flash     map[model.ID]time.Time
	status    string
	statusErr bool
	inFlight  int
}

func newAppModel(ctx context.Context, opts Options) appModel {
	m := appModel{
		ctx:        ctx,
		ops:        opts.Ops,
		log:        opts.Logger,
		nav:        make(chan navMsg, 8),
		active:     &activeBoard{},
		startBoard: strings.TrimSpace(opts.Board),
		state:      opts.State,
		boards:     newList("Boards", nil),
		chat:       newChatPane(),
		flash:      map[model.ID]time.Time{},
	}
	if m.log == nil {
		m.log = logging.Discard()
	}
	if m.state == nil {
		m.state = &store.TUIState{Version: 1}
	}
	if m.startBoard == "" && !m.state.BoardID.IsZero() {
		m.startBoard, m.startQuiet = m.state.BoardID.String(), true
	}
	m.showChat = m.state.ShowChat

	br := bridge.New(opts.Ops, bridge.Options{
		Hub:            opts.Hub,
		Navigator:      navigator{ch: m.nav},
		HighlightDelay: opts.HighlightDelay,
		Logger:         m.log,
	})
	active := m.active
	m.sess = chat.NewSession(opts.Assistant, br, chat.Options{
		Context: func() bridge.Context { return bridge.Context{BoardID: active.get()} },
		Logger:  m.log,
	})
	if opts.Hub != nil {
		m.highlights, _ = opts.Hub.SubscribeAll()
	}

	m.input = textinput.New()
	m.input.CharLimit = 200
	m.editor = textarea.New()
	m.editor.Placeholder = "Describe the task (markdown)…"
	m.editor.ShowLineNumbers = false
	m.editor.CharLimit = 0
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(loadBoardsCmd(m.ctx, m.ops), listenNav(m.nav), listenHighlights(m.highlights))
}

// Commands.

func loadBoardsCmd(ctx context.Context, ops *mutate.Ops) tea.Cmd {
	return func() tea.Msg {
		bs, err := ops.LoadBoards(ctx)
		return boardsLoadedMsg{boards: bs, err: err}
	}
}

func loadBoardCmd(ctx context.Context, ops *mutate.Ops, id model.ID) tea.Cmd {
	return func() tea.Msg {
		b, err := ops.LoadBoard(ctx, id)
		return boardLoadedMsg{id: id, board: b, err: err}
	}
}

func listenNav(ch <-chan navMsg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func listenHighlights(ch <-chan signal.Highlight) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		h, ok := <-ch
		if !ok {
			return highlightsClosed{}
		}
		return highlightMsg(h)
	}
}

// settle runs the server half of an optimistic op off the update loop.
func (m *appModel) settle(op *mutate.Op, label string, reload bool) tea.Cmd {
	if op == nil || op.Noop {
		return nil
	}
	m.inFlight++
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{label: label, op: op, reload: reload, err: op.Wait(ctx)}
	}
}

func (m *appModel) sendChat(text string) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return tea.Batch(m.chat.spin.Tick, func() tea.Msg {
		sess.Send(ctx, text)
		return chatDoneMsg{}
	})
}

func (m *appModel) answerChat(yes bool) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return tea.Batch(m.chat.spin.Tick, func() tea.Msg {
		if yes {
			_ = sess.Accept(ctx)
		} else {
			_ = sess.Reject()
		}
		return chatDoneMsg{}
	})
}

// State helpers.

func (m *appModel) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *appModel) setError(err error) {
	m.status, m.statusErr = err.Error(), true
	m.log.WithError(err).Warn("tui action failed")
}

// syncBoard re-reads the active board from the cache; optimistic patches and
// rollbacks both show up through here.
func (m *appModel) syncBoard() {
	id := m.active.get()
	if id.IsZero() {
		return
	}
	b, ok := m.ops.Boards.Get(store.BoardKey(id))
	if !ok {
		return
	}
	m.board = b
	m.cols = buildColumnsBoard(b)
	m.sel = m.cols.clamp(m.sel)
}

func (m *appModel) syncBoardList() {
	bs, ok := m.ops.Index.Get(store.BoardsKey)
	if !ok {
		return
	}
	m.boards.SetItems(boardItems(bs, m.active.get()))
}

func (m *appModel) openBoard(id model.ID) tea.Cmd {
	if m.active.get() != id {
		m.sel = columnsSelection{}
	}
	m.active.set(id)
	m.state.Visit(id)
	m.view = viewBoard
	m.board = model.Board{ID: id}
	m.cols = columnsBoard{}
	m.syncBoard()
	selectBoard(&m.boards, id)
	return loadBoardCmd(m.ctx, m.ops, id)
}

func (m *appModel) goHome() tea.Cmd {
	m.active.set("")
	m.view = viewBoards
	m.board = model.Board{}
	m.cols = columnsBoard{}
	return loadBoardsCmd(m.ctx, m.ops)
}

func (m *appModel) resize() {
	chatW := 0
	if m.showChat {
		chatW = min(max(m.width/3, 30), 60)
	}
	bodyH := max(m.height-4, 4)
	m.boards.SetSize(max(m.width-chatW-1, 20), bodyH)
	m.chat.setSize(chatW, bodyH)
	m.editor.SetWidth(modalBodyWidth(m.width))
	m.editor.SetHeight(8)
}

func (m appModel) selectedTask() (model.Task, bool) {
	if m.view == viewTask {
		if ref, ok := store.FindTask(&m.board, m.sel.TaskID); ok {
			return m.board.Columns[ref.Col].Tasks[ref.Task], true
		}
		return model.Task{}, false
	}
	return m.cols.selectedTask(m.sel)
}

// Run starts the interactive board and blocks until the user quits. With a StateDir
// the open board and chat pane are restored on the next run.
func Run(ctx context.Context, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()
	if opts.State == nil && opts.StateDir != "" {
		st, err := store.LoadTUIState(opts.StateDir)
		if err != nil {
			return err
		}
		opts.State = st
	}
	m := newAppModel(ctx, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(appModel); ok && opts.StateDir != "" {
		fm.state.BoardID = fm.active.get()
		fm.state.ShowChat = fm.showChat
		if err := store.SaveTUIState(opts.StateDir, fm.state); err != nil {
			fm.log.WithError(err).Warn("save tui state")
		}
	}
	return nil
}

// Options configures Run.
type Options struct {
	Ops       *mutate.Ops
	Assistant chat.Assistant
	Hub       *signal.Hub
	// Board is opened on start when set (id or name).
	Board          string
	HighlightDelay time.Duration
	Logger         log.FieldLogger
	// StateDir holds tui_state.json. State, when set, is used instead of loading it.
	StateDir string
	State    *store.TUIState
}

func (m appModel) View() string {
	if m.width == 0 {
		return ""
	}
	if m.confirm != nil {
		return placeCentered(m.width, m.height, renderConfirmModal(m.width, m.confirm.title, m.confirm.body, "Delete", "Cancel", m.confirm.focus))
	}
	if p, ok := m.sess.Pending(); ok {
		body := fmt.Sprintf("Are you sure you want to delete %s?", p.Args.Subject())
		return placeCentered(m.width, m.height, renderConfirmModal(m.width, "Assistant wants to delete", body, "Delete", "Cancel", m.chatFocus))
	}
	if m.editing {
		content := m.editor.View() + "\n\n" + styleMuted().Render("ctrl+s: save   esc: cancel")
		return placeCentered(m.width, m.height, renderModalBox(m.width, "Description", content))
	}

	chatW := 0
	if m.showChat {
		chatW = m.chat.width
	}
	mainW := max(m.width-chatW-1, 20)
	bodyH := max(m.height-4, 4)

	var body string
	switch m.view {
	case viewBoards:
		body = normalizePane(m.boards.View(), mainW, bodyH)
	case viewBoard:
		body = renderColumns(m.cols, m.sel, m.flash, time.Now(), mainW, bodyH)
	case viewTask:
		body = m.viewTask(mainW, bodyH)
	}
	if m.showChat {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.chat.view(m.sess.Loading()))
	}

	return strings.Join([]string{m.header(), body, m.inputLine(), m.footer()}, "\n")
}

func (m appModel) header() string {
	title := "Kanban"
	switch m.view {
	case viewBoard, viewTask:
		title += " › " + m.board.Name
	}
	if m.view == viewTask {
		if t, ok := m.selectedTask(); ok {
			title += " › " + t.Title
		}
	}
	if m.inFlight > 0 {
		title += "  " + styleMuted().Render("saving…")
	}
	return lipgloss.NewStyle().Bold(true).Render(truncateText(title, m.width))
}

func (m appModel) inputLine() string {
	switch {
	case m.inputKind != inputNone:
		return m.input.View()
	case m.status != "" && m.statusErr:
		return styleError().Render(truncateText(m.status, max(m.width-2, 1)))
	case m.status != "":
		return lipgloss.NewStyle().Foreground(colorSuccess).Render(truncateText(m.status, m.width))
	}
	return ""
}

func (m appModel) footer() string {
	var keys string
	switch m.view {
	case viewBoards:
		keys = "enter: open  /: filter  r: reload  tab: chat  q: quit"
	case viewBoard:
		keys = "←↓↑→: select  shift+arrows: move  enter: open  n: new task  a: add column  x: delete  r: reload  esc: boards  tab: chat"
	case viewTask:
		keys = "↑↓: subtask  space: toggle  e: edit description  esc: back  tab: chat"
	}
	return styleMuted().Render(truncateText(keys, m.width))
}

func (m appModel) viewTask(width, height int) string {
	t, ok := m.selectedTask()
	if !ok {
		return normalizePane(styleMuted().Render("Task not found."), width, height)
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render(t.Title), ""}
	if d := renderMarkdown(t.Description, width); d != "" {
		lines = append(lines, d, "")
	}
	done, total := t.CompletedSubtasks()
	lines = append(lines, styleMuted().Render(fmt.Sprintf("Subtasks (%d of %d)", done, total)))
	for i, s := range t.Subtasks {
		mark := "[ ]"
		if s.IsCompleted {
			mark = "[x]"
		}
		row := mark + " " + s.Title
		st := lipgloss.NewStyle()
		if s.IsCompleted {
			st = faintIfDark(st).Strikethrough(true)
		}
		if i == m.subSel {
			st = st.Foreground(colorSelectedFg).Background(colorSelectedBg)
		}
		lines = append(lines, st.Render(truncateText(row, width)))
	}
	if time.Now().Before(m.flash[t.ID]) {
		lines[0] = lipgloss.NewStyle().Bold(true).Background(colorFlashBg).Render(t.Title)
	}
	return normalizePane(strings.Join(lines, "\n"), width, height)
}
