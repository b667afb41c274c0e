package tui

import (
	"fmt"
	"strings"
	"time"

	"kanban-cli/internal/model"
	"kanban-cli/internal/mutate"
	"kanban-cli/internal/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.sess.Loading() {
			return m, nil
		}
		m.chat.setMessages(m.sess.Messages())
		var cmd tea.Cmd
		m.chat.spin, cmd = m.chat.spin.Update(msg)
		return m, cmd

	case boardsLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.boards.SetItems(boardItems(msg.boards, m.active.get()))
		if ref := m.startBoard; ref != "" {
			m.startBoard = ""
			for _, b := range msg.boards {
				if b.ID.String() == ref || strings.EqualFold(b.Name, ref) {
					cmd := m.openBoard(b.ID)
					return m, cmd
				}
			}
			if !m.startQuiet {
				m.setError(fmt.Errorf("board not found: %s", ref))
			}
		}
		return m, nil

	case boardLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		if msg.id == m.active.get() {
			m.syncBoard()
		}
		return m, nil

	case opDoneMsg:
		m.inFlight = max(m.inFlight-1, 0)
		m.syncBoard()
		m.syncBoardList()
		if msg.err != nil {
			m.setError(fmt.Errorf("%s failed: %w", msg.label, msg.err))
			if !m.active.get().IsZero() {
				return m, loadBoardCmd(m.ctx, m.ops, m.active.get())
			}
			return m, nil
		}
		m.setStatus(msg.label)
		if msg.reload && !m.active.get().IsZero() {
			return m, loadBoardCmd(m.ctx, m.ops, m.active.get())
		}
		return m, nil

	case navMsg:
		var cmd tea.Cmd
		if msg.home {
			cmd = m.goHome()
		} else {
			cmd = m.openBoard(msg.id)
		}
		return m, tea.Batch(cmd, listenNav(m.nav))

	case highlightMsg:
		m.flash[msg.TaskID] = time.Now().Add(flashDuration)
		m.syncBoard()
		return m, tea.Batch(
			listenHighlights(m.highlights),
			tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashExpiredMsg{} }),
		)

	case flashExpiredMsg:
		now := time.Now()
		for id, until := range m.flash {
			if !now.Before(until) {
				delete(m.flash, id)
			}
		}
		return m, nil

	case highlightsClosed:
		m.highlights = nil
		return m, nil

	case chatDoneMsg:
		m.chat.setMessages(m.sess.Messages())
		m.syncBoard()
		m.syncBoardList()
		if _, ok := m.sess.Pending(); ok {
			m.chatFocus = confirmFocusConfirm
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.view == viewBoards {
		var cmd tea.Cmd
		m.boards, cmd = m.boards.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirm != nil {
		return m.updateConfirm(key)
	}
	if _, ok := m.sess.Pending(); ok {
		return m.updateChatConfirm(key)
	}
	if m.editing {
		return m.updateEditor(msg)
	}
	if m.inputKind != inputNone {
		return m.updateInput(msg)
	}
	if m.showChat && m.chat.focused {
		return m.updateChat(msg)
	}
	if m.view == viewBoards && m.boards.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.boards, cmd = m.boards.Update(msg)
		return m, cmd
	}

	if key == "tab" {
		if !m.showChat {
			m.showChat = true
			m.resize()
		}
		m.chat.setMessages(m.sess.Messages())
		cmd := m.chat.focus()
		return m, cmd
	}
	if key == "q" {
		return m, tea.Quit
	}

	switch m.view {
	case viewBoards:
		return m.updateBoards(msg)
	case viewBoard:
		return m.updateBoard(key)
	case viewTask:
		return m.updateTask(key)
	}
	return m, nil
}

func toggleFocus(f confirmModalFocus) confirmModalFocus {
	if f == confirmFocusConfirm {
		return confirmFocusCancel
	}
	return confirmFocusConfirm
}

func (m appModel) updateConfirm(key string) (tea.Model, tea.Cmd) {
	c := m.confirm
	switch key {
	case "left", "right", "h", "l", "tab", "shift+tab":
		c.focus = toggleFocus(c.focus)
	case "y":
		m.confirm = nil
		cmd := c.onYes(&m)
		return m, cmd
	case "n", "esc":
		m.confirm = nil
	case "enter":
		m.confirm = nil
		if c.focus == confirmFocusConfirm {
			cmd := c.onYes(&m)
			return m, cmd
		}
	}
	return m, nil
}

func (m appModel) updateChatConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "left", "right", "h", "l", "tab", "shift+tab":
		m.chatFocus = toggleFocus(m.chatFocus)
	case "y":
		cmd := m.answerChat(true)
		return m, cmd
	case "n", "esc":
		cmd := m.answerChat(false)
		return m, cmd
	case "enter":
		cmd := m.answerChat(m.chatFocus == confirmFocusConfirm)
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.chat.blur()
		return m, nil
	case "tab":
		m.chat.blur()
		m.showChat = false
		m.resize()
		return m, nil
	case "enter":
		text := m.chat.take()
		if text == "" {
			return m, nil
		}
		cmd := m.sendChat(text)
		return m, cmd
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chat.vp, cmd = m.chat.vp.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	return m, cmd
}

func (m appModel) updateBoards(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if it, ok := m.boards.SelectedItem().(boardItem); ok {
			cmd := m.openBoard(it.board.ID)
			return m, cmd
		}
		return m, nil
	case "r":
		m.setStatus("")
		return m, loadBoardsCmd(m.ctx, m.ops)
	}
	var cmd tea.Cmd
	m.boards, cmd = m.boards.Update(msg)
	return m, cmd
}

func (m appModel) updateBoard(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "backspace":
		cmd := m.goHome()
		return m, cmd
	case "r":
		m.setStatus("")
		return m, loadBoardCmd(m.ctx, m.ops, m.active.get())

	case "left", "h":
		m.sel = m.cols.clamp(columnsSelection{Col: m.sel.Col - 1, Item: m.sel.Item})
	case "right", "l":
		m.sel = m.cols.clamp(columnsSelection{Col: m.sel.Col + 1, Item: m.sel.Item})
	case "up", "k":
		m.sel = m.cols.clamp(columnsSelection{Col: m.sel.Col, Item: m.sel.Item - 1})
	case "down", "j":
		m.sel = m.cols.clamp(columnsSelection{Col: m.sel.Col, Item: m.sel.Item + 1})

	case "shift+left", "H":
		cmd := m.moveSelected(-1, 0)
		return m, cmd
	case "shift+right", "L":
		cmd := m.moveSelected(1, 0)
		return m, cmd
	case "shift+up", "K":
		cmd := m.moveSelected(0, -1)
		return m, cmd
	case "shift+down", "J":
		cmd := m.moveSelected(0, 1)
		return m, cmd

	case "enter":
		if t, ok := m.cols.selectedTask(m.sel); ok {
			m.sel.TaskID = t.ID
			m.subSel = 0
			m.view = viewTask
		}
	case "n":
		if len(m.cols.cols) == 0 {
			m.setError(fmt.Errorf("add a column first"))
			return m, nil
		}
		cmd := m.openInput(inputNewTask, fmt.Sprintf("New task in %s: ", m.cols.cols[m.sel.Col].label))
		return m, cmd
	case "a":
		cmd := m.openInput(inputNewColumn, "New column: ")
		return m, cmd
	case "x", "delete":
		if t, ok := m.cols.selectedTask(m.sel); ok {
			m.askDeleteTask(t)
		}
	case "X":
		if len(m.cols.cols) > 0 {
			m.askDeleteColumn(m.cols.cols[m.sel.Col])
		}
	}
	return m, nil
}

func (m appModel) updateTask(key string) (tea.Model, tea.Cmd) {
	t, ok := m.selectedTask()
	if !ok {
		m.view = viewBoard
		return m, nil
	}
	switch key {
	case "esc", "backspace":
		m.view = viewBoard
	case "up", "k":
		m.subSel = max(m.subSel-1, 0)
	case "down", "j":
		m.subSel = max(min(m.subSel+1, len(t.Subtasks)-1), 0)
	case " ", "enter":
		if m.subSel >= len(t.Subtasks) {
			return m, nil
		}
		if m.blockedOnSave(t.ID) || m.blockedOnInFlight() {
			return m, nil
		}
		op, err := m.ops.ToggleSubtask(m.active.get(), t.Subtasks[m.subSel].ID)
		cmd := m.afterOp(op, err, "Updated subtask", false)
		return m, cmd
	case "e":
		if m.blockedOnSave(t.ID) {
			return m, nil
		}
		m.editing = true
		m.editor.SetValue(t.Description)
		cmd := m.editor.Focus()
		return m, cmd
	case "x", "delete":
		m.askDeleteTask(t)
	}
	return m, nil
}

func (m appModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.editor.Blur()
		return m, nil
	case "ctrl+s":
		if m.blockedOnInFlight() {
			return m, nil
		}
		m.editing = false
		m.editor.Blur()
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		desc := m.editor.Value()
		op, err := m.ops.UpdateTask(m.active.get(), t.ID, mutate.TaskChanges{Description: &desc})
		cmd := m.afterOp(op, err, "Saved description", false)
		return m, cmd
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return m, nil
	case "enter":
		if m.blockedOnInFlight() {
			return m, nil
		}
		kind := m.inputKind
		text := strings.TrimSpace(m.input.Value())
		m.closeInput()
		if text == "" {
			return m, nil
		}
		boardID := m.active.get()
		switch kind {
		case inputNewTask:
			col := m.cols.cols[m.sel.Col]
			op, err := m.ops.CreateTask(boardID, model.CreateTaskInput{Title: text, ColumnID: col.id}, mutate.PlaceTop)
			if err == nil {
				m.sel = columnsSelection{Col: m.sel.Col, Item: 0, TaskID: op.TaskID}
			}
			cmd := m.afterOp(op, err, "Created task", true)
			return m, cmd
		case inputNewColumn:
			op, err := m.ops.CreateColumn(boardID, text)
			cmd := m.afterOp(op, err, "Added column", true)
			return m, cmd
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) openInput(kind inputKind, prompt string) tea.Cmd {
	m.inputKind = kind
	m.input.Prompt = prompt
	m.input.SetValue("")
	m.setStatus("")
	return m.input.Focus()
}

func (m *appModel) closeInput() {
	m.inputKind = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

// blockedOnSave reports (and says so in the status line) when a task still has a
// provisional id; the server does not know it yet.
func (m *appModel) blockedOnSave(id model.ID) bool {
	if !store.ProvisionalID(id) {
		return false
	}
	m.setStatus("Still saving, try again in a moment")
	return true
}

// blockedOnInFlight refuses a new edit to the open board until the previous one has
// settled. Each op snapshots the board, so edits on one key run one at a time.
func (m *appModel) blockedOnInFlight() bool {
	if m.inFlight == 0 {
		return false
	}
	m.setStatus("Still saving, try again in a moment")
	return true
}

// afterOp shows the optimistic state and schedules the server half.
func (m *appModel) afterOp(op *mutate.Op, err error, label string, reload bool) tea.Cmd {
	if err != nil {
		m.setError(err)
		return nil
	}
	m.syncBoard()
	m.syncBoardList()
	return m.settle(op, label, reload)
}

func (m *appModel) moveSelected(dCol, dIdx int) tea.Cmd {
	t, ok := m.cols.selectedTask(m.sel)
	if !ok || m.blockedOnSave(t.ID) || m.blockedOnInFlight() {
		return nil
	}
	sel := m.cols.clamp(m.sel)
	toCol := sel.Col + dCol
	if toCol < 0 || toCol >= len(m.cols.cols) {
		return nil
	}
	var toIdx int
	if dCol != 0 {
		toIdx = min(sel.Item, len(m.cols.cols[toCol].tasks))
	} else {
		toIdx = sel.Item + dIdx
		if toIdx < 0 || toIdx >= len(m.cols.cols[toCol].tasks) {
			return nil
		}
	}
	op, err := m.ops.MoveTask(m.active.get(), t.ID, m.cols.cols[toCol].id, toIdx)
	m.sel.TaskID = t.ID
	return m.afterOp(op, err, "Moved "+t.Title, false)
}

func (m *appModel) askDeleteTask(t model.Task) {
	if m.blockedOnSave(t.ID) {
		return
	}
	id := t.ID
	m.confirm = &confirmState{
		title: "Delete task",
		body:  fmt.Sprintf("Are you sure you want to delete %q and its subtasks?", t.Title),
		focus: confirmFocusCancel,
		onYes: func(m *appModel) tea.Cmd {
			if m.blockedOnInFlight() {
				return nil
			}
			m.view = viewBoard
			op, err := m.ops.DeleteTask(m.active.get(), id)
			return m.afterOp(op, err, "Deleted task", false)
		},
	}
}

func (m *appModel) askDeleteColumn(c boardColumn) {
	if m.blockedOnSave(c.id) {
		return
	}
	id := c.id
	m.confirm = &confirmState{
		title: "Delete column",
		body:  fmt.Sprintf("Are you sure you want to delete %q and its %d tasks?", c.label, len(c.tasks)),
		focus: confirmFocusCancel,
		onYes: func(m *appModel) tea.Cmd {
			if m.blockedOnInFlight() {
				return nil
			}
			op, err := m.ops.DeleteColumn(m.active.get(), id)
			return m.afterOp(op, err, "Deleted column", false)
		},
	}
}
