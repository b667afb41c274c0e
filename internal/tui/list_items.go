package tui

import (
	"kanban-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
)

type boardItem struct {
	board   model.Board
	current bool
}

func (i boardItem) FilterValue() string { return i.board.Name }
func (i boardItem) Title() string {
	if i.current {
		return i.board.Name + " •"
	}
	return i.board.Name
}
func (i boardItem) Description() string { return "#" + i.board.ID.String() }

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	// The app renders its own header and footer.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("board", "boards")
	// ESC is "back" here, not quit.
	l.KeyMap.Quit.SetKeys("q")
	l.KeyMap.CursorUp.SetKeys(append(l.KeyMap.CursorUp.Keys(), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(l.KeyMap.CursorDown.Keys(), "ctrl+n")...)
	return l
}

func boardItems(bs []model.Board, current model.ID) []list.Item {
	items := make([]list.Item, 0, len(bs))
	for _, b := range bs {
		items = append(items, boardItem{board: b, current: b.ID == current})
	}
	return items
}

func selectBoard(l *list.Model, id model.ID) {
	for i, it := range l.Items() {
		if bi, ok := it.(boardItem); ok && bi.board.ID == id {
			l.Select(i)
			return
		}
	}
}
