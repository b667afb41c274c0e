package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"kanban-cli/internal/model"
)

const tuiStateFileName = "tui_state.json"

// TUIState is the small bit of interactive state restored on relaunch. Loading is best
// effort: a missing or corrupt file yields the zero state.
type TUIState struct {
	Version int `json:"version"`

	// BoardID is the board that was open on exit; empty means the board list.
	BoardID  model.ID `json:"boardId,omitempty"`
	ShowChat bool     `json:"showChat,omitempty"`

	// RecentBoardIDs lists opened boards, newest first.
	RecentBoardIDs []model.ID `json:"recentBoardIds,omitempty"`
}

const maxRecentBoards = 10

// Visit records id as the newest recent board.
func (st *TUIState) Visit(id model.ID) {
	if id.IsZero() {
		return
	}
	out := []model.ID{id}
	for _, r := range st.RecentBoardIDs {
		if r != id && len(out) < maxRecentBoards {
			out = append(out, r)
		}
	}
	st.RecentBoardIDs = out
}

func tuiStatePath(dir string) string {
	return filepath.Join(dir, tuiStateFileName)
}

func LoadTUIState(dir string) (*TUIState, error) {
	if strings.TrimSpace(dir) == "" {
		return &TUIState{Version: 1}, nil
	}
	b, err := os.ReadFile(tuiStatePath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &TUIState{Version: 1}, nil
		}
		return nil, err
	}
	var st TUIState
	if err := json.Unmarshal(b, &st); err != nil {
		return &TUIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func SaveTUIState(dir string, st *TUIState) error {
	if st == nil || strings.TrimSpace(dir) == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	path := tuiStatePath(dir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
