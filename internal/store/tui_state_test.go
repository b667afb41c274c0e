package store

import (
	"os"
	"path/filepath"
	"testing"

	"kanban-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUIState_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	st, err := LoadTUIState(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Version)
	assert.True(t, st.BoardID.IsZero())

	st.BoardID = "3"
	st.ShowChat = true
	st.Visit("1")
	st.Visit("3")
	require.NoError(t, SaveTUIState(dir, st))

	got, err := LoadTUIState(dir)
	require.NoError(t, err)
	assert.Equal(t, model.ID("3"), got.BoardID)
	assert.True(t, got.ShowChat)
	assert.Equal(t, []model.ID{"3", "1"}, got.RecentBoardIDs)
}

func TestTUIState_CorruptFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, tuiStateFileName), []byte("{nope"), 0o644))

	st, err := LoadTUIState(dir)
	require.NoError(t, err)
	assert.Equal(t, &TUIState{Version: 1}, st)
}

func TestTUIState_VisitDedupesAndCaps(t *testing.T) {
	var st TUIState
	for i := 0; i < maxRecentBoards+5; i++ {
		st.Visit(model.ID(string(rune('a' + i))))
	}
	st.Visit("c")
	assert.Len(t, st.RecentBoardIDs, maxRecentBoards)
	assert.Equal(t, model.ID("c"), st.RecentBoardIDs[0])
	st.Visit("")
	assert.Equal(t, model.ID("c"), st.RecentBoardIDs[0])
}

func TestTUIState_EmptyDirIsNoop(t *testing.T) {
	require.NoError(t, SaveTUIState("", &TUIState{BoardID: "1"}))
	st, err := LoadTUIState("")
	require.NoError(t, err)
	assert.True(t, st.BoardID.IsZero())
}
