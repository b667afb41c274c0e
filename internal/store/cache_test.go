package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"kanban-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PatchDoesNotTouchSnapshot(t *testing.T) {
	c := NewBoardCache()
	key := BoardKey("1")
	c.Load(key, fixtureBoard())

	snap := c.Snapshot(key)
	require.NoError(t, c.Patch(key, func(b *model.Board) error {
		_, err := MoveTask(b, "t-50", "20", 0)
		return err
	}))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Len(t, got.Columns[1].Tasks, 1)

	require.NoError(t, c.Restore(key, snap))
	got, _ = c.Get(key)
	assert.Equal(t, fixtureBoard(), got)
}

func TestCache_SnapshotPatchCapturesPatchedBase(t *testing.T) {
	c := NewBoardCache()
	key := BoardKey("1")
	c.Load(key, fixtureBoard())

	snap, err := c.SnapshotPatch(key, func(b *model.Board) error {
		b.Name = "patched"
		return nil
	})
	require.NoError(t, err)
	assert.True(t, snap.Present())
	assert.Equal(t, "Platform", snap.value.Name)
	got, _ := c.Get(key)
	assert.Equal(t, "patched", got.Name)

	_, err = c.SnapshotPatch(key, func(b *model.Board) error {
		b.Name = "half-done"
		return errors.New("boom")
	})
	require.Error(t, err)
	got, _ = c.Get(key)
	assert.Equal(t, "patched", got.Name)
}

func TestCache_SnapshotPatchIsAtomicWithRestore(t *testing.T) {
	c := NewBoardCache()
	key := BoardKey("1")
	c.Load(key, fixtureBoard())

	var snaps []Snapshot[model.Board]
	for i := 0; i < 4; i++ {
		b := fixtureBoard()
		b.Name = fmt.Sprintf("base-%d", i)
		c.Load(key, b)
		snaps = append(snaps, c.Snapshot(key))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = c.Restore(key, snaps[i%len(snaps)])
		}
	}()
	for i := 0; i < 500; i++ {
		var seen string
		snap, err := c.SnapshotPatch(key, func(b *model.Board) error {
			seen = b.Name
			b.Name = "patched"
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, seen, snap.value.Name)
	}
	wg.Wait()
}

func TestCache_FailedPatchInstallsNothing(t *testing.T) {
	c := NewBoardCache()
	key := BoardKey("1")
	c.Load(key, fixtureBoard())

	err := c.Patch(key, func(b *model.Board) error {
		b.Name = "half-done"
		return errors.New("boom")
	})
	require.Error(t, err)

	got, _ := c.Get(key)
	assert.Equal(t, "Platform", got.Name)
}

func TestCache_GetReturnsPrivateCopy(t *testing.T) {
	c := NewBoardCache()
	key := BoardKey("1")
	c.Load(key, fixtureBoard())

	got, _ := c.Get(key)
	got.Columns[0].Tasks[0].Title = "mutated"

	again, _ := c.Get(key)
	assert.Equal(t, "Later", again.Columns[0].Tasks[0].Title)
}

func TestCache_RestoreAbsentSnapshotRemovesKey(t *testing.T) {
	c := NewBoardListCache()
	snap := c.Snapshot(BoardsKey)
	assert.False(t, snap.Present())

	require.NoError(t, c.Patch(BoardsKey, func(bs *[]model.Board) error {
		*bs = append(*bs, model.Board{ID: "tmp-1", Name: "Draft"})
		return nil
	}))
	_, ok := c.Get(BoardsKey)
	require.True(t, ok)

	require.NoError(t, c.Restore(BoardsKey, snap))
	_, ok = c.Get(BoardsKey)
	assert.False(t, ok)
}

func TestCache_RestoreRejectsOtherKey(t *testing.T) {
	c := NewBoardCache()
	snap := c.Snapshot(BoardKey("1"))
	err := c.Restore(BoardKey("2"), snap)
	assert.ErrorIs(t, err, ErrSnapshotKeyMismatch)
}
