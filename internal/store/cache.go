package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"kanban-cli/internal/model"
)

// Key identifies one cached query result (e.g. one board's column tree).
type Key string

const BoardsKey Key = "boards"

func BoardKey(id model.ID) Key { return Key("board:" + id.String()) }

var ErrSnapshotKeyMismatch = errors.New("snapshot was taken for a different key")

// Snapshot is an immutable copy of one cache entry, kept for rollback.
type Snapshot[T any] struct {
	Key     Key
	TakenAt time.Time

	value   T
	present bool
}

// Present reports whether the key held a value when the snapshot was taken.
func (s Snapshot[T]) Present() bool { return s.present }

// Cache is an in-memory keyed store. Every write installs a freshly cloned value, so a
// value handed out by Get or held in a Snapshot is never changed by later writes.
//
// Writers are Load (authoritative fetch), Patch and Restore. Reads never observe a
// partially applied patch.
type Cache[T any] struct {
	mu      sync.RWMutex
	clone   func(T) T
	entries map[Key]T
}

func NewCache[T any](clone func(T) T) *Cache[T] {
	if clone == nil {
		panic("store.NewCache: clone func is nil")
	}
	return &Cache[T]{clone: clone, entries: map[Key]T{}}
}

// Get returns a private copy of the current value for key.
func (c *Cache[T]) Get(key Key) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	return c.clone(v), true
}

// Load installs an authoritative value (initial fetch or refresh).
func (c *Cache[T]) Load(key Key, v T) {
	v = c.clone(v)
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
}

// Patch applies fn to a clone of the current value (the zero value when key is absent)
// and installs the result. If fn returns an error nothing is installed.
func (c *Cache[T]) Patch(key Key, fn func(*T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.clone(c.entries[key])
	if err := fn(&next); err != nil {
		return err
	}
	c.entries[key] = next
	return nil
}

// SnapshotPatch takes a snapshot of key and installs fn's patch under one lock, so no
// other write lands between the two. If fn returns an error nothing is installed.
func (c *Cache[T]) SnapshotPatch(key Key, fn func(*T) error) (Snapshot[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.entries[key]
	snap := Snapshot[T]{Key: key, TakenAt: time.Now(), value: c.clone(cur), present: ok}
	next := c.clone(cur)
	if err := fn(&next); err != nil {
		return Snapshot[T]{}, err
	}
	c.entries[key] = next
	return snap, nil
}

func (c *Cache[T]) Snapshot(key Key) Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return Snapshot[T]{Key: key, TakenAt: time.Now(), value: c.clone(v), present: ok}
}

// Restore replaces the current value for key wholesale with the snapshot's value.
// A snapshot of an absent key removes the entry.
func (c *Cache[T]) Restore(key Key, snap Snapshot[T]) error {
	if snap.Key != key {
		return fmt.Errorf("%w: have %q, want %q", ErrSnapshotKeyMismatch, snap.Key, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !snap.present {
		delete(c.entries, key)
		return nil
	}
	c.entries[key] = c.clone(snap.value)
	return nil
}
