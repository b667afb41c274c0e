package mutate

import (
	"context"
	"errors"
	"sync/atomic"

	"kanban-cli/internal/logging"
	"kanban-cli/internal/store"

	log "github.com/sirupsen/logrus"
)

var ErrAlreadySettled = errors.New("mutation already settled")

// Coordinator applies optimistic patches to a cache and rolls them back when the
// matching server call fails.
//
// Mutations on different keys never interfere. Mutations on the same key are expected
// to be serialized by the caller (the TUI refuses board edits while one is settling);
// if two overlap, the last patch wins and each failure restores its own snapshot.
type Coordinator[T any] struct {
	cache *store.Cache[T]
	log   log.FieldLogger
}

func NewCoordinator[T any](cache *store.Cache[T], logger log.FieldLogger) *Coordinator[T] {
	if cache == nil {
		panic("mutate.NewCoordinator: cache is nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Coordinator[T]{cache: cache, log: logger}
}

// Pending is an optimistic patch that is visible in the cache and waiting for the
// server's verdict.
type Pending[T any] struct {
	c       *Coordinator[T]
	key     store.Key
	snap    store.Snapshot[T]
	settled atomic.Bool
}

// Apply snapshots key and installs patch. Once Apply returns, every read of key sees
// the patched value. A patch error leaves the cache untouched.
func (c *Coordinator[T]) Apply(key store.Key, patch func(*T) error) (*Pending[T], error) {
	snap, err := c.cache.SnapshotPatch(key, patch)
	if err != nil {
		return nil, err
	}
	return &Pending[T]{c: c, key: key, snap: snap}, nil
}

// Commit discards the snapshot; the patched value stays until the next refresh.
func (p *Pending[T]) Commit() error {
	if !p.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	return nil
}

// Rollback restores the snapshot. Only the first Commit/Rollback takes effect.
func (p *Pending[T]) Rollback(cause error) error {
	if !p.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	if err := p.c.cache.Restore(p.key, p.snap); err != nil {
		return err
	}
	p.c.log.WithFields(log.Fields{"key": string(p.key), "error": cause}).Warn("mutation failed; rolled back")
	return nil
}

// Settle runs call and commits or rolls back depending on its result. The call's error
// is returned unchanged so callers can report it.
func (p *Pending[T]) Settle(ctx context.Context, call func(context.Context) error) error {
	err := call(ctx)
	if err == nil {
		return p.Commit()
	}
	if rerr := p.Rollback(err); rerr != nil && !errors.Is(rerr, ErrAlreadySettled) {
		return errors.Join(err, rerr)
	}
	return err
}

// Run applies patch, then blocks on call.
func (c *Coordinator[T]) Run(ctx context.Context, key store.Key, patch func(*T) error, call func(context.Context) error) error {
	p, err := c.Apply(key, patch)
	if err != nil {
		return err
	}
	return p.Settle(ctx, call)
}

// Go applies patch before returning and settles call in the background. The returned
// channel yields exactly one value (nil on success) and is then closed.
func (c *Coordinator[T]) Go(ctx context.Context, key store.Key, patch func(*T) error, call func(context.Context) error) <-chan error {
	done := make(chan error, 1)
	p, err := c.Apply(key, patch)
	if err != nil {
		done <- err
		close(done)
		return done
	}
	go func() {
		defer close(done)
		done <- p.Settle(ctx, call)
	}()
	return done
}
