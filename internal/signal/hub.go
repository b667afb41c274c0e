// Package signal delivers transient task highlights to whatever view is listening.
package signal

import (
	"sync"
	"time"

	"kanban-cli/internal/model"
)

// Highlight names the task a view should flash.
type Highlight struct {
	TaskID model.ID
	At     time.Time
}

type subscriber struct {
	taskID model.ID // empty: every task
	ch     chan Highlight
}

// Hub fans highlights out to subscribers. Each subscriber receives a given trigger at
// most once; a subscriber that has not drained its previous highlight misses the new
// one rather than blocking the trigger.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]subscriber
}

func NewHub() *Hub {
	return &Hub{subs: map[int]subscriber{}}
}

// Subscribe listens for highlights of one task. Call cancel to stop; the channel is
// closed afterwards.
func (h *Hub) Subscribe(taskID model.ID) (<-chan Highlight, func()) {
	return h.add(taskID)
}

// SubscribeAll listens for highlights of any task.
func (h *Hub) SubscribeAll() (<-chan Highlight, func()) {
	return h.add("")
}

func (h *Hub) add(taskID model.ID) (<-chan Highlight, func()) {
	ch := make(chan Highlight, 1)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = subscriber{taskID: taskID, ch: ch}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Trigger delivers a highlight now and reports how many subscribers received it.
func (h *Hub) Trigger(taskID model.ID) int {
	if taskID.IsZero() {
		return 0
	}
	hl := Highlight{TaskID: taskID, At: time.Now()}
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, s := range h.subs {
		if s.taskID != "" && s.taskID != taskID {
			continue
		}
		select {
		case s.ch <- hl:
			n++
		default:
		}
	}
	return n
}

// Schedule triggers after delay. The returned func stops a timer that has not fired.
func (h *Hub) Schedule(taskID model.ID, delay time.Duration) func() bool {
	t := time.AfterFunc(delay, func() { h.Trigger(taskID) })
	return t.Stop
}
