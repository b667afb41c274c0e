package chat

import (
	"sync"
	"time"

	"kanban-cli/internal/bridge"

	"github.com/google/uuid"
)

type State int

const (
	Idle State = iota
	AwaitingConfirmation
)

func (s State) String() string {
	if s == AwaitingConfirmation {
		return "awaiting-confirmation"
	}
	return "idle"
}

// PendingIntent is a destructive intent held until the user answers.
type PendingIntent struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Args    bridge.Args `json:"args"`
	Created time.Time   `json:"created"`
}

// Gate holds destructive intents. Only the head of the queue is awaiting an answer;
// the rest wait their turn in arrival order.
type Gate struct {
	mu    sync.Mutex
	queue []PendingIntent
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) == 0 {
		return Idle
	}
	return AwaitingConfirmation
}

// Pending returns the intent awaiting an answer.
func (g *Gate) Pending() (PendingIntent, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) == 0 {
		return PendingIntent{}, false
	}
	return g.queue[0], true
}

// Queued reports how many intents wait behind the pending one.
func (g *Gate) Queued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) == 0 {
		return 0
	}
	return len(g.queue) - 1
}

// Hold enqueues an intent. head is true when it became the pending intent and needs a
// prompt now.
func (g *Gate) Hold(name string, args bridge.Args) (p PendingIntent, head bool) {
	p = PendingIntent{ID: uuid.NewString(), Name: name, Args: args, Created: time.Now()}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue = append(g.queue, p)
	return p, len(g.queue) == 1
}

// Resolve pops the pending intent and promotes the next one, if any.
func (g *Gate) Resolve() (done PendingIntent, next *PendingIntent, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) == 0 {
		return PendingIntent{}, nil, false
	}
	done = g.queue[0]
	g.queue = g.queue[1:]
	if len(g.queue) > 0 {
		n := g.queue[0]
		next = &n
	}
	return done, next, true
}
