// Package chat runs the conversational side of the client: it sends user text to the
// language service, executes the returned intents through the bridge and holds
// destructive ones until the user confirms.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"kanban-cli/internal/assist"
	"kanban-cli/internal/bridge"
	"kanban-cli/internal/logging"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Kind string

const (
	KindText         Kind = "text"
	KindConfirmation Kind = "confirmation"
)

// Message is one transcript entry. Confirmation messages carry the intent they ask about.
type Message struct {
	ID      string         `json:"id"`
	Role    Role           `json:"role"`
	Content string         `json:"content"`
	Type    Kind           `json:"type"`
	Payload *PendingIntent `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

const (
	confirmedText = "Confirmed"
	cancelledText = "Cancelled"
	parseFailText = "Error: Failed to parse arguments from AI response."
)

var ErrNothingPending = errors.New("no action is awaiting confirmation")

// Assistant turns user text into a language-service reply.
type Assistant interface {
	Generate(ctx context.Context, text string) (assist.Response, error)
}

// Executor runs one intent; *bridge.Bridge satisfies it.
type Executor interface {
	Execute(ctx context.Context, name string, args bridge.Args, bc bridge.Context) bridge.Result
}

type Options struct {
	// Context reports the active board at execution time.
	Context func() bridge.Context
	Logger  log.FieldLogger
}

type Session struct {
	assistant Assistant
	exec      Executor
	context   func() bridge.Context
	log       log.FieldLogger

	gate    Gate
	loading atomic.Int32

	mu       sync.Mutex
	messages []Message
}

func NewSession(a Assistant, e Executor, opts Options) *Session {
	s := &Session{assistant: a, exec: e, context: opts.Context, log: opts.Logger}
	if s.context == nil {
		s.context = func() bridge.Context { return bridge.Context{} }
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	return s
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Loading reports whether a language-service or bridge call is in flight.
func (s *Session) Loading() bool { return s.loading.Load() > 0 }

func (s *Session) State() State { return s.gate.State() }

func (s *Session) Pending() (PendingIntent, bool) { return s.gate.Pending() }

func (s *Session) add(role Role, content string) Message {
	return s.addMessage(Message{Role: role, Content: content, Type: KindText})
}

func (s *Session) addMessage(m Message) Message {
	m.ID = uuid.NewString()
	m.At = time.Now()
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	return m
}

func (s *Session) busy() func() {
	s.loading.Add(1)
	return func() { s.loading.Add(-1) }
}

// Send posts text to the language service and processes the reply. Failures become
// transcript messages; blank text is ignored.
func (s *Session) Send(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.add(RoleUser, text)
	defer s.busy()()

	resp, err := s.assistant.Generate(ctx, text)
	if err != nil {
		s.log.WithError(err).Error("assistant request failed")
		s.add(RoleSystem, fmt.Sprintf("Error: %s. Is the assistant service running?", err))
		return
	}
	rep := resp.Reply()
	if rep.Failed || len(rep.Calls) == 0 {
		s.add(RoleAssistant, rep.Text)
		return
	}
	for _, call := range rep.Calls {
		args, err := bridge.ParseArgs(call.Function.Arguments)
		if err != nil {
			s.log.WithFields(log.Fields{"intent": call.Function.Name, "error": err}).Error("malformed tool call arguments")
			s.add(RoleSystem, parseFailText)
			continue
		}
		s.Dispatch(ctx, call.Function.Name, args)
	}
}

// Dispatch routes one intent through the gate: destructive intents are held for
// confirmation, everything else runs now.
func (s *Session) Dispatch(ctx context.Context, name string, args bridge.Args) {
	if bridge.IsDestructive(name) {
		p, head := s.gate.Hold(name, args)
		if head {
			s.prompt(p)
		}
		return
	}
	s.run(ctx, name, args)
}

func (s *Session) prompt(p PendingIntent) {
	s.addMessage(Message{
		Role:    RoleAssistant,
		Content: fmt.Sprintf("Are you sure you want to delete %s?", p.Args.Subject()),
		Type:    KindConfirmation,
		Payload: &p,
	})
}

func (s *Session) run(ctx context.Context, name string, args bridge.Args) {
	defer s.busy()()
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(log.Fields{"intent": name, "panic": r}).Error("intent panicked")
			s.add(RoleSystem, fmt.Sprintf("Error executing command: %v", r))
		}
	}()
	res := s.exec.Execute(ctx, name, args, s.context())
	if res.OK {
		s.add(RoleSystem, res.Message)
		return
	}
	s.add(RoleSystem, "Failed: "+res.Message)
}

// Accept executes the pending intent and prompts for the next queued one.
func (s *Session) Accept(ctx context.Context) error {
	p, next, ok := s.gate.Resolve()
	if !ok {
		return ErrNothingPending
	}
	s.add(RoleUser, confirmedText)
	s.run(ctx, p.Name, p.Args)
	if next != nil {
		s.prompt(*next)
	}
	return nil
}

// Reject discards the pending intent and prompts for the next queued one.
func (s *Session) Reject() error {
	_, next, ok := s.gate.Resolve()
	if !ok {
		return ErrNothingPending
	}
	s.add(RoleUser, cancelledText)
	if next != nil {
		s.prompt(*next)
	}
	return nil
}
