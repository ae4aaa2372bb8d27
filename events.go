package codeact

import (
	"fmt"
	"sync"
	"time"
)

// EventKind identifies a loop lifecycle event.
type EventKind string

const (
	EventIterationStart EventKind = "iteration_start"
	EventLLMRequest     EventKind = "llm_request"
	EventLLMResponse    EventKind = "llm_response"
	EventThinking       EventKind = "thinking"
	EventCodeGenerated  EventKind = "code_generated"
	EventCodeExecuted   EventKind = "code_executed"
	EventToolCall       EventKind = "tool_call"
	EventToolResult     EventKind = "tool_result"
	EventFinish         EventKind = "finish"
	EventError          EventKind = "error"
)

// Event is a loop lifecycle notification. Fields beyond Kind and Timestamp
// are populated per kind; unused fields are zero.
type Event struct {
	Kind      EventKind
	Timestamp time.Time

	// Iteration is the 1-based loop iteration, set on iteration and
	// execution events. Total carries the iteration budget on
	// iteration_start.
	Iteration int
	Total     int

	// Content carries the kind-specific payload: the response text, the
	// thinking text, the generated code, the execution output, or the
	// finish value.
	Content string

	// Messages is the prompt length on llm_request; Tokens is reported
	// usage on llm_response.
	Messages int
	Tokens   int

	// Success reports the execution outcome on code_executed.
	Success bool

	// Tool and Args describe tool_call events; Result carries the
	// tool_result payload.
	Tool   string
	Args   []any
	Result any

	// Err is set on error and tool_result events.
	Err error
}

// Observer receives events. A panicking observer does not disturb the
// loop or other observers; the panic is converted into an error event
// delivered to the remaining observers.
type Observer func(Event)

type subscription struct {
	kind EventKind
	all  bool
	fn   Observer
}

// Bus delivers events synchronously, in subscription order, on the
// emitting goroutine.
type Bus struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers an observer for one event kind.
func (b *Bus) Subscribe(kind EventKind, fn Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{kind: kind, fn: fn})
}

// SubscribeAll registers an observer for every event.
func (b *Bus) SubscribeAll(fn Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{all: true, fn: fn})
}

// Events returns a channel receiving every event. Sends are non-blocking:
// when the buffer is full, events are dropped rather than stalling the
// loop.
func (b *Bus) Events(buffer int) <-chan Event {
	if buffer < 1 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	b.SubscribeAll(func(ev Event) {
		select {
		case ch <- ev:
		default:
		}
	})
	return ch
}

// Emit delivers an event to all matching observers. A panic in one
// observer becomes an error event for the observers after it.
func (b *Bus) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	var panics []any
	for _, sub := range subs {
		if !sub.all && sub.kind != ev.Kind {
			continue
		}
		if r := b.deliver(sub.fn, ev); r != nil {
			panics = append(panics, r)
		}
	}

	// Panics in error-event observers are swallowed to stop recursion.
	if ev.Kind == EventError {
		return
	}
	for _, r := range panics {
		b.Emit(Event{
			Kind:      EventError,
			Timestamp: time.Now(),
			Err:       fmt.Errorf("observer panic: %v", r),
		})
	}
}

func (b *Bus) deliver(fn Observer, ev Event) (recovered any) {
	defer func() {
		recovered = recover()
	}()
	fn(ev)
	return nil
}
