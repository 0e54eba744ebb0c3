package realtime

import (
	"log/slog"
	"sync"
)

// Handler receives every dispatched message matching its registration.
type Handler func(msg *Message)

// DisposeFunc removes exactly the registration that produced it.
// Calling it more than once is a safe no-op.
type DisposeFunc func()

// Dispatcher routes messages to handlers registered per message type.
// Registrations are keyed by an internal id so removal is O(1) and does not
// depend on scanning. The registry survives reconnects: handlers stay
// registered until their disposer runs.
type Dispatcher struct {
	mu       sync.Mutex
	nextID   int
	handlers map[MessageType]map[int]Handler
	logger   *slog.Logger
}

// NewDispatcher creates an empty dispatch table.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[MessageType]map[int]Handler),
		logger:   logger,
	}
}

// On registers handler for msgType and returns its disposer.
// Use Wildcard to receive every message in addition to type-specific handlers.
func (d *Dispatcher) On(msgType MessageType, handler Handler) DisposeFunc {
	if handler == nil {
		return func() {}
	}

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	set, ok := d.handlers[msgType]
	if !ok {
		set = make(map[int]Handler)
		d.handlers[msgType] = set
	}
	set[id] = handler
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			set, ok := d.handlers[msgType]
			if !ok {
				return
			}
			delete(set, id)
			if len(set) == 0 {
				delete(d.handlers, msgType)
			}
		})
	}
}

// Dispatch invokes every handler registered for msg.Type and, independently,
// every wildcard handler. A panicking handler is logged and must not prevent
// delivery to the others.
func (d *Dispatcher) Dispatch(msg *Message) {
	if msg == nil {
		return
	}

	d.mu.Lock()
	targets := make([]Handler, 0, 4)
	for _, h := range d.handlers[msg.Type] {
		targets = append(targets, h)
	}
	if msg.Type != Wildcard {
		for _, h := range d.handlers[Wildcard] {
			targets = append(targets, h)
		}
	}
	d.mu.Unlock()

	for _, h := range targets {
		d.invoke(msg, h)
	}
}

func (d *Dispatcher) invoke(msg *Message, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("message handler panicked", "type", msg.Type, "panic", r)
		}
	}()
	h(msg)
}

// Len reports the number of live registrations, wildcard included.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, set := range d.handlers {
		n += len(set)
	}
	return n
}
