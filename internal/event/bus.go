package event

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// DefaultBufferSize is used when New is given a non-positive size.
const DefaultBufferSize = 256

// Handler observes events. Implementations must be safe for concurrent
// calls from different goroutines.
type Handler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Only wraps h so it sees just the listed kinds.
func Only(h Handler, kinds ...Kind) Handler {
	return HandlerFunc(func(ctx context.Context, evt Event) error {
		if !slices.Contains(kinds, evt.Kind) {
			return nil
		}
		return h.HandleEvent(ctx, evt)
	})
}

// Bus is an in-process event bus. Events go to a buffered channel and are
// dispatched to all subscribers, in subscription order, by a single
// consumer goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedHandler
	closed      bool

	events chan Event
	done   chan struct{}
	logger *slog.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger used for dropped events and subscriber errors.
func WithBusLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = l
	}
}

// NewBus creates a Bus with the given channel buffer size.
func NewBus(bufSize int, opts ...BusOption) *Bus {
	if bufSize < 1 {
		bufSize = DefaultBufferSize
	}
	b := &Bus{
		events: make(chan Event, bufSize),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a named handler. Must be called before Start.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedHandler{name: name, handler: h})
}

// Publish queues evt. It never blocks: when the buffer is full, or the bus
// is stopped, the event is dropped and a warning is logged.
func (b *Bus) Publish(_ context.Context, evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("event bus stopped, dropping event", "kind", evt.Kind, "id", evt.ID)
		return
	}
	select {
	case b.events <- evt:
	default:
		b.logger.Warn("event bus buffer full, dropping event", "kind", evt.Kind, "id", evt.ID)
	}
}

// Start runs the consumer goroutine until Stop is called or ctx is
// cancelled. Either closes the bus; queued events are drained before the
// consumer exits.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case evt, ok := <-b.events:
				if !ok {
					return
				}
				b.dispatch(ctx, evt)
			case <-ctx.Done():
				b.close()
				b.drain(context.WithoutCancel(ctx))
				return
			}
		}
	}()
}

// Stop closes the bus and waits for queued events to be dispatched.
// Start must have been called.
func (b *Bus) Stop() {
	b.close()
	<-b.done
}

// close rejects further events. Queued events stay readable.
func (b *Bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
}

func (b *Bus) drain(ctx context.Context) {
	for {
		select {
		case evt, ok := <-b.events:
			if !ok {
				return
			}
			b.dispatch(ctx, evt)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, evt Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			b.logger.Error("event subscriber failed",
				"subscriber", s.name,
				"kind", evt.Kind,
				"id", evt.ID,
				"error", err,
			)
		}
	}
}

// LogConsumer logs every event at debug level.
type LogConsumer struct {
	Logger *slog.Logger
}

func (c LogConsumer) HandleEvent(ctx context.Context, evt Event) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "admin event",
		"kind", evt.Kind,
		"entity", evt.EntityName(),
		"action", evt.Scope.Action,
		"request_id", evt.Scope.RequestID,
	)
	return nil
}
