// Package event provides the client-side pub/sub event bus using watermill.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Type represents the type of event.
type Type string

const (
	ChannelMessage      Type = "channel.message"
	ChatMessageCreated  Type = "chat.message.created"
	ChatMessageUpdated  Type = "chat.message.updated"
	AgentSwitchStarted  Type = "agent.switch.started"
	AgentSwitchComplete Type = "agent.switch.completed"
	AgentSwitchFailed   Type = "agent.switch.failed"
	FileSaved           Type = "file.saved"
)

// Event carries a typed payload from one component to another.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// Handler is a function that receives events.
type Handler func(event Event)

type handlerEntry struct {
	id uint64
	fn Handler
}

// Bus fans events out to handlers. It rides on watermill's gochannel
// pub/sub for infrastructure while keeping direct handler calls so payload
// types survive the trip: no event is serialized through the gochannel
// itself. The gochannel's lifecycle is tied to the bus and exposed via
// PubSub for middleware or a future distributed backend.
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	handlers map[Type][]handlerEntry
	global   []handlerEntry

	nextID uint64
	closed bool
}

var defaultBus = NewBus()

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
		handlers: make(map[Type][]handlerEntry),
	}
}

// Default returns the process-wide bus.
func Default() *Bus {
	return defaultBus
}

// Subscribe registers a handler for one event type on the default bus.
// The returned function unsubscribes it.
func Subscribe(t Type, fn Handler) func() {
	return defaultBus.Subscribe(t, fn)
}

// SubscribeAll registers a handler for every event on the default bus.
func SubscribeAll(fn Handler) func() {
	return defaultBus.SubscribeAll(fn)
}

// Publish sends an event on the default bus, asynchronously.
func Publish(e Event) {
	defaultBus.Publish(e)
}

// PublishSync sends an event on the default bus, calling every handler
// before returning.
func PublishSync(e Event) {
	defaultBus.PublishSync(e)
}

func (b *Bus) Subscribe(t Type, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	entry := handlerEntry{id: atomic.AddUint64(&b.nextID, 1), fn: fn}
	b.handlers[t] = append(b.handlers[t], entry)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, h := range b.handlers[t] {
			if h.id == entry.id {
				b.handlers[t] = append(b.handlers[t][:i], b.handlers[t][i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) SubscribeAll(fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	entry := handlerEntry{id: atomic.AddUint64(&b.nextID, 1), fn: fn}
	b.global = append(b.global, entry)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, h := range b.global {
			if h.id == entry.id {
				b.global = append(b.global[:i], b.global[i+1:]...)
				return
			}
		}
	}
}

// collect gathers the handlers registered for an event under the read lock.
func (b *Bus) collect(t Type) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	fns := make([]Handler, 0, len(b.handlers[t])+len(b.global))
	for _, h := range b.handlers[t] {
		fns = append(fns, h.fn)
	}
	for _, h := range b.global {
		fns = append(fns, h.fn)
	}
	return fns
}

// Publish sends an event to all handlers, each in its own goroutine so a
// slow handler cannot stall streaming ingest.
func (b *Bus) Publish(e Event) {
	for _, fn := range b.collect(e.Type) {
		go fn(e)
	}
}

// PublishSync sends an event to all handlers in the calling goroutine.
func (b *Bus) PublishSync(e Event) {
	for _, fn := range b.collect(e.Type) {
		fn(e)
	}
}

// Close shuts the bus down; subsequent publishes are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.handlers = make(map[Type][]handlerEntry)
	b.global = nil
	b.mu.Unlock()

	return b.pubsub.Close()
}

// PubSub exposes the underlying watermill GoChannel for middleware or a
// future distributed backend.
func (b *Bus) PubSub() *gochannel.GoChannel {
	return b.pubsub
}
