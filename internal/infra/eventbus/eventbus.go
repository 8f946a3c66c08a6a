// Package eventbus — in-memory publish/subscribe for completion events.
// ChatService publishes one event per finished completion; the metrics
// recorder consumes them off the request path.
//
// Design:
//   - Buffered Go channel per subscriber (buffer=100).
//   - Publish never blocks: when a buffer is full the event is dropped and counted.
//   - Close closes every subscriber channel so consumption loops end.
//   - No persistence: events are fire-and-forget.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// Event is a single published message.
type Event struct {
	Topic   string
	Payload any
}

// EventBus is the interface for publishing and subscribing to topics.
type EventBus interface {
	Publish(topic string, payload any)
	Subscribe(topic string) <-chan Event
}

const defaultBufferSize = 100

// Bus is the in-memory implementation of EventBus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	closed      bool
	bufferSize  int
	dropped     atomic.Uint64
}

// New returns a new in-memory Bus.
func New() *Bus {
	return NewWithBuffer(defaultBufferSize)
}

// NewWithBuffer returns a Bus whose subscriber channels hold size events.
func NewWithBuffer(size int) *Bus {
	if size < 0 {
		size = 0
	}
	return &Bus{
		subscribers: make(map[string][]chan Event),
		bufferSize:  size,
	}
}

// Subscribe registers a new subscriber for topic and returns a read-only channel.
// Subscribing to a closed bus returns a closed channel.
func (b *Bus) Subscribe(topic string) <-chan Event {
	ch := make(chan Event, b.bufferSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

// Publish sends an Event to all subscribers of topic.
// If a subscriber's buffer is full the event is dropped (non-blocking).
func (b *Bus) Publish(topic string, payload any) {
	evt := Event{Topic: topic, Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were lost to full buffers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.subscribers = nil
}
