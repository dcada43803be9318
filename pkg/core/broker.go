package core

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultEventBuffer is the per-subscriber buffer used when none is configured.
const DefaultEventBuffer = 100

// Broker fans events out to subscribers without ever blocking the publisher.
// A subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	buffer int
	logger *slog.Logger
	closed bool
	done   chan struct{}
}

// NewBroker creates a broker. A non-positive buffer means DefaultEventBuffer.
func NewBroker(buffer int, logger *slog.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Broker{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Subscribe registers a new subscriber. The channel is closed when ctx is
// cancelled or the broker is closed.
func (b *Broker) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(ch)
		case <-b.done:
		}
	}()
	return ch
}

func (b *Broker) unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish delivers e to every subscriber with room in its buffer.
func (b *Broker) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			if b.logger != nil {
				b.logger.Warn("event dropped, subscriber buffer full", "event", e.String())
			}
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// BufferSize returns the per-subscriber buffer size.
func (b *Broker) BufferSize() int {
	return b.buffer
}

// Close closes every subscriber channel. Later subscriptions receive a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	b.closed = true
	close(b.done)
}
