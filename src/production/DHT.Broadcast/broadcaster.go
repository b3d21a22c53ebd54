package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	logger "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Logger"
	dhtmodels "github.com/whyuhurtz/DHT-Logger/src/production/DHT.Models"
)

// Subscriber is one connected live observer. Events arrive on a buffered
// channel owned by the broadcaster; the channel is closed on unsubscribe
// and at shutdown.
type Subscriber struct {
	id string
	ch chan dhtmodels.ReadingEvent
}

// ID returns the subscriber handle.
func (s *Subscriber) ID() string { return s.id }

// Events returns the receive side of the subscriber's delivery channel.
func (s *Subscriber) Events() <-chan dhtmodels.ReadingEvent { return s.ch }

// Broadcaster fans newly persisted readings out to connected subscribers.
// It keeps no history: an event published before Subscribe is never
// delivered to that subscriber.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[string]*Subscriber
	buffer  int
	closed  bool
	dropped atomic.Uint64
	logger  *logger.Logger
}

// New creates a broadcaster whose subscribers each buffer up to bufferSize
// undelivered events.
func New(bufferSize int, log *logger.Logger) *Broadcaster {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Broadcaster{
		subs:   make(map[string]*Subscriber),
		buffer: bufferSize,
		logger: log,
	}
}

// Subscribe registers a new observer and returns its handle. After Close
// the returned subscriber's channel is already closed.
func (b *Broadcaster) Subscribe() *Subscriber {
	sub := &Subscriber{
		id: uuid.NewString(),
		ch: make(chan dhtmodels.ReadingEvent, b.buffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return sub
	}

	b.subs[sub.id] = sub
	b.logger.Logger.Debug().Str("subscriber_id", sub.id).Int("subscribers", len(b.subs)).Msg("Subscriber registered")
	return sub
}

// Unsubscribe removes the observer and closes its channel. Idempotent and
// safe concurrently with Publish: sends happen under the read lock only,
// closes under the write lock only.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	close(sub.ch)
	b.logger.Logger.Debug().Str("subscriber_id", sub.id).Int("subscribers", len(b.subs)).Msg("Subscriber removed")
}

// Publish delivers the event to every current subscriber. When a buffer is
// full the oldest queued event is evicted so the newest reading wins; every
// eviction counts against Dropped.
func (b *Broadcaster) Publish(ev dhtmodels.ReadingEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
			continue
		default:
		}

		// buffer full: evict the oldest queued event, then retry once
		select {
		case <-sub.ch:
			b.dropped.Add(1)
			b.logger.Logger.Debug().Str("subscriber_id", sub.id).Msg("Evicted oldest event for slow subscriber")
		default:
		}
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Count reports the number of connected subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped reports how many events have been discarded due to full buffers.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close terminates every subscriber and rejects later registrations.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
	b.logger.Logger.Debug().Msg("Broadcaster closed")
}
