package events

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// defaultBufferSize is the per-subscription channel buffer.
	defaultBufferSize = 256
	// maxBufferSize caps per-subscription buffers.
	maxBufferSize = 10000
	// terminalSendWait bounds how long Publish waits to hand a terminal
	// event to a slow subscriber before counting it as dropped. Chunk
	// events are never waited on; terminal events get this grace period
	// because every consumer depends on seeing exactly one of them.
	terminalSendWait = 2 * time.Second
)

// Subscription is a handle to a bus subscription. Events arrive on C in
// the order they were published. Call Unsubscribe when done; a consumer
// that re-subscribes per job without unsubscribing accumulates listeners.
type Subscription struct {
	// C delivers matching events in publish order.
	C <-chan Event

	ch    chan Event
	bus   *Bus
	types map[EventType]bool // nil means all events
	once  sync.Once
}

// Unsubscribe detaches the subscription from the bus and closes C.
// Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s)
		close(s.ch)
	})
}

func (s *Subscription) wants(t EventType) bool {
	return s.types == nil || s.types[t]
}

// Bus is the multicast channel between the job coordinator and UI front
// ends. Publishing never blocks the coordinator on chunk events: a full
// subscriber buffer drops the event and bumps a counter. Terminal events
// get a bounded wait instead so they are not lost to a momentary stall.
type Bus struct {
	mu         sync.RWMutex
	subs       []*Subscription
	bufferSize int
	closed     bool
	dropped    atomic.Int64
}

// NewBus creates a new event bus with the specified per-subscriber buffer
// size. Non-positive values select the default.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if bufferSize > maxBufferSize {
		bufferSize = maxBufferSize
	}
	return &Bus{bufferSize: bufferSize}
}

// Subscribe creates a subscription for the given event types. With no
// types it matches every event. The returned handle must be unsubscribed
// by the consumer when no longer needed.
func (b *Bus) Subscribe(types ...EventType) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		ch:  make(chan Event, b.bufferSize),
		bus: b,
	}
	sub.C = sub.ch

	if len(types) > 0 {
		sub.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	if b.closed {
		// Late subscribers on a closed bus get a closed channel.
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	b.subs = append(b.subs, sub)
	return sub
}

// Publish sends an event to all matching subscribers in order.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	terminal := IsTerminal(ev)
	for _, sub := range b.subs {
		if !sub.wants(ev.Type()) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			if !terminal {
				b.dropped.Add(1)
				continue
			}
			// Terminal events are load-bearing: wait briefly for the
			// subscriber to drain before giving up.
			select {
			case sub.ch <- ev:
			case <-time.After(terminalSendWait):
				b.dropped.Add(1)
			}
		}
	}
}

// Close shuts down the bus and closes all subscription channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, sub := range b.subs {
		sub.once.Do(func() { close(sub.ch) })
	}
	b.subs = nil
}

// Dropped returns the total number of events dropped due to full buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *Bus) remove(target *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for i, sub := range b.subs {
		if sub == target {
			b.subs[i] = b.subs[len(b.subs)-1]
			b.subs = b.subs[:len(b.subs)-1]
			return
		}
	}
}
