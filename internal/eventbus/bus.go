// Package eventbus is a bounded, lossy, multi-producer/multi-consumer
// broadcast bus. Publishers never block: a subscriber that falls behind
// its buffer has its cursor advanced and receives a Lagged signal on its
// next read instead of stalling the publisher.
package eventbus

import (
	"sync"

	"github.com/gridauction/cda/internal/types"
)

// Lagged is delivered in place of one or more events a subscriber missed
// because it fell behind the bus's per-subscriber buffer.
type Lagged struct {
	Missed uint64
}

// Message is either an Event or a Lagged signal, never both.
type Message struct {
	Event  *types.Event
	Lagged *Lagged
}

// Subscription is a single subscriber's view of the bus.
type Subscription struct {
	id      uint64
	ch      chan Message
	bus     *Bus
	missed  uint64
	dropped bool
}

// C returns the channel to receive messages on.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.id)
}

// Bus is the broadcast hub. Zero value is not usable — use New.
type Bus struct {
	mu       sync.Mutex
	capacity int
	nextID   uint64
	subs     map[uint64]*subscriber
}

type subscriber struct {
	ch     chan Message
	missed uint64
}

func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Bus{capacity: capacity, subs: make(map[uint64]*subscriber)}
}

// Subscribe registers a new subscriber that receives events from the time
// of subscription onward (spec §4.9).
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	// One slot beyond capacity is kept free of events so a Lagged signal
	// can always be queued right behind the last event that fit.
	sub := &subscriber{ch: make(chan Message, b.capacity+1)}
	b.subs[id] = sub

	return &Subscription{id: id, ch: sub.ch, bus: b}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// Publish fans an event out to every current subscriber. Non-blocking: a
// subscriber whose buffer is full has the event dropped from its
// perspective and its miss counter incremented; it will see a Lagged
// message the next time it successfully receives (spec §4.10).
func (b *Bus) Publish(evt types.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if sub.missed > 0 {
			// Try to deliver the pending lag signal first so the
			// subscriber learns about the gap before the next event.
			select {
			case sub.ch <- Message{Lagged: &Lagged{Missed: sub.missed}}:
				sub.missed = 0
			default:
				sub.missed++
				continue
			}
		}
		if len(sub.ch) < b.capacity {
			sub.ch <- Message{Event: &evt}
			continue
		}
		// Buffer full: drop evt for this subscriber and queue the lag
		// signal in the spare slot so its next reads report the gap.
		sub.missed++
		select {
		case sub.ch <- Message{Lagged: &Lagged{Missed: sub.missed}}:
			sub.missed = 0
		default:
		}
	}
}

// Close unregisters and closes every outstanding subscription.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}
