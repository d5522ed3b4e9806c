// Package host connects the control side of the synthesizer to the audio
// thread: a lock-free event queue, a broker for handing over compiled
// patches and status messages, the Player run by the audio callback, and
// the Client used by everything else.
package host

import (
	"sync/atomic"

	"github.com/kirosynth/kiro"
)

type (
	// EventQueue is a bounded multi-producer single-consumer queue of
	// events. Push can be called from any goroutine and never blocks; Pop
	// must only be called from one goroutine at a time, typically the audio
	// thread. Events pushed by one goroutine are popped in the order they
	// were pushed.
	//
	// Every slot carries a sequence number telling whether it is free for
	// the producer of a given round or filled for the consumer, so no locks
	// are needed.
	EventQueue struct {
		slots   []slot
		mask    uint64
		enqueue atomic.Uint64
		_       [56]byte // keep producers and the consumer on separate cache lines
		dequeue atomic.Uint64
	}

	slot struct {
		seq   atomic.Uint64
		event kiro.Event
	}
)

// NewEventQueue creates a queue holding at least capacity events. The
// capacity is rounded up to a power of two.
func NewEventQueue(capacity int) *EventQueue {
	n := 2
	for n < capacity {
		n <<= 1
	}
	q := &EventQueue{slots: make([]slot, n), mask: uint64(n - 1)}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// Push adds an event to the queue. Returns false if the queue is full, in
// which case the event is dropped.
func (q *EventQueue) Push(e kiro.Event) bool {
	pos := q.enqueue.Load()
	for {
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch diff := int64(seq - pos); {
		case diff == 0:
			if q.enqueue.CompareAndSwap(pos, pos+1) {
				s.event = e
				s.seq.Store(pos + 1)
				return true
			}
			pos = q.enqueue.Load()
		case diff < 0:
			return false
		default:
			// another producer claimed the slot first
			pos = q.enqueue.Load()
		}
	}
}

// Pop removes the oldest event from the queue. Returns false if the queue is
// empty, or if the oldest slot has been claimed by a producer that has not
// finished writing it. In the latter case events pushed after it by other
// producers stay hidden until it is published, so ordering and visibility
// at a block boundary are guaranteed per producer only.
func (q *EventQueue) Pop() (kiro.Event, bool) {
	pos := q.dequeue.Load()
	s := &q.slots[pos&q.mask]
	if int64(s.seq.Load()-(pos+1)) < 0 {
		return kiro.Event{}, false
	}
	e := s.event
	s.seq.Store(pos + q.mask + 1)
	q.dequeue.Store(pos + 1)
	return e, true
}

// Len returns the number of queued events. With concurrent producers the
// value is only a snapshot.
func (q *EventQueue) Len() int {
	n := int64(q.enqueue.Load() - q.dequeue.Load())
	if n < 0 {
		return 0
	}
	return int(min(n, int64(len(q.slots))))
}

func (q *EventQueue) Cap() int {
	return len(q.slots)
}
