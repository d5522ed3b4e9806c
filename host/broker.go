package host

import (
	"sync/atomic"
	"time"

	"github.com/kirosynth/kiro/vm"
)

type (
	// Broker is the meeting point of the control side and the audio thread.
	// Events go to the audio thread through the lock-free Events queue, and
	// compiled patches through an atomic pointer, picked up by the player at
	// the next block boundary. Status goes back to the control side through
	// the ToHost channel, to which the player only ever sends with TrySend,
	// so a slow reader cannot stall the audio.
	Broker struct {
		Events *EventQueue
		ToHost chan MsgToHost

		pending atomic.Pointer[vm.Patch]
		dropped atomic.Uint64
	}

	// MsgToHost is the status of the player after processing a buffer. It
	// holds no pointers so sending it does not allocate.
	MsgToHost struct {
		ActiveVoices int
		VoiceStates  [vm.MaxVoices]vm.VoiceState
		Peaks        [2]float32 // absolute peak of the buffer, per channel
		Dropped      uint64     // events dropped so far because the queue was full
		PatchLoaded  bool       // a new patch took effect at the start of the buffer
	}
)

const DefaultQueueCapacity = 1024

func NewBroker(queueCapacity int) *Broker {
	return &Broker{
		Events: NewEventQueue(queueCapacity),
		ToHost: make(chan MsgToHost, 64),
	}
}

// PublishPatch hands a patch over to the player. If the player has not yet
// picked up a previously published patch, that one is replaced.
func (b *Broker) PublishPatch(p *vm.Patch) {
	b.pending.Store(p)
}

// TakePatch returns the pending patch, or nil if there is none.
func (b *Broker) TakePatch() *vm.Patch {
	return b.pending.Swap(nil)
}

// Dropped returns the number of events dropped because the queue was full.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TryReceive receives a value from a channel if one is ready. It never blocks
// and does not allocate.
func TryReceive[T any](c <-chan T) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	default:
		return v, false
	}
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
