package host

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kirosynth/kiro"
	"github.com/kirosynth/kiro/vm"
)

// Client is the control side API of the synthesizer: UI, MIDI and network
// handlers send notes and parameter changes through it, and it compiles new
// programs before handing them to the audio thread. The methods can be
// called from any goroutine, as long as each goroutine keeps its own order
// of events.
type Client struct {
	broker     *Broker
	sampleRate int
	logger     *slog.Logger
}

func NewClient(broker *Broker, sampleRate int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{broker: broker, sampleRate: sampleRate, logger: logger}
}

// Send queues an event for the audio thread. If the queue is full, the event
// is dropped, counted and false is returned.
func (c *Client) Send(e kiro.Event) bool {
	if c.broker.Events.Push(e) {
		return true
	}
	n := c.broker.dropped.Add(1)
	c.logger.Warn("event queue full, event dropped", "event", e.String(), "dropped", n)
	return false
}

func (c *Client) NoteOn(note byte, velocity float32) bool {
	return c.Send(kiro.NoteOnEvent(note, velocity))
}

func (c *Client) NoteOff(note byte) bool {
	return c.Send(kiro.NoteOffEvent(note))
}

func (c *Client) AllNotesOff() bool {
	return c.Send(kiro.Event{Kind: kiro.AllNotesOff})
}

// SetParam changes a parameter by name, e.g. "filter.cutoff". The value is
// clamped to the range of the parameter by the synth.
func (c *Client) SetParam(name string, value float32) error {
	ref, ok := kiro.ParamByName(name)
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	if ref.Descriptor().Scope != kiro.ScopeProgram {
		return fmt.Errorf("parameter %q is set per note, use SetNoteParam", name)
	}
	if !c.Send(kiro.ParamChangeEvent(ref, value)) {
		return fmt.Errorf("could not set %v: event queue full", name)
	}
	return nil
}

// SetNoteParam changes a per-note parameter of the voices playing note.
func (c *Client) SetNoteParam(note byte, name string, value float32) error {
	ref, ok := kiro.ParamByName(name)
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	if ref.Descriptor().Scope != kiro.ScopeVoice {
		return fmt.Errorf("parameter %q is not set per note", name)
	}
	if !c.Send(kiro.NoteParamEvent(note, ref, value)) {
		return fmt.Errorf("could not set %v: event queue full", name)
	}
	return nil
}

// Load compiles the program and hands it over to the audio thread, which
// switches to it at the start of the next buffer.
func (c *Client) Load(program kiro.Program) error {
	patch, err := vm.Compile(program, c.sampleRate)
	if err != nil {
		c.logger.Error("could not load program", "name", program.Name, "err", err)
		return fmt.Errorf("could not load program: %w", err)
	}
	c.broker.PublishPatch(patch)
	c.logger.Info("program loaded", "name", program.Name, "voices", program.NumVoices, "modulations", len(program.Modulations))
	return nil
}

// Status waits for the next status message of the player, at most for the
// given time. A timeout of zero or less only takes a message that is
// already waiting.
func (c *Client) Status(timeout time.Duration) (MsgToHost, bool) {
	if timeout <= 0 {
		return TryReceive(c.broker.ToHost)
	}
	return TimeoutReceive(c.broker.ToHost, timeout)
}
