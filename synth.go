package kiro

import (
	"errors"
	"fmt"
)

type (
	// Synth renders audio from a stream of events. Handle and Render are
	// called from the same goroutine; the events handled before a call to
	// Render take effect on the first sample of that render.
	// Implementations must not block nor allocate in either.
	Synth interface {
		Handle(event Event)
		Render(buffer AudioBuffer)
	}

	// EventSender accepts events on the control side, e.g. the host client
	// queueing them for the audio thread. Send reports false if the event
	// was dropped.
	EventSender interface {
		Send(event Event) bool
	}

	// Synther compiles a Program into a Synth at the given sample rate.
	Synther interface {
		Synth(program Program, sampleRate int) (Synth, error)
	}
)

// Play renders a Song offline: the song is rendered in blocks of
// song.BlockSize samples, and the events of each block are handed to the
// synth in order before the block is rendered. Returns the whole rendering.
func Play(synther Synther, song Song) (AudioBuffer, error) {
	if synther == nil {
		return nil, errors.New("kiro.Play: no synther")
	}
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("kiro.Play: %w", err)
	}
	synth, err := synther.Synth(song.Program, song.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("kiro.Play: could not create synth: %w", err)
	}
	buffer := make(AudioBuffer, song.Length*song.BlockSize)
	next := 0
	for block := 0; block < song.Length; block++ {
		for next < len(song.Events) && song.Events[next].Block <= block {
			synth.Handle(song.Events[next].Event)
			next++
		}
		synth.Render(buffer[block*song.BlockSize : (block+1)*song.BlockSize])
	}
	return buffer, nil
}
