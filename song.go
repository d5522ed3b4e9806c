package kiro

import (
	"errors"
	"fmt"
)

type (
	// Song is a Program and a timed list of events, the unit of offline
	// rendering. Time is measured in blocks of BlockSize samples; Length is
	// the length of the song in blocks.
	Song struct {
		SampleRate int
		BlockSize  int
		Length     int
		Program    Program
		Events     []TimedEvent
	}

	// TimedEvent is an Event scheduled at the start of a block.
	TimedEvent struct {
		Block int
		Event `yaml:",inline"`
	}
)

// Samples returns the length of the song in samples.
func (s *Song) Samples() int {
	return s.Length * s.BlockSize
}

// Validate checks that the song can be rendered.
func (s *Song) Validate() error {
	if s.SampleRate <= 0 {
		return errors.New("sample rate should be > 0")
	}
	if s.BlockSize <= 0 {
		return errors.New("block size should be > 0")
	}
	if s.Length < 0 {
		return errors.New("length should be >= 0")
	}
	if err := s.Program.Validate(); err != nil {
		return fmt.Errorf("invalid program: %w", err)
	}
	prev := 0
	for i, e := range s.Events {
		if e.Block < prev {
			return fmt.Errorf("event %v is at block %v, before the previous event at block %v", i, e.Block, prev)
		}
		if e.Kind >= numEventKinds {
			return fmt.Errorf("event %v has invalid kind %v", i, e.Kind)
		}
		if e.Kind == ParamChange && !e.Param.Valid() {
			return fmt.Errorf("event %v refers to an invalid parameter", i)
		}
		prev = e.Block
	}
	return nil
}
