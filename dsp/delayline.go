// Package dsp contains the small signal building blocks of the synthesizer
// that do not depend on the voice architecture: a fixed-length delay line,
// a feedback delay effect and a pitch-shift calculator. All types are
// generic over the sample type, allocate only in their constructors and are
// meant to be used from a single goroutine.
package dsp

import "github.com/kirosynth/kiro"

// DelayLine is a ring buffer of the most recent Len() samples written to it.
type DelayLine[F kiro.Float] struct {
	buffer []F
	head   int // index of the next write, also the oldest sample
}

// NewDelayLine allocates a delay line holding length samples. Lengths below
// one are raised to one.
func NewDelayLine[F kiro.Float](length int) *DelayLine[F] {
	if length < 1 {
		length = 1
	}
	return &DelayLine[F]{buffer: make([]F, length)}
}

// Update writes a sample and advances the write position.
func (d *DelayLine[F]) Update(x F) {
	d.buffer[d.head] = x
	d.head++
	if d.head == len(d.buffer) {
		d.head = 0
	}
}

// Get returns the sample written offset updates ago: Get(1) is the most
// recently written sample. Offsets beyond the length saturate to the
// oldest sample; Get(0) also returns the oldest sample.
func (d *DelayLine[F]) Get(offset int) F {
	l := len(d.buffer)
	if offset > l {
		offset = l
	}
	if offset < 0 {
		offset = 0
	}
	if offset <= d.head {
		return d.buffer[d.head-offset]
	}
	return d.buffer[l-offset+d.head]
}

func (d *DelayLine[F]) Len() int {
	return len(d.buffer)
}

// Reset clears the contents without reallocating.
func (d *DelayLine[F]) Reset() {
	clear(d.buffer)
	d.head = 0
}
