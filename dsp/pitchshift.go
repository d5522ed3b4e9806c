package dsp

import (
	"math"

	"github.com/kirosynth/kiro"
)

// PitchShift combines the transposition settings of an oscillator into a
// frequency multiplier. All inputs are summed in semitones.
type PitchShift[F kiro.Float] struct {
	octaves    F
	semitones  F
	cents      F
	pitchBend  F
	modulation F
}

func (p *PitchShift[F]) SetOctaves(octaves F) { p.octaves = octaves }
func (p *PitchShift[F]) SetSemitones(semitones F) { p.semitones = semitones }
func (p *PitchShift[F]) SetCents(cents F) { p.cents = cents }
func (p *PitchShift[F]) SetPitchBend(semitones F) { p.pitchBend = semitones }
func (p *PitchShift[F]) SetModulation(semitones F) { p.modulation = semitones }

// Semitones returns the total shift in semitones.
func (p *PitchShift[F]) Semitones() F {
	return p.octaves*12 + p.semitones + p.cents*0.01 + p.pitchBend + p.modulation
}

// Multiplier returns 2^(semitones/12). A non-finite total shift gives 1 and
// the shift is limited to 100 octaves either way, so the result is always
// finite and positive.
func (p *PitchShift[F]) Multiplier() F {
	s := float64(p.Semitones())
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 1
	}
	s = min(max(s, -maxShift), maxShift)
	return F(math.Exp2(s / 12))
}

const maxShift = 1200
