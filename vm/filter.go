package vm

import (
	"github.com/chewxy/math32"
	"github.com/kirosynth/kiro"
)

type (
	// svf is the state of a topology-preserving-transform state variable
	// filter. The coefficients change at most once per control block.
	svf struct {
		ic1, ic2   float32
		a1, a2, a3 float32
		k          float32
	}
)

// setCoeffs recomputes the coefficients. cutoff must be below Nyquist.
func (f *svf) setCoeffs(cutoff, q float32, sampleRate int) {
	g := math32.Tan(math32.Pi * cutoff / float32(sampleRate))
	f.k = 1 / q
	f.a1 = 1 / (1 + g*(g+f.k))
	f.a2 = g * f.a1
	f.a3 = g * f.a2
}

func (f *svf) process(in float32, mode kiro.FilterMode) float32 {
	v3 := in - f.ic2
	v1 := f.a1*f.ic1 + f.a2*v3
	v2 := f.ic2 + f.a2*f.ic1 + f.a3*v3
	f.ic1 = 2*v1 - f.ic1
	f.ic2 = 2*v2 - f.ic2
	switch mode {
	case kiro.FilterLowpass:
		return v2
	case kiro.FilterHighpass:
		return in - f.k*v1 - v2
	case kiro.FilterBandpass:
		return v1
	case kiro.FilterNotch:
		return in - f.k*v1
	}
	return in
}

func (f *svf) reset() {
	f.ic1, f.ic2 = 0, 0
}
