package vm

import (
	"github.com/chewxy/math32"
	"github.com/kirosynth/kiro"
)

type oscillator struct {
	phase float32 // [0, 1)
	seed  uint32
}

// maxPhaseInc keeps oscillators below the Nyquist frequency.
const maxPhaseInc = 0.49

// next returns one sample of the waveform and advances the phase by inc,
// which must be in [0, maxPhaseInc].
func (o *oscillator) next(shape kiro.OscShape, inc float32) float32 {
	p := o.phase
	var out float32
	switch shape {
	case kiro.OscSine:
		out = math32.Sin(2 * math32.Pi * p)
	case kiro.OscSaw:
		out = 2*p - 1 - polyBLEP(p, inc)
	case kiro.OscTriangle:
		out = 1 - 4*math32.Abs(p-0.5)
	case kiro.OscSquare:
		if p < 0.5 {
			out = 1
		} else {
			out = -1
		}
		q := p + 0.5
		if q >= 1 {
			q -= 1
		}
		out += polyBLEP(p, inc) - polyBLEP(q, inc)
	case kiro.OscNoise:
		out = rand(&o.seed)
	}
	o.phase += inc
	if o.phase >= 1 {
		o.phase -= 1
	}
	return out
}

// polyBLEP is the polynomial correction of a unit step at phase 0, applied
// around discontinuities to reduce aliasing.
func polyBLEP(t, dt float32) float32 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func oscParams(p *[kiro.NumParams]float32, i int) (shape, octaves, semitones, cents, amplitude float32) {
	b := kiro.Osc1Shape + kiro.ParamRef(i)*(kiro.Osc2Shape-kiro.Osc1Shape)
	return p[b], p[b+1], p[b+2], p[b+3], p[b+4]
}
