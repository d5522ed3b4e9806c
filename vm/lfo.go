package vm

import (
	"github.com/chewxy/math32"
	"github.com/kirosynth/kiro"
)

type (
	// lfo is the running state of one low frequency oscillator. Free running
	// LFOs live in the Synth, retriggered ones in each voice.
	lfo struct {
		phase float32 // [0, 1)
		held  float32 // sample & hold value
		seed  uint32
	}

	lfoConfig struct {
		shape     kiro.LFOShape
		inc       float32 // phase increment per sample
		offset    float32 // start phase
		depth     float32
		retrigger bool
	}
)

func (c *lfoConfig) update(p *[kiro.NumParams]float32, i int, sampleRate int) {
	b := kiro.Lfo1Shape + kiro.ParamRef(i)*(kiro.Lfo2Shape-kiro.Lfo1Shape)
	shape, rate, phase, depth, mode := p[b], p[b+1], p[b+2], p[b+3], p[b+4]
	c.shape = kiro.LFOShape(shape)
	c.inc = rate / float32(sampleRate)
	c.offset = phase - math32.Floor(phase)
	c.depth = depth
	c.retrigger = mode >= 0.5
}

func (l *lfo) reset(seed uint32) {
	l.seed = seed | 1
	l.restart()
}

// restart starts the waveform from the configured phase and picks a new
// sample & hold value.
func (l *lfo) restart() {
	l.phase = 0
	l.held = rand(&l.seed)
}

// next returns the current output, in [-depth, depth], and advances the
// phase by one sample.
func (l *lfo) next(c *lfoConfig) float32 {
	p := l.phase + c.offset
	if p >= 1 {
		p -= 1
	}
	var w float32
	switch c.shape {
	case kiro.LFOSine:
		w = math32.Sin(2 * math32.Pi * p)
	case kiro.LFOTriangle:
		switch {
		case p < 0.25:
			w = 4 * p
		case p < 0.75:
			w = 2 - 4*p
		default:
			w = 4*p - 4
		}
	case kiro.LFOSquare:
		if p < 0.5 {
			w = 1
		} else {
			w = -1
		}
	case kiro.LFOSawUp:
		w = 2*p - 1
	case kiro.LFOSawDown:
		w = 1 - 2*p
	case kiro.LFOSampleHold:
		w = l.held
	}
	l.phase += c.inc
	if l.phase >= 1 {
		l.phase -= math32.Floor(l.phase)
		l.held = rand(&l.seed)
	}
	return w * c.depth
}

// rand is a multiplicative congruential generator returning values in
// [-1, 1]. The seed must be odd.
func rand(seed *uint32) float32 {
	*seed *= 16007
	return float32(int32(*seed)) / -2147483648.0
}
