package dsp

import (
	"math"

	"github.com/kirosynth/kiro"
)

// Delay is a feedback delay with a dry/wet mix. The buffer is allocated
// once for the maximum delay time; changing the delay time only moves the
// read offset.
type Delay[F kiro.Float] struct {
	line       *DelayLine[F]
	sampleRate int
	offset     int // in samples, always in [1, line.Len()]
	feedback   F
	mix        F
}

// NewDelay allocates a delay for delay times up to maxDelaySeconds. The
// delay starts at one sample, with no feedback and a fully dry mix.
func NewDelay[F kiro.Float](sampleRate int, maxDelaySeconds float64) *Delay[F] {
	length := 1
	if sampleRate > 0 && maxDelaySeconds > 0 && !math.IsInf(maxDelaySeconds, 0) {
		length = int(math.Ceil(maxDelaySeconds * float64(sampleRate)))
	}
	return &Delay[F]{
		line:       NewDelayLine[F](length),
		sampleRate: sampleRate,
		offset:     1,
	}
}

// SetDelaySeconds sets the delay time, rounded to whole samples. The delay
// is never shorter than one sample nor longer than the buffer; non-finite
// times give one sample.
func (d *Delay[F]) SetDelaySeconds(t float64) {
	s := math.Round(t * float64(d.sampleRate))
	switch {
	case math.IsNaN(s) || math.IsInf(s, 0) || s < 1:
		d.offset = 1
	case s > float64(d.line.Len()):
		d.offset = d.line.Len()
	default:
		d.offset = int(s)
	}
}

// SetDelaySamples sets the delay time in samples, limited like
// SetDelaySeconds.
func (d *Delay[F]) SetDelaySamples(n int) {
	d.offset = min(max(n, 1), d.line.Len())
}

// SetFeedback sets how much of the delayed signal is written back. Values
// are stored as given; callers should keep them in [0, 1].
func (d *Delay[F]) SetFeedback(f F) { d.feedback = f }

// SetMix sets the wet proportion of the output, 0 being fully dry.
func (d *Delay[F]) SetMix(m F) { d.mix = m }

func (d *Delay[F]) DelaySamples() int { return d.offset }
func (d *Delay[F]) Feedback() F { return d.feedback }
func (d *Delay[F]) Mix() F { return d.mix }

func (d *Delay[F]) DelaySeconds() float64 {
	if d.sampleRate <= 0 {
		return 0
	}
	return float64(d.offset) / float64(d.sampleRate)
}

// Process runs one sample through the delay.
func (d *Delay[F]) Process(x F) F {
	delayed := d.line.Get(d.offset)
	d.line.Update(x + delayed*d.feedback)
	return delayed*d.mix + x*(1-d.mix)
}

// ProcessBuffer runs the buffer through the delay in place.
func (d *Delay[F]) ProcessBuffer(buf []F) {
	for i, x := range buf {
		buf[i] = d.Process(x)
	}
}

// Reset silences the delay line, keeping the settings.
func (d *Delay[F]) Reset() {
	d.line.Reset()
}
