package vm

import (
	"math"
	"testing"

	"github.com/kirosynth/kiro"
)

func envCoeffsFor(attack, decay, sustain, release, mode float32, sampleRate int) *envCoeffs {
	var p [kiro.NumParams]float32
	p[kiro.Eg1Attack], p[kiro.Eg1Decay], p[kiro.Eg1Sustain], p[kiro.Eg1Release], p[kiro.Eg1Mode] = attack, decay, sustain, release, mode
	var c envCoeffs
	c.update(&p, 0, sampleRate)
	return &c
}

func TestLinearEnvelopeStages(t *testing.T) {
	c := envCoeffsFor(0.01, 0.01, 0.5, 0.02, 0, 1000)
	var e envelope
	if e.next(c) != 0 || e.stage != EnvIdle {
		t.Fatalf("untriggered envelope should be idle and silent")
	}
	e.trigger()
	steps := 0
	for e.stage == EnvAttack {
		e.next(c)
		steps++
	}
	if steps < 9 || steps > 11 || e.level != 1 {
		t.Fatalf("10 ms attack at 1 kHz should take 10 samples, took %v, level %v", steps, e.level)
	}
	steps = 0
	for e.stage == EnvDecay {
		e.next(c)
		steps++
	}
	if steps < 4 || steps > 6 || e.level != 0.5 {
		t.Fatalf("decay from 1 to 0.5 should take half of 10 samples, took %v, level %v", steps, e.level)
	}
	for i := 0; i < 100; i++ {
		if v := e.next(c); v != 0.5 {
			t.Fatalf("sustain level should hold, got %v", v)
		}
	}
	e.release()
	steps = 0
	for e.stage == EnvRelease {
		e.next(c)
		steps++
	}
	if steps < 9 || steps > 11 || e.level != 0 || e.stage != EnvIdle {
		t.Fatalf("release from 0.5 should take 10 samples, took %v", steps)
	}
}

func TestExponentialEnvelopeEndsInTime(t *testing.T) {
	c := envCoeffsFor(0.1, 0.1, 0.2, 0.1, 1, 1000)
	var e envelope
	e.trigger()
	steps := 0
	prev := float32(-1)
	for e.stage == EnvAttack {
		v := e.next(c)
		if v < prev {
			t.Fatalf("attack should rise monotonically")
		}
		prev = v
		steps++
	}
	if steps > 102 {
		t.Fatalf("100 ms attack took %v samples", steps)
	}
	for e.stage == EnvDecay {
		e.next(c)
	}
	e.release()
	steps = 0
	for e.stage != EnvIdle && steps < 1000 {
		e.next(c)
		steps++
	}
	if steps > 102 {
		t.Fatalf("100 ms release took %v samples", steps)
	}
}

func TestEnvelopeRetriggerFromCurrentLevel(t *testing.T) {
	c := envCoeffsFor(0.01, 0.01, 0.5, 1, 0, 1000)
	var e envelope
	e.trigger()
	for e.stage != EnvSustain {
		e.next(c)
	}
	e.release()
	e.next(c)
	level := e.level
	e.trigger()
	if v := e.next(c); v < level {
		t.Fatalf("retrigger should continue from %v, got %v", level, v)
	}
}

func TestEnvelopeMinimumStageTime(t *testing.T) {
	c := envCoeffsFor(0, 0, 0, 0, 0, 48000)
	if math.Abs(float64(c.attackInc)-1/48.0) > 1e-6 {
		t.Fatalf("zero attack should be limited to 1 ms, increment was %v", c.attackInc)
	}
}

func TestLFOShapes(t *testing.T) {
	var p [kiro.NumParams]float32
	p[kiro.Lfo1Rate] = 250 // a quarter period per sample at 1 kHz
	p[kiro.Lfo1Depth] = 0.5
	tests := []struct {
		shape kiro.LFOShape
		want  []float32
	}{
		{kiro.LFOSquare, []float32{0.5, 0.5, -0.5, -0.5, 0.5}},
		{kiro.LFOTriangle, []float32{0, 0.5, 0, -0.5, 0}},
		{kiro.LFOSawUp, []float32{-0.5, -0.25, 0, 0.25, -0.5}},
		{kiro.LFOSawDown, []float32{0.5, 0.25, 0, -0.25, 0.5}},
	}
	for _, tt := range tests {
		p[kiro.Lfo1Shape] = float32(tt.shape)
		var c lfoConfig
		c.update(&p, 0, 1000)
		var l lfo
		l.reset(1)
		for i, want := range tt.want {
			if got := l.next(&c); math.Abs(float64(got-want)) > 1e-6 {
				t.Fatalf("%v sample %v: expected %v, got %v", kiro.LFOShapes.Name(int(tt.shape)), i, want, got)
			}
		}
	}
}

func TestLFOPhaseOffset(t *testing.T) {
	var p [kiro.NumParams]float32
	p[kiro.Lfo2Shape] = float32(kiro.LFOSawUp)
	p[kiro.Lfo2Rate] = 100
	p[kiro.Lfo2Phase] = 0.5
	p[kiro.Lfo2Depth] = 1
	var c lfoConfig
	c.update(&p, 1, 1000)
	var l lfo
	l.reset(1)
	if v := l.next(&c); v != 0 {
		t.Fatalf("saw at half phase should start at 0, got %v", v)
	}
}

func TestSampleHoldIsSteppedAndBounded(t *testing.T) {
	var p [kiro.NumParams]float32
	p[kiro.Lfo1Shape] = float32(kiro.LFOSampleHold)
	p[kiro.Lfo1Rate] = 10
	p[kiro.Lfo1Depth] = 1
	var c lfoConfig
	c.update(&p, 0, 1000)
	var l lfo
	l.reset(7)
	changes := 0
	prev := l.next(&c)
	for i := 1; i < 1000; i++ {
		v := l.next(&c)
		if v < -1 || v > 1 {
			t.Fatalf("sample & hold out of range: %v", v)
		}
		if v != prev {
			changes++
		}
		prev = v
	}
	if changes < 9 || changes > 10 {
		t.Fatalf("10 Hz sample & hold should change 10 times a second, changed %v times", changes)
	}
}

func TestFilterDCResponse(t *testing.T) {
	tests := []struct {
		mode kiro.FilterMode
		want float32
	}{
		{kiro.FilterLowpass, 1},
		{kiro.FilterHighpass, 0},
		{kiro.FilterBandpass, 0},
		{kiro.FilterNotch, 1},
	}
	for _, tt := range tests {
		var f svf
		f.setCoeffs(1000, 0.707, 48000)
		var out float32
		for i := 0; i < 48000; i++ {
			out = f.process(1, tt.mode)
		}
		if math.Abs(float64(out-tt.want)) > 1e-3 {
			t.Fatalf("%v should settle to %v for DC, got %v", kiro.FilterModes.Name(int(tt.mode)), tt.want, out)
		}
	}
}

func TestPolyBLEPSawIsBounded(t *testing.T) {
	var o oscillator
	inc := float32(0.037)
	for i := 0; i < 10000; i++ {
		v := o.next(kiro.OscSaw, inc)
		if v < -1.01 || v > 1.01 {
			t.Fatalf("saw sample %v out of range: %v", i, v)
		}
	}
}
