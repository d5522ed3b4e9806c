package dsp_test

import (
	"math"
	"testing"

	"github.com/kirosynth/kiro/dsp"
)

func TestDelayLineGet(t *testing.T) {
	d := dsp.NewDelayLine[float32](4)
	for _, x := range []float32{1, 2, 3, 4, 5, 6} {
		d.Update(x)
	}
	// contents, newest first: 6 5 4 3
	tests := []struct {
		offset int
		want   float32
	}{
		{1, 6}, {2, 5}, {3, 4}, {4, 3}, {5, 3}, {1000, 3}, {0, 3},
	}
	for _, tt := range tests {
		if got := d.Get(tt.offset); got != tt.want {
			t.Fatalf("Get(%v) = %v, expected %v", tt.offset, got, tt.want)
		}
	}
	d.Reset()
	for i := 0; i <= d.Len(); i++ {
		if d.Get(i) != 0 {
			t.Fatalf("Get(%v) after Reset should be 0", i)
		}
	}
}

func TestDelayLineMinimumLength(t *testing.T) {
	d := dsp.NewDelayLine[float64](0)
	if d.Len() != 1 {
		t.Fatalf("length should be raised to 1, was %v", d.Len())
	}
	d.Update(7)
	if d.Get(1) != 7 {
		t.Fatalf("single sample line should return the last sample")
	}
}

func TestDelayImpulse(t *testing.T) {
	d := dsp.NewDelay[float32](4, 1)
	d.SetDelaySeconds(1)
	d.SetFeedback(0.5)
	d.SetMix(0.5)
	if d.DelaySamples() != 4 {
		t.Fatalf("expected a delay of 4 samples, got %v", d.DelaySamples())
	}
	buf := []float32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	d.ProcessBuffer(buf)
	expected := []float32{0.5, 0, 0, 0, 0.5, 0, 0, 0, 0.25, 0, 0, 0}
	for i := range expected {
		if buf[i] != expected[i] {
			t.Fatalf("sample %v: expected %v, got %v (output %v)", i, expected[i], buf[i], buf)
		}
	}
}

func TestDelayDryIsIdentity(t *testing.T) {
	d := dsp.NewDelay[float64](48000, 0.1)
	d.SetDelaySeconds(0.01)
	d.SetFeedback(0.9)
	for i := 0; i < 10000; i++ {
		x := math.Sin(float64(i) * 0.01)
		if y := d.Process(x); y != x {
			t.Fatalf("mix 0 should pass the input unchanged, sample %v: %v != %v", i, y, x)
		}
	}
}

func TestDelayWetIsPureDelay(t *testing.T) {
	d := dsp.NewDelay[float64](1000, 1)
	d.SetDelaySamples(10)
	d.SetMix(1)
	in := make([]float64, 100)
	for i := range in {
		in[i] = float64(i + 1)
	}
	out := append([]float64(nil), in...)
	d.ProcessBuffer(out)
	for i, y := range out {
		want := 0.0
		if i >= 10 {
			want = in[i-10]
		}
		if y != want {
			t.Fatalf("sample %v: expected %v, got %v", i, want, y)
		}
	}
}

func TestDelayMixWithoutFeedback(t *testing.T) {
	for _, mix := range []float64{0.3, 0.5, 0.9} {
		d := dsp.NewDelay[float64](1000, 1)
		d.SetDelaySamples(3)
		d.SetMix(mix)
		for i := 0; i < 50; i++ {
			x := math.Sin(float64(i) * 0.7)
			delayed := 0.0
			if i >= 3 {
				delayed = math.Sin(float64(i-3) * 0.7)
			}
			want := x*(1-mix) + mix*delayed
			if y := d.Process(x); math.Abs(y-want) > 1e-12 {
				t.Fatalf("mix %v, sample %v: expected %v, got %v", mix, i, want, y)
			}
		}
	}
}

func TestDelayTimeLimits(t *testing.T) {
	d := dsp.NewDelay[float32](100, 0.5)
	tests := []struct {
		seconds float64
		want    int
	}{
		{0.1, 10},
		{0, 1},
		{-3, 1},
		{math.NaN(), 1},
		{math.Inf(1), 1},
		{10, 50},
		{0.004, 1},
		{0.126, 13},
	}
	for _, tt := range tests {
		d.SetDelaySeconds(tt.seconds)
		if d.DelaySamples() != tt.want {
			t.Fatalf("SetDelaySeconds(%v): expected %v samples, got %v", tt.seconds, tt.want, d.DelaySamples())
		}
	}
	d.SetDelaySamples(0)
	if d.DelaySamples() != 1 {
		t.Fatalf("delay should never be 0 samples")
	}
	if s := dsp.NewDelay[float32](0, 0).DelaySeconds(); s != 0 {
		t.Fatalf("zero sample rate delay should report 0 seconds, got %v", s)
	}
}

func TestDelayReset(t *testing.T) {
	d := dsp.NewDelay[float32](10, 1)
	d.SetDelaySamples(2)
	d.SetMix(1)
	d.Process(1)
	d.Reset()
	for i := 0; i < 10; i++ {
		if y := d.Process(0); y != 0 {
			t.Fatalf("delay should be silent after Reset, got %v", y)
		}
	}
}
