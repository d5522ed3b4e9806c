package vm

import (
	"fmt"

	"github.com/kirosynth/kiro"
)

type (
	// Patch is a compiled, immutable snapshot of a Program: every parameter
	// resolved to a dense array and the modulation routes sorted by the rate
	// at which they are evaluated. A Patch can be shared between Synths and
	// goroutines, as nothing modifies it after Compile.
	Patch struct {
		NumVoices int
		Params    [kiro.NumParams]float32
		// Gates are the envelope routes to the amplifier with a positive
		// amount. Their product gates the voice, and a releasing voice is
		// freed when all of their envelopes are idle. Negative envelope
		// routes to the amplifier are Sample routes.
		Gates []Route
		// Block routes (pitch and cutoff) are evaluated once per control
		// block, Sample routes (amplitudes and pan) every sample.
		Block  []Route
		Sample []Route
		// GateMask has bit i set when envelope i is a gate.
		GateMask uint8
	}

	Route struct {
		Source kiro.ModSource
		Target kiro.ModTarget
		Amount float32
	}
)

// Compile validates the program and compiles it into a Patch. The sample
// rate is only validated here; patches are independent of the rate.
func Compile(program kiro.Program, sampleRate int) (*Patch, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	if err := program.Validate(); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}
	if program.NumVoices > MaxVoices {
		return nil, fmt.Errorf("program needs %v voices, the synth has only %v", program.NumVoices, MaxVoices)
	}
	p := &Patch{NumVoices: program.NumVoices}
	for i := range p.Params {
		p.Params[i] = program.Value(kiro.ParamRef(i))
	}
	for _, m := range program.Modulations {
		if m.Amount == 0 {
			continue
		}
		r := Route{Source: m.Source, Target: m.Target, Amount: m.Amount}
		switch {
		case m.Target == kiro.DstDCAAmp && m.Amount > 0 && (m.Source == kiro.SrcEG1 || m.Source == kiro.SrcEG2):
			p.Gates = append(p.Gates, r)
			p.GateMask |= 1 << uint(m.Source-kiro.SrcEG1)
		case m.Target == kiro.DstOsc1Pitch || m.Target == kiro.DstOsc2Pitch || m.Target == kiro.DstFilterCutoff:
			p.Block = append(p.Block, r)
		default:
			p.Sample = append(p.Sample, r)
		}
	}
	if p.GateMask == 0 {
		// without a gating envelope notes would never end
		p.Gates = append(p.Gates, Route{Source: kiro.SrcEG1, Target: kiro.DstDCAAmp, Amount: 1})
		p.GateMask = 1
	}
	return p, nil
}
