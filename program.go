package kiro

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

type (
	// Program is a complete sound: the parameter values of all modules and
	// the routes of the modulation matrix. Parameters missing from Params get
	// their default value. A Program is a plain value on the control side;
	// the synthesizer only ever sees a compiled snapshot of it.
	Program struct {
		Name        string             `yaml:",omitempty"`
		NumVoices   int                // polyphony, 1..32
		Params      map[string]float32 `yaml:",flow"`
		Modulations []Modulation       `yaml:",omitempty"`
	}

	// Modulation routes a modulation source to a target. Amount is in the
	// range [-1, 1]; 1 means full-scale modulation of the target.
	Modulation struct {
		Source ModSource
		Target ModTarget
		Amount float32
	}

	ModSource int
	ModTarget int
)

const (
	SrcEG1 ModSource = iota
	SrcEG2
	SrcLFO1
	SrcLFO2
	SrcVelocity
	SrcModWheel
	SrcPressure
	NumModSources
)

const (
	DstOsc1Pitch ModTarget = iota
	DstOsc2Pitch
	DstOsc1Amp
	DstOsc2Amp
	DstFilterCutoff
	DstDCAAmp
	DstDCAPan
	NumModTargets
)

// MaxProgramVoices is the largest polyphony a Program can ask for.
const MaxProgramVoices = 32

var ModSources = Waveforms{"eg1", "eg2", "lfo1", "lfo2", "velocity", "modwheel", "pressure"}
var ModTargets = Waveforms{"osc1.pitch", "osc2.pitch", "osc1.amp", "osc2.amp", "filter.cutoff", "dca.amp", "dca.pan"}

func (s ModSource) String() string { return ModSources.Name(int(s)) }
func (t ModTarget) String() string { return ModTargets.Name(int(t)) }

func (s ModSource) MarshalText() ([]byte, error) {
	if s < 0 || s >= NumModSources {
		return nil, fmt.Errorf("invalid modulation source %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *ModSource) UnmarshalText(text []byte) error {
	i, err := lookupName(ModSources, string(text))
	if err != nil {
		return fmt.Errorf("modulation source: %w", err)
	}
	*s = ModSource(i)
	return nil
}

func (t ModTarget) MarshalText() ([]byte, error) {
	if t < 0 || t >= NumModTargets {
		return nil, fmt.Errorf("invalid modulation target %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *ModTarget) UnmarshalText(text []byte) error {
	i, err := lookupName(ModTargets, string(text))
	if err != nil {
		return fmt.Errorf("modulation target: %w", err)
	}
	*t = ModTarget(i)
	return nil
}

func lookupName(names Waveforms, name string) (int, error) {
	for i, n := range names {
		if n == name {
			return i, nil
		}
	}
	// allow plain indices too, useful when programs are generated
	if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < len(names) {
		return i, nil
	}
	return 0, fmt.Errorf("unknown name %q", name)
}

// DefaultProgram returns a simple saw lead: one oscillator, envelope 1 gating
// the amplifier, all other parameters at their defaults.
func DefaultProgram() Program {
	return Program{
		Name:      "init",
		NumVoices: 8,
		Params: map[string]float32{
			"osc1.shape":    float32(OscSaw),
			"filter.mode":   float32(FilterLowpass),
			"filter.cutoff": 8000,
		},
		Modulations: []Modulation{
			{Source: SrcEG1, Target: DstDCAAmp, Amount: 1},
		},
	}
}

// Copy makes a deep copy of a Program.
func (p Program) Copy() Program {
	params := make(map[string]float32, len(p.Params))
	for k, v := range p.Params {
		params[k] = v
	}
	mods := make([]Modulation, len(p.Modulations))
	copy(mods, p.Modulations)
	return Program{Name: p.Name, NumVoices: p.NumVoices, Params: params, Modulations: mods}
}

// Value returns the stored value of a parameter, clamped to its range, or
// the default value if the program does not store one.
func (p Program) Value(ref ParamRef) float32 {
	if !ref.Valid() {
		return 0
	}
	d := &Params[ref]
	if v, ok := p.Params[d.Name]; ok {
		return d.Clamp(v)
	}
	return d.Default
}

// Set stores the value of a parameter, clamped to its range.
func (p *Program) Set(ref ParamRef, value float32) {
	if !ref.Valid() {
		return
	}
	if p.Params == nil {
		p.Params = map[string]float32{}
	}
	d := &Params[ref]
	p.Params[d.Name] = d.Clamp(value)
}

// Validate checks that the program can be compiled: the polyphony is in
// range, every parameter name is known and every value is finite, and the
// modulation routes are well formed.
func (p Program) Validate() error {
	if p.NumVoices < 1 || p.NumVoices > MaxProgramVoices {
		return fmt.Errorf("number of voices should be between 1 and %v, was %v", MaxProgramVoices, p.NumVoices)
	}
	names := make([]string, 0, len(p.Params))
	for name := range p.Params {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic error messages
	for _, name := range names {
		ref, ok := ParamByName(name)
		if !ok {
			return fmt.Errorf("unknown parameter %q", name)
		}
		if Params[ref].Scope != ScopeProgram {
			return fmt.Errorf("parameter %q is set per note and cannot be stored in a program", name)
		}
		v := float64(p.Params[name])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parameter %q has a non-finite value", name)
		}
	}
	for i, m := range p.Modulations {
		if m.Source < 0 || m.Source >= NumModSources {
			return fmt.Errorf("modulation %v: invalid source %d", i, int(m.Source))
		}
		if m.Target < 0 || m.Target >= NumModTargets {
			return fmt.Errorf("modulation %v: invalid target %d", i, int(m.Target))
		}
		a := float64(m.Amount)
		if math.IsNaN(a) || a < -1 || a > 1 {
			return fmt.Errorf("modulation %v: amount should be between -1 and 1, was %v", i, m.Amount)
		}
	}
	return nil
}
