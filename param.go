package kiro

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

type (
	// ParamRef is an opaque reference to one parameter of the engine. It is
	// an index into the Params table; the UI and the event producers only
	// ever pass ParamRefs around and never touch engine state directly.
	ParamRef uint16

	// Scope tells whether a parameter has one value for the whole program or
	// one value per sounding note.
	Scope int

	// Curve is a hint to presentation layers how a knob should map to the
	// parameter range. The engine does not use it.
	Curve int

	// ParamDescriptor documents one parameter: its range, default and how it
	// should be displayed.
	ParamDescriptor struct {
		Ref         ParamRef
		Name        string // full name, e.g. "osc1.semitones"; used as the key in Program.Params
		Module      string // e.g. "osc1"
		Min         float32
		Max         float32
		Step        float32
		Default     float32
		Origin      float32 // where a bipolar knob is drawn from
		Curve       Curve
		Scope       Scope
		DisplayFunc ParamDisplayFunc
	}

	ParamDisplayFunc func(float32) (value string, unit string)
)

const (
	ScopeProgram Scope = iota
	ScopeVoice
)

const (
	CurveLinear Curve = iota
	CurveExponential
	CurveEnum
)

// The parameters of the engine. The order of the oscillator, envelope and
// LFO blocks must stay identical between instances, as the table below is
// filled by looping over them.
const (
	Osc1Shape ParamRef = iota
	Osc1Octaves
	Osc1Semitones
	Osc1Cents
	Osc1Amplitude
	Osc2Shape
	Osc2Octaves
	Osc2Semitones
	Osc2Cents
	Osc2Amplitude
	Eg1Attack
	Eg1Decay
	Eg1Sustain
	Eg1Release
	Eg1Mode
	Eg2Attack
	Eg2Decay
	Eg2Sustain
	Eg2Release
	Eg2Mode
	Lfo1Shape
	Lfo1Rate
	Lfo1Phase
	Lfo1Depth
	Lfo1Mode
	Lfo2Shape
	Lfo2Rate
	Lfo2Phase
	Lfo2Depth
	Lfo2Mode
	FiltMode
	FiltCutoff
	FiltQ
	DcaAmplitude
	DcaPan
	DelayTime
	DelayFeedback
	DelayMix
	MasterVolume
	MasterBendRange
	PitchBend
	ModWheel
	NoteBend
	NotePressure
	NumParams
)

const (
	oscBlock = Osc2Shape - Osc1Shape
	envBlock = Eg2Attack - Eg1Attack
	lfoBlock = Lfo2Shape - Lfo1Shape
)

// Params documents every parameter of the engine, indexed by ParamRef.
// Populated during init() and never modified afterwards.
var Params [NumParams]ParamDescriptor

// ParamNames is a list of all parameter names, sorted alphabetically.
var ParamNames []string

var paramsByName = make(map[string]ParamRef, NumParams)

func init() {
	for i, m := range []string{"osc1", "osc2"} {
		b := Osc1Shape + ParamRef(i)*oscBlock
		define(b, m, "shape", ParamDescriptor{Max: float32(len(OscShapes) - 1), Step: 1, Curve: CurveEnum, DisplayFunc: arrDispFunc(OscShapes)})
		define(b+1, m, "octaves", ParamDescriptor{Min: -4, Max: 4, Step: 1, DisplayFunc: unitDispFunc("oct")})
		define(b+2, m, "semitones", ParamDescriptor{Min: -12, Max: 12, Step: 1, DisplayFunc: unitDispFunc("st")})
		define(b+3, m, "cents", ParamDescriptor{Min: -100, Max: 100, Step: 1, DisplayFunc: unitDispFunc("ct")})
		define(b+4, m, "amplitude", ParamDescriptor{Max: 1, Step: 0.01, Default: 1 - float32(i)})
	}
	for i, m := range []string{"eg1", "eg2"} {
		b := Eg1Attack + ParamRef(i)*envBlock
		define(b, m, "attack", ParamDescriptor{Min: 0.001, Max: 10, Step: 0.001, Default: 0.01, Curve: CurveExponential, DisplayFunc: engineeringTime})
		define(b+1, m, "decay", ParamDescriptor{Min: 0.001, Max: 10, Step: 0.001, Default: 0.1, Curve: CurveExponential, DisplayFunc: engineeringTime})
		define(b+2, m, "sustain", ParamDescriptor{Max: 1, Step: 0.01, Default: 0.7})
		define(b+3, m, "release", ParamDescriptor{Min: 0.001, Max: 10, Step: 0.001, Default: 0.3, Curve: CurveExponential, DisplayFunc: engineeringTime})
		define(b+4, m, "mode", ParamDescriptor{Max: float32(len(EnvModes) - 1), Step: 1, Default: 1, Curve: CurveEnum, DisplayFunc: arrDispFunc(EnvModes)})
	}
	for i, m := range []string{"lfo1", "lfo2"} {
		b := Lfo1Shape + ParamRef(i)*lfoBlock
		define(b, m, "shape", ParamDescriptor{Max: float32(len(LFOShapes) - 1), Step: 1, Curve: CurveEnum, DisplayFunc: arrDispFunc(LFOShapes)})
		define(b+1, m, "rate", ParamDescriptor{Min: 0.02, Max: 20, Step: 0.01, Default: 1, Curve: CurveExponential, DisplayFunc: unitDispFunc("Hz")})
		define(b+2, m, "phase", ParamDescriptor{Max: 1, Step: 0.01})
		define(b+3, m, "depth", ParamDescriptor{Max: 1, Step: 0.01, Default: 1})
		define(b+4, m, "mode", ParamDescriptor{Max: float32(len(LFOModes) - 1), Step: 1, Curve: CurveEnum, DisplayFunc: arrDispFunc(LFOModes)})
	}
	define(FiltMode, "filter", "mode", ParamDescriptor{Max: float32(len(FilterModes) - 1), Step: 1, Curve: CurveEnum, DisplayFunc: arrDispFunc(FilterModes)})
	define(FiltCutoff, "filter", "cutoff", ParamDescriptor{Min: 20, Max: 20000, Step: 1, Default: 20000, Curve: CurveExponential, DisplayFunc: unitDispFunc("Hz")})
	define(FiltQ, "filter", "q", ParamDescriptor{Min: 0.5, Max: 20, Step: 0.01, Default: 0.707})
	define(DcaAmplitude, "dca", "amplitude", ParamDescriptor{Min: -96, Max: 24, Step: 0.1, DisplayFunc: unitDispFunc("dB")})
	define(DcaPan, "dca", "pan", ParamDescriptor{Min: -1, Max: 1, Step: 0.01})
	define(DelayTime, "delay", "time", ParamDescriptor{Max: 2, Step: 0.001, Default: 0.25, DisplayFunc: engineeringTime})
	define(DelayFeedback, "delay", "feedback", ParamDescriptor{Max: 1, Step: 0.01})
	define(DelayMix, "delay", "mix", ParamDescriptor{Max: 1, Step: 0.01})
	define(MasterVolume, "master", "volume", ParamDescriptor{Min: -96, Max: 12, Step: 0.1, DisplayFunc: unitDispFunc("dB")})
	define(MasterBendRange, "master", "bendrange", ParamDescriptor{Max: 24, Step: 1, Default: 2, DisplayFunc: unitDispFunc("st")})
	define(PitchBend, "controller", "pitchbend", ParamDescriptor{Min: -1, Max: 1, Step: 0.001})
	define(ModWheel, "controller", "modwheel", ParamDescriptor{Max: 1, Step: 0.001})
	define(NoteBend, "note", "bend", ParamDescriptor{Min: -12, Max: 12, Step: 0.01, Scope: ScopeVoice, DisplayFunc: unitDispFunc("st")})
	define(NotePressure, "note", "pressure", ParamDescriptor{Max: 1, Step: 0.001, Scope: ScopeVoice})

	ParamNames = make([]string, 0, NumParams)
	for _, p := range Params {
		ParamNames = append(ParamNames, p.Name)
	}
	sort.Strings(ParamNames)
}

func define(ref ParamRef, module, name string, d ParamDescriptor) {
	d.Ref = ref
	d.Module = module
	d.Name = module + "." + name
	if d.Min < 0 && d.Max > 0 {
		d.Origin = 0
	} else {
		d.Origin = d.Min
	}
	Params[ref] = d
	paramsByName[d.Name] = ref
}

// ParamByName returns the reference of the parameter with the given full
// name, e.g. "filter.cutoff".
func ParamByName(name string) (ParamRef, bool) {
	ref, ok := paramsByName[name]
	return ref, ok
}

// Valid reports whether the reference points to a parameter in the table.
func (r ParamRef) Valid() bool {
	return r < NumParams
}

// Descriptor returns the descriptor of the parameter. Panics if the
// reference is not valid.
func (r ParamRef) Descriptor() *ParamDescriptor {
	return &Params[r]
}

func (r ParamRef) String() string {
	if !r.Valid() {
		return "param(" + strconv.Itoa(int(r)) + ")"
	}
	return Params[r].Name
}

func (r ParamRef) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid parameter reference %d", int(r))
	}
	return []byte(Params[r].Name), nil
}

func (r *ParamRef) UnmarshalText(text []byte) error {
	ref, ok := ParamByName(string(text))
	if !ok {
		return fmt.Errorf("unknown parameter %q", string(text))
	}
	*r = ref
	return nil
}

// Clamp limits the value into the range of the parameter. Enumerations are
// rounded to the nearest index. Non-finite values are replaced with the
// default, so the result is always safe to hand to the audio thread.
func (d *ParamDescriptor) Clamp(v float32) float32 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return d.Default
	}
	if d.Curve == CurveEnum {
		v = float32(math.Round(f))
	}
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

// Display formats the value for presentation, returning the value and its
// unit separately.
func (d *ParamDescriptor) Display(v float32) (string, string) {
	if d.DisplayFunc != nil {
		return d.DisplayFunc(v)
	}
	return formatFloat(float64(v)), ""
}

func arrDispFunc(arr Waveforms) ParamDisplayFunc {
	return func(v float32) (string, string) {
		return arr.Name(int(v)), ""
	}
}

func unitDispFunc(unit string) ParamDisplayFunc {
	return func(v float32) (string, string) {
		return formatFloat(float64(v)), unit
	}
}

func engineeringTime(sec float32) (string, string) {
	if sec < 1e-3 {
		return fmt.Sprintf("%.2f", sec*1e6), "us"
	} else if sec < 1 {
		return fmt.Sprintf("%.2f", sec*1e3), "ms"
	}
	return fmt.Sprintf("%.2f", sec), "s"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 32)
}
