package kiro

// OscShape selects the waveform of an oscillator. The values are stored as
// float parameter values (e.g. Program.Params["osc1.shape"] == 2 means
// triangle).
type OscShape int

const (
	OscSine OscShape = iota
	OscSaw
	OscTriangle
	OscSquare
	OscNoise
)

// LFOShape selects the waveform of a low frequency oscillator.
type LFOShape int

const (
	LFOSine LFOShape = iota
	LFOTriangle
	LFOSquare
	LFOSawUp
	LFOSawDown
	LFOSampleHold
)

// FilterMode selects which output of the state variable filter is used.
type FilterMode int

const (
	FilterOff FilterMode = iota
	FilterLowpass
	FilterHighpass
	FilterBandpass
	FilterNotch
)

// Waveforms is a read-only name table used by presentation layers. The
// engine never looks up names; it treats shapes as opaque indices.
type Waveforms []string

var (
	OscShapes   = Waveforms{"sine", "saw", "triangle", "square", "noise"}
	LFOShapes   = Waveforms{"sine", "triangle", "square", "saw up", "saw down", "sample & hold"}
	FilterModes = Waveforms{"off", "lowpass", "highpass", "bandpass", "notch"}
	EnvModes    = Waveforms{"linear", "exponential"}
	LFOModes    = Waveforms{"free", "retrigger"}
)

// Name returns the name of the waveform with the given index, or "???" if
// the index is out of range.
func (w Waveforms) Name(index int) string {
	if index < 0 || index >= len(w) {
		return "???"
	}
	return w[index]
}

// Len returns the number of entries in the table.
func (w Waveforms) Len() int {
	return len(w)
}
