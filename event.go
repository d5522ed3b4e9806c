package kiro

import "fmt"

type (
	EventKind uint8

	// Event is a single instruction to the synthesizer. It is a plain value
	// with no pointers, so it can be copied through a lock-free queue without
	// involving the garbage collector.
	//
	// Note is used by NoteOn, NoteOff and by ParamChange for parameters with
	// ScopeVoice. Velocity is in [0, 1]. Param and Value are used by
	// ParamChange.
	Event struct {
		Kind     EventKind
		Note     byte     `yaml:",omitempty"`
		Velocity float32  `yaml:",omitempty"`
		Param    ParamRef `yaml:",omitempty"`
		Value    float32  `yaml:",omitempty"`
	}
)

const (
	NoteOn EventKind = iota
	NoteOff
	ParamChange
	AllNotesOff
	numEventKinds
)

var eventKindNames = Waveforms{"noteon", "noteoff", "param", "allnotesoff"}

func NoteOnEvent(note byte, velocity float32) Event {
	return Event{Kind: NoteOn, Note: note, Velocity: velocity}
}

func NoteOffEvent(note byte) Event {
	return Event{Kind: NoteOff, Note: note}
}

// ParamChangeEvent changes a program-wide parameter.
func ParamChangeEvent(ref ParamRef, value float32) Event {
	return Event{Kind: ParamChange, Param: ref, Value: value}
}

// NoteParamEvent changes a per-note parameter of the voices sounding note.
func NoteParamEvent(note byte, ref ParamRef, value float32) Event {
	return Event{Kind: ParamChange, Note: note, Param: ref, Value: value}
}

func (k EventKind) String() string {
	return eventKindNames.Name(int(k))
}

func (k EventKind) MarshalText() ([]byte, error) {
	if k >= numEventKinds {
		return nil, fmt.Errorf("invalid event kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	i, err := lookupName(eventKindNames, string(text))
	if err != nil {
		return fmt.Errorf("event kind: %w", err)
	}
	*k = EventKind(i)
	return nil
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOn:
		return fmt.Sprintf("noteon %v %.2f", e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("noteoff %v", e.Note)
	case ParamChange:
		if e.Param.Valid() && Params[e.Param].Scope == ScopeVoice {
			return fmt.Sprintf("param %v[%v] = %v", e.Param, e.Note, e.Value)
		}
		return fmt.Sprintf("param %v = %v", e.Param, e.Value)
	}
	return e.Kind.String()
}
