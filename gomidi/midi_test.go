package gomidi

import (
	"testing"

	"github.com/kirosynth/kiro"
	"gitlab.com/gomidi/midi/v2"
)

type recorder []kiro.Event

func (r *recorder) Send(e kiro.Event) bool {
	*r = append(*r, e)
	return true
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		msg  midi.Message
		want kiro.Event
	}{
		{"note on", midi.NoteOn(0, 60, 127), kiro.NoteOnEvent(60, 1)},
		{"note on zero velocity", midi.NoteOn(0, 60, 0), kiro.NoteOffEvent(60)},
		{"note off", midi.NoteOff(3, 61), kiro.NoteOffEvent(61)},
		{"pitch bend up", midi.Pitchbend(0, 4096), kiro.ParamChangeEvent(kiro.PitchBend, 0.5)},
		{"pitch bend down", midi.Pitchbend(0, -8192), kiro.ParamChangeEvent(kiro.PitchBend, -1)},
		{"mod wheel", midi.ControlChange(0, 1, 127), kiro.ParamChangeEvent(kiro.ModWheel, 1)},
		{"all notes off", midi.ControlChange(0, 123, 0), kiro.Event{Kind: kiro.AllNotesOff}},
		{"poly aftertouch", midi.PolyAfterTouch(0, 64, 127), kiro.NoteParamEvent(64, kiro.NotePressure, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Translate(tt.msg)
			if !ok {
				t.Fatalf("message %v was not translated", tt.msg)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTranslateIgnored(t *testing.T) {
	for _, msg := range []midi.Message{midi.ControlChange(0, 7, 100), midi.ProgramChange(0, 5), midi.Start()} {
		if e, ok := Translate(msg); ok {
			t.Fatalf("message %v should be ignored, got %v", msg, e)
		}
	}
}

func TestInputChannelFilter(t *testing.T) {
	var r recorder
	in := &Input{Channel: 2, Sender: &r}
	in.HandleMessage(midi.NoteOn(1, 60, 100), 0)
	in.HandleMessage(midi.NoteOn(2, 62, 100), 0)
	in.HandleMessage(midi.Start(), 0)
	if len(r) != 1 || r[0].Note != 62 {
		t.Fatalf("expected only the note on channel 2, got %v", r)
	}
	in.Channel = -1
	in.HandleMessage(midi.NoteOff(9, 40), 0)
	if len(r) != 2 || r[1] != kiro.NoteOffEvent(40) {
		t.Fatalf("omni input should forward every channel, got %v", r)
	}
}
