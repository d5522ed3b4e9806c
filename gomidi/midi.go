// Package gomidi translates MIDI messages into synthesizer events and
// listens to MIDI input devices.
package gomidi

import (
	"github.com/kirosynth/kiro"
	"gitlab.com/gomidi/midi/v2"
)

const (
	ccModWheel    = 1
	ccAllNotesOff = 123
	ccAllSoundOff = 120
)

// Input forwards the messages of one MIDI channel (or all channels, if
// Channel is negative) to an EventSender.
type Input struct {
	Channel int
	Sender  kiro.EventSender
}

// HandleMessage has the signature expected by midi.ListenTo. Messages that
// have no event counterpart are ignored.
func (in *Input) HandleMessage(msg midi.Message, timestampms int32) {
	ch, ok := channelOf(msg)
	if !ok || (in.Channel >= 0 && int(ch) != in.Channel) {
		return
	}
	if e, ok := Translate(msg); ok {
		in.Sender.Send(e)
	}
}

func channelOf(msg midi.Message) (uint8, bool) {
	var ch uint8
	if !msg.GetChannel(&ch) {
		return 0, false
	}
	return ch, true
}

// Translate converts a MIDI channel message into an event. A note on with
// zero velocity is a note off. Pitch bend and the mod wheel are normalized
// to the ranges of the controller parameters, polyphonic aftertouch becomes
// the pressure of the note.
func Translate(msg midi.Message) (kiro.Event, bool) {
	var ch, key, vel, cc, val uint8
	var rel int16
	var abs uint16
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return kiro.NoteOnEvent(key, float32(vel)/127), true
	case msg.GetNoteEnd(&ch, &key):
		return kiro.NoteOffEvent(key), true
	case msg.GetPitchBend(&ch, &rel, &abs):
		v := float32(rel) / 8192
		if v < -1 {
			v = -1
		}
		return kiro.ParamChangeEvent(kiro.PitchBend, v), true
	case msg.GetControlChange(&ch, &cc, &val):
		switch cc {
		case ccModWheel:
			return kiro.ParamChangeEvent(kiro.ModWheel, float32(val)/127), true
		case ccAllNotesOff, ccAllSoundOff:
			return kiro.Event{Kind: kiro.AllNotesOff}, true
		}
	case msg.GetPolyAfterTouch(&ch, &key, &val):
		return kiro.NoteParamEvent(key, kiro.NotePressure, float32(val)/127), true
	}
	return kiro.Event{}, false
}
