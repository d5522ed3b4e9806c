package kiro_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/kirosynth/kiro"
	"gopkg.in/yaml.v3"
)

// recordingSynth writes the number of events handled so far into every
// sample it renders.
type recordingSynth struct {
	events []kiro.Event
}

func (s *recordingSynth) Handle(e kiro.Event) { s.events = append(s.events, e) }

func (s *recordingSynth) Render(buffer kiro.AudioBuffer) {
	for i := range buffer {
		buffer[i] = [2]float32{float32(len(s.events)), 0}
	}
}

type recordingSynther struct {
	synth *recordingSynth
}

func (r *recordingSynther) Synth(p kiro.Program, sampleRate int) (kiro.Synth, error) {
	r.synth = &recordingSynth{}
	return r.synth, nil
}

const songYaml = `
samplerate: 44100
blocksize: 4
length: 3
program:
  numvoices: 1
events:
  - {block: 0, kind: noteon, note: 60, velocity: 1}
  - {block: 2, kind: param, param: filter.cutoff, value: 300}
  - {block: 2, kind: noteoff, note: 60}
`

func TestPlayAppliesEventsAtBlockStart(t *testing.T) {
	var song kiro.Song
	if err := yaml.Unmarshal([]byte(songYaml), &song); err != nil {
		t.Fatalf("could not parse song: %v", err)
	}
	synther := &recordingSynther{}
	buffer, err := kiro.Play(synther, song)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if len(buffer) != song.Samples() {
		t.Fatalf("expected %v samples, got %v", song.Samples(), len(buffer))
	}
	expected := []float32{1, 1, 1, 1, 1, 1, 1, 1, 3, 3, 3, 3}
	for i, v := range expected {
		if buffer[i][0] != v {
			t.Fatalf("sample %v: expected %v events handled, got %v", i, v, buffer[i][0])
		}
	}
	evs := synther.synth.events
	if evs[1].Kind != kiro.ParamChange || evs[1].Param != kiro.FiltCutoff || evs[1].Value != 300 {
		t.Fatalf("unexpected param event %v", evs[1])
	}
	if evs[2].Kind != kiro.NoteOff || evs[2].Note != 60 {
		t.Fatalf("unexpected note off event %v", evs[2])
	}
}

func TestSongValidate(t *testing.T) {
	song := kiro.Song{SampleRate: 44100, BlockSize: 64, Length: 1, Program: kiro.DefaultProgram()}
	if err := song.Validate(); err != nil {
		t.Fatalf("song should be valid: %v", err)
	}
	unordered := song
	unordered.Events = []kiro.TimedEvent{
		{Block: 2, Event: kiro.NoteOnEvent(60, 1)},
		{Block: 1, Event: kiro.NoteOffEvent(60)},
	}
	if err := unordered.Validate(); err == nil {
		t.Fatalf("events out of order should not validate")
	}
	noRate := song
	noRate.SampleRate = 0
	if _, err := kiro.Play(&recordingSynther{}, noRate); err == nil {
		t.Fatalf("Play should fail with a zero sample rate")
	}
}

func TestWavHeader(t *testing.T) {
	buffer := kiro.AudioBuffer{{0.5, -0.5}, {1, -2}}
	wav, err := buffer.Wav(48000, true)
	if err != nil {
		t.Fatalf("Wav failed: %v", err)
	}
	if len(wav) != 44+2*2*2 {
		t.Fatalf("16-bit wav should be 52 bytes, was %v", len(wav))
	}
	if !bytes.Equal(wav[:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Fatalf("missing RIFF/WAVE magic")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 48000 {
		t.Fatalf("sample rate in header should be 48000, was %v", rate)
	}
	last := int16(binary.LittleEndian.Uint16(wav[len(wav)-2:]))
	if last != -32768 {
		t.Fatalf("samples below -1 should clip to -32768, got %v", last)
	}
	raw, err := buffer.Raw(false)
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	if len(raw) != 16 {
		t.Fatalf("float raw output should be 16 bytes, was %v", len(raw))
	}
}
