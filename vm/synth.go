package vm

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/kirosynth/kiro"
	"github.com/kirosynth/kiro/dsp"
	"github.com/viterin/vek/vek32"
)

type (
	// Synth is the polyphonic synthesizer. Everything it needs while
	// rendering is allocated in New; Handle and Render never allocate, block
	// nor fail, so they can be called from the audio thread. A Synth is not
	// safe for concurrent use.
	Synth struct {
		patch      *Patch
		sampleRate int
		params     [kiro.NumParams]float32 // live values, starting from patch.Params
		voices     [MaxVoices]voice

		env     [2]envCoeffs
		lfoCfg  [2]lfoConfig
		lfos    [2]lfo // free running instances
		lfoBuf  [2][BlockSize]float32
		delay   [2]*dsp.Delay[float32]
		dcaGain float32
		master  float32
		panL    float32
		panR    float32

		noteFreq  [128]float32
		maxCutoff float32

		left, right [BlockSize]float32
		vl, vr      [BlockSize]float32
	}

	// Synther compiles Programs into Synths.
	Synther struct{}

	// VoiceInfo describes the state of a voice, for meters and tests.
	VoiceInfo struct {
		State VoiceState
		Note  byte
		Age   int
	}
)

const (
	MaxVoices       = 32
	BlockSize       = 64 // samples per control block
	MaxDelaySeconds = 2
)

const minCutoff = 10

func (Synther) Name() string { return "Go" }

func (Synther) Synth(program kiro.Program, sampleRate int) (kiro.Synth, error) {
	patch, err := Compile(program, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("error compiling %v", err)
	}
	return New(patch, sampleRate), nil
}

// New creates a Synth playing the patch. sampleRate must be positive.
func New(patch *Patch, sampleRate int) *Synth {
	s := &Synth{sampleRate: sampleRate}
	for i := range s.delay {
		s.delay[i] = dsp.NewDelay[float32](sampleRate, MaxDelaySeconds)
	}
	for n := range s.noteFreq {
		s.noteFreq[n] = 440 * math32.Exp2(float32(n-69)/12)
	}
	s.maxCutoff = 0.49 * float32(sampleRate)
	s.Reset()
	s.Load(patch)
	return s
}

// Load switches to another patch. The live parameters are reset to the
// values of the patch; voices keep playing, except that voices beyond the
// polyphony of the new patch are released.
func (s *Synth) Load(patch *Patch) {
	s.patch = patch
	s.params = patch.Params
	for i := range s.params {
		s.update(kiro.ParamRef(i))
	}
	for i := patch.NumVoices; i < MaxVoices; i++ {
		if s.voices[i].state == VoiceActive {
			s.voices[i].release()
		}
	}
}

// Patch returns the currently loaded patch.
func (s *Synth) Patch() *Patch {
	return s.patch
}

// Reset silences all voices and effects and restarts the random number
// generators, bringing the synth to the state it had after New.
func (s *Synth) Reset() {
	for i := range s.voices {
		v := &s.voices[i]
		*v = voice{}
		for k := range v.osc {
			v.osc[k].seed = seedFor(2*i + k)
		}
		for k := range v.lfo {
			v.lfo[k].reset(seedFor(2*MaxVoices + 2*i + k))
		}
	}
	for k := range s.lfos {
		s.lfos[k].reset(seedFor(4*MaxVoices + k))
	}
	for _, d := range s.delay {
		d.Reset()
	}
}

func seedFor(i int) uint32 {
	return (uint32(i)+1)*0x9e3779b9 | 1
}

// update derives the internal values depending on the parameter.
func (s *Synth) update(ref kiro.ParamRef) {
	p := &s.params
	switch {
	case ref >= kiro.Eg1Attack && ref <= kiro.Eg2Mode:
		i := int(ref-kiro.Eg1Attack) / int(kiro.Eg2Attack-kiro.Eg1Attack)
		s.env[i].update(p, i, s.sampleRate)
	case ref >= kiro.Lfo1Shape && ref <= kiro.Lfo2Mode:
		i := int(ref-kiro.Lfo1Shape) / int(kiro.Lfo2Shape-kiro.Lfo1Shape)
		s.lfoCfg[i].update(p, i, s.sampleRate)
	case ref == kiro.DcaAmplitude:
		s.dcaGain = math32.Pow(10, p[ref]/20)
	case ref == kiro.DcaPan:
		s.panL, s.panR = panGains(p[ref])
	case ref == kiro.MasterVolume:
		s.master = math32.Pow(10, p[ref]/20)
	case ref == kiro.DelayTime:
		for _, d := range s.delay {
			d.SetDelaySeconds(float64(p[ref]))
		}
	case ref == kiro.DelayFeedback:
		for _, d := range s.delay {
			d.SetFeedback(p[ref])
		}
	case ref == kiro.DelayMix:
		for _, d := range s.delay {
			d.SetMix(p[ref])
		}
	}
	// the remaining parameters are read directly while rendering
}

// Handle applies an event. Events referring to unknown notes or parameters
// are ignored.
func (s *Synth) Handle(e kiro.Event) {
	switch e.Kind {
	case kiro.NoteOn:
		if e.Note > 127 {
			return
		}
		vel := e.Velocity
		if !(vel >= 0) { // also catches NaN
			vel = 0
		}
		s.noteOn(e.Note, min(vel, 1))
	case kiro.NoteOff:
		for i := range s.patch.NumVoices {
			if v := &s.voices[i]; v.state == VoiceActive && v.note == e.Note {
				v.release()
				return
			}
		}
		// the note may be held by a voice beyond the current polyphony
		for i := s.patch.NumVoices; i < MaxVoices; i++ {
			if v := &s.voices[i]; v.state == VoiceActive && v.note == e.Note {
				v.release()
				return
			}
		}
	case kiro.ParamChange:
		s.setParam(e.Param, e.Note, e.Value)
	case kiro.AllNotesOff:
		for i := range s.voices {
			if s.voices[i].state == VoiceActive {
				s.voices[i].release()
			}
		}
	}
}

func (s *Synth) noteOn(note byte, velocity float32) {
	for i := range s.voices {
		if v := &s.voices[i]; v.state == VoiceActive && v.note == note {
			v.release()
		}
	}
	v := &s.voices[s.allocate()]
	if v.state == VoiceFree {
		for i := range v.env {
			v.env[i].kill()
		}
		v.trigger(note, velocity, &s.lfoCfg)
		return
	}
	v.steal(note, velocity)
}

func (s *Synth) setParam(ref kiro.ParamRef, note byte, value float32) {
	if !ref.Valid() {
		return
	}
	d := ref.Descriptor()
	value = d.Clamp(value)
	if d.Scope == kiro.ScopeVoice {
		for i := range s.voices {
			v := &s.voices[i]
			if v.state == VoiceFree || v.note != note {
				continue
			}
			// during a steal fade the voice still sounds the previous note
			bend, pressure := &v.bend, &v.pressure
			if v.fade > 0 {
				bend, pressure = &v.pendingBend, &v.pendingPressure
			}
			switch ref {
			case kiro.NoteBend:
				*bend = value
			case kiro.NotePressure:
				*pressure = value
			}
		}
		return
	}
	s.params[ref] = value
	s.update(ref)
}

// Param returns the live value of a program parameter.
func (s *Synth) Param(ref kiro.ParamRef) float32 {
	if !ref.Valid() {
		return 0
	}
	return s.params[ref]
}

// Render fills the buffer. Events handled before the call apply from the
// first sample.
func (s *Synth) Render(buffer kiro.AudioBuffer) {
	for len(buffer) > 0 {
		n := min(len(buffer), BlockSize)
		s.renderBlock(buffer[:n])
		buffer = buffer[n:]
	}
}

func (s *Synth) renderBlock(out kiro.AudioBuffer) {
	n := len(out)
	l := vek32.Zeros_Into(s.left[:], n)
	r := vek32.Zeros_Into(s.right[:], n)
	for i := range s.lfos {
		if s.lfoCfg[i].retrigger {
			continue
		}
		for j := 0; j < n; j++ {
			s.lfoBuf[i][j] = s.lfos[i].next(&s.lfoCfg[i])
		}
	}
	for i := range s.voices {
		v := &s.voices[i]
		if v.state == VoiceFree {
			continue
		}
		s.renderVoice(v, n)
		vek32.Add_Inplace(l, s.vl[:n])
		vek32.Add_Inplace(r, s.vr[:n])
	}
	s.delay[0].ProcessBuffer(l)
	s.delay[1].ProcessBuffer(r)
	vek32.MulNumber_Inplace(l, s.master)
	vek32.MulNumber_Inplace(r, s.master)
	for j := range out {
		out[j] = [2]float32{l[j], r[j]}
	}
}

// VoiceStates returns the state of every voice.
func (s *Synth) VoiceStates() (ret [MaxVoices]VoiceState) {
	for i := range s.voices {
		ret[i] = s.voices[i].state
	}
	return
}

// Voice returns the state, owner note and age of voice i.
func (s *Synth) Voice(i int) VoiceInfo {
	if i < 0 || i >= MaxVoices {
		return VoiceInfo{}
	}
	v := &s.voices[i]
	return VoiceInfo{State: v.state, Note: v.note, Age: v.age}
}

// ActiveVoices returns the number of voices that are not free.
func (s *Synth) ActiveVoices() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].state != VoiceFree {
			n++
		}
	}
	return n
}
