package vm

import (
	"github.com/chewxy/math32"
	"github.com/kirosynth/kiro"
	"github.com/kirosynth/kiro/dsp"
)

// VoiceState is the lifecycle state of a voice.
type VoiceState uint8

const (
	VoiceFree VoiceState = iota
	VoiceActive
	VoiceReleasing
)

// Semitones of modulation at full scale (amount 1, source 1).
const (
	pitchModRange  = 24
	cutoffModRange = 72
)

// stealFade is the length of the fade out, in samples, before a stolen
// voice starts its new note.
const stealFade = 64

type voice struct {
	state    VoiceState
	note     byte // owner; NoteOffs and per-note parameters match this
	sounding byte // differs from note while fading out a stolen note
	velocity float32
	pressure float32
	bend     float32 // per-note bend, in semitones
	age      int     // samples since the last note on or off

	osc    [2]oscillator
	pitch  [2]dsp.PitchShift[float32]
	inc    [2]float32 // phase increments of the current block
	env    [2]envelope
	lfo    [2]lfo
	filter svf
	src    [kiro.NumModSources]float32 // source values of the latest sample

	fade           int // samples left of the steal fade, 0 if not stealing
	pendingNote     byte
	pendingVel      float32
	pendingBend     float32
	pendingPressure float32
	releasePending  bool
}

// trigger starts a note on a silent voice.
func (v *voice) trigger(note byte, velocity float32, lfos *[2]lfoConfig) {
	v.state = VoiceActive
	v.note = note
	v.sounding = note
	v.velocity = velocity
	v.pressure = 0
	v.bend = 0
	v.age = 0
	v.fade = 0
	v.releasePending = false
	for i := range v.osc {
		v.osc[i].phase = 0
	}
	for i := range v.env {
		v.env[i].trigger()
	}
	for i := range v.lfo {
		if lfos[i].retrigger {
			v.lfo[i].restart()
		}
	}
	v.filter.reset()
	v.src = [kiro.NumModSources]float32{}
}

func (v *voice) release() {
	v.state = VoiceReleasing
	v.age = 0
	if v.fade > 0 {
		// the note being faded in has not started yet
		v.releasePending = true
		return
	}
	for i := range v.env {
		v.env[i].release()
	}
}

// steal starts fading out whatever the voice plays, to be followed by the
// given note.
func (v *voice) steal(note byte, velocity float32) {
	if v.fade == 0 {
		v.fade = stealFade
	}
	v.state = VoiceActive
	v.note = note
	v.pendingNote = note
	v.pendingVel = velocity
	v.pendingBend = 0
	v.pendingPressure = 0
	v.releasePending = false
	v.age = 0
}

func (v *voice) finishSteal(lfos *[2]lfoConfig) {
	for i := range v.env {
		v.env[i].kill()
	}
	release := v.releasePending
	v.trigger(v.pendingNote, v.pendingVel, lfos)
	v.bend = v.pendingBend
	v.pressure = v.pendingPressure
	if release {
		v.release()
	}
}

// gatesIdle reports whether all envelopes in the mask have finished.
func (v *voice) gatesIdle(mask uint8) bool {
	for i := range v.env {
		if mask&(1<<uint(i)) != 0 && v.env[i].stage != EnvIdle {
			return false
		}
	}
	return true
}

// control computes the per-block values of the voice: oscillator phase
// increments and filter coefficients, using the modulation sources at the
// start of the block.
func (s *Synth) control(v *voice) {
	src := &v.src
	for i := range s.lfoCfg {
		if !s.lfoCfg[i].retrigger {
			src[kiro.SrcLFO1+kiro.ModSource(i)] = s.lfoBuf[i][0]
		}
	}
	src[kiro.SrcVelocity] = v.velocity
	src[kiro.SrcModWheel] = s.params[kiro.ModWheel]
	src[kiro.SrcPressure] = v.pressure
	var pitchMod [2]float32
	var cutoffMod float32
	for _, r := range s.patch.Block {
		x := r.Amount * src[r.Source]
		switch r.Target {
		case kiro.DstOsc1Pitch:
			pitchMod[0] += x
		case kiro.DstOsc2Pitch:
			pitchMod[1] += x
		case kiro.DstFilterCutoff:
			cutoffMod += x
		}
	}
	bend := s.params[kiro.PitchBend]*s.params[kiro.MasterBendRange] + v.bend
	freq := s.noteFreq[v.sounding&127]
	for i := range v.pitch {
		_, octaves, semitones, cents, _ := oscParams(&s.params, i)
		p := &v.pitch[i]
		p.SetOctaves(octaves)
		p.SetSemitones(semitones)
		p.SetCents(cents)
		p.SetPitchBend(bend)
		p.SetModulation(pitchMod[i] * pitchModRange)
		v.inc[i] = min(freq*p.Multiplier()/float32(s.sampleRate), maxPhaseInc)
	}
	if kiro.FilterMode(s.params[kiro.FiltMode]) != kiro.FilterOff {
		cutoff := s.params[kiro.FiltCutoff]
		if cutoffMod != 0 {
			cutoff *= math32.Exp2(cutoffMod * cutoffModRange / 12)
		}
		cutoff = min(max(cutoff, minCutoff), s.maxCutoff)
		v.filter.setCoeffs(cutoff, s.params[kiro.FiltQ], s.sampleRate)
	}
}

// renderVoice renders n samples of the voice into s.vl and s.vr.
func (s *Synth) renderVoice(v *voice, n int) {
	s.control(v)
	l, r := s.vl[:n], s.vr[:n]
	shape0, _, _, _, amp0 := oscParams(&s.params, 0)
	shape1, _, _, _, amp1 := oscParams(&s.params, 1)
	mode := kiro.FilterMode(s.params[kiro.FiltMode])
	pan := s.params[kiro.DcaPan]
	pl, pr := s.panL, s.panR
	gain := s.dcaGain * v.velocity
	for j := 0; j < n; j++ {
		src := &v.src
		src[kiro.SrcEG1] = v.env[0].next(&s.env[0])
		src[kiro.SrcEG2] = v.env[1].next(&s.env[1])
		for i := range s.lfoCfg {
			if s.lfoCfg[i].retrigger {
				src[kiro.SrcLFO1+kiro.ModSource(i)] = v.lfo[i].next(&s.lfoCfg[i])
			} else {
				src[kiro.SrcLFO1+kiro.ModSource(i)] = s.lfoBuf[i][j]
			}
		}
		a0, a1 := amp0, amp1
		var dcaMod, panMod float32
		panned := false
		for _, rt := range s.patch.Sample {
			x := rt.Amount * src[rt.Source]
			switch rt.Target {
			case kiro.DstOsc1Amp:
				a0 += amp0 * x
			case kiro.DstOsc2Amp:
				a1 += amp1 * x
			case kiro.DstDCAAmp:
				dcaMod += x
			case kiro.DstDCAPan:
				panMod += x
				panned = true
			}
		}
		g := float32(1)
		for _, rt := range s.patch.Gates {
			g *= 1 - rt.Amount + rt.Amount*src[rt.Source]
		}
		x := v.osc[0].next(kiro.OscShape(shape0), v.inc[0])*max(a0, 0) +
			v.osc[1].next(kiro.OscShape(shape1), v.inc[1])*max(a1, 0)
		if mode != kiro.FilterOff {
			x = v.filter.process(x, mode)
		}
		x *= gain * g * max(1+dcaMod, 0)
		if panned {
			pl, pr = panGains(pan + panMod)
		}
		if v.fade > 0 {
			x *= float32(v.fade) / stealFade
			v.fade--
			if v.fade == 0 {
				l[j], r[j] = x*pl, x*pr
				clear(l[j+1:])
				clear(r[j+1:])
				v.finishSteal(&s.lfoCfg)
				return
			}
		}
		l[j], r[j] = x*pl, x*pr
	}
	v.age += n
	if v.state == VoiceReleasing && v.fade == 0 && v.gatesIdle(s.patch.GateMask) {
		v.state = VoiceFree
	}
}

// panGains returns the constant power gains for pan in [-1, 1].
func panGains(pan float32) (left, right float32) {
	pan = min(max(pan, -1), 1)
	angle := (pan + 1) * math32.Pi / 4
	return math32.Cos(angle), math32.Sin(angle)
}
