package vm

import (
	"github.com/chewxy/math32"
	"github.com/kirosynth/kiro"
)

// EnvStage is the stage of an envelope generator.
type EnvStage uint8

const (
	EnvIdle EnvStage = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

const minStageTime = 0.001 // seconds

// Target overshoots of the exponential curves: the attack aims above 1 and
// the decay/release below their targets, so that each stage ends in finite
// time.
var (
	attackTCO = math32.Exp(-1.5)
	decayTCO  = math32.Exp(-4.95)
)

type (
	// envelope is the per-voice state of one envelope generator.
	envelope struct {
		stage EnvStage
		level float32
	}

	// envCoeffs are the per-sample step parameters of one envelope slot,
	// derived from the program parameters and shared by all voices.
	envCoeffs struct {
		exponential bool
		sustain     float32
		// linear mode: per-sample increments
		attackInc, decayDec, releaseDec float32
		// exponential mode: one-pole coefficients and bases
		attackCoef, attackBase   float32
		decayCoef, decayBase     float32
		releaseCoef, releaseBase float32
	}
)

// update derives the coefficients of envelope slot i from the parameters.
func (c *envCoeffs) update(p *[kiro.NumParams]float32, i int, sampleRate int) {
	b := kiro.Eg1Attack + kiro.ParamRef(i)*(kiro.Eg2Attack-kiro.Eg1Attack)
	attack, decay, sustain, release, mode := p[b], p[b+1], p[b+2], p[b+3], p[b+4]
	sr := float32(sampleRate)
	attack = max(attack, minStageTime) * sr
	decay = max(decay, minStageTime) * sr
	release = max(release, minStageTime) * sr
	c.exponential = mode >= 0.5
	c.sustain = sustain
	c.attackInc = 1 / attack
	c.decayDec = 1 / decay
	c.releaseDec = 1 / release
	c.attackCoef = math32.Exp(-math32.Log((1+attackTCO)/attackTCO) / attack)
	c.attackBase = (1 + attackTCO) * (1 - c.attackCoef)
	c.decayCoef = math32.Exp(-math32.Log((1+decayTCO)/decayTCO) / decay)
	c.decayBase = (sustain - decayTCO) * (1 - c.decayCoef)
	c.releaseCoef = math32.Exp(-math32.Log((1+decayTCO)/decayTCO) / release)
	c.releaseBase = -decayTCO * (1 - c.releaseCoef)
}

// trigger restarts the attack from the current level, so retriggering a
// sounding voice does not click.
func (e *envelope) trigger() {
	e.stage = EnvAttack
}

func (e *envelope) release() {
	if e.stage != EnvIdle {
		e.stage = EnvRelease
	}
}

// kill snaps the envelope to silence.
func (e *envelope) kill() {
	e.stage = EnvIdle
	e.level = 0
}

func (e *envelope) next(c *envCoeffs) float32 {
	switch e.stage {
	case EnvAttack:
		if c.exponential {
			e.level = c.attackBase + e.level*c.attackCoef
		} else {
			e.level += c.attackInc
		}
		if e.level >= 1 {
			e.level = 1
			e.stage = EnvDecay
		}
	case EnvDecay:
		if c.exponential {
			e.level = c.decayBase + e.level*c.decayCoef
		} else {
			e.level -= c.decayDec
		}
		if e.level <= c.sustain {
			e.level = c.sustain
			e.stage = EnvSustain
		}
	case EnvSustain:
		// follow sustain changes made while the note is held
		e.level = c.sustain
	case EnvRelease:
		if c.exponential {
			e.level = c.releaseBase + e.level*c.releaseCoef
		} else {
			e.level -= c.releaseDec
		}
		if e.level <= 0 {
			e.kill()
		}
	}
	return e.level
}
