package host

import (
	"github.com/kirosynth/kiro"
	"github.com/kirosynth/kiro/vm"
	"github.com/viterin/vek/vek32"
)

// Player drives the synth from the audio thread. It is a kiro.AudioSource:
// each call to Process first applies a pending patch and the queued events,
// then renders the buffer and reports the status to the broker. Process does
// not block nor allocate.
type Player struct {
	synth  *vm.Synth
	broker *Broker
	tmp    []float32
}

const meterChunk = 1024

func NewPlayer(broker *Broker, synth *vm.Synth) *Player {
	return &Player{
		synth:  synth,
		broker: broker,
		tmp:    make([]float32, meterChunk),
	}
}

// Synth returns the synth driven by the player. It must only be used from
// the goroutine calling Process.
func (p *Player) Synth() *vm.Synth {
	return p.synth
}

func (p *Player) Process(buffer kiro.AudioBuffer) {
	var msg MsgToHost
	if patch := p.broker.TakePatch(); patch != nil {
		p.synth.Load(patch)
		msg.PatchLoaded = true
	}
	// bounded, so a producer flooding the queue cannot starve the audio
	for range p.broker.Events.Cap() {
		e, ok := p.broker.Events.Pop()
		if !ok {
			break
		}
		p.synth.Handle(e)
	}
	p.synth.Render(buffer)
	msg.Peaks = p.peaks(buffer)
	msg.ActiveVoices = p.synth.ActiveVoices()
	msg.VoiceStates = p.synth.VoiceStates()
	msg.Dropped = p.broker.Dropped()
	TrySend(p.broker.ToHost, msg)
}

func (p *Player) peaks(buffer kiro.AudioBuffer) (ret [2]float32) {
	for len(buffer) > 0 {
		chunk := buffer[:min(len(buffer), len(p.tmp))]
		buffer = buffer[len(chunk):]
		for chn := range 2 {
			// deinterleave the channel
			for i := range chunk {
				p.tmp[i] = chunk[i][chn]
			}
			o := p.tmp[:len(chunk)]
			vek32.Abs_Inplace(o)
			ret[chn] = max(ret[chn], vek32.Max(o))
		}
	}
	return
}
