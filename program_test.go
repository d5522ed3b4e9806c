package kiro_test

import (
	"math"
	"testing"

	"github.com/kirosynth/kiro"
	"gopkg.in/yaml.v3"
)

const programYaml = `
name: pad
numvoices: 4
params: {osc1.shape: 1, filter.cutoff: 1200, eg1.attack: 0.5}
modulations:
  - {source: eg1, target: dca.amp, amount: 1}
  - {source: lfo1, target: filter.cutoff, amount: -0.25}
`

func TestProgramYaml(t *testing.T) {
	var p kiro.Program
	if err := yaml.Unmarshal([]byte(programYaml), &p); err != nil {
		t.Fatalf("could not unmarshal program: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("program should be valid: %v", err)
	}
	if p.NumVoices != 4 || len(p.Modulations) != 2 {
		t.Fatalf("unexpected program %+v", p)
	}
	if m := p.Modulations[1]; m.Source != kiro.SrcLFO1 || m.Target != kiro.DstFilterCutoff || m.Amount != -0.25 {
		t.Fatalf("unexpected modulation %+v", m)
	}
	if v := p.Value(kiro.FiltCutoff); v != 1200 {
		t.Fatalf("cutoff should be 1200, was %v", v)
	}
	if v := p.Value(kiro.FiltQ); v != kiro.FiltQ.Descriptor().Default {
		t.Fatalf("missing q should be the default, was %v", v)
	}
	out, err := yaml.Marshal(p)
	if err != nil {
		t.Fatalf("could not marshal program: %v", err)
	}
	var p2 kiro.Program
	if err := yaml.Unmarshal(out, &p2); err != nil {
		t.Fatalf("could not unmarshal marshaled program: %v\n%s", err, out)
	}
	if p2.Modulations[0].Target != kiro.DstDCAAmp {
		t.Fatalf("modulation target was lost in marshaling:\n%s", out)
	}
}

func TestProgramValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *kiro.Program)
	}{
		{"zero voices", func(p *kiro.Program) { p.NumVoices = 0 }},
		{"too many voices", func(p *kiro.Program) { p.NumVoices = 33 }},
		{"unknown param", func(p *kiro.Program) { p.Params["osc3.shape"] = 1 }},
		{"voice scope param", func(p *kiro.Program) { p.Params["note.pressure"] = 1 }},
		{"nan param", func(p *kiro.Program) { p.Params["filter.q"] = float32(math.NaN()) }},
		{"bad amount", func(p *kiro.Program) { p.Modulations[0].Amount = 2 }},
		{"bad source", func(p *kiro.Program) { p.Modulations[0].Source = kiro.NumModSources }},
		{"bad target", func(p *kiro.Program) { p.Modulations[0].Target = -1 }},
	}
	if err := kiro.DefaultProgram().Validate(); err != nil {
		t.Fatalf("default program should be valid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := kiro.DefaultProgram()
			tt.modify(&p)
			if err := p.Validate(); err == nil {
				t.Fatalf("program should not validate")
			}
		})
	}
}

func TestProgramCopyIsDeep(t *testing.T) {
	p := kiro.DefaultProgram()
	c := p.Copy()
	c.Set(kiro.FiltCutoff, 1e6)
	c.Modulations[0].Amount = 0.5
	if p.Value(kiro.FiltCutoff) != 8000 {
		t.Fatalf("modifying the copy changed the original params")
	}
	if p.Modulations[0].Amount != 1 {
		t.Fatalf("modifying the copy changed the original modulations")
	}
	if c.Params["filter.cutoff"] != 20000 {
		t.Fatalf("Set should clamp, got %v", c.Params["filter.cutoff"])
	}
}
