package oto

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/kirosynth/kiro"
)

type rampSource struct {
	next float32
	calls int
}

func (r *rampSource) Process(buf kiro.AudioBuffer) {
	r.calls++
	for i := range buf {
		buf[i] = [2]float32{r.next, -r.next}
		r.next++
	}
}

func TestAppendFloat32LE(t *testing.T) {
	b := AppendFloat32LE([]byte{42}, kiro.AudioBuffer{{1, -0.5}})
	if len(b) != 9 || b[0] != 42 {
		t.Fatalf("should append 8 bytes after the existing ones, got %v", b)
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(b[5:])); v != -0.5 {
		t.Fatalf("right channel should be -0.5, got %v", v)
	}
}

func TestSourceReader(t *testing.T) {
	src := &rampSource{}
	r := &sourceReader{source: src, buffer: make(kiro.AudioBuffer, 2)}
	p := make([]byte, 8*3+5)
	n, err := r.Read(p)
	if err != nil || n != 24 {
		t.Fatalf("expected 24 bytes read, got %v, %v", n, err)
	}
	for i := 0; i < 3; i++ {
		l := math.Float32frombits(binary.LittleEndian.Uint32(p[8*i:]))
		r := math.Float32frombits(binary.LittleEndian.Uint32(p[8*i+4:]))
		if l != float32(i) || r != -float32(i) {
			t.Fatalf("frame %v: got %v %v", i, l, r)
		}
	}
	allocs := testing.AllocsPerRun(10, func() {
		r.Read(p)
	})
	if allocs != 0 {
		t.Fatalf("Read should not allocate once the buffer has grown, got %v", allocs)
	}
}
