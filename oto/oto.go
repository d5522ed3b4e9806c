// Package oto plays the output of an audio source on the default audio
// device, using the oto library.
package oto

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/kirosynth/kiro"
)

type (
	// Context is an open audio device. There can be only one per process.
	Context struct {
		ctx        *oto.Context
		sampleRate int
	}

	// Output is a source being played on the device.
	Output struct {
		player *oto.Player
		reader *sourceReader
	}

	// sourceReader adapts an AudioSource to the io.Reader pulled by the
	// device. Read is called from the device thread.
	sourceReader struct {
		source kiro.AudioSource
		buffer kiro.AudioBuffer
	}
)

const DefaultBufferSize = 20 * time.Millisecond

// NewContext opens the audio device for stereo float output and waits until
// it is ready. bufferSize is the latency requested from the device; 0 uses
// the default of the platform.
func NewContext(sampleRate int, bufferSize time.Duration) (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx, sampleRate: sampleRate}, nil
}

func (c *Context) SampleRate() int {
	return c.sampleRate
}

// Play starts pulling audio from the source. The source is called from the
// audio thread of the device, so it must not block.
func (c *Context) Play(source kiro.AudioSource) *Output {
	r := &sourceReader{source: source, buffer: make(kiro.AudioBuffer, 4096)}
	player := c.ctx.NewPlayer(r)
	player.Play()
	return &Output{player: player, reader: r}
}

// Err returns the error that stopped the playback, if any.
func (o *Output) Err() error {
	return o.player.Err()
}

// Close stops the playback.
func (o *Output) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

func (r *sourceReader) Read(p []byte) (n int, err error) {
	frames := len(p) / 8
	if len(r.buffer) < frames {
		// the device asks for the same amount every time, so this happens
		// at most once
		r.buffer = make(kiro.AudioBuffer, frames)
	}
	buf := r.buffer[:frames]
	r.source.Process(buf)
	return len(AppendFloat32LE(p[:0], buf)), nil
}

// AppendFloat32LE appends the buffer to dst as interleaved little-endian
// float32 samples and returns the extended slice.
func AppendFloat32LE(dst []byte, src kiro.AudioBuffer) []byte {
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v[0]))
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v[1]))
	}
	return dst
}
