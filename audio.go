package kiro

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length,
	// each frame holding the left and right channel.
	AudioBuffer [][2]float32

	// AudioSource is something that fills an AudioBuffer on request, for
	// example the player driving the synthesizer from the audio thread.
	// Process must fill the whole buffer.
	AudioSource interface {
		Process(buffer AudioBuffer)
	}
)

// Fill fills the AudioBuffer using a function.
func (b AudioBuffer) Fill(f func() [2]float32) {
	for i := range b {
		b[i] = f()
	}
}

// Clear zeroes the buffer.
func (b AudioBuffer) Clear() {
	clear(b)
}
