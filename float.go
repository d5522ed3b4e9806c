package kiro

// Float is the scalar sample type the signal building blocks are generic
// over. The synthesizer itself is instantiated with float32.
type Float interface {
	~float32 | ~float64
}
