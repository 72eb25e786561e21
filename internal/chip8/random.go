package chip8

import "math/rand"

// RandomSource supplies the byte Cxkk masks against. Injected rather
// than called as a package-level math/rand global (Design Notes §9:
// "Globals for randomness. Inject a RandomSource capability into the
// Guest State so Cxkk is deterministic under test.").
type RandomSource interface {
	Byte() byte
}

// MathRandSource is the default RandomSource, backed by math/rand.
type MathRandSource struct{}

// Byte returns a pseudo-random byte in [0, 256).
func (MathRandSource) Byte() byte {
	return byte(rand.Intn(256))
}

// FixedSource is a deterministic RandomSource for tests: it always
// returns the same byte.
type FixedSource byte

// Byte implements RandomSource.
func (f FixedSource) Byte() byte {
	return byte(f)
}

// SequenceSource cycles through a fixed sequence of bytes, wrapping
// around. Useful for tests that need more than one deterministic
// value out of Cxkk across multiple calls.
type SequenceSource struct {
	Seq []byte
	pos int
}

// Byte returns the next byte in the sequence, wrapping at the end.
func (s *SequenceSource) Byte() byte {
	if len(s.Seq) == 0 {
		return 0
	}
	b := s.Seq[s.pos%len(s.Seq)]
	s.pos++
	return b
}
