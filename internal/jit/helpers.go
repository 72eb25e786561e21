package jit

import (
	"unsafe"

	"github.com/kaidoh/chip8jit/internal/chip8"
)

// Complex opcodes are compiled as calls back into these free functions
// rather than inline host code, reusing the reference interpreter's
// own logic for the hard part (§4.3). They take the guest state
// explicitly as their first argument — the eliminated source pattern
// was a member-function-pointer hack to call back into an object's own
// method from emitted code; free functions need no such layout
// knowledge (§9).

func spriteHelper(s *chip8.State, x, y, n byte) byte {
	if chip8.DrawSprite(s, x, y, n) {
		return 1
	}
	return 0
}

func bcdHelper(s *chip8.State, v byte) { chip8.BCD(s, v) }

func clearHelper(s *chip8.State) {
	s.Display = [chip8.DisplayRows]uint64{}
	s.Draw = true
}

func randHelper(s *chip8.State, kk byte) byte {
	return s.Rand.Byte() & kk
}

func regStoreHelper(s *chip8.State, x byte) { chip8.StoreRegisters(s, x) }

func regLoadHelper(s *chip8.State, x byte) { chip8.LoadRegisters(s, x) }

// tickHelper applies the batched cycle/timer update (§4.3) for a whole
// compiled block in one call, rather than emitting the TimersRate
// comparison and wraparound logic as host code for every block.
func tickHelper(s *chip8.State, n uint32) { chip8.TickCycles(s, n) }

// funcAddr extracts the entry code pointer of a Go function value
// without calling it. A Go func value is itself a pointer to a small
// closure record whose first word is the code address; taking the
// function's address directly (rather than boxing it through
// interface{} first) keeps that record's layout exactly what the
// compiler produces for a bare func value, matching the
// `**(**uintptr)(unsafe.Pointer(&fn))` idiom found in low-level Go
// code that hands raw code pointers to callers outside the normal Go
// call path.
func funcAddr[F any](fn F) uintptr {
	return **(**uintptr)(unsafe.Pointer(&fn))
}
