// Package chip8 implements the CHIP-8 guest architecture: its memory
// layout, registers, and the reference interpreter that defines
// canonical opcode semantics for the JIT in internal/jit to match.
package chip8

import (
	"fmt"
	"os"
)

const (
	// MemSize is the size of CHIP-8 addressable RAM.
	MemSize = 0x1000

	// ProgramBase is where loaded ROMs and program execution begin.
	ProgramBase = 0x200

	// FontBase is where the built-in glyph sprites are resident.
	FontBase = 0x050

	// MaxROMSize is the largest ROM that fits between ProgramBase and
	// the end of addressable memory.
	MaxROMSize = MemSize - ProgramBase

	// DisplayRows/DisplayCols describe the monochrome bitplane.
	DisplayRows = 32
	DisplayCols = 64

	// CPUFreq is the virtual CPU frequency used to derive the 60Hz
	// timer cadence (TimersRate below), taken from the reference
	// implementation this spec was distilled from.
	CPUFreq = 3355443

	// TimersRate is how many guest instructions elapse between timer
	// ticks: floor(CPUFreq / 60).
	TimersRate = CPUFreq / 60
)

// State is the complete architectural state of one CHIP-8 CPU: the
// registers and memory the reference interpreter and the JIT both
// read and mutate. Both engines must leave State byte-identical after
// executing the same instruction stream (spec invariant 1).
type State struct {
	PC uint16
	I  uint16
	V  [16]byte

	Stack [16]uint16
	SP    uint8

	RAM [MemSize]byte

	// Display is the 64x32 monochrome bitplane, one bit per pixel,
	// packed 64 bits (one full row) per uint64. Bit x of row y is
	// pixel (x, y).
	Display [DisplayRows]uint64
	Draw    bool

	Delay uint8
	Sound uint8

	Cycles uint32

	Rand RandomSource

	// OnWrite, if set, is called after any opcode writes n bytes of
	// RAM starting at addr. The JIT's self-modification monitor uses
	// this to invalidate cached blocks whose translated range the
	// write falls inside (§4.5); the reference interpreter alone never
	// sets it. Reset does not touch it — it is the owner's wiring, not
	// architectural state.
	OnWrite func(addr uint16, n int)
}

func (s *State) notifyWrite(addr uint16, n int) {
	if s.OnWrite != nil {
		s.OnWrite(addr, n)
	}
}

// New returns a freshly reset State with the font table resident and
// the given random source wired in for Cxkk. A nil source defaults to
// MathRandSource.
func New(rnd RandomSource) *State {
	s := &State{}
	if rnd == nil {
		rnd = MathRandSource{}
	}
	s.Rand = rnd
	s.Reset()
	return s
}

// Reset clears all architectural state back to power-on values, zeroes
// all of RAM, and reinstalls the font table. A loaded ROM does not
// survive it; LoadROM must be called again afterward.
func (s *State) Reset() {
	s.PC = ProgramBase
	s.I = 0
	s.V = [16]byte{}
	s.Stack = [16]uint16{}
	s.SP = 0
	s.Display = [DisplayRows]uint64{}
	s.Draw = false
	s.Delay = 0
	s.Sound = 0
	s.Cycles = 0

	for i := range s.RAM {
		s.RAM[i] = 0
	}
	copy(s.RAM[FontBase:], font[:])
}

// LoadROM copies program bytes into RAM starting at ProgramBase. It
// rejects ROMs larger than MaxROMSize before touching memory, per §6.
func (s *State) LoadROM(program []byte) error {
	if len(program) > MaxROMSize {
		return fmt.Errorf("chip8: ROM too large: %d bytes (max %d)", len(program), MaxROMSize)
	}
	copy(s.RAM[ProgramBase:], program)
	return nil
}

// LoadROMFile reads a ROM from disk and loads it with LoadROM.
func LoadROMFile(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chip8: reading ROM: %w", err)
	}
	s := New(nil)
	if err := s.LoadROM(data); err != nil {
		return nil, err
	}
	return s, nil
}

// PixelAt reports whether pixel (x, y) is on.
func (s *State) PixelAt(x, y int) bool {
	if y < 0 || y >= DisplayRows || x < 0 || x >= DisplayCols {
		return false
	}
	return s.Display[y]&(uint64(1)<<uint(x)) != 0
}
