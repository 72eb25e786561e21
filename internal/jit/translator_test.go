package jit

import (
	"testing"

	"github.com/kaidoh/chip8jit/internal/chip8"
	"github.com/kaidoh/chip8jit/internal/hostexec"
)

func newTranslator(t *testing.T) (*Translator, func()) {
	t.Helper()
	buf, err := hostexec.New(1 << 16)
	if err != nil {
		t.Fatalf("hostexec.New: %v", err)
	}
	return NewTranslator(buf), func() { buf.Close() }
}

// Scenario 1's program (spec §8): an add sequence ending in an
// unconditional jump, which is the block's terminal opcode.
func TestCompileStopsAtFirstControlFlowOpcode(t *testing.T) {
	tr, done := newTranslator(t)
	defer done()

	var ram [chip8.MemSize]byte
	copy(ram[0x200:], []byte{0x62, 0x05, 0x63, 0x07, 0x82, 0x34, 0x12, 0x00})

	blk, err := tr.Compile(&ram, 0x200)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if blk.StartPC != 0x200 {
		t.Fatalf("StartPC = %#x, want 0x200", blk.StartPC)
	}
	if blk.EndPC != 0x206 {
		t.Fatalf("EndPC = %#x, want 0x206 (the 1200 jump)", blk.EndPC)
	}
	if blk.Entry == 0 || !blk.Valid {
		t.Fatalf("expected a valid non-zero entry, got %+v", blk)
	}
}

// A conditional skip also ends a block, even though it sometimes falls
// through (§4.3's note on why: "ending the block there keeps the
// translation simple and is safe").
func TestCompileEndsBlockOnConditionalSkip(t *testing.T) {
	tr, done := newTranslator(t)
	defer done()

	var ram [chip8.MemSize]byte
	copy(ram[0x200:], []byte{0x60, 0x02, 0x30, 0x02, 0x12, 0x08})

	blk, err := tr.Compile(&ram, 0x200)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if blk.EndPC != 0x202 {
		t.Fatalf("EndPC = %#x, want 0x202 (the 3002 skip)", blk.EndPC)
	}
}

func TestCompileFailsOnUnknownLeadingOpcode(t *testing.T) {
	tr, done := newTranslator(t)
	defer done()

	var ram [chip8.MemSize]byte
	copy(ram[0x200:], []byte{0xE0, 0x9E}) // key-press skip: out of scope, §1

	if _, err := tr.Compile(&ram, 0x200); err == nil {
		t.Fatal("expected an error translating an unrecognized leading opcode")
	}
}

func TestCompileStopsBeforeUnknownTrailingOpcode(t *testing.T) {
	tr, done := newTranslator(t)
	defer done()

	var ram [chip8.MemSize]byte
	copy(ram[0x200:], []byte{0x60, 0x05, 0xE0, 0x9E}) // v0=5, then an unknown op

	blk, err := tr.Compile(&ram, 0x200)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if blk.EndPC != 0x200 {
		t.Fatalf("EndPC = %#x, want 0x200 (block must stop before the unknown opcode)", blk.EndPC)
	}
}
