package jit

import (
	"github.com/kaidoh/chip8jit/internal/chip8"
	"github.com/kaidoh/chip8jit/internal/hostexec"
	"github.com/kaidoh/chip8jit/internal/hostasm"
)

// calleeSaved are the registers a block's prologue spills and its
// epilogue restores, matching the original reference JIT's prologue
// shape (rbx, rbp, r12-r14) minus r15, which is never pushed because
// it arrives already holding ctx and nothing in the block body ever
// repurposes it.
var calleeSaved = []hostasm.Reg{hostasm.RBX, hostasm.RBP, hostasm.R12, hostasm.R13, hostasm.R14}

// Translator compiles guest instruction streams into host code,
// writing into a shared executable buffer (§4.3 Block Translator).
type Translator struct {
	exec *hostexec.Buffer
}

// NewTranslator returns a Translator that writes compiled blocks into
// exec.
func NewTranslator(exec *hostexec.Buffer) *Translator {
	return &Translator{exec: exec}
}

// Compile translates guest instructions starting at startPC until the
// first control-flow-altering opcode (inclusive), then emits a return.
// It returns the resulting Block, or an error if the buffer is full or
// the opcode at startPC itself is unknown (§4.6: the dispatcher falls
// back to the interpreter for one step in that case instead of caching
// a half-built block). An unknown opcode later in the run ends the
// block just before it, with no error.
func (t *Translator) Compile(ram *[chip8.MemSize]byte, startPC uint16) (Block, error) {
	a := hostasm.New()
	alloc := hostasm.NewAlloc()

	emitPrologue(a)

	pc := startPC
	var nInstrs uint32
	for {
		op := chip8.FetchOp(ram[:], pc)
		d := chip8.Decode(op)

		if chip8.IsControlFlow(d2(op)) {
			if err := emitTerminal(a, alloc, op, d, pc); err != nil {
				return Block{}, err
			}
			nInstrs++
			pc += 2
			break
		}

		if !knownOpcode(op) {
			// Abort before emitting anything for this opcode; the
			// caller must not cache a block that never covered it. If
			// earlier opcodes in this block were already emitted, the
			// block still needs to hand control back at exactly this
			// PC instead of falling through to a stale value, so the
			// dispatcher's next lookup (and, once it re-decodes the
			// same unknown opcode, the interpreter fallback) resumes
			// in the right place.
			if pc == startPC {
				return Block{}, &chip8.UnknownOpcodeError{Op: op, PC: pc}
			}
			emitSetPC(a, alloc, uint32(pc))
			break
		}

		emitOpcode(a, alloc, op, d)
		nInstrs++
		pc += 2
	}

	emitTick(a, alloc, nInstrs)
	emitEpilogue(a)

	entry, err := t.exec.Write(a.Bytes())
	if err != nil {
		return Block{}, err
	}
	if err := t.exec.Seal(); err != nil {
		return Block{}, err
	}

	return Block{StartPC: startPC, EndPC: pc - 2, Entry: entry, Valid: true}, nil
}

// d2 exists only because chip8.IsControlFlow takes a Decoded value;
// Decode is cheap enough to call twice rather than thread an extra
// parameter through every call site in this file.
func d2(op uint16) chip8.Decoded { return chip8.Decode(op) }

// knownOpcode reports whether emitOpcode (the non-terminal emitter)
// has a case for op. The conditions mirror emitOpcode's switch exactly
// — kept as a separate boolean function rather than inferred from it
// so Compile can decide to abort *before* emitting anything for an
// opcode it cannot translate (§4.6).
func knownOpcode(op uint16) bool {
	switch {
	case op == 0x00E0,
		op&0xF000 == 0x6000,
		op&0xF000 == 0x7000,
		op&0xF00F == 0x8000,
		op&0xF00F == 0x8001,
		op&0xF00F == 0x8002,
		op&0xF00F == 0x8003,
		op&0xF00F == 0x8004,
		op&0xF00F == 0x8005,
		op&0xF00F == 0x8006,
		op&0xF00F == 0x8007,
		op&0xF00F == 0x800E,
		op&0xF000 == 0xA000,
		op&0xF000 == 0xC000,
		op&0xF000 == 0xD000,
		op&0xF0FF == 0xF007,
		op&0xF0FF == 0xF015,
		op&0xF0FF == 0xF018,
		op&0xF0FF == 0xF01E,
		op&0xF0FF == 0xF029,
		op&0xF0FF == 0xF033,
		op&0xF0FF == 0xF055,
		op&0xF0FF == 0xF065:
		return true
	default:
		return false
	}
}

// emitPrologue spills the callee-saved registers the block body may
// clobber. ctx (R15) arrives already set by the caller and is left
// untouched.
func emitPrologue(a *hostasm.Assembler) {
	for _, r := range calleeSaved {
		a.Push(r)
	}
}

// emitEpilogue restores callee-saved registers and returns to the
// dispatcher with the new guest PC in RAX, per the trampoline contract
// in internal/hostexec.
func emitEpilogue(a *hostasm.Assembler) {
	for i := len(calleeSaved) - 1; i >= 0; i-- {
		a.Pop(calleeSaved[i])
	}
	a.Ret()
}
