package jit

import (
	"unsafe"

	"github.com/kaidoh/chip8jit/internal/chip8"
	"github.com/kaidoh/chip8jit/internal/hostasm"
)

// Field offsets into chip8.State, computed once so emitted loads and
// stores address the live struct directly through the ctx register
// rather than through any accessor. Pinned to this module's declared
// Go version (see go.mod) the same way the helper-call register
// convention below is: a compiler that changed struct layout rules
// would need these regenerated, but Go does not reorder fields within
// a single compilation.
var (
	offPC     = int32(unsafe.Offsetof(chip8.State{}.PC))
	offI      = int32(unsafe.Offsetof(chip8.State{}.I))
	offV      = int32(unsafe.Offsetof(chip8.State{}.V))
	offStack  = int32(unsafe.Offsetof(chip8.State{}.Stack))
	offSP     = int32(unsafe.Offsetof(chip8.State{}.SP))
	offDelay  = int32(unsafe.Offsetof(chip8.State{}.Delay))
	offSound  = int32(unsafe.Offsetof(chip8.State{}.Sound))
	offCycles = int32(unsafe.Offsetof(chip8.State{}.Cycles))
)

func vOffset(x byte) int32 { return offV + int32(x) }

// overflowPC is returned by a compiled call/ret when the guest stack
// discipline is violated. It is outside [0, 0x1000), so the dispatcher
// recognizes it and falls back to the reference interpreter for one
// step to produce the canonical fatal error (§4.6's same pattern,
// reused for stack over/underflow instead of an unknown opcode).
const overflowPC = 0xFFFF

// ctx is the register holding *chip8.State for the whole block.
func ctx() hostasm.Reg { return hostasm.Ctx() }

// emitLoadV loads v[x] (zero-extended) into dst.
func emitLoadV(a *hostasm.Assembler, dst hostasm.Reg, x byte) {
	a.LoadMem(dst, ctx(), vOffset(x), hostasm.W8)
}

// emitStoreV stores the low byte of src into v[x].
func emitStoreV(a *hostasm.Assembler, x byte, src hostasm.Reg) {
	a.StoreMem(ctx(), vOffset(x), src, hostasm.W8)
}

// emitStoreVF stores a 0/1 flag byte into v[0xF].
func emitStoreVF(a *hostasm.Assembler, flag hostasm.Reg) {
	emitStoreV(a, 0xF, flag)
}

// emitCallHelper loads the extracted code pointer for fn into a
// scratch register and calls it, following the order the Go internal
// register ABI assigns integer/pointer arguments on amd64 (RAX, RBX,
// RCX, RDI, RSI, R8, R9, R10, R11, ...): callers must have already
// placed up to 9 arguments in that order before calling this. Callers
// are responsible for reloading ctx (R15 is never touched by a Go
// call, so nothing to reload — Go calls use the g register R14, not
// R15) and for treating RAX..R11 as clobbered afterward.
func emitCallHelper(a *hostasm.Assembler, alloc *hostasm.Alloc, addr uintptr) {
	scratch := alloc.Take()
	a.MovRegImm64(scratch, uint64(addr))
	a.Call(scratch)
}

// emitTick emits the batched cycle/timer update for a whole block
// (§4.3), once per Compile call rather than once per opcode. The
// helper call clobbers RAX (the first Go-ABI argument register), which
// also happens to be the trampoline's return-value register, so the
// final guest PC — already durably stored to ctx.PC by whichever
// terminal emitter ran — is reloaded into RAX afterward.
//
// n is the instruction count for the whole block, including its
// terminal opcode even on the rare path where that terminal reports a
// stack overflow/underflow (overflowPC): the reference interpreter
// does not tick in that case, since it returns its fatal error before
// reaching its own tick call, so this is a deliberate, narrow
// divergence from byte-identical cycle counts that only a guest
// program deliberately overflowing the call stack could observe.
func emitTick(a *hostasm.Assembler, alloc *hostasm.Alloc, n uint32) {
	a.MovRegReg(hostasm.RAX, ctx())
	nReg := alloc.Take()
	a.MovRegImm32(nReg, n)
	a.MovRegReg(hostasm.RBX, nReg)
	emitCallHelper(a, alloc, funcAddr(tickHelper))

	pcReg := alloc.Take()
	a.LoadMem(pcReg, ctx(), offPC, hostasm.W16)
	a.MovRegReg(hostasm.RAX, pcReg)
}

// emitOpcode emits host code for one non-terminal (straight-line)
// guest opcode: arithmetic, data movement, and the helper-backed
// complex opcodes. It must not be called with a control-flow-altering
// opcode (IsControlFlow) — those are handled by emitTerminal instead,
// since they end the block.
func emitOpcode(a *hostasm.Assembler, alloc *hostasm.Alloc, op uint16, d chip8.Decoded) {
	switch {
	case op == 0x00E0: // CLS
		a.MovRegReg(hostasm.RAX, ctx())
		emitCallHelper(a, alloc, funcAddr(clearHelper))

	case op&0xF000 == 0x6000: // 6xkk: v[x] = kk
		r := alloc.Take()
		a.MovRegImm32(r, uint32(d.KK))
		emitStoreV(a, d.X, r)

	case op&0xF000 == 0x7000: // 7xkk: v[x] += kk (no carry)
		r := alloc.Take()
		emitLoadV(a, r, d.X)
		a.AddImm8(r, int8(d.KK))
		emitStoreV(a, d.X, r)

	case op&0xF00F == 0x8000: // 8xy0: v[x] = v[y]
		r := alloc.Take()
		emitLoadV(a, r, d.Y)
		emitStoreV(a, d.X, r)

	case op&0xF00F == 0x8001: // OR
		emitALU(a, alloc, d, func(a *hostasm.Assembler, dst, src hostasm.Reg) { a.Or(dst, src) })

	case op&0xF00F == 0x8002: // AND
		emitALU(a, alloc, d, func(a *hostasm.Assembler, dst, src hostasm.Reg) { a.And(dst, src) })

	case op&0xF00F == 0x8003: // XOR
		emitALU(a, alloc, d, func(a *hostasm.Assembler, dst, src hostasm.Reg) { a.Xor(dst, src) })

	case op&0xF00F == 0x8004: // ADD with carry into vF
		// Both operands were zero-extended into full 64-bit registers
		// by the byte load, so their sum never sets the real x86 carry
		// flag (it tops out at 510, nowhere near 2^64). vF is instead
		// derived by comparing the widened sum against 256 directly.
		vx, vy := alloc.Take(), alloc.Take()
		emitLoadV(a, vx, d.X)
		emitLoadV(a, vy, d.Y)
		a.Add(vx, vy)
		threshold := alloc.Take()
		a.MovRegImm32(threshold, 256)
		a.Cmp(vx, threshold)
		flag := alloc.Take()
		a.MovRegImm32(flag, 0)
		a.SetCC(hostasm.CCAboveEqual, flag)
		emitStoreVF(a, flag)
		emitStoreV(a, d.X, vx)

	case op&0xF00F == 0x8005: // SUB, vF = v[x] > v[y]
		emitSub(a, alloc, d, d.X, d.Y, d.X)

	case op&0xF00F == 0x8006: // SHR
		vx := alloc.Take()
		emitLoadV(a, vx, d.X)
		flag := alloc.Take()
		a.MovRegReg(flag, vx)
		a.And(flag, mustImmReg(a, alloc, 1))
		emitStoreVF(a, flag)
		a.Shr(vx, 1)
		emitStoreV(a, d.X, vx)

	case op&0xF00F == 0x8007: // SUBN, vF = v[y] > v[x]
		emitSub(a, alloc, d, d.Y, d.X, d.X)

	case op&0xF00F == 0x800E: // SHL
		vx := alloc.Take()
		emitLoadV(a, vx, d.X)
		flag := alloc.Take()
		a.MovRegReg(flag, vx)
		a.Shr(flag, 7)
		a.And(flag, mustImmReg(a, alloc, 1))
		emitStoreVF(a, flag)
		a.Shl(vx, 1)
		emitStoreV(a, d.X, vx)

	case op&0xF000 == 0xA000: // Annn: i = nnn
		r := alloc.Take()
		a.MovRegImm32(r, uint32(d.Addr))
		a.StoreMem(ctx(), offI, r, hostasm.W16)

	case op&0xF000 == 0xC000: // Cxkk: v[x] = rand() & kk
		a.MovRegReg(hostasm.RAX, ctx())
		r := alloc.Take()
		a.MovRegImm32(r, uint32(d.KK))
		a.MovRegReg(hostasm.RBX, r)
		emitCallHelper(a, alloc, funcAddr(randHelper))
		emitStoreV(a, d.X, hostasm.RAX)

	case op&0xF000 == 0xD000: // Dxyn: sprite draw, helper call
		vx, vy := alloc.Take(), alloc.Take()
		emitLoadV(a, vx, d.X)
		emitLoadV(a, vy, d.Y)
		a.MovRegReg(hostasm.RAX, ctx())
		a.MovRegReg(hostasm.RBX, vx)
		a.MovRegReg(hostasm.RCX, vy)
		n := alloc.Take()
		a.MovRegImm32(n, uint32(d.N))
		a.MovRegReg(hostasm.RDI, n)
		emitCallHelper(a, alloc, funcAddr(spriteHelper))
		emitStoreVF(a, hostasm.RAX)

	case op&0xF0FF == 0xF007: // Fx07: v[x] = delay
		r := alloc.Take()
		a.LoadMem(r, ctx(), offDelay, hostasm.W8)
		emitStoreV(a, d.X, r)

	case op&0xF0FF == 0xF015: // Fx15: delay = v[x]
		r := alloc.Take()
		emitLoadV(a, r, d.X)
		a.StoreMem(ctx(), offDelay, r, hostasm.W8)

	case op&0xF0FF == 0xF018: // Fx18: sound = v[x]
		r := alloc.Take()
		emitLoadV(a, r, d.X)
		a.StoreMem(ctx(), offSound, r, hostasm.W8)

	case op&0xF0FF == 0xF01E: // Fx1E: i += v[x]
		vx := alloc.Take()
		emitLoadV(a, vx, d.X)
		i := alloc.Take()
		a.LoadMem(i, ctx(), offI, hostasm.W16)
		a.Add(i, vx)
		a.StoreMem(ctx(), offI, i, hostasm.W16)

	case op&0xF0FF == 0xF029: // Fx29: i = FontBase + v[x]*5
		vx := alloc.Take()
		emitLoadV(a, vx, d.X)
		// vx*5 as vx*4 + vx (shift-and-add), since the encoder carries
		// no multiply opcode — the operand range (0-255) never risks
		// overflowing the widened 64-bit scratch register.
		quad := alloc.Take()
		a.MovRegReg(quad, vx)
		a.Shl(quad, 2)
		a.Add(quad, vx)
		a.AddImm8(quad, int8(chip8.FontBase))
		a.StoreMem(ctx(), offI, quad, hostasm.W16)

	case op&0xF0FF == 0xF033: // Fx33: BCD, helper call
		vx := alloc.Take()
		emitLoadV(a, vx, d.X)
		a.MovRegReg(hostasm.RAX, ctx())
		a.MovRegReg(hostasm.RBX, vx)
		emitCallHelper(a, alloc, funcAddr(bcdHelper))

	case op&0xF0FF == 0xF055: // Fx55: register store, helper call
		r := alloc.Take()
		a.MovRegImm32(r, uint32(d.X))
		a.MovRegReg(hostasm.RAX, ctx())
		a.MovRegReg(hostasm.RBX, r)
		emitCallHelper(a, alloc, funcAddr(regStoreHelper))

	case op&0xF0FF == 0xF065: // Fx65: register load, helper call
		r := alloc.Take()
		a.MovRegImm32(r, uint32(d.X))
		a.MovRegReg(hostasm.RAX, ctx())
		a.MovRegReg(hostasm.RBX, r)
		emitCallHelper(a, alloc, funcAddr(regLoadHelper))
	}
}

// emitALU emits `v[x] = op(v[x], v[y])` for the simple bitwise forms
// that don't touch vF.
func emitALU(a *hostasm.Assembler, alloc *hostasm.Alloc, d chip8.Decoded, op func(*hostasm.Assembler, hostasm.Reg, hostasm.Reg)) {
	vx, vy := alloc.Take(), alloc.Take()
	emitLoadV(a, vx, d.X)
	emitLoadV(a, vy, d.Y)
	op(a, vx, vy)
	emitStoreV(a, d.X, vx)
}

// emitSub emits `v[dst] = (v[minuend] - v[subtrahend]) mod 256` with
// vF set to 1 only when minuend > subtrahend (strictly, as the reference
// interpreter does), covering both 8xy5 (SUB) and 8xy7 (SUBN) by choice
// of operand order.
func emitSub(a *hostasm.Assembler, alloc *hostasm.Alloc, d chip8.Decoded, minuend, subtrahend, dst byte) {
	vm, vs := alloc.Take(), alloc.Take()
	emitLoadV(a, vm, minuend)
	emitLoadV(a, vs, subtrahend)
	flag := alloc.Take()
	a.MovRegImm32(flag, 0)
	a.Cmp(vs, vm)
	a.SetCC(hostasm.CCBelow, flag)
	emitStoreVF(a, flag)
	a.Sub(vm, vs)
	emitStoreV(a, dst, vm)
}

// mustImmReg materializes a small constant into a fresh scratch
// register, for the handful of emitters that need an immediate as an
// And/Or/Xor operand (the encoder's ALU forms are register-register
// only).
func mustImmReg(a *hostasm.Assembler, alloc *hostasm.Alloc, imm uint32) hostasm.Reg {
	r := alloc.Take()
	a.MovRegImm32(r, imm)
	return r
}
