package jit

import (
	"github.com/kaidoh/chip8jit/internal/chip8"
	"github.com/kaidoh/chip8jit/internal/hostasm"
)

// emitTerminal emits the single control-flow-altering opcode that ends
// a block (§4.3). It always finishes by storing the resulting guest PC
// to ctx.PC and leaving a copy in RAX, the trampoline's return-value
// register, so the dispatcher can re-look-up without a second memory
// read. pc is the terminal opcode's own address, not yet advanced.
func emitTerminal(a *hostasm.Assembler, alloc *hostasm.Alloc, op uint16, d chip8.Decoded, pc uint16) error {
	switch {
	case op == 0x00EE:
		emitReturn(a, alloc)

	case op&0xF000 == 0x1000:
		emitSetPC(a, alloc, uint32(d.Addr))

	case op&0xF000 == 0x2000:
		emitCall(a, alloc, pc, d.Addr)

	case op&0xF000 == 0x3000:
		emitSkipImm(a, alloc, pc, d.X, d.KK, hostasm.CCEqual)

	case op&0xF000 == 0x4000:
		emitSkipImm(a, alloc, pc, d.X, d.KK, hostasm.CCNotEqual)

	case op&0xF00F == 0x5000:
		emitSkipReg(a, alloc, pc, d.X, d.Y, hostasm.CCEqual)

	case op&0xF00F == 0x9000:
		emitSkipReg(a, alloc, pc, d.X, d.Y, hostasm.CCNotEqual)

	case op&0xF000 == 0xB000:
		v0 := alloc.Take()
		emitLoadV(a, v0, 0)
		target := alloc.Take()
		a.MovRegImm32(target, uint32(d.Addr))
		a.Add(target, v0)
		a.StoreMem(ctx(), offPC, target, hostasm.W16)
		a.MovRegReg(hostasm.RAX, target)

	default:
		return &chip8.UnknownOpcodeError{Op: op, PC: pc}
	}
	return nil
}

// emitSetPC stores a fixed target address as the new PC (1nnn).
func emitSetPC(a *hostasm.Assembler, alloc *hostasm.Alloc, addr uint32) {
	r := alloc.Take()
	a.MovRegImm32(r, addr)
	a.StoreMem(ctx(), offPC, r, hostasm.W16)
	a.MovRegReg(hostasm.RAX, r)
}

// emitSkipImm emits `if v[x] cc kk: pc += 4 else pc += 2` entirely
// branchlessly: the condition's SetCC result (0 or 1) is doubled and
// added onto pc+2, matching §4.1's "advance by an extra 2" wording
// without a real conditional jump.
func emitSkipImm(a *hostasm.Assembler, alloc *hostasm.Alloc, pc uint16, x, kk byte, cc hostasm.CC) {
	vx := alloc.Take()
	emitLoadV(a, vx, x)
	imm := alloc.Take()
	a.MovRegImm32(imm, uint32(kk))
	a.Cmp(vx, imm)
	emitSkipResult(a, alloc, pc, cc)
}

// emitSkipReg is emitSkipImm's register-register counterpart (5xy0 /
// 9xy0): compares v[x] against v[y] instead of an immediate.
func emitSkipReg(a *hostasm.Assembler, alloc *hostasm.Alloc, pc uint16, x, y byte, cc hostasm.CC) {
	vx, vy := alloc.Take(), alloc.Take()
	emitLoadV(a, vx, x)
	emitLoadV(a, vy, y)
	a.Cmp(vx, vy)
	emitSkipResult(a, alloc, pc, cc)
}

// emitSkipResult finishes a skip opcode once the comparison's flags
// are set: materializes the condition as 0/1, doubles it, and adds it
// to the opcode's normal +2 fallthrough address.
func emitSkipResult(a *hostasm.Assembler, alloc *hostasm.Alloc, pc uint16, cc hostasm.CC) {
	flag := alloc.Take()
	a.MovRegImm32(flag, 0)
	a.SetCC(cc, flag)
	a.Shl(flag, 1)

	newPC := alloc.Take()
	a.MovRegImm32(newPC, uint32(pc)+2)
	a.Add(newPC, flag)
	a.StoreMem(ctx(), offPC, newPC, hostasm.W16)
	a.MovRegReg(hostasm.RAX, newPC)
}

// emitCall emits 2nnn: push the call's own address (as the reference
// interpreter does; 00EE advances past it), bump sp, jump to addr —
// unless sp is already at its 16-entry limit, in which case the
// block reports overflowPC instead of corrupting the stack (§4.6,
// §8's stack-overflow boundary behavior).
func emitCall(a *hostasm.Assembler, alloc *hostasm.Alloc, pc uint16, addr uint16) {
	sp := alloc.Take()
	a.LoadMem(sp, ctx(), offSP, hostasm.W8)
	limit := alloc.Take()
	a.MovRegImm32(limit, 16)
	a.Cmp(sp, limit)
	overflow := a.JccShort(hostasm.CCAboveEqual)

	slot := emitStackSlotAddr(a, alloc, sp)
	ret := alloc.Take()
	a.MovRegImm32(ret, uint32(pc))
	a.StoreMem(slot, 0, ret, hostasm.W16)

	a.AddImm8(sp, 1)
	a.StoreMem(ctx(), offSP, sp, hostasm.W8)

	newPC := alloc.Take()
	a.MovRegImm32(newPC, uint32(addr))
	a.StoreMem(ctx(), offPC, newPC, hostasm.W16)
	a.MovRegReg(hostasm.RAX, newPC)
	done := a.JmpShort()

	a.PatchShort(overflow)
	emitOverflowSentinel(a, alloc)

	a.PatchShort(done)
}

// emitReturn emits 00EE: pop the saved call address and resume at the
// instruction after it — unless sp is already 0, in which case the
// block reports overflowPC
// (§8's stack-underflow boundary behavior).
func emitReturn(a *hostasm.Assembler, alloc *hostasm.Alloc) {
	sp := alloc.Take()
	a.LoadMem(sp, ctx(), offSP, hostasm.W8)
	zero := alloc.Take()
	a.MovRegImm32(zero, 0)
	a.Cmp(sp, zero)
	underflow := a.JccShort(hostasm.CCEqual)

	a.SubImm8(sp, 1)
	a.StoreMem(ctx(), offSP, sp, hostasm.W8)

	slot := emitStackSlotAddr(a, alloc, sp)
	newPC := alloc.Take()
	a.LoadMem(newPC, slot, 0, hostasm.W16)
	a.AddImm8(newPC, 2)
	a.StoreMem(ctx(), offPC, newPC, hostasm.W16)
	a.MovRegReg(hostasm.RAX, newPC)
	done := a.JmpShort()

	a.PatchShort(underflow)
	emitOverflowSentinel(a, alloc)

	a.PatchShort(done)
}

// emitStackSlotAddr computes &ctx.Stack[sp] into a fresh register. The
// encoder has no scaled-index addressing mode, so the address is built
// with plain arithmetic instead: ctx + offStack + sp*2.
func emitStackSlotAddr(a *hostasm.Assembler, alloc *hostasm.Alloc, sp hostasm.Reg) hostasm.Reg {
	addr := alloc.Take()
	a.MovRegReg(addr, ctx())
	a.AddImm8(addr, int8(offStack))
	doubled := alloc.Take()
	a.MovRegReg(doubled, sp)
	a.Shl(doubled, 1)
	a.Add(addr, doubled)
	return addr
}

// emitOverflowSentinel stores overflowPC as both ctx.PC and the
// trampoline return value, signaling the dispatcher to fall back to
// the reference interpreter for the canonical fatal error (§4.6).
func emitOverflowSentinel(a *hostasm.Assembler, alloc *hostasm.Alloc) {
	sentinel := alloc.Take()
	a.MovRegImm32(sentinel, overflowPC)
	a.StoreMem(ctx(), offPC, sentinel, hostasm.W16)
	a.MovRegReg(hostasm.RAX, sentinel)
}
