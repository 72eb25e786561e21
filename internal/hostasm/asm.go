package hostasm

import "encoding/binary"

// Width selects the operand width for load/store forms. The block
// translator only ever touches guest registers (1 byte), the guest I
// register and PC (2 bytes), and the ctx pointer itself (8 bytes); W32
// is encoded as well, though the translator does not use it.
type Width int

const (
	W8 Width = iota
	W16
	W32
	W64
)

// CC is an amd64 condition code, used by SetCC/CMovCC/Jcc.
type CC byte

const (
	CCEqual        CC = 0x4 // E / Z
	CCNotEqual     CC = 0x5 // NE / NZ
	CCGreater      CC = 0xF // G (signed)
	CCGreaterEqual CC = 0xD // GE (signed)
	CCLess         CC = 0xC // L (signed)
	CCBelow        CC = 0x2 // B (unsigned, used for borrow/overflow checks)
	CCAboveEqual   CC = 0x3 // AE (unsigned, no-borrow)
)

// Assembler is a byte-buffer-backed amd64 encoder covering the small
// instruction subset the block translator needs: register moves,
// memory loads/stores through a base+displacement operand, the integer
// ALU ops, conditional set/move, shifts, call/ret, and push/pop. It
// hand-encodes REX-prefixed forms directly rather than wrapping a
// third-party assembler, since no library in the surrounding stack
// assembles amd64 — only disassembles it.
type Assembler struct {
	buf []byte
}

// New returns an empty Assembler ready to emit into a fresh buffer.
func New() *Assembler { return &Assembler{} }

// Bytes returns the encoded instruction stream so far.
func (a *Assembler) Bytes() []byte { return a.buf }

// Len reports how many bytes have been emitted, so callers can record
// jump-patch sites before the target address is known.
func (a *Assembler) Len() int { return len(a.buf) }

func (a *Assembler) emit(bs ...byte) { a.buf = append(a.buf, bs...) }

// rex builds a REX prefix; w selects 64-bit operand size, r/x/b extend
// the ModRM.reg, SIB.index, and ModRM.rm (or opcode-reg) fields.
func rex(w, r, x, b bool) byte {
	v := byte(0x40)
	if w {
		v |= 0x08
	}
	if r {
		v |= 0x04
	}
	if x {
		v |= 0x02
	}
	if b {
		v |= 0x01
	}
	return v
}

func modrm(mod, reg, rm byte) byte {
	return (mod << 6) | ((reg & 0x7) << 3) | (rm & 0x7)
}

// emitModRMReg emits a REX+opcode+ModRM triple for the register-direct
// addressing mode (mod=11), used by all reg-reg ALU/mov forms.
func (a *Assembler) emitModRMReg(w bool, opcode []byte, reg, rm Reg) {
	a.emit(rex(w, reg.extended(), false, rm.extended()))
	a.emit(opcode...)
	a.emit(modrm(3, reg.low3(), rm.low3()))
}

// emitModRMMem emits a REX+opcode+ModRM(+disp32) triple addressing
// [base+disp]. A disp8 encoding is used when it fits, matching what a
// real assembler would choose; disp==0 with base==RBP/R13 still needs
// an explicit disp8 of 0 since mod=00,rm=101 means RIP-relative there.
func (a *Assembler) emitModRMMem(w bool, opcode []byte, reg, base Reg, disp int32) {
	a.emit(rex(w, reg.extended(), false, base.extended()))
	a.emit(opcode...)

	needsDisp8Zero := base.low3() == RBP.low3()
	switch {
	case disp == 0 && !needsDisp8Zero:
		a.emit(modrm(0, reg.low3(), base.low3()))
		if base.low3() == RSP.low3() {
			a.emit(0x24) // SIB: no index, base as given
		}
	case disp >= -128 && disp <= 127:
		a.emit(modrm(1, reg.low3(), base.low3()))
		if base.low3() == RSP.low3() {
			a.emit(0x24)
		}
		a.emit(byte(int8(disp)))
	default:
		a.emit(modrm(2, reg.low3(), base.low3()))
		if base.low3() == RSP.low3() {
			a.emit(0x24)
		}
		var d [4]byte
		binary.LittleEndian.PutUint32(d[:], uint32(disp))
		a.emit(d[:]...)
	}
}

// MovRegReg encodes `mov dst, src` (64-bit, register-to-register).
func (a *Assembler) MovRegReg(dst, src Reg) {
	a.emitModRMReg(true, []byte{0x89}, src, dst)
}

// MovRegImm32 encodes `mov dst, imm32` (zero-extended into the 64-bit
// register), the form used to materialize small guest constants.
func (a *Assembler) MovRegImm32(dst Reg, imm uint32) {
	if dst.extended() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xB8 + dst.low3())
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], imm)
	a.emit(b[:]...)
}

// MovRegImm64 encodes `movabs dst, imm64`, used to load absolute
// addresses (the ctx pointer, a helper function's code pointer).
func (a *Assembler) MovRegImm64(dst Reg, imm uint64) {
	a.emit(rex(true, false, false, dst.extended()))
	a.emit(0xB8 + dst.low3())
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], imm)
	a.emit(b[:]...)
}

// loadOpcode returns the load opcode (MOVZX where needed) for a given
// operand width, plus whether REX.W must be set; storeOpcode below is
// its store counterpart.
func loadOpcode(w Width) (op []byte, rexW bool) {
	switch w {
	case W8:
		return []byte{0x0F, 0xB6}, false // movzx r32, r/m8
	case W16:
		return []byte{0x0F, 0xB7}, false // movzx r32, r/m16
	case W32:
		return []byte{0x8B}, false
	default:
		return []byte{0x8B}, true
	}
}

func storeOpcode(w Width) (op []byte, rexW bool) {
	switch w {
	case W8:
		return []byte{0x88}, false
	case W16:
		return []byte{0x66, 0x89}, false // operand-size prefix handled inline below
	case W32:
		return []byte{0x89}, false
	default:
		return []byte{0x89}, true
	}
}

// LoadMem encodes `mov dst, [base+disp]` at the given width, zero-
// extending 8/16-bit loads into the full 64-bit destination register —
// guest register and I-register reads never need sign extension.
func (a *Assembler) LoadMem(dst Reg, base Reg, disp int32, w Width) {
	op, rexW := loadOpcode(w)
	a.emitModRMMem(rexW, op, dst, base, disp)
}

// StoreMem encodes `mov [base+disp], src` at the given width.
func (a *Assembler) StoreMem(base Reg, disp int32, src Reg, w Width) {
	if w == W16 {
		a.emit(0x66)
		a.emitModRMMem(false, []byte{0x89}, src, base, disp)
		return
	}
	op, rexW := storeOpcode(w)
	a.emitModRMMem(rexW, op, src, base, disp)
}

// Ctx returns the register holding the live *chip8.State pointer.
func Ctx() Reg { return ctxReg }

func (a *Assembler) aluRegReg(opcode byte, dst, src Reg) {
	a.emitModRMReg(true, []byte{opcode}, src, dst)
}

// Add encodes `add dst, src`.
func (a *Assembler) Add(dst, src Reg) { a.aluRegReg(0x01, dst, src) }

// Sub encodes `sub dst, src`.
func (a *Assembler) Sub(dst, src Reg) { a.aluRegReg(0x29, dst, src) }

// And encodes `and dst, src`.
func (a *Assembler) And(dst, src Reg) { a.aluRegReg(0x21, dst, src) }

// Or encodes `or dst, src`.
func (a *Assembler) Or(dst, src Reg) { a.aluRegReg(0x09, dst, src) }

// Xor encodes `xor dst, src`.
func (a *Assembler) Xor(dst, src Reg) { a.aluRegReg(0x31, dst, src) }

// Cmp encodes `cmp dst, src`.
func (a *Assembler) Cmp(dst, src Reg) { a.aluRegReg(0x39, dst, src) }

// Test encodes `test dst, src`.
func (a *Assembler) Test(dst, src Reg) { a.aluRegReg(0x85, dst, src) }

// AddImm8 encodes `add dst, imm8` (sign-extended), the form used to
// add the guest's 8-bit immediate operands.
func (a *Assembler) AddImm8(dst Reg, imm int8) { a.aluImm8(0, dst, imm) }

// SubImm8 encodes `sub dst, imm8` (sign-extended).
func (a *Assembler) SubImm8(dst Reg, imm int8) { a.aluImm8(5, dst, imm) }

// CmpImm8 encodes `cmp dst, imm8` (sign-extended).
func (a *Assembler) CmpImm8(dst Reg, imm int8) { a.aluImm8(7, dst, imm) }

// aluImm8 encodes the group-1 `0x83 /digit ib` immediate ALU forms.
func (a *Assembler) aluImm8(digit byte, dst Reg, imm int8) {
	a.emit(rex(true, false, false, dst.extended()))
	a.emit(0x83)
	a.emit(modrm(3, digit, dst.low3()))
	a.emit(byte(imm))
}

// shiftImm encodes the group-2 `0xC1 /digit ib` shift-by-immediate
// forms (Shr=/5, Shl=Sal=/4, Sar=/7).
func (a *Assembler) shiftImm(digit byte, dst Reg, count byte) {
	a.emit(rex(true, false, false, dst.extended()))
	a.emit(0xC1)
	a.emit(modrm(3, digit, dst.low3()))
	a.emit(count)
}

// Shr encodes `shr dst, count` (logical).
func (a *Assembler) Shr(dst Reg, count byte) { a.shiftImm(5, dst, count) }

// Shl encodes `shl dst, count`.
func (a *Assembler) Shl(dst Reg, count byte) { a.shiftImm(4, dst, count) }

// Sar encodes `sar dst, count` (arithmetic).
func (a *Assembler) Sar(dst Reg, count byte) { a.shiftImm(7, dst, count) }

// SetCC encodes `setCC dst8` (byte-register destination), used to
// materialize VF from a flag condition.
func (a *Assembler) SetCC(cc CC, dst Reg) {
	a.emit(rex(false, false, false, dst.extended()))
	a.emit(0x0F, 0x90+byte(cc))
	a.emit(modrm(3, 0, dst.low3()))
}

// CMovCC encodes `cmovCC dst, src` (64-bit conditional move).
func (a *Assembler) CMovCC(cc CC, dst, src Reg) {
	a.emitModRMReg(true, []byte{0x0F, 0x40 + byte(cc)}, dst, src)
}

// Lea encodes `lea dst, [base+disp]`.
func (a *Assembler) Lea(dst, base Reg, disp int32) {
	a.emitModRMMem(true, []byte{0x8D}, dst, base, disp)
}

// JccShort emits a short (rel8) conditional jump with a placeholder
// displacement, returning the buffer offset of that byte so the
// caller can fix it up with PatchShort once the target is known. Used
// only for the rare branches call/ret overflow checks need; every
// other control-flow opcode computes its result branchlessly with
// SetCC instead.
func (a *Assembler) JccShort(cc CC) int {
	a.emit(0x70+byte(cc), 0x00)
	return len(a.buf) - 1
}

// JmpShort emits a short unconditional jump with a placeholder
// displacement, returning its patch offset (see JccShort).
func (a *Assembler) JmpShort() int {
	a.emit(0xEB, 0x00)
	return len(a.buf) - 1
}

// PatchShort fixes up the rel8 displacement at patchAt so the jump
// lands at the current end of the buffer. Call it once nothing more
// will be inserted between the jump and its target.
func (a *Assembler) PatchShort(patchAt int) {
	rel := len(a.buf) - (patchAt + 1)
	a.buf[patchAt] = byte(int8(rel))
}

// Call encodes `call dst` (indirect, register operand) — used to call
// back into the Go sprite/BCD helpers via their extracted code pointer.
func (a *Assembler) Call(dst Reg) {
	a.emit(rex(false, false, false, dst.extended()))
	a.emit(0xFF)
	a.emit(modrm(3, 2, dst.low3()))
}

// Ret encodes a near return.
func (a *Assembler) Ret() { a.emit(0xC3) }

// Push encodes `push dst` (64-bit, opcode+reg form).
func (a *Assembler) Push(r Reg) {
	if r.extended() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x50 + r.low3())
}

// Pop encodes `pop dst`.
func (a *Assembler) Pop(r Reg) {
	if r.extended() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x58 + r.low3())
}
