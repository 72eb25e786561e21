// Package jit implements the dynamic binary translator: it reads guest
// CHIP-8 instructions starting at a given PC, emits amd64 host code for
// each until the first control-flow-altering opcode, caches the result,
// and dispatches compiled blocks instead of interpreting hot code.
package jit

// Block is a compiled basic block: the inclusive guest address range
// its host code was translated from, and the entry point into the
// executable buffer it was written to. StartPC and EndPC are the
// addresses of the first and last translated opcodes, so the bytes
// the block covers run from StartPC through EndPC+1. Grounded on the BasicBlock
// record the reference JIT this design was distilled from used
// (`start_addr`/`end_addr`/`func`), minus its checksum field — this
// cache invalidates by address range, not by content hash.
type Block struct {
	StartPC uint16
	EndPC   uint16
	Entry   uintptr
	Valid   bool
}

// covers reports whether guest address a falls inside the block's
// translated byte range.
func (b *Block) covers(a uint16) bool {
	return b.Valid && a >= b.StartPC && a <= b.EndPC+1
}
