package jit

import "github.com/kaidoh/chip8jit/internal/chip8"

// NumSlots is the size of the direct-mapped translation cache (§4.4).
const NumSlots = 0x700

// Cache is the translation cache: a direct-mapped array of block
// slots, plus an inverted index from guest byte address to every slot
// whose translated range covers it. The index is what makes
// self-modification invalidation O(1) per written byte instead of a
// linear scan of all 0x700 slots — the alternative the design notes
// flag as the reference bug (it only ever checked the written
// address's own slot, missing any other slot whose range happened to
// span it).
type Cache struct {
	slots  [NumSlots]Block
	byAddr map[uint16][]int
}

// NewCache returns an empty translation cache.
func NewCache() *Cache {
	return &Cache{byAddr: make(map[uint16][]int)}
}

func slotFor(pc uint16) int {
	return int((pc - chip8.ProgramBase) % NumSlots)
}

// Lookup returns the cached block starting exactly at pc, if one is
// installed and still valid.
func (c *Cache) Lookup(pc uint16) (*Block, bool) {
	b := &c.slots[slotFor(pc)]
	if b.Valid && b.StartPC == pc {
		return b, true
	}
	return nil, false
}

// Install records a freshly compiled block, overwriting whatever
// previously occupied its slot (a collision between two different
// start addresses is acceptable fragmentation, not an error — the
// overwritten block's host bytes simply become unreachable).
func (c *Cache) Install(b Block) {
	sl := slotFor(b.StartPC)
	c.slots[sl] = b
	for a := b.StartPC; a <= b.EndPC+1; a++ {
		c.byAddr[a] = append(c.byAddr[a], sl)
	}
}

// Invalidate marks every slot whose translated range covers addr as
// invalid. Addresses below the program base are ignored: the font
// table there is never executable, so writes to it can never stale a
// block (§4.5).
func (c *Cache) Invalidate(addr uint16) {
	if addr < chip8.ProgramBase {
		return
	}
	for _, sl := range c.byAddr[addr] {
		c.slots[sl].Valid = false
	}
}

// InvalidateRange invalidates every address in [start, start+n), the
// shape every guest-RAM-writing opcode (Fx33, Fx55) needs.
func (c *Cache) InvalidateRange(start uint16, n int) {
	for i := 0; i < n; i++ {
		c.Invalidate(start + uint16(i))
	}
}
