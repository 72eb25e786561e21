package jit

import "testing"

func TestLookupMissOnEmptyCache(t *testing.T) {
	c := NewCache()
	if _, ok := c.Lookup(0x200); ok {
		t.Fatal("expected a miss on an empty cache")
	}
}

func TestInstallThenLookupHits(t *testing.T) {
	c := NewCache()
	b := Block{StartPC: 0x200, EndPC: 0x206, Entry: 0xDEAD, Valid: true}
	c.Install(b)

	got, ok := c.Lookup(0x200)
	if !ok || *got != b {
		t.Fatalf("Lookup(0x200) = %+v, %v; want %+v, true", got, ok, b)
	}
}

func TestLookupMissesOnSlotCollisionWithDifferentStart(t *testing.T) {
	c := NewCache()
	c.Install(Block{StartPC: 0x200, EndPC: 0x204, Entry: 1, Valid: true})
	// 0x200 + NumSlots collides into the same slot as 0x200.
	collidingPC := uint16(0x200 + NumSlots)
	c.Install(Block{StartPC: collidingPC, EndPC: collidingPC + 2, Entry: 2, Valid: true})

	if _, ok := c.Lookup(0x200); ok {
		t.Fatal("original block should have been overwritten by the colliding install")
	}
	if got, ok := c.Lookup(collidingPC); !ok || got.Entry != 2 {
		t.Fatalf("colliding block should be resident, got %+v, %v", got, ok)
	}
}

func TestInvalidateMarksCoveringSlotsInvalid(t *testing.T) {
	c := NewCache()
	c.Install(Block{StartPC: 0x200, EndPC: 0x20A, Entry: 1, Valid: true})

	c.Invalidate(0x206) // inside the range but not the start address

	if _, ok := c.Lookup(0x200); ok {
		t.Fatal("write inside the block's range should have invalidated it")
	}
}

func TestInvalidateIgnoresAddressesBelowProgramBase(t *testing.T) {
	c := NewCache()
	c.Install(Block{StartPC: 0x200, EndPC: 0x210, Entry: 1, Valid: true})

	c.Invalidate(0x050) // font region, never executable

	if _, ok := c.Lookup(0x200); !ok {
		t.Fatal("a write below ProgramBase must never invalidate anything")
	}
}

func TestInvalidateIdempotent(t *testing.T) {
	c := NewCache()
	c.Install(Block{StartPC: 0x200, EndPC: 0x202, Entry: 1, Valid: true})

	c.Invalidate(0x200)
	c.Invalidate(0x200) // invalidating twice must not panic or misbehave

	if _, ok := c.Lookup(0x200); ok {
		t.Fatal("block should remain invalid")
	}
}

func TestInvalidateRangeCoversEveryByte(t *testing.T) {
	c := NewCache()
	c.Install(Block{StartPC: 0x300, EndPC: 0x304, Entry: 1, Valid: true})

	c.InvalidateRange(0x302, 3) // touches 0x302, 0x303, 0x304

	if _, ok := c.Lookup(0x300); ok {
		t.Fatal("range write overlapping the block's tail should invalidate it")
	}
}
