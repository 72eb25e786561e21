package chip8

import "testing"

func TestDrawSpriteClipsAtEdges(t *testing.T) {
	s := New(nil)
	s.I = 0x300
	s.RAM[0x300] = 0xFF // 8 set bits

	if collision := DrawSprite(s, DisplayCols-4, 0, 1); collision {
		t.Fatal("unexpected collision on first draw")
	}

	// Only the first 4 of the 8 bits should have landed; the rest clip
	// off the right edge rather than wrapping to column 0.
	for x := 0; x < 4; x++ {
		if !s.PixelAt(DisplayCols-4+x, 0) {
			t.Fatalf("pixel (%d,0) should be set", DisplayCols-4+x)
		}
	}
	if s.PixelAt(0, 0) {
		t.Fatal("sprite must clip, not wrap, at the right edge")
	}
}

func TestDrawSpriteClipsBottomRow(t *testing.T) {
	s := New(nil)
	s.I = 0x300
	for i := 0; i < 4; i++ {
		s.RAM[0x300+i] = 0xFF
	}

	// Start 2 rows above the bottom edge with a 4-row-tall sprite:
	// only 2 rows should actually draw.
	DrawSprite(s, 0, DisplayRows-2, 4)

	if !s.PixelAt(0, DisplayRows-1) {
		t.Fatal("last on-screen row should have drawn")
	}
}

func TestDrawSpriteClipsPastMemoryEnd(t *testing.T) {
	s := New(nil)
	s.I = MemSize - 1
	s.RAM[MemSize-1] = 0xFF

	// A 2-row sprite whose second row would read past RAM must not
	// panic; the first row still draws normally.
	if collision := DrawSprite(s, 0, 0, 2); collision {
		t.Fatal("unexpected collision on first draw")
	}
	if !s.PixelAt(0, 0) {
		t.Fatal("first row should have drawn from the last valid RAM byte")
	}
}

func TestBCDClipsPastMemoryEnd(t *testing.T) {
	s := New(nil)
	s.I = MemSize - 1

	// Must not panic even though the 3rd byte would land past RAM.
	BCD(s, 123)
	if s.RAM[MemSize-1] != 1 {
		t.Fatalf("ram[last] = %d, want 1 (hundreds digit)", s.RAM[MemSize-1])
	}
}
