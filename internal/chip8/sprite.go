package chip8

// DrawSprite implements Dxyn (§4.2): n bytes starting at RAM[i] are
// XOR-drawn at (x, y). Bit 7-xx of each row byte is the leftmost
// column. Collisions (a pixel turned off by the XOR) set the returned
// flag. DrawSprite sets Draw unconditionally.
//
// Off-screen columns and rows are clipped, not wrapped — the safe
// default §4.2 calls out given the source's wrapping policy is
// unspecified (see SPEC_FULL.md's Open Question resolution). A row
// read that would fall past the end of RAM (reachable once Fx1E has
// carried i past 0xFFF per its 16-bit wraparound) is clipped the same
// way bcd.go clips its writes: the remaining rows are treated as
// absent rather than panicking.
func DrawSprite(s *State, x, y, n byte) (collision bool) {
	for yy := 0; yy < int(n); yy++ {
		row := int(y) + yy
		if row >= DisplayRows {
			break
		}

		addr := int(s.I) + yy
		if addr >= MemSize {
			break
		}
		sprite := s.RAM[addr]

		for xx := 0; xx < 8; xx++ {
			col := int(x) + xx
			if col >= DisplayCols {
				continue
			}

			if sprite&(0x80>>uint(xx)) == 0 {
				continue
			}

			bit := uint64(1) << uint(col)
			if s.Display[row]&bit != 0 {
				collision = true
			}
			s.Display[row] ^= bit
		}
	}

	s.Draw = true
	return collision
}
