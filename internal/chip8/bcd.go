package chip8

// BCD implements Fx33: writes the 3-digit binary-coded-decimal
// expansion of v starting at RAM[i]. Writes that would fall past the
// end of RAM are clipped rather than panicking or wrapping (Open
// Question resolution in SPEC_FULL.md) — a guest program that pushes
// i this close to 0x1000 is corrupt, but the host process must not
// crash on it; only an unrecognized opcode is fatal (§7).
func BCD(s *State, v byte) {
	digits := [3]byte{v / 100, (v / 10) % 10, v % 10}
	written := 0
	for k, d := range digits {
		addr := int(s.I) + k
		if addr >= MemSize {
			break
		}
		s.RAM[addr] = d
		written++
	}
	if written > 0 {
		s.notifyWrite(s.I, written)
	}
}
