package chip8

// StoreRegisters implements Fx55: copy v[0..=x] into ram[i..=i+x].
// Shared by the reference interpreter and the JIT's register-store
// helper so both honor the self-modification write hook identically.
// i can legally exceed MemSize (Fx1E's 16-bit wraparound), so the copy
// is clipped to what actually fits in RAM rather than slicing past the
// array's end, the same way bcd.go clips its writes.
func StoreRegisters(s *State, x byte) {
	if int(s.I) >= MemSize {
		return
	}
	n := int(x) + 1
	if avail := MemSize - int(s.I); n > avail {
		n = avail
	}
	copy(s.RAM[s.I:], s.V[:n])
	s.notifyWrite(s.I, n)
}

// LoadRegisters implements Fx65: copy ram[i..=i+x] into v[0..=x]. A
// read, not a write, so it never invalidates cached blocks. Clipped at
// MemSize like StoreRegisters; registers past the clipped range keep
// their prior value rather than reading out of bounds.
func LoadRegisters(s *State, x byte) {
	if int(s.I) >= MemSize {
		return
	}
	n := int(x) + 1
	if avail := MemSize - int(s.I); n > avail {
		n = avail
	}
	copy(s.V[:n], s.RAM[s.I:])
}
