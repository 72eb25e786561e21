package chip8

import "testing"

func load(t *testing.T, program []byte) *State {
	t.Helper()
	s := New(FixedSource(0))
	if err := s.LoadROM(program); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	return s
}

func steps(t *testing.T, s *State, n int) {
	t.Helper()
	it := NewInterpreter(s)
	for i := 0; i < n; i++ {
		if err := it.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
}

// Scenario 1 (spec §8): 6205 6307 8234 1200
func TestScenarioAdd(t *testing.T) {
	s := load(t, []byte{0x62, 0x05, 0x63, 0x07, 0x82, 0x34, 0x12, 0x00})
	steps(t, s, 3)

	if s.V[2] != 0x0C {
		t.Fatalf("v2 = %#x, want 0x0C", s.V[2])
	}
	if s.V[0xF] != 0 {
		t.Fatalf("vf = %d, want 0", s.V[0xF])
	}
	if s.PC != 0x206 {
		t.Fatalf("pc = %#x, want 0x206", s.PC)
	}
}

// Scenario 2: 60FF 6102 8014 -> v0 wraps with carry set.
func TestScenarioAddCarry(t *testing.T) {
	s := load(t, []byte{0x60, 0xFF, 0x61, 0x02, 0x80, 0x14, 0x12, 0x00})
	steps(t, s, 3)

	if s.V[0] != 0x01 {
		t.Fatalf("v0 = %#x, want 0x01", s.V[0])
	}
	if s.V[0xF] != 1 {
		t.Fatalf("vf = %d, want 1", s.V[0xF])
	}
	if s.PC != 0x206 {
		t.Fatalf("pc = %#x, want 0x206", s.PC)
	}
}

// Scenario 3: A20A F033 with v0 = 123 preloaded -> BCD digits in RAM.
func TestScenarioBCD(t *testing.T) {
	s := load(t, []byte{0xA2, 0x0A, 0xF0, 0x33, 0x12, 0x00})
	s.V[0] = 123
	steps(t, s, 2)

	want := [3]byte{1, 2, 3}
	got := [3]byte{s.RAM[0x20A], s.RAM[0x20B], s.RAM[0x20C]}
	if got != want {
		t.Fatalf("BCD digits = %v, want %v", got, want)
	}
}

// Scenario 4: 6002 3002 1208 1200 1208 -> skip-equal passes over the
// 0x204 jump and lands at 0x206.
func TestScenarioSkipEqual(t *testing.T) {
	s := load(t, []byte{0x60, 0x02, 0x30, 0x02, 0x12, 0x08, 0x12, 0x00, 0x12, 0x08})
	steps(t, s, 2)

	if s.V[0] != 2 {
		t.Fatalf("v0 = %d, want 2", s.V[0])
	}
	if s.PC != 0x206 {
		t.Fatalf("pc = %#x, want 0x206 (skip must land past the 0x204 jump)", s.PC)
	}
}

// Scenario 5: 2204 1200 00EE -> one call/return round trip.
func TestScenarioCallReturn(t *testing.T) {
	s := load(t, []byte{0x22, 0x04, 0x12, 0x00, 0x00, 0xEE})
	steps(t, s, 2)

	if s.SP != 0 {
		t.Fatalf("sp = %d, want 0", s.SP)
	}
	if s.PC != 0x202 {
		t.Fatalf("pc = %#x, want 0x202", s.PC)
	}
}

// Scenario 6: 00E0 clears a scribbled-on display.
func TestScenarioClear(t *testing.T) {
	s := load(t, []byte{0x00, 0xE0})
	for i := range s.Display {
		s.Display[i] = ^uint64(0)
	}
	steps(t, s, 1)

	for i, row := range s.Display {
		if row != 0 {
			t.Fatalf("row %d = %#x, want 0", i, row)
		}
	}
	if !s.Draw {
		t.Fatal("draw flag not set")
	}
}

func TestCallStackOverflow(t *testing.T) {
	program := make([]byte, 0)
	for i := 0; i < 17; i++ {
		program = append(program, 0x22, 0x00)
	}
	s := load(t, program)
	it := NewInterpreter(s)

	var err error
	for i := 0; i < 17; i++ {
		err = it.Step()
		if err != nil {
			break
		}
	}
	if _, ok := err.(*StackOverflowError); !ok {
		t.Fatalf("expected StackOverflowError, got %v", err)
	}
}

func TestReturnStackUnderflow(t *testing.T) {
	s := load(t, []byte{0x00, 0xEE})
	it := NewInterpreter(s)
	err := it.Step()
	if _, ok := err.(*StackUnderflowError); !ok {
		t.Fatalf("expected StackUnderflowError, got %v", err)
	}
}

func TestUnknownOpcodeFatal(t *testing.T) {
	s := load(t, []byte{0xE0, 0x9E}) // key-press skip: out of scope, §1
	it := NewInterpreter(s)
	err := it.Step()
	if _, ok := err.(*UnknownOpcodeError); !ok {
		t.Fatalf("expected UnknownOpcodeError, got %v", err)
	}
}

func TestLoadROMTooLarge(t *testing.T) {
	s := New(nil)
	if err := s.LoadROM(make([]byte, MaxROMSize+1)); err == nil {
		t.Fatal("expected error for oversized ROM")
	}
}

func TestFx55Fx65RoundTrip(t *testing.T) {
	s := load(t, []byte{0xA3, 0x00, 0xFF, 0x55, 0xFF, 0x65})
	for i := range s.V {
		s.V[i] = byte(i + 1)
	}
	want := s.V
	steps(t, s, 1) // A300: i = 0x300
	steps(t, s, 1) // FF55

	for i := 0; i < 16; i++ {
		if s.RAM[0x300+i] != want[i] {
			t.Fatalf("ram[0x300+%d] = %d, want %d", i, s.RAM[0x300+i], want[i])
		}
	}

	s.V = [16]byte{}
	steps(t, s, 1) // Fx65
	if s.V != want {
		t.Fatalf("registers after Fx65 = %v, want %v", s.V, want)
	}
}

func TestFx55Fx65ClipPastMemoryEnd(t *testing.T) {
	s := New(FixedSource(0))
	s.I = MemSize - 1
	for i := range s.V {
		s.V[i] = byte(i + 1)
	}

	// Must not panic even though registers past V[0] would land past
	// RAM; Fx1E's 16-bit wraparound can legally push I this far.
	StoreRegisters(s, 15)
	if s.RAM[MemSize-1] != s.V[0] {
		t.Fatalf("ram[last] = %d, want %d", s.RAM[MemSize-1], s.V[0])
	}

	s.RAM[MemSize-1] = 0x42
	s.V = [16]byte{}
	LoadRegisters(s, 15)
	if s.V[0] != 0x42 {
		t.Fatalf("v0 = %d, want 0x42", s.V[0])
	}
	if s.V[1] != 0 {
		t.Fatalf("v1 = %d, want 0 (clipped, left untouched)", s.V[1])
	}
}

func TestDrawCollisionThenClear(t *testing.T) {
	s := load(t, []byte{0xA0, 0x50, 0x60, 0x00, 0x61, 0x00, 0xD0, 0x15, 0xD0, 0x15})
	steps(t, s, 4)
	if s.V[0xF] != 0 {
		t.Fatalf("first draw: vf = %d, want 0", s.V[0xF])
	}
	steps(t, s, 1)
	if s.V[0xF] != 1 {
		t.Fatalf("second draw: vf = %d, want 1 (full collision)", s.V[0xF])
	}
	for i, row := range s.Display {
		if row != 0 {
			t.Fatalf("row %d = %#x, want 0 after XOR-clear", i, row)
		}
	}
}
