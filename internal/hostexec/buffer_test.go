package hostexec

import "testing"

func TestWriteThenSealRoundTrip(t *testing.T) {
	b, err := New(4096)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close()

	entry, err := b.Write([]byte{0xC3}) // ret
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if entry == 0 {
		t.Fatal("expected non-zero entry address")
	}
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !b.executable {
		t.Fatal("buffer should be marked executable after Seal")
	}
}

func TestWriteAfterSealFlipsBackWritable(t *testing.T) {
	b, err := New(4096)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close()

	if _, err := b.Write([]byte{0xC3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := b.Write([]byte{0xC3}); err != nil {
		t.Fatalf("Write after Seal: %v", err)
	}
	if b.executable {
		t.Fatal("buffer should have dropped back to writable for the second Write")
	}
}

func TestWriteRejectsOversizedCode(t *testing.T) {
	b, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close()

	if _, err := b.Write(make([]byte, 8)); err == nil {
		t.Fatal("expected an error writing past capacity")
	}
}
