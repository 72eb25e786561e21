// Package hostexec manages the executable memory region compiled
// blocks live in: an append-only buffer that toggles between writable
// and executable mappings so the process never holds a page both
// writable and executable at once (§5's W^X separation).
package hostexec

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Buffer is an append-only region of mmap'd memory. Compiled blocks are
// appended with Write, which returns the entry address of the just-
// written bytes; Seal flips the whole region to read+exec before any
// of it is called, and Write transparently flips it back to
// read+write on the next append.
type Buffer struct {
	mem        []byte
	off        int
	executable bool
}

// New allocates an anonymous mapping of size bytes, initially
// writable (not yet executable).
func New(size int) (*Buffer, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("hostexec: mmap %d bytes: %w", size, err)
	}
	return &Buffer{mem: mem}, nil
}

// Close unmaps the region. The buffer must not be used afterward.
func (b *Buffer) Close() error {
	return unix.Munmap(b.mem)
}

// Write appends code to the buffer and returns the address its first
// byte landed at. It transparently drops back to a writable mapping if
// the buffer was last sealed executable.
func (b *Buffer) Write(code []byte) (uintptr, error) {
	if b.off+len(code) > len(b.mem) {
		return 0, fmt.Errorf("hostexec: buffer exhausted: need %d more of %d remaining", len(code), len(b.mem)-b.off)
	}
	if b.executable {
		if err := b.protect(unix.PROT_READ | unix.PROT_WRITE); err != nil {
			return 0, err
		}
		b.executable = false
	}

	entry := uintptr(unsafe.Pointer(&b.mem[b.off]))
	copy(b.mem[b.off:], code)
	b.off += len(code)
	return entry, nil
}

// Seal flips the region to read+exec. It is a no-op if already sealed.
// Callers must call it before invoking any entry address Write
// returned, and expect to call it again after the next Write.
func (b *Buffer) Seal() error {
	if b.executable {
		return nil
	}
	if err := b.protect(unix.PROT_READ | unix.PROT_EXEC); err != nil {
		return err
	}
	b.executable = true
	return nil
}

func (b *Buffer) protect(prot int) error {
	if err := unix.Mprotect(b.mem, prot); err != nil {
		return fmt.Errorf("hostexec: mprotect: %w", err)
	}
	return nil
}

// Len reports how many bytes have been written so far.
func (b *Buffer) Len() int { return b.off }

// Cap reports the buffer's total capacity.
func (b *Buffer) Cap() int { return len(b.mem) }
