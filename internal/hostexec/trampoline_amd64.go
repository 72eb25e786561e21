package hostexec

import "unsafe"

// CallBlock enters a compiled block at entry, passing ctx in the
// register the calling-convention contract reserves for it (§4.3), and
// returns the guest PC the block exited on. The actual register setup
// and call live in trampoline_amd64.s since Go has no way to express
// "call this raw address with this register convention" otherwise.
func CallBlock(entry uintptr, ctx unsafe.Pointer) uintptr {
	return callBlock(entry, ctx)
}

//go:noescape
func callBlock(entry uintptr, ctx unsafe.Pointer) uintptr
