package chip8

import "fmt"

// Disassemble returns the mnemonic text for the instruction at ram[pc],
// or "" if pc runs past the end of memory. Grounded on
// massung-CHIP-8/chip8/disasm.go's decode-and-branch shape, rewritten
// against this package's shared Decoded type.
func Disassemble(ram []byte, pc uint16) string {
	if int(pc) >= len(ram)-1 {
		return ""
	}

	op := FetchOp(ram, pc)
	d := Decode(op)

	switch {
	case op == 0x00E0:
		return fmt.Sprintf("%04X - CLS", pc)
	case op == 0x00EE:
		return fmt.Sprintf("%04X - RET", pc)
	case op&0xF000 == 0x1000:
		return fmt.Sprintf("%04X - JP     #%03X", pc, d.Addr)
	case op&0xF000 == 0x2000:
		return fmt.Sprintf("%04X - CALL   #%03X", pc, d.Addr)
	case op&0xF000 == 0x3000:
		return fmt.Sprintf("%04X - SE     V%X, #%02X", pc, d.X, d.KK)
	case op&0xF000 == 0x4000:
		return fmt.Sprintf("%04X - SNE    V%X, #%02X", pc, d.X, d.KK)
	case op&0xF00F == 0x5000:
		return fmt.Sprintf("%04X - SE     V%X, V%X", pc, d.X, d.Y)
	case op&0xF000 == 0x6000:
		return fmt.Sprintf("%04X - LD     V%X, #%02X", pc, d.X, d.KK)
	case op&0xF000 == 0x7000:
		return fmt.Sprintf("%04X - ADD    V%X, #%02X", pc, d.X, d.KK)
	case op&0xF00F == 0x8000:
		return fmt.Sprintf("%04X - LD     V%X, V%X", pc, d.X, d.Y)
	case op&0xF00F == 0x8001:
		return fmt.Sprintf("%04X - OR     V%X, V%X", pc, d.X, d.Y)
	case op&0xF00F == 0x8002:
		return fmt.Sprintf("%04X - AND    V%X, V%X", pc, d.X, d.Y)
	case op&0xF00F == 0x8003:
		return fmt.Sprintf("%04X - XOR    V%X, V%X", pc, d.X, d.Y)
	case op&0xF00F == 0x8004:
		return fmt.Sprintf("%04X - ADD    V%X, V%X", pc, d.X, d.Y)
	case op&0xF00F == 0x8005:
		return fmt.Sprintf("%04X - SUB    V%X, V%X", pc, d.X, d.Y)
	case op&0xF00F == 0x8006:
		return fmt.Sprintf("%04X - SHR    V%X", pc, d.X)
	case op&0xF00F == 0x8007:
		return fmt.Sprintf("%04X - SUBN   V%X, V%X", pc, d.X, d.Y)
	case op&0xF00F == 0x800E:
		return fmt.Sprintf("%04X - SHL    V%X", pc, d.X)
	case op&0xF00F == 0x9000:
		return fmt.Sprintf("%04X - SNE    V%X, V%X", pc, d.X, d.Y)
	case op&0xF000 == 0xA000:
		return fmt.Sprintf("%04X - LD     I, #%03X", pc, d.Addr)
	case op&0xF000 == 0xB000:
		return fmt.Sprintf("%04X - JP     V0, #%03X", pc, d.Addr)
	case op&0xF000 == 0xC000:
		return fmt.Sprintf("%04X - RND    V%X, #%02X", pc, d.X, d.KK)
	case op&0xF000 == 0xD000:
		return fmt.Sprintf("%04X - DRW    V%X, V%X, %d", pc, d.X, d.Y, d.N)
	case op&0xF0FF == 0xF007:
		return fmt.Sprintf("%04X - LD     V%X, DT", pc, d.X)
	case op&0xF0FF == 0xF015:
		return fmt.Sprintf("%04X - LD     DT, V%X", pc, d.X)
	case op&0xF0FF == 0xF018:
		return fmt.Sprintf("%04X - LD     ST, V%X", pc, d.X)
	case op&0xF0FF == 0xF01E:
		return fmt.Sprintf("%04X - ADD    I, V%X", pc, d.X)
	case op&0xF0FF == 0xF029:
		return fmt.Sprintf("%04X - LD     F, V%X", pc, d.X)
	case op&0xF0FF == 0xF033:
		return fmt.Sprintf("%04X - LD     B, V%X", pc, d.X)
	case op&0xF0FF == 0xF055:
		return fmt.Sprintf("%04X - LD     [I], V%X", pc, d.X)
	case op&0xF0FF == 0xF065:
		return fmt.Sprintf("%04X - LD     V%X, [I]", pc, d.X)
	default:
		return fmt.Sprintf("%04X - ??     #%04X", pc, op)
	}
}
