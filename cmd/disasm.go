package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaidoh/chip8jit/internal/chip8"
)

// disasmCmd is a static, one-shot dump of a ROM's mnemonic stream,
// annotated with the same block boundaries the JIT's Block Translator
// would choose (§4.3): a divider prints after the first control-flow
// opcode in each run. There is no stepping, no breakpoints, and no
// live VM to inspect, so this does not reintroduce the "no debugger"
// non-goal — it is grounded on massung-CHIP-8's disasm.go, which is
// the same kind of static dump.
var disasmCmd = &cobra.Command{
	Use:   "disasm path/to/rom",
	Short: "print a ROM's instruction stream, annotated with JIT block boundaries",
	Args:  cobra.ExactArgs(1),
	Run:   runDisasm,
}

func runDisasm(cmd *cobra.Command, args []string) {
	s, err := chip8.LoadROMFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for pc := uint16(chip8.ProgramBase); int(pc) < chip8.MemSize-1; pc += 2 {
		op := chip8.FetchOp(s.RAM[:], pc)
		if op == 0 {
			continue
		}
		fmt.Println(chip8.Disassemble(s.RAM[:], pc))
		if chip8.IsControlFlow(chip8.Decode(op)) {
			fmt.Println("--------")
		}
	}
}
