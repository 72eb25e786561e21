package main

import (
	"github.com/faiface/pixel/pixelgl"

	"github.com/kaidoh/chip8jit/cmd"
)

func main() {
	// pixelgl needs the main thread locked for the lifetime of any
	// window it opens, so the whole cobra dispatch runs inside
	// pixelgl.Run's callback rather than just the windowing code —
	// subcommands that never open a window (version, disasm) pay
	// nothing extra for this.
	pixelgl.Run(cmd.Execute)
}
