package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kaidoh/chip8jit/internal/audio"
	"github.com/kaidoh/chip8jit/internal/chip8"
	"github.com/kaidoh/chip8jit/internal/display"
	"github.com/kaidoh/chip8jit/internal/jit"
)

var (
	runSpeed  int
	runScale  float64
	runInterp bool
)

// runCmd runs a ROM through the JIT (or, with --interp, the reference
// interpreter alone) and waits for the display window to close.
var runCmd = &cobra.Command{
	Use:   "run path/to/rom",
	Short: "run a ROM",
	Args:  cobra.ExactArgs(1),
	Run:   runROM,
}

func init() {
	runCmd.Flags().IntVar(&runSpeed, "speed", 500, "guest cycles per second")
	runCmd.Flags().Float64Var(&runScale, "scale", 16, "display window scale factor, pixels per guest pixel")
	runCmd.Flags().BoolVar(&runInterp, "interp", false, "force the reference interpreter instead of the JIT (for A/B comparison)")
}

// stepper is the common shape of jit.Engine and chip8.Interpreter that
// runROM's dispatch loop needs; --interp swaps which one backs it
// without touching the loop itself.
type stepper interface {
	Step() error
}

func runROM(cmd *cobra.Command, args []string) {
	s, err := chip8.LoadROMFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var step stepper
	if runInterp {
		step = chip8.NewInterpreter(s)
	} else {
		e, err := jit.NewEngine(s)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer e.Close()
		step = e
	}

	win, err := display.NewWindow(fmt.Sprintf("chip8jit - %s", args[0]), runScale)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	player, err := audio.NewPlayer("assets/beep.mp3")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	audioStop := make(chan struct{})
	go player.Run(audioStop)
	defer close(audioStop)

	ticker := time.NewTicker(time.Second / time.Duration(runSpeed))
	defer ticker.Stop()

	wasSound := s.Sound
	for range ticker.C {
		if win.Closed() {
			return
		}

		if err := step.Step(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}

		// Rising edge: a new Fx18 request started a beep. Checking for
		// the exact "about to reach 0" instant the teacher's single-
		// instruction loop used isn't reliable here since one Step can
		// advance the guest's 60Hz timer past several boundaries in
		// one call, so a transition away from silence is what this
		// loop can observe precisely instead.
		if wasSound == 0 && s.Sound > 0 {
			player.Play()
		}
		wasSound = s.Sound

		if s.Draw {
			win.Draw(s.Display)
			s.Draw = false
		} else {
			win.UpdateInput()
		}
	}
}
