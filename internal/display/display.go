// Package display is the external video-surface collaborator §1 puts
// out of scope for the JIT core: it consumes the guest's packed
// bitplane and redraw flag and renders them, and polls the host
// keyboard for the hex keypad layout. Nothing here feeds back into
// chip8.State — the keypad opcodes (Ex9E/ExA1/Fx0A) are deliberately
// absent from the core (see DESIGN.md), so key state is read but never
// wired to a guest register.
package display

import (
	"fmt"
	"time"

	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"
	"golang.org/x/image/colornames"

	"github.com/kaidoh/chip8jit/internal/chip8"
)

const (
	gridX float64 = chip8.DisplayCols
	gridY float64 = chip8.DisplayRows
)

// Window embeds a pixelgl window scaled by a caller-chosen factor, a
// keymap from CHIP-8 hex digit to host key, and a per-key ticker array
// (KeysDown) that nothing in this package reads or sets.
type Window struct {
	*pixelgl.Window
	KeyMap   map[uint16]pixelgl.Button
	KeysDown [16]*time.Ticker
	scale    float64
}

// NewWindow opens a window scale pixels-per-guest-pixel wide, titled
// for the running ROM. Grounded on the teacher's pixel.NewWindow, with
// the previously hardcoded 1024x768 bounds replaced by scale so
// cmd/run's --scale flag can size the window (§AMBIENT STACK Config).
func NewWindow(title string, scale float64) (*Window, error) {
	if scale <= 0 {
		scale = 16
	}
	cfg := pixelgl.WindowConfig{
		Title:  title,
		Bounds: pixel.R(0, 0, gridX*scale, gridY*scale),
		VSync:  true,
	}
	w, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening display window: %w", err)
	}
	km := map[uint16]pixelgl.Button{
		0x1: pixelgl.Key1, 0x2: pixelgl.Key2,
		0x3: pixelgl.Key3, 0xC: pixelgl.Key4,
		0x4: pixelgl.KeyQ, 0x5: pixelgl.KeyW,
		0x6: pixelgl.KeyE, 0xD: pixelgl.KeyR,
		0x7: pixelgl.KeyA, 0x8: pixelgl.KeyS,
		0x9: pixelgl.KeyD, 0xE: pixelgl.KeyF,
		0xA: pixelgl.KeyZ, 0x0: pixelgl.KeyX,
		0xB: pixelgl.KeyC, 0xF: pixelgl.KeyV,
	}
	return &Window{
		Window: w,
		KeyMap: km,
		scale:  scale,
	}, nil
}

// Draw renders the 32-row packed bitplane, one filled rectangle per
// lit bit. Generalized from the teacher's DrawGraphics, which indexed
// a flat [64*32]byte grid; this walks chip8.State.Display's row-major
// uint64 rows instead; row 0 is the top of the screen, matching
// chip8.State.PixelAt's (x, y) convention.
func (w *Window) Draw(gfx [chip8.DisplayRows]uint64) {
	w.Clear(colornames.Black)
	im := imdraw.New(nil)
	im.Color = pixel.RGB(1, 1, 1)

	for y := 0; y < chip8.DisplayRows; y++ {
		row := gfx[y]
		if row == 0 {
			continue
		}
		flipped := float64(chip8.DisplayRows-1-y) * w.scale
		for x := 0; x < chip8.DisplayCols; x++ {
			if row&(uint64(1)<<uint(x)) == 0 {
				continue
			}
			px := float64(x) * w.scale
			im.Push(pixel.V(px, flipped))
			im.Push(pixel.V(px+w.scale, flipped+w.scale))
			im.Rectangle(0)
		}
	}

	im.Draw(w)
	w.Update()
}

// PressedKeys returns the hex digits of every key currently held,
// polled from the underlying pixelgl window. Not consumed by the core
// (§1, DESIGN.md), but kept so a future keypad-aware build has
// somewhere to read from without touching internal/display's shape.
func (w *Window) PressedKeys() []uint16 {
	var down []uint16
	for digit, key := range w.KeyMap {
		if w.Pressed(key) {
			down = append(down, digit)
		}
	}
	return down
}
