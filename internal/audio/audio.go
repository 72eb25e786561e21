// Package audio is the external audio collaborator §1 puts out of
// scope for the core: a beep plays whenever the caller signals Play.
// Adapted from the teacher's ManageAudio method, generalized to the
// spec's channel-free Sound field by having the caller (cmd/run's
// dispatch loop, which signals on a 0 -> nonzero change of the guest's
// Sound timer) detect the transition and signal Play, rather than
// reaching into chip8.State itself.
package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Player decodes a beep sound once at startup and replays it from the
// start on every Play, matching the teacher's speaker.Play(streamer)
// call per audio event.
type Player struct {
	streamer beep.StreamSeeker
	events   chan struct{}
	done     chan struct{}
}

// NewPlayer opens and decodes the mp3 at path and initializes the
// speaker at its native sample rate. A decode failure is not fatal —
// mirroring the teacher's ManageAudio, which returns silently rather
// than panicking a ROM that happens to run without an assets
// directory — it yields a Player whose Play calls are no-ops.
func NewPlayer(path string) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Player{}, nil
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return &Player{}, nil
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}

	p := &Player{
		streamer: streamer,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	return p, nil
}

// Run plays a beep each time a caller signals Play, until stop fires.
// Intended to be started as a goroutine, mirroring the teacher's
// `for range vm.audioChan { speaker.Play(streamer) }` loop.
func (p *Player) Run(stop <-chan struct{}) {
	if p.streamer == nil {
		return
	}
	for {
		select {
		case <-stop:
			close(p.done)
			return
		case <-p.events:
			p.streamer.Seek(0)
			speaker.Play(p.streamer)
		}
	}
}

// Play signals one beep. Non-blocking: a beep already queued absorbs a
// second signal that arrives before Run drains the first, since a
// single-sample channel buffer is all the semantics need (the guest's
// Sound timer only ever asks for "play now", never for a count).
func (p *Player) Play() {
	if p.streamer == nil {
		return
	}
	select {
	case p.events <- struct{}{}:
	default:
	}
}
