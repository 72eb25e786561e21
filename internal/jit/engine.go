package jit

import (
	"unsafe"

	"github.com/kaidoh/chip8jit/internal/chip8"
	"github.com/kaidoh/chip8jit/internal/hostexec"
)

// defaultExecSize is generous for a typical CHIP-8 ROM (§3's budget
// note: "enough for typical ROMs; an implementation may cap it").
const defaultExecSize = 4 << 20

// Engine is the execution dispatcher (§4.4): it looks up or compiles a
// block for the current guest PC, invokes it, and repeats, falling
// back to the reference interpreter whenever translation can't
// proceed or a compiled block reports a stack-discipline violation.
type Engine struct {
	State       *chip8.State
	Cache       *Cache
	translator  *Translator
	interpreter *chip8.Interpreter
	exec        *hostexec.Buffer
}

// NewEngine wires s to a freshly allocated executable buffer and
// installs the write hook the self-modification monitor needs (§4.5).
func NewEngine(s *chip8.State) (*Engine, error) {
	return NewEngineSize(s, defaultExecSize)
}

// NewEngineSize is NewEngine with an explicit buffer size, for tests
// and for callers that know their ROM's working set is unusually
// large or small.
func NewEngineSize(s *chip8.State, execSize int) (*Engine, error) {
	buf, err := hostexec.New(execSize)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		State:       s,
		Cache:       NewCache(),
		exec:        buf,
		interpreter: chip8.NewInterpreter(s),
	}
	e.translator = NewTranslator(buf)
	s.OnWrite = e.Cache.InvalidateRange
	return e, nil
}

// Close releases the executable buffer. The Engine must not be used
// afterward.
func (e *Engine) Close() error { return e.exec.Close() }

// Step advances the guest by one compiled block, compiling and caching
// one first if the current PC isn't already resident, and falls back
// to one interpreted instruction whenever the translator can't emit a
// block or a compiled block signals a stack over/underflow.
func (e *Engine) Step() error {
	pc := e.State.PC

	blk, ok := e.Cache.Lookup(pc)
	if !ok {
		compiled, err := e.translator.Compile(&e.State.RAM, pc)
		if err != nil {
			return e.interpreter.Step()
		}
		e.Cache.Install(compiled)
		blk, _ = e.Cache.Lookup(pc)
	}

	endPC := blk.EndPC
	hostexec.CallBlock(blk.Entry, unsafe.Pointer(e.State))

	if e.State.PC == overflowPC {
		// The block's earlier straight-line instructions, if any,
		// already ran and mutated State correctly; only the
		// call/ret terminal at endPC hit the stack-discipline
		// violation, so resume the interpreter there rather than
		// re-running the whole block from its start.
		e.State.PC = endPC
		return e.interpreter.Step()
	}
	return nil
}

// Run drives the dispatch loop until stop is closed or Step reports a
// fatal error (§7: unknown opcode, or a stack violation the fallback
// interpreter step turns into one). Mirrors the select-on-shutdown-
// channel outer loop shape the rest of this codebase's CLI uses.
func (e *Engine) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
}
