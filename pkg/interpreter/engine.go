package interpreter

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"rpncalc/core-go/pkg/display"
	"rpncalc/core-go/pkg/integrator"
	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
	"rpncalc/core-go/pkg/solver"
)

// Options configures a new Engine.
type Options struct {
	// BigStack selects the dynamic depth stack instead of the classic four
	// levels.
	BigStack bool
	// MaxFrames bounds the return stack; zero means program.DefaultMaxFrames.
	MaxFrames int
	Display   display.Display
	Logger    *zerolog.Logger
	// Clock overrides the millisecond clock used to throttle progress output.
	Clock func() uint32
	// RefreshMillis overrides the solver progress interval.
	RefreshMillis uint32
}

// Engine runs programs one instruction at a time. It owns the session's
// evaluation stack, variables, return frames and the solve and integrate
// continuations, and serves as the host both algorithms call back into.
type Engine struct {
	programs []*program.Program
	labels   program.LabelTable
	frames   *program.FrameStack
	stack    *runtime.Stack
	vars     *runtime.Variables

	solver *solver.Solver
	integ  *integrator.Integrator

	display display.Display
	log     zerolog.Logger
	clock   func() uint32

	pos     program.Address
	running bool
	// liftDisabled is set by ENTER and CLX: the next value entered
	// overwrites X instead of lifting the stack.
	liftDisabled bool
	noLift       bool
	stopReq      atomic.Bool
}

var (
	_ solver.Host     = (*Engine)(nil)
	_ integrator.Host = (*Engine)(nil)
)

func NewEngine(opts Options) *Engine {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	disp := opts.Display
	if disp == nil {
		disp = display.Discard{}
	}
	clock := opts.Clock
	if clock == nil {
		start := time.Now()
		clock = func() uint32 { return uint32(time.Since(start).Milliseconds()) }
	}
	e := &Engine{
		frames:  program.NewFrameStack(opts.MaxFrames),
		stack:   runtime.NewStack(opts.BigStack),
		vars:    runtime.NewVariables(),
		solver:  solver.New(log),
		integ:   integrator.New(log),
		display: disp,
		log:     log.With().Str("component", "engine").Logger(),
		clock:   clock,
		pos:     program.Address{Prgm: 0, PC: -1},
	}
	if opts.RefreshMillis > 0 {
		e.solver.RefreshMillis = opts.RefreshMillis
	}
	return e
}

// Load replaces the loaded programs, rebuilds the label table and resets
// the position to the top of the first program. The return stack is
// cleared, which abandons any solve or integration in progress.
func (e *Engine) Load(programs []*program.Program) {
	e.programs = programs
	e.Relabel()
	e.clearFrames()
	e.running = false
	e.pos = program.Address{Prgm: 0, PC: -1}
}

// Relabel rebuilds the label table after programs were edited in place.
// Jump targets cached in operands become stale.
func (e *Engine) Relabel() {
	for _, p := range e.programs {
		p.Invalidate()
	}
	e.labels.Rebuild(e.programs)
	e.log.Debug().
		Int("programs", len(e.programs)).
		Int("labels", e.labels.Len()).
		Uint64("generation", e.labels.Generation()).
		Msg("labels rebuilt")
}

func (e *Engine) Programs() []*program.Program { return e.programs }

func (e *Engine) Labels() *program.LabelTable { return &e.labels }

func (e *Engine) Solver() *solver.Solver { return e.solver }

func (e *Engine) Integrator() *integrator.Integrator { return e.integ }

// Frames returns a copy of the return stack, bottom first.
func (e *Engine) Frames() []program.Frame { return e.frames.Frames() }

// RestoreFrames replaces the return stack, as when loading a session.
func (e *Engine) RestoreFrames(frames []program.Frame) { e.frames.Restore(frames) }

// SetRunning marks whether the current position is inside a running
// program. Run sets it itself; loaders use it to restore a suspended run.
func (e *Engine) SetRunning(running bool) { e.running = running }

// SetDisplay swaps the display collaborator.
func (e *Engine) SetDisplay(d display.Display) {
	if d == nil {
		d = display.Discard{}
	}
	e.display = d
}

// RequestStop asks a running program to halt. Outside any solve or
// integration the run halts at the next instruction boundary; otherwise the
// innermost algorithm finishes and reports its result interactively.
func (e *Engine) RequestStop() { e.stopReq.Store(true) }

// Host implementation shared by the solver and the integrator.

func (e *Engine) Stack() *runtime.Stack { return e.stack }

func (e *Engine) Variables() *runtime.Variables { return e.vars }

func (e *Engine) Position() program.Address { return e.pos }

func (e *Engine) SetPosition(addr program.Address) { e.pos = addr }

func (e *Engine) Running() bool { return e.running }

func (e *Engine) StopRequested() bool { return e.stopReq.Load() }

func (e *Engine) Display() display.Display { return e.display }

func (e *Engine) Milliseconds() uint32 { return e.clock() }

// GotoGlobal positions the engine on the global label name. Outside a
// running program the return stack is discarded first, so an interactive
// SOLVE or INTEG starts from an empty stack.
func (e *Engine) GotoGlobal(name runtime.Name) error {
	addr, ok := e.labels.FindGlobal(name)
	if !ok {
		return runtime.ErrLabelNotFound
	}
	if !e.running {
		e.clearFrames()
	}
	e.pos = addr
	return nil
}

// PushFrame pushes f, recording whether a stop is pending.
func (e *Engine) PushFrame(f program.Frame) error {
	f.Stop = f.Stop || e.stopReq.Load()
	return e.frames.Push(f)
}

// EnterSolveVariable stores v into name the way the solver's variable menu
// does: the previous real value is kept as a shadow and becomes the second
// guess of the next SOLVE.
func (e *Engine) EnterSolveVariable(name runtime.Name, v runtime.Value) error {
	shadows := &e.solver.Cont.Shadows
	if old, ok := e.vars.Recall(name); ok {
		if x, isReal := runtime.AsReal(old); isReal {
			shadows.Put(name, x)
		} else {
			shadows.Remove(name)
		}
	} else {
		shadows.Remove(name)
	}
	return e.vars.Store(name, v)
}

func (e *Engine) current() (*program.Program, error) {
	if e.pos.Prgm < 0 || e.pos.Prgm >= len(e.programs) {
		return nil, runtime.ErrNonexistent
	}
	return e.programs[e.pos.Prgm], nil
}

// Line reports the current position as a 1-based line number.
func (e *Engine) Line() int {
	p, err := e.current()
	if err != nil {
		return 0
	}
	return p.PCToLine(e.pos.PC)
}
