package solver

import (
	"strings"

	"github.com/rs/zerolog"

	"rpncalc/core-go/pkg/display"
	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

// Host is the part of the execution engine the solver drives.
type Host interface {
	Stack() *runtime.Stack
	Variables() *runtime.Variables
	Position() program.Address
	SetPosition(addr program.Address)
	// GotoGlobal jumps to the global label name.
	GotoGlobal(name runtime.Name) error
	PushFrame(f program.Frame) error
	// Running reports whether a program is executing.
	Running() bool
	// StopRequested reports whether execution should halt at this level.
	StopRequested() bool
	Display() display.Display
	// Milliseconds is a wrapping millisecond clock.
	Milliseconds() uint32
}

// DefaultRefreshMillis is the minimum interval between progress displays.
const DefaultRefreshMillis = 250

// Solver owns the session's single solve continuation.
type Solver struct {
	Cont          Continuation
	RefreshMillis uint32
	log           zerolog.Logger
}

func New(log zerolog.Logger) *Solver {
	return &Solver{
		Cont:          NewContinuation(),
		RefreshMillis: DefaultRefreshMillis,
		log:           log.With().Str("component", "solver").Logger(),
	}
}

func (s *Solver) Active() bool { return s.Cont.Active() }

// SetProgram records the program SOLVE will evaluate.
func (s *Solver) SetProgram(name runtime.Name) {
	s.Cont.Prgm = name
}

// Abandon ends a solve whose sentinel frame was discarded. The program
// name and shadows survive for the next SOLVE.
func (s *Solver) Abandon() {
	if s.Cont.Active() {
		s.log.Debug().Str("var", string(s.Cont.Var)).Msg("solve abandoned")
	}
	s.Cont.Phase = Inactive
}

// Start begins solving for variable name from guesses x1 and x2. It fails
// with ErrSolveSolve, leaving the active solve untouched, if one is already
// running. On success the host is positioned in the target program with the
// solver sentinel pushed and StatusRun is returned.
func (s *Solver) Start(h Host, name runtime.Name, x1, x2 float64) (runtime.Status, error) {
	if s.Cont.Active() {
		return runtime.StatusNone, runtime.ErrSolveSolve
	}
	c := &s.Cont
	c.Var = name
	c.ActivePrgm = c.Prgm
	c.Caller = h.Position()
	c.PrevDepth = h.Stack().CleanupMark()
	act := c.Begin(x1, x2)
	c.KeepRunning = !h.StopRequested() && h.Running()
	s.log.Debug().
		Str("var", string(name)).
		Str("prgm", string(c.ActivePrgm)).
		Float64("x1", c.X1).
		Float64("x2", c.X2).
		Bool("keep_running", c.KeepRunning).
		Msg("solve started")
	st, err := s.dispatch(h, act)
	if err != nil {
		c.Phase = Inactive
	}
	return st, err
}

// Resume is entered when the solver sentinel frame is popped, or with
// failure set when the target program raised a trappable error. stop
// clears keep-running so the result is shown interactively.
func (s *Solver) Resume(h Host, failure, stop bool) (runtime.Status, error) {
	c := &s.Cont
	if stop {
		c.KeepRunning = false
	}
	if !c.Active() {
		return runtime.StatusNone, runtime.ErrInternalError
	}
	ev := Evaluation{OK: !failure}
	if ev.OK {
		x, err := h.Stack().X()
		if err != nil {
			return runtime.StatusNone, runtime.ErrTooFewArguments
		}
		f, ok := runtime.AsReal(x)
		ev.OK = ok
		ev.F = f
	}
	if !(ev.OK && ev.F == 0) {
		s.showProgress(h, ev)
	}
	phase := c.Phase
	act, err := c.Advance(ev)
	if err != nil {
		return runtime.StatusNone, err
	}
	s.log.Debug().
		Str("phase", phase.String()).
		Bool("ok", ev.OK).
		Float64("f", ev.F).
		Str("next", c.Phase.String()).
		Float64("x1", c.X1).
		Float64("x2", c.X2).
		Msg("solve step")
	st, err := s.dispatch(h, act)
	if err != nil {
		c.Phase = Inactive
	}
	return st, err
}

func (s *Solver) dispatch(h Host, act Action) (runtime.Status, error) {
	if act.Kind == Finish {
		return s.finish(h, act.Result)
	}
	return s.call(h, act.X)
}

// call stores x in the solve variable and enters the target program.
func (s *Solver) call(h Host, x float64) (runtime.Status, error) {
	c := &s.Cont
	if c.ActivePrgm == "" {
		return runtime.StatusNone, runtime.ErrNonexistent
	}
	if err := h.Variables().Store(c.Var, runtime.RealValue{Val: x}); err != nil {
		return runtime.StatusNone, err
	}
	h.Stack().Truncate(c.PrevDepth)
	if err := h.GotoGlobal(c.ActivePrgm); err != nil {
		return runtime.StatusNone, err
	}
	if err := h.PushFrame(program.Frame{Kind: program.TargetSolver}); err != nil {
		h.SetPosition(c.Caller)
		return runtime.StatusNone, err
	}
	return runtime.StatusRun, nil
}

// finish leaves X=root, Y=second best, Z=f(root), T=code on the stack and
// returns to the caller.
func (s *Solver) finish(h Host, r Result) (runtime.Status, error) {
	c := &s.Cont
	st := h.Stack()
	st.Truncate(c.PrevDepth)
	if err := h.Variables().Store(c.Var, runtime.RealValue{Val: r.Root}); err != nil {
		return runtime.StatusNone, err
	}
	st.Push(runtime.RealValue{Val: float64(r.Code)})
	st.Push(runtime.RealValue{Val: r.F})
	st.Push(runtime.RealValue{Val: r.Second})
	st.Push(runtime.RealValue{Val: r.Root})
	h.SetPosition(c.Caller)

	s.log.Debug().
		Str("var", string(c.Var)).
		Float64("root", r.Root).
		Float64("f", r.F).
		Str("code", r.Code.String()).
		Msg("solve finished")

	if !c.KeepRunning {
		h.Display().Result(string(c.Var)+"="+display.FormatReal(r.Root), r.Code.Message())
		return runtime.StatusStop, nil
	}
	return runtime.StatusNone, nil
}

// showProgress redraws the current and previous points, with the sign of
// their function values, at most once per refresh interval.
func (s *Solver) showProgress(h Host, ev Evaluation) {
	c := &s.Cont
	now := h.Milliseconds()
	if now < c.LastDisplay {
		// clock wrapped
		c.LastDisplay = 0
	}
	if c.KeepRunning || c.Phase <= EvalFirst || now < c.LastDisplay+s.RefreshMillis {
		return
	}
	c.LastDisplay = now
	currSign := byte('?')
	if ev.OK {
		currSign = signOf(ev.F)
	}
	prevSign := byte('?')
	if c.CurrF != Huge {
		prevSign = signOf(c.CurrF)
	}
	h.Display().Status(progressLine(c.CurrX, currSign), progressLine(c.PrevX, prevSign))
}

func signOf(f float64) byte {
	if f > 0 {
		return '+'
	}
	return '-'
}

func progressLine(x float64, sign byte) string {
	text := display.FormatReal(x)
	if pad := display.Width - 1 - len(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}
	return text + string(sign)
}
