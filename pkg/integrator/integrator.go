package integrator

import (
	"github.com/rs/zerolog"

	"rpncalc/core-go/pkg/display"
	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

// Names of the variables holding the integration parameters.
const (
	LowerLimitVar runtime.Name = "LLIM"
	UpperLimitVar runtime.Name = "ULIM"
	AccuracyVar   runtime.Name = "ACC"
)

// Host is the part of the execution engine the integrator drives.
type Host interface {
	Stack() *runtime.Stack
	Variables() *runtime.Variables
	Position() program.Address
	SetPosition(addr program.Address)
	GotoGlobal(name runtime.Name) error
	PushFrame(f program.Frame) error
	Running() bool
	StopRequested() bool
	Display() display.Display
}

// Integrator owns the session's single integration continuation.
type Integrator struct {
	Cont Continuation
	log  zerolog.Logger
}

func New(log zerolog.Logger) *Integrator {
	return &Integrator{
		Cont: NewContinuation(),
		log:  log.With().Str("component", "integrator").Logger(),
	}
}

func (g *Integrator) Active() bool { return g.Cont.Active() }

// SetProgram records the program INTEG will evaluate.
func (g *Integrator) SetProgram(name runtime.Name) {
	g.Cont.Prgm = name
}

// Abandon drops an integration whose sentinel frame was discarded.
func (g *Integrator) Abandon() {
	if g.Cont.Active() {
		g.log.Debug().Str("var", string(g.Cont.Var)).Msg("integration abandoned")
	}
	g.Cont.Phase = Inactive
}

// readParam fetches a real parameter. A missing optional parameter reads
// as 0.
func readParam(vars *runtime.Variables, name runtime.Name, optional bool) (float64, error) {
	v, ok := vars.Recall(name)
	if !ok {
		if optional {
			return 0, nil
		}
		return 0, runtime.ErrNonexistent
	}
	switch val := v.(type) {
	case runtime.RealValue:
		return val.Val, nil
	case runtime.StringValue:
		return 0, runtime.ErrAlphaDataIsInvalid
	default:
		return 0, runtime.ErrInvalidType
	}
}

// Start integrates the active program over variable name between LLIM and
// ULIM to the relative accuracy in ACC.
func (g *Integrator) Start(h Host, name runtime.Name) (runtime.Status, error) {
	if g.Cont.Active() {
		return runtime.StatusNone, runtime.ErrIntegInteg
	}
	vars := h.Variables()
	llim, err := readParam(vars, LowerLimitVar, false)
	if err != nil {
		return runtime.StatusNone, err
	}
	ulim, err := readParam(vars, UpperLimitVar, false)
	if err != nil {
		return runtime.StatusNone, err
	}
	acc, err := readParam(vars, AccuracyVar, true)
	if err != nil {
		return runtime.StatusNone, err
	}

	c := &g.Cont
	c.Var = name
	c.ActivePrgm = c.Prgm
	c.Caller = h.Position()
	c.PrevDepth = h.Stack().CleanupMark()
	act := c.Begin(llim, ulim, acc)
	c.KeepRunning = !h.StopRequested() && h.Running()
	if !c.KeepRunning {
		h.Display().Status("Integrating", "")
	}
	g.log.Debug().
		Str("var", string(name)).
		Str("prgm", string(c.ActivePrgm)).
		Float64("llim", llim).
		Float64("ulim", ulim).
		Float64("acc", c.Acc).
		Msg("integration started")
	st, err := g.dispatch(h, act)
	if err != nil {
		c.Phase = Inactive
	}
	return st, err
}

// Resume is entered when the integrator sentinel frame is popped, with the
// integrand value in X.
func (g *Integrator) Resume(h Host, stop bool) (runtime.Status, error) {
	c := &g.Cont
	if stop {
		c.KeepRunning = false
	}
	if !c.Active() {
		return runtime.StatusNone, runtime.ErrInternalError
	}
	var y float64
	if c.Phase == Accumulate {
		x, err := h.Stack().X()
		if err != nil {
			return runtime.StatusNone, runtime.ErrTooFewArguments
		}
		switch val := x.(type) {
		case runtime.RealValue:
			y = val.Val
		case runtime.StringValue:
			return runtime.StatusNone, runtime.ErrAlphaDataIsInvalid
		default:
			return runtime.StatusNone, runtime.ErrInvalidType
		}
	}
	level := c.N
	act, err := c.Advance(y)
	if err != nil {
		return runtime.StatusNone, err
	}
	if c.N != level {
		g.log.Debug().
			Int("level", level).
			Float64("estimate", c.PrevRes).
			Float64("eps", c.Eps).
			Msg("integration level complete")
	}
	st, err := g.dispatch(h, act)
	if err != nil {
		c.Phase = Inactive
	}
	return st, err
}

func (g *Integrator) dispatch(h Host, act Action) (runtime.Status, error) {
	if act.Kind == Finish {
		return g.finish(h, act.Result)
	}
	return g.call(h, act.X)
}

func (g *Integrator) call(h Host, u float64) (runtime.Status, error) {
	c := &g.Cont
	if c.ActivePrgm == "" {
		return runtime.StatusNone, runtime.ErrNonexistent
	}
	if err := h.Variables().Store(c.Var, runtime.RealValue{Val: u}); err != nil {
		return runtime.StatusNone, err
	}
	h.Stack().Truncate(c.PrevDepth)
	if err := h.GotoGlobal(c.ActivePrgm); err != nil {
		return runtime.StatusNone, err
	}
	if err := h.PushFrame(program.Frame{Kind: program.TargetIntegrator}); err != nil {
		h.SetPosition(c.Caller)
		return runtime.StatusNone, err
	}
	return runtime.StatusRun, nil
}

// finish leaves X=estimate and Y=error on the stack.
func (g *Integrator) finish(h Host, r Result) (runtime.Status, error) {
	c := &g.Cont
	st := h.Stack()
	st.Truncate(c.PrevDepth)
	st.Push(runtime.RealValue{Val: r.Error})
	st.Push(runtime.RealValue{Val: r.Value})
	h.SetPosition(c.Caller)
	g.log.Debug().
		Str("var", string(c.Var)).
		Float64("value", r.Value).
		Float64("error", r.Error).
		Int("levels", c.N).
		Msg("integration finished")
	if !c.KeepRunning {
		h.Display().Result("∫="+display.FormatReal(r.Value), "")
		return runtime.StatusStop, nil
	}
	return runtime.StatusNone, nil
}
