package interpreter

import (
	"math"

	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

// Goto jumps to the label named by arg. Outside a running program a
// successful jump also discards the return stack, ending any solve or
// integration whose sentinel goes with it. On failure neither the position
// nor the return stack changes.
func (e *Engine) Goto(arg *runtime.Operand) error {
	addr, err := e.resolveLabel(arg)
	if err != nil {
		return err
	}
	if !e.running {
		e.clearFrames()
	}
	e.pos = addr
	return nil
}

// Call jumps to the label named by arg. Inside a running program the
// current position is pushed as a return frame first; from the keyboard the
// return stack is discarded and StatusRun starts the program.
func (e *Engine) Call(arg *runtime.Operand) (runtime.Status, error) {
	if !e.running {
		if err := e.Goto(arg); err != nil {
			return runtime.StatusNone, err
		}
		return runtime.StatusRun, nil
	}
	if err := e.PushFrame(program.Frame{Kind: program.TargetUser, Addr: e.pos}); err != nil {
		return runtime.StatusNone, err
	}
	if err := e.Goto(arg); err != nil {
		e.frames.Pop()
		return runtime.StatusNone, err
	}
	return runtime.StatusNone, nil
}

// Return pops the top return frame. A solver or integrator sentinel hands
// control to that continuation instead of a program address. With nothing
// to return to, a running program stops.
func (e *Engine) Return() (runtime.Status, error) {
	if !e.running {
		e.clearFrames()
		e.pos.PC = -1
		return runtime.StatusNone, nil
	}
	f, ok := e.frames.Pop()
	if !ok {
		return runtime.StatusStop, nil
	}
	switch f.Kind {
	case program.TargetSolver:
		stop := e.takeStop(f)
		e.log.Debug().Bool("stop", stop).Msg("return to solver")
		return e.solver.Resume(e, false, stop)
	case program.TargetIntegrator:
		stop := e.takeStop(f)
		e.log.Debug().Bool("stop", stop).Msg("return to integrator")
		return e.integ.Resume(e, stop)
	default:
		e.pos = f.Addr
		if f.Stop {
			return runtime.StatusStop, nil
		}
		return runtime.StatusNone, nil
	}
}

// takeStop consumes a pending stop request when a sentinel frame is popped.
func (e *Engine) takeStop(f program.Frame) bool {
	return e.stopReq.Swap(false) || f.Stop
}

// unwindToSolver discards frames down to and including the solver sentinel.
// An integration whose sentinel is discarded on the way is abandoned.
func (e *Engine) unwindToSolver() (program.Frame, bool) {
	return e.frames.UnwindTo(program.TargetSolver, e.dropFrame)
}

// clearFrames empties the return stack.
func (e *Engine) clearFrames() {
	e.frames.Clear(e.dropFrame)
}

// dropFrame abandons the continuation a discarded sentinel would have
// resumed. A continuation is only in progress while its sentinel is on the
// return stack.
func (e *Engine) dropFrame(f program.Frame) {
	switch f.Kind {
	case program.TargetSolver:
		e.solver.Abandon()
	case program.TargetIntegrator:
		e.integ.Abandon()
	}
}

// ReconcileContinuations abandons a solve or integration whose sentinel is
// no longer on the return stack.
func (e *Engine) ReconcileContinuations() {
	if e.solver.Active() && !e.frames.Has(program.TargetSolver) {
		e.solver.Abandon()
	}
	if e.integ.Active() && !e.frames.Has(program.TargetIntegrator) {
		e.integ.Abandon()
	}
}

func (e *Engine) resolveLabel(arg *runtime.Operand) (program.Address, error) {
	if arg.Indirect() {
		direct, err := e.resolveIndirect(*arg)
		if err != nil {
			return program.Address{}, err
		}
		return e.resolveDirectLabel(&direct, false)
	}
	return e.resolveDirectLabel(arg, true)
}

func (e *Engine) resolveDirectLabel(arg *runtime.Operand, cache bool) (program.Address, error) {
	switch arg.Kind {
	case runtime.ArgNum, runtime.ArgLocalLabel:
		p, err := e.current()
		if err != nil {
			return program.Address{}, err
		}
		gen := e.labels.Generation()
		target, ok := arg.CachedTarget(gen)
		if !ok || !e.running {
			target = program.FindLocal(p, e.pos.PC, *arg)
			if cache && target != runtime.Unresolved {
				arg.CacheTarget(target, gen)
			}
		}
		if target == runtime.Unresolved {
			return program.Address{}, runtime.ErrLabelNotFound
		}
		return program.Address{Prgm: e.pos.Prgm, PC: target}, nil
	case runtime.ArgName:
		addr, ok := e.labels.FindGlobal(arg.Name)
		if !ok {
			return program.Address{}, runtime.ErrLabelNotFound
		}
		return addr, nil
	case runtime.ArgLabelIndex:
		l, ok := e.labels.Entry(arg.Num)
		if !ok {
			return program.Address{}, runtime.ErrLabelNotFound
		}
		return l.Addr, nil
	default:
		return program.Address{}, runtime.ErrInvalidType
	}
}

// maxIndirect bounds a register index or numeric label read through IND.
const maxIndirect = 2147483648.0

// resolveIndirect reads the register, stack slot or variable named by an
// IND operand and turns its contents into a direct operand: a real becomes a
// number, a string becomes a name.
func (e *Engine) resolveIndirect(arg runtime.Operand) (runtime.Operand, error) {
	var v runtime.Value
	var err error
	switch arg.Kind {
	case runtime.ArgIndNum:
		v, err = e.vars.Register(arg.Num)
	case runtime.ArgIndStack:
		v, err = e.stackSlot(arg.Stack)
	case runtime.ArgIndName:
		var ok bool
		v, ok = e.vars.Recall(arg.Name)
		if !ok {
			err = runtime.ErrNonexistent
		}
	default:
		return arg, nil
	}
	if err != nil {
		return runtime.Operand{}, err
	}
	switch val := v.(type) {
	case runtime.RealValue:
		x := math.Abs(val.Val)
		if x >= maxIndirect || math.IsNaN(x) {
			return runtime.Operand{}, runtime.ErrOutOfRange
		}
		return runtime.NumArg(int(x)), nil
	case runtime.StringValue:
		if len(val.Val) == 0 || len(val.Val) > runtime.MaxNameLength {
			return runtime.Operand{}, runtime.ErrInvalidData
		}
		return runtime.NameArg(runtime.Name(val.Val)), nil
	default:
		return runtime.Operand{}, runtime.ErrInvalidType
	}
}

// stackLevel maps a stack slot letter to a level; L (last x) maps to -1.
func stackLevel(slot byte) (int, bool) {
	switch slot {
	case 'X':
		return 0, true
	case 'Y':
		return 1, true
	case 'Z':
		return 2, true
	case 'T':
		return 3, true
	case 'L':
		return -1, true
	}
	return 0, false
}

func (e *Engine) stackSlot(slot byte) (runtime.Value, error) {
	level, ok := stackLevel(slot)
	if !ok {
		return nil, runtime.ErrInvalidData
	}
	if level < 0 {
		return e.stack.LastX(), nil
	}
	return e.stack.Peek(level)
}
