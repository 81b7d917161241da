package interpreter

import (
	"context"
	"errors"

	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

// Run executes the program at the current position until it stops, fails,
// ctx is cancelled or maxSteps instructions have run (maxSteps <= 0 means no
// limit). A run that is cut short returns StatusRun and stays resumable:
// calling Run again continues where it left off.
func (e *Engine) Run(ctx context.Context, maxSteps int) (runtime.Status, error) {
	if len(e.programs) == 0 {
		return runtime.StatusNone, runtime.ErrNonexistent
	}
	e.running = true
	for n := 0; maxSteps <= 0 || n < maxSteps; n++ {
		if err := ctx.Err(); err != nil {
			return runtime.StatusRun, err
		}
		if e.stopReq.Load() && !e.frames.Has(program.TargetSolver) && !e.frames.Has(program.TargetIntegrator) {
			e.stopReq.Store(false)
			e.halt()
			e.log.Debug().Int("prgm", e.pos.Prgm).Int("pc", e.pos.PC).Msg("stop requested")
			return runtime.StatusStop, nil
		}
		st, err := e.step()
		if err != nil {
			return runtime.StatusStop, err
		}
		if !e.running {
			return st, nil
		}
	}
	return runtime.StatusRun, nil
}

// halt leaves running mode; a position past the last instruction moves to
// the program top.
func (e *Engine) halt() {
	if p, err := e.current(); err == nil && e.pos.PC >= p.Size() {
		e.pos.PC = -1
	}
	e.running = false
}

// step fetches the instruction at the current position, advances past it
// and executes it.
func (e *Engine) step() (runtime.Status, error) {
	p, err := e.current()
	if err != nil {
		e.running = false
		return runtime.StatusStop, err
	}
	pc := e.pos.PC
	if pc < 0 {
		pc = 0
	}
	in, ok := p.At(pc)
	if !ok {
		e.running = false
		return runtime.StatusStop, e.wrap(runtime.ErrInternalError, program.Address{Prgm: e.pos.Prgm, PC: pc}, nil)
	}
	at := program.Address{Prgm: e.pos.Prgm, PC: pc}
	oldpc := e.pos.PC
	e.pos.PC = p.Next(pc)
	e.log.Trace().
		Int("prgm", at.Prgm).
		Int("pc", at.PC).
		Int("line", p.PCToLine(at.PC)).
		Str("op", in.Op.String()).
		Str("arg", in.Arg.String()).
		Msg("step")

	st, err := e.exec(in)
	if err == nil {
		return e.settle(st)
	}

	var errno runtime.Errno
	if errors.As(err, &errno) && errno.Trappable() && e.solver.Active() && e.frames.Has(program.TargetSolver) {
		f, _ := e.unwindToSolver()
		stop := e.takeStop(f)
		e.log.Debug().
			Err(err).
			Int("prgm", at.Prgm).
			Int("line", p.PCToLine(at.PC)).
			Msg("evaluation failure trapped by solver")
		st, rerr := e.solver.Resume(e, true, stop)
		if rerr == nil {
			return e.settle(st)
		}
		// the sentinel is gone, so the solve ends here
		err = rerr
	}
	e.ReconcileContinuations()
	e.pos = program.Address{Prgm: at.Prgm, PC: oldpc}
	e.noLift = false
	e.running = false
	e.log.Debug().Err(err).Int("prgm", at.Prgm).Int("pc", at.PC).Msg("program halted on error")
	return runtime.StatusStop, e.wrap(err, at, in)
}

// settle applies the status of a completed running-mode instruction.
func (e *Engine) settle(st runtime.Status) (runtime.Status, error) {
	e.liftDisabled = e.noLift
	e.noLift = false
	switch st {
	case runtime.StatusNo:
		if p, err := e.current(); err == nil {
			if in, ok := p.At(e.pos.PC); ok && in.Op != program.OpEnd {
				e.pos.PC = p.Next(e.pos.PC)
			}
		}
	case runtime.StatusStop:
		e.halt()
	}
	return st, nil
}

// Execute runs a single instruction from the keyboard, outside any running
// program. StatusRun means the instruction started a program (XEQ, SOLVE,
// INTEG); call Run to carry it out.
func (e *Engine) Execute(in *program.Instruction) (runtime.Status, error) {
	e.running = false
	e.log.Trace().Str("op", in.Op.String()).Str("arg", in.Arg.String()).Msg("execute")
	st, err := e.exec(in)
	if err != nil {
		e.noLift = false
		return runtime.StatusNone, e.wrap(err, e.pos, in)
	}
	e.liftDisabled = e.noLift
	e.noLift = false
	if st == runtime.StatusRun {
		e.running = true
	}
	return st, nil
}

func (e *Engine) wrap(err error, at program.Address, in *program.Instruction) error {
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	out := &Error{Err: err, Addr: at, Frames: e.frames.Frames()}
	if at.Prgm >= 0 && at.Prgm < len(e.programs) {
		out.Line = e.programs[at.Prgm].PCToLine(at.PC)
	}
	if in != nil {
		out.Op = in.Op
		out.HasOp = true
	}
	return out
}
