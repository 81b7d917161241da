package state

import (
	"fmt"
	"math"

	"rpncalc/core-go/pkg/integrator"
	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
	"rpncalc/core-go/pkg/solver"
)

// Format versions that introduced optional fields.
const (
	// VersionBestPoints added the best and second best points of the solver.
	VersionBestPoints = 29
	// VersionPrevDepth added the saved stack depth of both continuations.
	VersionPrevDepth = 33
	// VersionImpatience added the solver's secant impatience counter.
	VersionImpatience = 45

	// FormatVersion is written by this package.
	FormatVersion = VersionImpatience
)

// LineMapper converts between program counters and line numbers, which
// survive program edits.
type LineMapper interface {
	PCToLine(prgm, pc int) int
	LineToPC(prgm, line int) int
}

// Programs maps lines through loaded programs.
type Programs []*program.Program

func (p Programs) PCToLine(prgm, pc int) int {
	if prgm < 0 || prgm >= len(p) {
		return 0
	}
	return p[prgm].PCToLine(pc)
}

func (p Programs) LineToPC(prgm, line int) int {
	if prgm < 0 || prgm >= len(p) {
		return -1
	}
	return p[prgm].LineToPC(line)
}

func writeCaller(w *Writer, active bool, caller program.Address, lines LineMapper) {
	if !active || lines == nil {
		w.Int(0)
		w.Int(0)
		return
	}
	w.Int(caller.Prgm)
	w.Int(lines.PCToLine(caller.Prgm, caller.PC))
}

// WriteSolve encodes the solve continuation. The caller position is written
// as a line number when the solve is active.
func WriteSolve(w *Writer, c *solver.Continuation, lines LineMapper) {
	w.Int(c.Version)
	w.Name(c.Prgm)
	w.Name(c.ActivePrgm)
	w.Name(c.Var)
	w.Bool(c.KeepRunning)
	writeCaller(w, c.Active(), c.Caller, lines)
	w.Int(int(c.Phase))
	w.Int(c.Which)
	w.Bool(c.Toggle)
	w.Int(c.RetryCounter)
	w.Int(c.Impatience)
	w.Float(c.RetryValue)
	w.Float(c.X1)
	w.Float(c.X2)
	w.Float(c.X3)
	w.Float(c.Fx1)
	w.Float(c.Fx2)
	w.Float(c.PrevX)
	w.Float(c.CurrX)
	w.Float(c.CurrF)
	w.Float(c.Xm)
	w.Float(c.Fxm)
	w.Float(c.BestF)
	w.Float(c.BestX)
	w.Float(c.SecondF)
	w.Float(c.SecondX)
	for i := range c.Shadows.Slots {
		w.Name(c.Shadows.Slots[i].Name)
		w.Float(c.Shadows.Slots[i].Value)
	}
	w.Uint32(c.LastDisplay)
	w.Int(c.PrevDepth)
}

// ReadSolve decodes a solve continuation written by format version ver.
func ReadSolve(r *Reader, ver int, lines LineMapper) (solver.Continuation, error) {
	c := solver.NewContinuation()
	c.Version = r.Int()
	c.Prgm = r.Name()
	c.ActivePrgm = r.Name()
	c.Var = r.Name()
	c.KeepRunning = r.Bool()
	prgm, line := r.Int(), r.Int()
	c.Phase = solver.Phase(r.Int())
	if c.Phase < solver.Inactive || c.Phase > solver.RiddersNew {
		return c, fmt.Errorf("state: solve record: bad phase %d", c.Phase)
	}
	c.Caller = program.Address{Prgm: prgm, PC: line}
	if c.Active() {
		c.Caller.PC = -1
		if lines != nil {
			c.Caller.PC = lines.LineToPC(prgm, line)
		}
	}
	c.Which = r.Int()
	c.Toggle = r.Bool()
	c.RetryCounter = r.Int()
	if ver >= VersionImpatience {
		c.Impatience = r.Int()
	}
	c.RetryValue = r.Float()
	c.X1 = r.Float()
	c.X2 = r.Float()
	c.X3 = r.Float()
	c.Fx1 = r.Float()
	c.Fx2 = r.Float()
	c.PrevX = r.Float()
	c.CurrX = r.Float()
	c.CurrF = r.Float()
	c.Xm = r.Float()
	c.Fxm = r.Float()
	if ver >= VersionBestPoints {
		c.BestF = r.Float()
		c.BestX = r.Float()
		c.SecondF = r.Float()
		c.SecondX = r.Float()
	} else {
		c.BestF, c.SecondF = solver.Huge, solver.Huge
		c.BestX, c.SecondX = 0, 0
	}
	for i := range c.Shadows.Slots {
		c.Shadows.Slots[i].Name = r.Name()
		c.Shadows.Slots[i].Value = r.Float()
	}
	c.LastDisplay = r.Uint32()
	if ver >= VersionPrevDepth {
		c.PrevDepth = r.Int()
	} else {
		c.PrevDepth = runtime.NoStackCleanup
	}
	c.FGap = math.NaN()
	c.FGapWorsening = 0
	if err := r.Err(); err != nil {
		return c, fmt.Errorf("state: solve record: %w", err)
	}
	return c, nil
}

// WriteInteg encodes the integrate continuation.
func WriteInteg(w *Writer, c *integrator.Continuation, lines LineMapper) {
	w.Int(c.Version)
	w.Name(c.Prgm)
	w.Name(c.ActivePrgm)
	w.Name(c.Var)
	w.Bool(c.KeepRunning)
	writeCaller(w, c.Active(), c.Caller, lines)
	w.Int(int(c.Phase))
	w.Float(c.Llim)
	w.Float(c.Ulim)
	w.Float(c.Acc)
	w.Float(c.A)
	w.Float(c.B)
	w.Float(c.Eps)
	w.Int(c.N)
	w.Int(c.M)
	w.Int(c.I)
	w.Int(c.K)
	w.Float(c.H)
	w.Float(c.Sum)
	for _, v := range c.C {
		w.Float(v)
	}
	for _, v := range c.S {
		w.Float(v)
	}
	w.Int(c.NSteps)
	w.Float(c.P)
	w.Float(c.T)
	w.Float(c.U)
	w.Float(c.PrevInt)
	w.Float(c.PrevRes)
	w.Int(c.PrevDepth)
}

// ReadInteg decodes an integrate continuation written by format version
// ver.
func ReadInteg(r *Reader, ver int, lines LineMapper) (integrator.Continuation, error) {
	c := integrator.NewContinuation()
	c.Version = r.Int()
	c.Prgm = r.Name()
	c.ActivePrgm = r.Name()
	c.Var = r.Name()
	c.KeepRunning = r.Bool()
	prgm, line := r.Int(), r.Int()
	c.Phase = integrator.Phase(r.Int())
	if c.Phase < integrator.Inactive || c.Phase > integrator.Accumulate {
		return c, fmt.Errorf("state: integ record: bad phase %d", c.Phase)
	}
	c.Caller = program.Address{Prgm: prgm, PC: line}
	if c.Active() {
		c.Caller.PC = -1
		if lines != nil {
			c.Caller.PC = lines.LineToPC(prgm, line)
		}
	}
	c.Llim = r.Float()
	c.Ulim = r.Float()
	c.Acc = r.Float()
	c.A = r.Float()
	c.B = r.Float()
	c.Eps = r.Float()
	c.N = r.Int()
	c.M = r.Int()
	c.I = r.Int()
	c.K = r.Int()
	c.H = r.Float()
	c.Sum = r.Float()
	for i := range c.C {
		c.C[i] = r.Float()
	}
	for i := range c.S {
		c.S[i] = r.Float()
	}
	c.NSteps = r.Int()
	c.P = r.Float()
	c.T = r.Float()
	c.U = r.Float()
	c.PrevInt = r.Float()
	c.PrevRes = r.Float()
	if ver >= VersionPrevDepth {
		c.PrevDepth = r.Int()
	} else {
		c.PrevDepth = runtime.NoStackCleanup
	}
	if err := r.Err(); err != nil {
		return c, fmt.Errorf("state: integ record: %w", err)
	}
	if c.K < 0 || c.K > integrator.RombK {
		return c, fmt.Errorf("state: integ record: bad table index %d", c.K)
	}
	return c, nil
}
