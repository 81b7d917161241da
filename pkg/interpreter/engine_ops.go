package interpreter

import (
	"math"

	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

func (e *Engine) exec(in *program.Instruction) (runtime.Status, error) {
	switch in.Op {
	case program.OpNumber:
		e.enter(runtime.RealValue{Val: in.Arg.Number})
		return runtime.StatusNone, nil
	case program.OpString:
		e.enter(runtime.StringValue{Val: append([]byte(nil), in.Text...)})
		return runtime.StatusNone, nil
	case program.OpEnter:
		x, err := e.stack.X()
		if err != nil {
			return runtime.StatusNone, err
		}
		e.stack.Push(runtime.Copy(x))
		e.noLift = true
		return runtime.StatusNone, nil
	case program.OpSwap:
		x, err := e.stack.Peek(0)
		if err != nil {
			return runtime.StatusNone, err
		}
		y, err := e.stack.Peek(1)
		if err != nil {
			return runtime.StatusNone, err
		}
		return runtime.StatusNone, e.stack.Consume(2, x, y)
	case program.OpDrop:
		_, err := e.stack.Pop()
		return runtime.StatusNone, err
	case program.OpClx:
		e.stack.ReplaceX(runtime.RealValue{})
		e.noLift = true
		return runtime.StatusNone, nil
	case program.OpLastX:
		e.enter(runtime.Copy(e.stack.LastX()))
		return runtime.StatusNone, nil
	case program.OpAdd, program.OpSub, program.OpMul, program.OpDiv, program.OpPow:
		return runtime.StatusNone, e.binary(in.Op)
	case program.OpChs, program.OpSquare, program.OpSqrt, program.OpInv, program.OpSin,
		program.OpCos, program.OpTan, program.OpExp, program.OpLn, program.OpAbs:
		return runtime.StatusNone, e.unary(in.Op)
	case program.OpSto:
		return runtime.StatusNone, e.store(in.Arg)
	case program.OpRcl:
		return runtime.StatusNone, e.recall(in.Arg)
	case program.OpLbl:
		return runtime.StatusNone, nil
	case program.OpGto:
		return runtime.StatusNone, e.Goto(&in.Arg)
	case program.OpXeq:
		return e.Call(&in.Arg)
	case program.OpRtn, program.OpEnd:
		return e.Return()
	case program.OpStop:
		return runtime.StatusStop, nil
	case program.OpXEq0, program.OpXNe0, program.OpXLt0, program.OpXGt0, program.OpXLtY:
		return e.test(in.Op)
	case program.OpPgmSlv, program.OpPgmInt:
		name, err := e.programName(in.Arg)
		if err != nil {
			return runtime.StatusNone, err
		}
		if in.Op == program.OpPgmSlv {
			e.solver.SetProgram(name)
		} else {
			e.integ.SetProgram(name)
		}
		return runtime.StatusNone, nil
	case program.OpSolve:
		return e.solve(in.Arg)
	case program.OpInteg:
		name, err := e.varName(in.Arg)
		if err != nil {
			return runtime.StatusNone, err
		}
		return e.integ.Start(e, name)
	default:
		return runtime.StatusNone, runtime.ErrInternalError
	}
}

// enter places v in X, lifting the stack unless the previous instruction
// disabled lift.
func (e *Engine) enter(v runtime.Value) {
	if e.liftDisabled && e.stack.Depth() > 0 {
		e.stack.ReplaceX(v)
		return
	}
	e.stack.Push(v)
}

func realArg(v runtime.Value) (float64, error) {
	switch val := v.(type) {
	case runtime.RealValue:
		return val.Val, nil
	case runtime.StringValue:
		return 0, runtime.ErrAlphaDataIsInvalid
	default:
		return 0, runtime.ErrInvalidType
	}
}

// checkResult maps non-finite arithmetic results onto errors.
func checkResult(r float64) (runtime.Value, error) {
	if math.IsNaN(r) {
		return nil, runtime.ErrInvalidData
	}
	if math.IsInf(r, 0) {
		return nil, runtime.ErrOutOfRange
	}
	return runtime.RealValue{Val: r}, nil
}

func (e *Engine) binary(op program.Opcode) error {
	xv, err := e.stack.Peek(0)
	if err != nil {
		return err
	}
	yv, err := e.stack.Peek(1)
	if err != nil {
		return err
	}
	x, err := realArg(xv)
	if err != nil {
		return err
	}
	y, err := realArg(yv)
	if err != nil {
		return err
	}
	var r float64
	switch op {
	case program.OpAdd:
		r = y + x
	case program.OpSub:
		r = y - x
	case program.OpMul:
		r = y * x
	case program.OpDiv:
		if x == 0 {
			return runtime.ErrDivideBy0
		}
		r = y / x
	case program.OpPow:
		if y == 0 && x < 0 {
			return runtime.ErrInvalidData
		}
		r = math.Pow(y, x)
	}
	res, err := checkResult(r)
	if err != nil {
		return err
	}
	if err := e.stack.Consume(2, res); err != nil {
		return err
	}
	e.stack.SetLastX(xv)
	return nil
}

func (e *Engine) unary(op program.Opcode) error {
	xv, err := e.stack.X()
	if err != nil {
		return err
	}
	x, err := realArg(xv)
	if err != nil {
		return err
	}
	var r float64
	switch op {
	case program.OpChs:
		r = -x
	case program.OpSquare:
		r = x * x
	case program.OpSqrt:
		if x < 0 {
			return runtime.ErrInvalidData
		}
		r = math.Sqrt(x)
	case program.OpInv:
		if x == 0 {
			return runtime.ErrDivideBy0
		}
		r = 1 / x
	case program.OpSin:
		r = math.Sin(x)
	case program.OpCos:
		r = math.Cos(x)
	case program.OpTan:
		r = math.Tan(x)
	case program.OpExp:
		r = math.Exp(x)
	case program.OpLn:
		if x <= 0 {
			return runtime.ErrInvalidData
		}
		r = math.Log(x)
	case program.OpAbs:
		r = math.Abs(x)
	}
	res, err := checkResult(r)
	if err != nil {
		return err
	}
	e.stack.ReplaceX(res)
	if op != program.OpChs {
		e.stack.SetLastX(xv)
	}
	return nil
}

// direct resolves an IND operand; other operands are returned unchanged.
func (e *Engine) direct(arg runtime.Operand) (runtime.Operand, error) {
	if !arg.Indirect() {
		return arg, nil
	}
	return e.resolveIndirect(arg)
}

func (e *Engine) store(arg runtime.Operand) error {
	x, err := e.stack.X()
	if err != nil {
		return err
	}
	arg, err = e.direct(arg)
	if err != nil {
		return err
	}
	switch arg.Kind {
	case runtime.ArgName:
		return e.vars.Store(arg.Name, runtime.Copy(x))
	case runtime.ArgNum:
		return e.vars.SetRegister(arg.Num, x)
	case runtime.ArgStack:
		level, ok := stackLevel(arg.Stack)
		if !ok {
			return runtime.ErrInvalidData
		}
		if level < 0 {
			e.stack.SetLastX(runtime.Copy(x))
			return nil
		}
		return e.stack.Set(level, runtime.Copy(x))
	default:
		return runtime.ErrInvalidType
	}
}

func (e *Engine) recall(arg runtime.Operand) error {
	arg, err := e.direct(arg)
	if err != nil {
		return err
	}
	var v runtime.Value
	switch arg.Kind {
	case runtime.ArgName:
		val, ok := e.vars.Recall(arg.Name)
		if !ok {
			return runtime.ErrNonexistent
		}
		v = val
	case runtime.ArgNum:
		v, err = e.vars.Register(arg.Num)
	case runtime.ArgStack:
		v, err = e.stackSlot(arg.Stack)
	default:
		return runtime.ErrInvalidType
	}
	if err != nil {
		return err
	}
	e.enter(runtime.Copy(v))
	return nil
}

func (e *Engine) test(op program.Opcode) (runtime.Status, error) {
	xv, err := e.stack.X()
	if err != nil {
		return runtime.StatusNone, err
	}
	x, err := realArg(xv)
	if err != nil {
		return runtime.StatusNone, err
	}
	var ok bool
	switch op {
	case program.OpXEq0:
		ok = x == 0
	case program.OpXNe0:
		ok = x != 0
	case program.OpXLt0:
		ok = x < 0
	case program.OpXGt0:
		ok = x > 0
	case program.OpXLtY:
		yv, err := e.stack.Peek(1)
		if err != nil {
			return runtime.StatusNone, err
		}
		y, err := realArg(yv)
		if err != nil {
			return runtime.StatusNone, err
		}
		ok = x < y
	}
	if !ok {
		return runtime.StatusNo, nil
	}
	return runtime.StatusNone, nil
}

// varName resolves the name operand of SOLVE and INTEG.
func (e *Engine) varName(arg runtime.Operand) (runtime.Name, error) {
	arg, err := e.direct(arg)
	if err != nil {
		return "", err
	}
	if arg.Kind != runtime.ArgName {
		return "", runtime.ErrInvalidType
	}
	return arg.Name, nil
}

// programName resolves the operand of PGMSLV and PGMINT, which must name a
// global label.
func (e *Engine) programName(arg runtime.Operand) (runtime.Name, error) {
	name, err := e.varName(arg)
	if err != nil {
		return "", err
	}
	if _, ok := e.labels.FindGlobal(name); !ok {
		return "", runtime.ErrLabelNotFound
	}
	return name, nil
}

// solve starts SOLVE name. The first guess is the variable's value; the
// second is X inside a running program, otherwise the variable's shadow.
func (e *Engine) solve(arg runtime.Operand) (runtime.Status, error) {
	name, err := e.varName(arg)
	if err != nil {
		return runtime.StatusNone, err
	}
	if e.solver.Active() {
		return runtime.StatusNone, runtime.ErrSolveSolve
	}
	x1 := 0.0
	if v, ok := e.vars.Recall(name); ok {
		x, isReal := runtime.AsReal(v)
		if !isReal {
			return runtime.StatusNone, runtime.ErrInvalidType
		}
		x1 = x
	}
	x2 := x1
	if e.running {
		xv, err := e.stack.X()
		if err != nil {
			return runtime.StatusNone, err
		}
		if x2, err = realArg(xv); err != nil {
			return runtime.StatusNone, err
		}
	} else if shadow, ok := e.solver.Cont.Shadows.Get(name); ok {
		x2 = shadow
	}
	return e.solver.Start(e, name, x1, x2)
}
