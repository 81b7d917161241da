package integrator

import (
	"math"

	"rpncalc/core-go/pkg/runtime"
)

// ActionKind says what the caller must do next.
type ActionKind int

const (
	// Evaluate the integrand at Action.X and pass the value to Advance.
	Evaluate ActionKind = iota
	// Finish reports Action.Result.
	Finish
)

type Action struct {
	Kind   ActionKind
	X      float64
	Result Result
}

// Result is the integral estimate and the last change between refined
// estimates.
type Result struct {
	Value float64
	Error float64
}

// Begin initializes level 0 and asks for the first sample. acc is clamped
// with ClampAccuracy.
func (c *Continuation) Begin(llim, ulim, acc float64) Action {
	c.Llim = llim
	c.Ulim = ulim
	c.Acc = ClampAccuracy(acc)
	c.A = llim
	c.B = ulim - llim
	c.H = 2
	c.PrevInt = 0
	c.NSteps = 1
	c.N = 1
	c.S[0] = 0
	c.K = 1
	c.PrevRes = 0
	c.Phase = Accumulate
	return c.level()
}

// level starts a refinement level.
func (c *Continuation) level() Action {
	c.P = c.H/2 - 1
	c.Sum = 0
	c.I = 0
	return c.sample()
}

func (c *Continuation) sample() Action {
	c.T = 1 - c.P*c.P
	c.U = c.P + c.T*c.P/2
	c.U = (c.U*c.B+c.B)/2 + c.A
	return Action{Kind: Evaluate, X: c.U}
}

// Advance consumes the integrand value at the last requested point.
func (c *Continuation) Advance(y float64) (Action, error) {
	switch c.Phase {
	case Seed:
		// no sample requested yet; y is ignored
		c.Phase = Accumulate
		return c.level(), nil
	case Accumulate:
	default:
		return Action{}, runtime.ErrInternalError
	}
	c.Sum += c.T * y
	c.P += c.H
	c.I++
	if c.I < c.NSteps {
		return c.sample(), nil
	}

	c.PrevInt = (c.PrevInt + c.Sum*c.H) / 2
	c.S[c.K] = c.PrevInt
	c.K++

	if c.N >= RombK-1 {
		ns := RombK - 1
		dm := 1.0
		copy(c.C[:], c.S[:RombK])
		c.Sum = c.S[ns]
		for m := 1; m < RombK; m++ {
			dm /= 4
			for i := 0; i < RombK-m; i++ {
				c.C[i] = (c.C[i+1] - c.C[i]*dm*4) / (1 - dm)
			}
			ns--
			c.Sum += c.C[ns] * dm
		}
		res := c.Sum * c.B * 0.75
		c.Eps = math.Abs(c.PrevRes - res)
		c.PrevRes = res
		if c.Eps <= c.Acc*math.Abs(res) {
			return c.finish(), nil
		}
		copy(c.S[:RombK-1], c.S[1:RombK])
		c.K = RombK - 1
	}

	c.NSteps <<= 1
	c.H /= 2
	c.N++
	if c.N >= RombMax {
		// best effort
		return c.finish(), nil
	}
	return c.level(), nil
}

func (c *Continuation) finish() Action {
	c.Phase = Inactive
	return Action{Kind: Finish, Result: Result{Value: c.Sum * c.B * 0.75, Error: c.Eps}}
}
