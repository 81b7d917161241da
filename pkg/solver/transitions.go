package solver

import (
	"math"

	"rpncalc/core-go/pkg/runtime"
)

// ActionKind says what the caller must do next.
type ActionKind int

const (
	// Evaluate the function at Action.X and feed the outcome to Advance.
	Evaluate ActionKind = iota
	// Finish reports Action.Result; the continuation is inactive again.
	Finish
)

// Action is the outcome of a transition.
type Action struct {
	Kind   ActionKind
	X      float64
	Result Result
}

// Result is what a finished solve reports.
type Result struct {
	Root   float64
	Second float64
	F      float64
	Code   Code
}

// Evaluation is the outcome of one function evaluation. OK is false when the
// function failed or did not produce a real number.
type Evaluation struct {
	OK bool
	F  float64
}

// Begin seeds the bracket from two guesses and asks for f(x1).
func (c *Continuation) Begin(x1, x2 float64) Action {
	if x1 == x2 {
		if x1 == 0 {
			x2 = 1
			c.RetryCounter = 0
		} else {
			x2 = x1 * 1.000001
			if math.IsInf(x2, 0) {
				x2 = x1 * 0.999999
			}
			c.RetryCounter = -10
		}
	} else {
		c.RetryCounter = 10
		if math.Abs(x1) < math.Abs(x2) {
			c.RetryValue = x1
		} else {
			c.RetryValue = x2
		}
	}
	if x1 < x2 {
		c.X1, c.X2 = x1, x2
	} else {
		c.X1, c.X2 = x2, x1
	}
	c.BestX = 0
	c.BestF = Huge
	c.SecondX = 0
	c.SecondF = Huge
	c.LastDisplay = 0
	c.Toggle = true
	c.Impatience = 0
	c.FGap = math.NaN()
	return c.evaluate(1, EvalFirst)
}

func (c *Continuation) evaluate(which int, phase Phase) Action {
	x := c.point(which)
	c.PrevX = c.CurrX
	c.CurrX = x
	c.Which = which
	c.Phase = phase
	return Action{Kind: Evaluate, X: x}
}

// Advance consumes the evaluation requested by the previous action.
func (c *Continuation) Advance(ev Evaluation) (Action, error) {
	if c.Phase == Inactive {
		return Action{}, runtime.ErrInternalError
	}
	failure := !ev.OK || math.IsNaN(ev.F)
	f := ev.F
	if !failure {
		c.CurrF = f
		if f == 0 {
			return c.finish(Root), nil
		}
		if math.Abs(f) < math.Abs(c.BestF) {
			c.SecondF = c.BestF
			c.SecondX = c.BestX
			c.BestF = math.Abs(f)
			c.BestX = c.CurrX
		}
	} else {
		c.CurrF = Huge
	}

	if !failure && c.RetryCounter != 0 {
		if c.RetryCounter > 0 {
			c.RetryCounter--
		} else {
			c.RetryCounter++
		}
	}

	switch c.Phase {
	case EvalFirst:
		if failure {
			if c.RetryCounter > 0 {
				c.RetryCounter = -c.RetryCounter
			}
			return c.evaluate(2, EvalSecondAfterFailure), nil
		}
		c.Fx1 = f
		return c.evaluate(2, Separate), nil

	case EvalSecondAfterFailure:
		if failure {
			return c.finish(BadGuesses), nil
		}
		c.Fx2 = f
		c.X1 = (c.X1 + c.X2) / 2
		if c.X1 == c.X2 {
			return c.finish(BadGuesses), nil
		}
		return c.evaluate(1, Separate), nil

	case Separate:
		return c.separate(failure, f), nil

	case SecantStep, BisectStep:
		if failure {
			return c.approach(), nil
		}
		if act, done := c.replaceBracket(f); done {
			return act, nil
		}
		if c.X2 < c.X1 {
			c.X1, c.X2 = c.X2, c.X1
			c.Fx1, c.Fx2 = c.Fx2, c.Fx1
		}
		c.trackGap()
		return c.secant(), nil

	case RiddersMid:
		if failure {
			return c.bisect(), nil
		}
		s := math.Sqrt(f*f - c.Fx1*c.Fx2)
		if s == 0 {
			c.Which = -1
			return c.finish(NotSure), nil
		}
		c.Xm = c.X3
		c.Fxm = f
		if c.Fx1 < c.Fx2 {
			s = -s
		}
		xnew := c.Xm + (c.Xm-c.X1)*(c.Fxm/s)
		if xnew == c.X1 || xnew == c.X2 {
			c.Which = -1
			return c.finish(NotSure), nil
		}
		c.X3 = xnew
		return c.evaluate(3, RiddersNew), nil

	case RiddersNew:
		if failure {
			return c.bisect(), nil
		}
		switch {
		case (f > 0 && c.Fxm < 0) || (f < 0 && c.Fxm > 0):
			if c.Xm < c.X3 {
				c.X1, c.Fx1 = c.Xm, c.Fxm
				c.X2, c.Fx2 = c.X3, f
			} else {
				c.X1, c.Fx1 = c.X3, f
				c.X2, c.Fx2 = c.Xm, c.Fxm
			}
		case (f > 0 && c.Fx1 < 0) || (f < 0 && c.Fx1 > 0):
			c.X2, c.Fx2 = c.X3, f
		default:
			c.X1, c.Fx1 = c.X3, f
		}
		c.trackGap()
		return c.ridders(), nil
	}
	return Action{}, runtime.ErrInternalError
}

// separate makes sure f(x1) != f(x2), widening the interval through flat
// regions.
func (c *Continuation) separate(failure bool, f float64) Action {
	if failure {
		if c.Which == 1 {
			c.X1 = (c.X1 + c.X2) / 2
		} else {
			c.X2 = (c.X1 + c.X2) / 2
		}
		if c.X1 == c.X2 {
			return c.finish(BadGuesses)
		}
		return c.evaluate(c.Which, Separate)
	}
	if c.Which == 1 {
		c.Fx1 = f
	} else {
		c.Fx2 = f
	}
	if c.Fx1 != c.Fx2 {
		return c.secant()
	}
	var which int
	if c.Toggle {
		x := c.X2 + 100*(c.X2-c.X1)
		if math.IsInf(x, 0) {
			if c.RetryCounter != 0 {
				return c.retry()
			}
			return c.finish(Constant)
		}
		which = 2
		c.X2 = x
	} else {
		x := c.X1 - 100*(c.X2-c.X1)
		if math.IsInf(x, 0) {
			if c.RetryCounter != 0 {
				return c.retry()
			}
			return c.finish(Constant)
		}
		which = 1
		c.X1 = x
	}
	c.Toggle = !c.Toggle
	return c.evaluate(which, Separate)
}

// approach moves x3 back toward the bracket after a failed evaluation.
func (c *Continuation) approach() Action {
	switch {
	case c.X3 > c.X2:
		c.X3 = (c.X2 + c.X3) / 2
		if c.X3 == c.X2 {
			return c.finish(Extremum)
		}
	case c.X3 < c.X1:
		c.X3 = (c.X1 + c.X3) / 2
		if c.X3 == c.X1 {
			return c.finish(Extremum)
		}
	default:
		if c.Toggle {
			old := c.X3
			if c.X3 <= (c.X1+c.X2)/2 {
				c.X3 = (c.X1 + c.X3) / 2
			} else {
				c.X3 = (c.X2 + c.X3) / 2
			}
			if c.X3 == old {
				return c.finish(SignReversal)
			}
		} else {
			c.X3 = c.X1 + c.X2 - c.X3
		}
		c.Toggle = !c.Toggle
		if c.X3 == c.X1 || c.X3 == c.X2 {
			return c.finish(SignReversal)
		}
	}
	return c.evaluate(3, SecantStep)
}

// replaceBracket folds f(x3) into the bracket. It returns done when the
// step already produced the next action.
func (c *Continuation) replaceBracket(f float64) (Action, bool) {
	switch {
	case c.Fx1 > 0 && c.Fx2 > 0:
		if f > 0 {
			if f > c.BestF {
				if c.Impatience++; c.Impatience > 30 {
					c.Which = -1
					return c.finish(Extremum), true
				}
			} else {
				c.Impatience = 0
			}
		}
		if c.Fx1 > c.Fx2 {
			if f >= c.Fx1 && c.Phase != BisectStep {
				return c.bisect(), true
			}
			c.X1, c.Fx1 = c.X3, f
		} else {
			if f >= c.Fx2 && c.Phase != BisectStep {
				return c.bisect(), true
			}
			c.X2, c.Fx2 = c.X3, f
		}
	case c.Fx1 < 0 && c.Fx2 < 0:
		if f < 0 {
			if -f > c.BestF {
				if c.Impatience++; c.Impatience > 30 {
					c.Which = -1
					return c.finish(Extremum), true
				}
			} else {
				c.Impatience = 0
			}
		}
		if c.Fx1 < c.Fx2 {
			if f <= c.Fx1 && c.Phase != BisectStep {
				return c.bisect(), true
			}
			c.X1, c.Fx1 = c.X3, f
		} else {
			if f <= c.Fx2 && c.Phase != BisectStep {
				return c.bisect(), true
			}
			c.X2, c.Fx2 = c.X3, f
		}
	default:
		// opposite signs: keep the sign change inside the bracket
		if (c.Fx1 > 0 && f > 0) || (c.Fx1 < 0 && f < 0) {
			c.X1, c.Fx1 = c.X3, f
		} else {
			c.X2, c.Fx2 = c.X3, f
		}
	}
	return Action{}, false
}

func (c *Continuation) secant() Action {
	if c.Fx1 == c.Fx2 {
		return c.finish(Extremum)
	}
	if (c.Fx1 > 0 && c.Fx2 < 0) || (c.Fx1 < 0 && c.Fx2 > 0) {
		return c.ridders()
	}
	slope := (c.Fx2 - c.Fx1) / (c.X2 - c.X1)
	switch {
	case math.IsInf(slope, 0):
		c.X3 = (c.X1 + c.X2) / 2
		if c.X3 == c.X1 || c.X3 == c.X2 {
			return c.finish(NotSure)
		}
		return c.evaluate(3, SecantStep)
	case slope == 0:
		// x2 - x1 is so wide the slope underflowed
		c.X3 = c.X1 - c.Fx1*(c.X2-c.X1)/(c.Fx2-c.Fx1)
	default:
		c.X3 = c.X1 - c.Fx1/slope
	}

	if math.IsInf(c.X3, 0) {
		if c.RetryCounter != 0 {
			return c.retry()
		}
		return c.finish(Extremum)
	}
	if c.X3 == c.X1 {
		if math.Abs(slope) > 1e50 {
			c.X3 = c.X1 - (c.X2-c.X1)/100
			return c.evaluate(3, SecantStep)
		}
		c.Which = 1
		c.CurrF = c.Fx1
		c.PrevX = c.X2
		return c.finish(NotSure)
	}
	if c.X3 == c.X2 {
		if math.Abs(slope) > 1e50 {
			c.X3 = c.X2 + (c.X2-c.X1)/100
			return c.evaluate(3, SecantStep)
		}
		c.Which = 2
		c.CurrF = c.Fx2
		c.PrevX = c.X1
		return c.finish(NotSure)
	}
	switch {
	case c.X3 < c.X1:
		if lo := c.X1 - 100*(c.X2-c.X1); c.X3 < lo {
			c.X3 = lo
		}
	case c.X3 > c.X2:
		if hi := c.X2 + 100*(c.X2-c.X1); c.X3 > hi {
			c.X3 = hi
		}
	default:
		eps := (c.X2 - c.X1) / 10
		if c.X3 < c.X1+eps {
			c.X3 = c.X1 + eps
		} else if c.X3 > c.X2-eps {
			c.X3 = c.X2 - eps
		}
	}
	return c.evaluate(3, SecantStep)
}

// retry restarts after running off to infinity suspiciously quickly: around
// the guess closer to zero if two were given, otherwise from 0 and 1.
func (c *Continuation) retry() Action {
	if c.RetryCounter > 0 {
		c.X1 = c.RetryValue
		c.X2 = c.X1 * 1.000001
		if math.IsInf(c.X2, 0) {
			c.X2 = c.X1 * 0.999999
		}
		if c.X1 > c.X2 {
			c.X1, c.X2 = c.X2, c.X1
		}
		c.RetryCounter = -10
	} else {
		c.X1 = 0
		c.X2 = 1
		c.RetryCounter = 0
	}
	return c.evaluate(1, EvalFirst)
}

func (c *Continuation) bisect() Action {
	c.X3 = (c.X1 + c.X2) / 2
	return c.evaluate(3, BisectStep)
}

func (c *Continuation) ridders() Action {
	c.X3 = (c.X1 + c.X2) / 2
	// Rounding can put the midpoint outside [x1, x2]; treat that as no
	// further progress.
	if c.X3 <= c.X1 || c.X3 >= c.X2 {
		c.Which = -1
		return c.finish(NotSure)
	}
	return c.evaluate(3, RiddersMid)
}

// trackGap follows f(x2)-f(x1) across bracket updates; a gap that keeps
// growing means the bracket closes on a discontinuity, not a root.
func (c *Continuation) trackGap() {
	gap := c.Fx2 - c.Fx1
	if gap == 0 || math.IsNaN(gap) {
		c.FGap = math.NaN()
		return
	}
	if math.IsNaN(c.FGap) || (gap > 0) != (c.FGap > 0) || math.Abs(gap) < math.Abs(c.FGap) {
		c.FGapWorsening = 0
	} else {
		c.FGapWorsening++
	}
	c.FGap = gap
}

// finish classifies the outcome and deactivates the continuation.
func (c *Continuation) finish(code Code) Action {
	finalF := c.CurrF
	if code == NotSure {
		if !math.IsNaN(c.FGap) && c.FGapWorsening >= 3 {
			code = SignReversal
		} else {
			code = Root
		}
	}
	if c.Which == -1 {
		// pick the smallest |f| seen at the bracket points
		t1 := math.Abs(c.Fx1)
		t2 := math.Abs(c.Fx2)
		t3 := math.Abs(c.CurrF)
		var t float64
		if t1 < t2 {
			c.Which, t, finalF = 1, t1, c.Fx1
		} else {
			c.Which, t, finalF = 2, t2, c.Fx2
		}
		if t3 < t {
			c.Which, finalF = 3, c.CurrF
		}
	}
	b := c.point(c.Which)
	var s float64
	switch {
	case math.IsInf(c.BestF, 0):
		s = b
	case c.BestF > math.Abs(finalF):
		s = c.BestX
	case math.IsInf(c.SecondF, 0):
		s = c.BestX
	default:
		s = c.SecondX
	}
	c.Phase = Inactive
	return Action{Kind: Finish, Result: Result{Root: b, Second: s, F: finalF, Code: code}}
}
