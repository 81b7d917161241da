package solver

import (
	"math"
	"testing"

	"rpncalc/core-go/pkg/runtime"
)

type function func(x float64) (float64, bool)

func drive(t *testing.T, f function, x1, x2 float64) (Result, int) {
	t.Helper()
	c := NewContinuation()
	act := c.Begin(x1, x2)
	for evals := 0; evals < 100000; evals++ {
		if act.Kind == Finish {
			if c.Active() {
				t.Fatalf("continuation still active after finish")
			}
			return act.Result, evals
		}
		y, ok := f(act.X)
		var err error
		act, err = c.Advance(Evaluation{OK: ok, F: y})
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	t.Fatalf("solver did not terminate")
	return Result{}, 0
}

func TestSolver_BracketedRoot(t *testing.T) {
	quad := func(x float64) (float64, bool) { return x*x - 4, true }
	res, _ := drive(t, quad, 1, 3)
	if res.Code != Root || res.Root != 2 {
		t.Fatalf("root mismatch: got=%+v want root 2", res)
	}

	res, _ = drive(t, quad, 0, 5)
	if res.Code != Root || math.Abs(res.Root-2) > 1e-9 {
		t.Fatalf("root mismatch: got=%+v want ~2", res)
	}
	if math.Abs(res.F) > 1e-9 {
		t.Fatalf("residual too large: %v", res.F)
	}
}

func TestSolver_SingleGuessZero(t *testing.T) {
	res, _ := drive(t, func(x float64) (float64, bool) { return x - 5, true }, 0, 0)
	if res.Code != Root || res.Root != 5 {
		t.Fatalf("root mismatch: got=%+v want 5", res)
	}
}

func TestSolver_EqualGuessesPerturbed(t *testing.T) {
	c := NewContinuation()
	act := c.Begin(2, 2)
	if c.RetryCounter != -10 {
		t.Fatalf("retry counter mismatch: got=%d want=-10", c.RetryCounter)
	}
	if act.X != 2 || c.X2 != 2*1.000001 {
		t.Fatalf("perturbed guesses mismatch: x1=%v x2=%v", c.X1, c.X2)
	}
	res, _ := drive(t, func(x float64) (float64, bool) { return 3*x - 12, true }, 2, 2)
	if res.Code != Root || math.Abs(res.Root-4) > 1e-12 {
		t.Fatalf("root mismatch: got=%+v want 4", res)
	}
}

func TestSolver_ConstantFunction(t *testing.T) {
	res, evals := drive(t, func(float64) (float64, bool) { return 7, true }, 0, 1)
	if res.Code != Constant {
		t.Fatalf("classification mismatch: got=%v want=%v", res.Code, Constant)
	}
	if res.F != 7 {
		t.Fatalf("final f mismatch: got=%v want=7", res.F)
	}
	if evals > 1000 {
		t.Fatalf("constant detection took %d evaluations", evals)
	}
}

func TestSolver_BadGuesses(t *testing.T) {
	res, evals := drive(t, func(float64) (float64, bool) { return 0, false }, 1, 2)
	if res.Code != BadGuesses || evals != 2 {
		t.Fatalf("bad guesses mismatch: got=%+v after %d evaluations", res, evals)
	}
}

func TestSolver_SignReversalAtPole(t *testing.T) {
	inv := func(x float64) (float64, bool) {
		if x == 0 {
			return 0, false
		}
		y := 1 / x
		if math.IsInf(y, 0) {
			return 0, false
		}
		return y, true
	}
	res, _ := drive(t, inv, -1, 2)
	if res.Code != SignReversal {
		t.Fatalf("classification mismatch: got=%v want=%v (root %v)", res.Code, SignReversal, res.Root)
	}
	if math.Abs(res.Root) > 1e-100 {
		t.Fatalf("pole location mismatch: got=%v", res.Root)
	}
}

func TestSolver_FailureInsideBracketBisects(t *testing.T) {
	// undefined on (1.45, 1.55), root at 1.7
	f := func(x float64) (float64, bool) {
		if x > 1.45 && x < 1.55 {
			return 0, false
		}
		return x - 1.7, true
	}
	res, _ := drive(t, f, 1, 2)
	if res.Code != Root || math.Abs(res.Root-1.7) > 1e-12 {
		t.Fatalf("root mismatch: got=%+v want 1.7", res)
	}
}

func TestAdvance_InactiveIsInternalError(t *testing.T) {
	c := NewContinuation()
	if _, err := c.Advance(Evaluation{OK: true, F: 1}); err == nil {
		t.Fatalf("expected internal error on inactive continuation")
	}
}

func TestShadows_EvictsOldest(t *testing.T) {
	var s Shadows
	names := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K"}
	for i, n := range names {
		s.Put(runtime.Name(n), float64(i))
	}
	if s.Len() != NumShadows {
		t.Fatalf("shadow count mismatch: got=%d want=%d", s.Len(), NumShadows)
	}
	if _, ok := s.Get("A"); ok {
		t.Fatalf("oldest shadow A was not evicted")
	}
	if v, ok := s.Get("K"); !ok || v != 10 {
		t.Fatalf("newest shadow mismatch: got=%v ok=%v", v, ok)
	}
	s.Put("C", 99)
	s.Put("L", 11)
	if _, ok := s.Get("C"); !ok {
		t.Fatalf("re-inserted shadow C evicted too early")
	}
	if _, ok := s.Get("B"); ok {
		t.Fatalf("shadow B should have been evicted")
	}
	s.Remove("C")
	if _, ok := s.Get("C"); ok || s.Len() != NumShadows-1 {
		t.Fatalf("remove mismatch: len=%d", s.Len())
	}
}
