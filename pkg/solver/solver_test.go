package solver

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"rpncalc/core-go/pkg/display"
	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

type fakeHost struct {
	stack   *runtime.Stack
	vars    *runtime.Variables
	pos     program.Address
	frames  []program.Frame
	running bool
	rec     display.Recorder
	clock   uint32
	gotoErr error
}

func newFakeHost(big bool) *fakeHost {
	return &fakeHost{
		stack: runtime.NewStack(big),
		vars:  runtime.NewVariables(),
		pos:   program.Address{Prgm: 0, PC: -1},
	}
}

func (h *fakeHost) Stack() *runtime.Stack { return h.stack }
func (h *fakeHost) Variables() *runtime.Variables { return h.vars }
func (h *fakeHost) Position() program.Address { return h.pos }
func (h *fakeHost) SetPosition(addr program.Address) { h.pos = addr }
func (h *fakeHost) Running() bool { return h.running }
func (h *fakeHost) StopRequested() bool { return false }
func (h *fakeHost) Display() display.Display { return &h.rec }
func (h *fakeHost) PushFrame(f program.Frame) error { h.frames = append(h.frames, f); return nil }
func (h *fakeHost) GotoGlobal(name runtime.Name) error {
	if h.gotoErr != nil {
		return h.gotoErr
	}
	h.pos = program.Address{Prgm: 5, PC: 0}
	return nil
}

func (h *fakeHost) Milliseconds() uint32 {
	h.clock += 300
	return h.clock
}

// evaluate plays the target program: it pops the sentinel and leaves f(X)
// on the stack, with some junk below it.
func (h *fakeHost) evaluate(t *testing.T, f func(float64) float64) {
	t.Helper()
	if len(h.frames) == 0 || h.frames[len(h.frames)-1].Kind != program.TargetSolver {
		t.Fatalf("solver sentinel missing: %v", h.frames)
	}
	h.frames = h.frames[:len(h.frames)-1]
	v, ok := h.vars.Recall("X")
	if !ok {
		t.Fatalf("solve variable not stored")
	}
	x, _ := runtime.AsReal(v)
	h.stack.Push(runtime.RealValue{Val: 123})
	h.stack.Push(runtime.RealValue{Val: f(x)})
}

func TestSolver_DrivesHostToResult(t *testing.T) {
	h := newFakeHost(true)
	h.stack.Push(runtime.RealValue{Val: 42})
	s := New(zerolog.Nop())
	s.SetProgram("FX")

	st, err := s.Start(h, "X", 1, 3)
	for err == nil && st == runtime.StatusRun {
		h.evaluate(t, func(x float64) float64 { return x*x - 4 })
		st, err = s.Resume(h, false, false)
	}
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if st != runtime.StatusStop {
		t.Fatalf("status mismatch: got=%v want=%v", st, runtime.StatusStop)
	}
	if h.pos != (program.Address{Prgm: 0, PC: -1}) {
		t.Fatalf("caller position not restored: %+v", h.pos)
	}
	// 42 below the four results; the junk left by evaluations is gone
	want := []float64{42, 0, 0, 1, 2}
	vals := h.stack.Values()
	if len(vals) != len(want) {
		t.Fatalf("stack depth mismatch: got=%d want=%d", len(vals), len(want))
	}
	for i, w := range want {
		if got, _ := runtime.AsReal(vals[i]); got != w {
			t.Fatalf("stack level %d mismatch: got=%v want=%v", i, got, w)
		}
	}
	if v, _ := h.vars.Recall("X"); v != (runtime.RealValue{Val: 2}) {
		t.Fatalf("solve variable mismatch: got=%#v", v)
	}
	last, _ := h.rec.Last()
	if !last.Final || last.Line1 != "X=2" || last.Line2 != "" {
		t.Fatalf("result display mismatch: got=%+v", last)
	}
	if h.rec.StatusCount() != 1 {
		t.Fatalf("progress display count mismatch: got=%d want=1", h.rec.StatusCount())
	}
	progress := h.rec.Events[0]
	if len(progress.Line1) != display.Width || !strings.HasPrefix(progress.Line1, "3 ") || !strings.HasSuffix(progress.Line1, "+") {
		t.Fatalf("progress line mismatch: %q", progress.Line1)
	}
	if !strings.HasSuffix(progress.Line2, "-") {
		t.Fatalf("previous point sign mismatch: %q", progress.Line2)
	}
}

func TestSolver_KeepRunningIsSilent(t *testing.T) {
	h := newFakeHost(false)
	h.running = true
	s := New(zerolog.Nop())
	s.SetProgram("FX")
	st, err := s.Start(h, "X", 0, 0)
	for err == nil && st == runtime.StatusRun {
		h.evaluate(t, func(x float64) float64 { return x - 5 })
		st, err = s.Resume(h, false, false)
	}
	if err != nil || st != runtime.StatusNone {
		t.Fatalf("status mismatch: got=%v err=%v", st, err)
	}
	if len(h.rec.Events) != 0 {
		t.Fatalf("program-driven solve displayed %+v", h.rec.Events)
	}
	x, _ := h.stack.X()
	tv, _ := h.stack.Peek(3)
	if x != (runtime.RealValue{Val: 5}) || tv != (runtime.RealValue{Val: 0}) {
		t.Fatalf("classic stack results mismatch: x=%#v t=%#v", x, tv)
	}
}

func TestSolver_StartWhileActiveIsRejected(t *testing.T) {
	h := newFakeHost(true)
	s := New(zerolog.Nop())
	s.SetProgram("FX")
	if _, err := s.Start(h, "X", 1, 3); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := s.Cont
	_, err := s.Start(h, "Y", 10, 20)
	if !errors.Is(err, runtime.ErrSolveSolve) {
		t.Fatalf("expected Solve(Solve), got %v", err)
	}
	after := s.Cont
	if after.Var != before.Var || after.X1 != before.X1 || after.X2 != before.X2 ||
		after.Phase != before.Phase || after.Caller != before.Caller || after.RetryCounter != before.RetryCounter {
		t.Fatalf("active continuation modified: before=%+v after=%+v", before, after)
	}
	if len(h.frames) != 1 {
		t.Fatalf("rejected start pushed a frame: %v", h.frames)
	}
}

func TestSolver_StartFailsWithoutProgram(t *testing.T) {
	h := newFakeHost(true)
	s := New(zerolog.Nop())
	if _, err := s.Start(h, "X", 1, 3); !errors.Is(err, runtime.ErrNonexistent) {
		t.Fatalf("expected Nonexistent, got %v", err)
	}
	s.SetProgram("FX")
	h.gotoErr = runtime.ErrLabelNotFound
	if _, err := s.Start(h, "X", 1, 3); !errors.Is(err, runtime.ErrLabelNotFound) {
		t.Fatalf("expected Label Not Found, got %v", err)
	}
	if s.Active() {
		t.Fatalf("failed start left the solver active")
	}
}
