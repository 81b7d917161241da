package runtime

import (
	"errors"
	"testing"
)

func realOf(t *testing.T, v Value) float64 {
	t.Helper()
	x, ok := AsReal(v)
	if !ok {
		t.Fatalf("expected real, got %#v", v)
	}
	return x
}

func TestClassicStackLiftAndDrop(t *testing.T) {
	s := NewStack(false)
	for i := 1; i <= 5; i++ {
		s.Push(RealValue{Val: float64(i)})
	}
	if s.Depth() != 4 {
		t.Fatalf("classic depth mismatch: got=%d", s.Depth())
	}
	// T Z Y X = 2 3 4 5; 1 fell off.
	if x, _ := s.X(); realOf(t, x) != 5 {
		t.Fatalf("X mismatch: got=%v", x)
	}
	if err := s.Consume(2, RealValue{Val: 9}); err != nil {
		t.Fatalf("consume: %v", err)
	}
	// T is duplicated on drop: T Z Y X = 2 2 3 9
	want := []float64{2, 2, 3, 9}
	for i, v := range s.Values() {
		if realOf(t, v) != want[i] {
			t.Fatalf("level %d mismatch: got=%v want=%v", i, v, want[i])
		}
	}
}

func TestBigStackUnderflow(t *testing.T) {
	s := NewStack(true)
	if _, err := s.Pop(); !errors.Is(err, ErrTooFewArguments) {
		t.Fatalf("expected too few arguments, got %v", err)
	}
	s.Push(RealValue{Val: 1})
	if err := s.Consume(2, RealValue{}); !errors.Is(err, ErrTooFewArguments) {
		t.Fatalf("expected too few arguments, got %v", err)
	}
	if s.Depth() != 1 {
		t.Fatalf("failed consume modified stack: depth=%d", s.Depth())
	}
}

func TestBigStackTruncateTransfersOwnership(t *testing.T) {
	s := NewStack(true)
	s.Push(RealValue{Val: 1})
	mark := s.CleanupMark()
	s.Push(RealValue{Val: 2})
	s.Push(RealValue{Val: 3})
	freed := s.Truncate(mark)
	if len(freed) != 2 || realOf(t, freed[0]) != 3 || realOf(t, freed[1]) != 2 {
		t.Fatalf("freed mismatch: got=%v", freed)
	}
	if s.Depth() != 1 {
		t.Fatalf("depth mismatch: got=%d", s.Depth())
	}
	if NewStack(false).CleanupMark() != NoStackCleanup {
		t.Fatalf("classic stack should not request cleanup")
	}
}

func TestRegistersGrowREGS(t *testing.T) {
	vars := NewVariables()
	if _, err := vars.Register(3); !errors.Is(err, ErrNonexistent) {
		t.Fatalf("expected nonexistent, got %v", err)
	}
	if err := vars.SetRegister(30, RealValue{Val: 4}); err != nil {
		t.Fatalf("set register: %v", err)
	}
	if err := vars.SetRegister(2, NewString("LBL")); err != nil {
		t.Fatalf("set register: %v", err)
	}
	v, err := vars.Register(30)
	if err != nil || realOf(t, v) != 4 {
		t.Fatalf("register mismatch: got=%v err=%v", v, err)
	}
	if v, _ := vars.Register(2); v.Kind() != KindString {
		t.Fatalf("register 2 kind mismatch: got=%v", v.Kind())
	}
}
