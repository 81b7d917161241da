package runtime

import (
	"errors"
	"testing"
)

func TestRealMatrixKind(t *testing.T) {
	m, err := NewRealMatrix(2, 2)
	if err != nil {
		t.Fatalf("new matrix: %v", err)
	}
	if m.Kind() != KindRealMatrix {
		t.Fatalf("expected KindRealMatrix, got %v", m.Kind())
	}
}

func TestRealMatrixStringTagging(t *testing.T) {
	m, _ := NewRealMatrix(1, 3)
	if err := m.SetReal(0, 1.5); err != nil {
		t.Fatalf("set real: %v", err)
	}
	if err := m.SetString(1, NewString("AB")); err != nil {
		t.Fatalf("set string: %v", err)
	}
	if m.Kind() != KindRealMatrix {
		t.Fatalf("tagging a cell changed the container kind to %v", m.Kind())
	}
	cell, err := m.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	s, ok := cell.(StringValue)
	if !ok || s.String() != "AB" {
		t.Fatalf("tagged cell mismatch: got=%#v", cell)
	}
	if err := m.SetReal(1, 7); err != nil {
		t.Fatalf("set real: %v", err)
	}
	if cell, _ := m.Get(1); cell != (RealValue{Val: 7}) {
		t.Fatalf("retagged cell mismatch: got=%#v", cell)
	}
	if _, err := m.Get(3); !errors.Is(err, ErrDimensionError) {
		t.Fatalf("expected dimension error, got %v", err)
	}
}

func TestCopyDoesNotAlias(t *testing.T) {
	m, _ := NewRealMatrix(1, 2)
	_ = m.SetString(0, NewString("X"))
	list := &ListValue{Items: []Value{m, NewString("hi")}}

	dup := Copy(list).(*ListValue)
	inner := dup.Items[0].(*RealMatrixValue)
	inner.Text[0][0] = 'Y'
	inner.Data[1] = 9

	if string(m.Text[0]) != "X" || m.Data[1] != 0 {
		t.Fatalf("copy shares storage with original: %#v", m)
	}
	dup.Items[1].(StringValue).Val[0] = 'H'
	if list.Items[1].(StringValue).String() != "hi" {
		t.Fatalf("string copy shares storage")
	}
}

func TestNewStringTruncates(t *testing.T) {
	long := make([]byte, MaxStringLength+10)
	for i := range long {
		long[i] = 'a'
	}
	if got := len(NewString(string(long)).Val); got != MaxStringLength {
		t.Fatalf("string length mismatch: got=%d want=%d", got, MaxStringLength)
	}
}

func TestNameCapacity(t *testing.T) {
	if _, err := NewName("TOOLONGX"); err == nil {
		t.Fatalf("expected error for 8 byte name")
	}
	n := MustName("FX")
	buf, l := n.Fixed()
	if l != 2 || NameFromFixed(buf, l) != n {
		t.Fatalf("fixed field round trip mismatch: got=%q", NameFromFixed(buf, l))
	}
	if NameFromFixed(buf, 99) != Name(buf[:MaxNameLength]) {
		t.Fatalf("length not clamped")
	}
}

func TestOperandTargetCache(t *testing.T) {
	op := NumArg(10)
	if _, ok := op.CachedTarget(1); ok {
		t.Fatalf("fresh operand reports a cached target")
	}
	op.CacheTarget(42, 1)
	if got, ok := op.CachedTarget(1); !ok || got != 42 {
		t.Fatalf("cache mismatch: got=%d ok=%v", got, ok)
	}
	if _, ok := op.CachedTarget(2); ok {
		t.Fatalf("cache survived a label generation change")
	}
	op.Invalidate()
	if _, ok := op.CachedTarget(1); ok {
		t.Fatalf("cache survived Invalidate")
	}
}

func TestErrnoTrappable(t *testing.T) {
	if !ErrDivideBy0.Trappable() {
		t.Fatalf("divide by zero should be trappable")
	}
	if ErrInsufficientMemory.Trappable() {
		t.Fatalf("insufficient memory must not be trappable")
	}
	if ErrSolveSolve.Error() != "Solve(Solve)" {
		t.Fatalf("message mismatch: %q", ErrSolveSolve.Error())
	}
}
