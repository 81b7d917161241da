package program

import (
	"errors"
	"testing"

	"rpncalc/core-go/pkg/runtime"
)

func sample() *Program {
	return New([]Instruction{
		{Op: OpLbl, Arg: runtime.NameArg("FX")},
		{Op: OpRcl, Arg: runtime.NameArg("X")},
		{Op: OpSquare},
		{Op: OpNumber, Arg: runtime.NumberArg(4)},
		{Op: OpSub},
		{Op: OpLbl, Arg: runtime.NumArg(10)},
		{Op: OpRtn},
	})
}

func TestProgram_AppendsEnd(t *testing.T) {
	p := sample()
	if last := p.Instructions[p.Len()-1].Op; last != OpEnd {
		t.Fatalf("last instruction mismatch: got=%v want=END", last)
	}
}

func TestProgram_LineAndPCMapping(t *testing.T) {
	p := sample()
	// LBL "FX" = 4 bytes, RCL "X" = 3, X^2 = 1, number = 9
	wantPC := []int{-1, 0, 4, 7, 8, 17}
	for line, pc := range wantPC {
		if got := p.LineToPC(line); got != pc {
			t.Fatalf("LineToPC(%d) mismatch: got=%d want=%d", line, got, pc)
		}
		if got := p.PCToLine(pc); got != line {
			t.Fatalf("PCToLine(%d) mismatch: got=%d want=%d", pc, got, line)
		}
	}
	if p.Next(-1) != 0 || p.Next(0) != 4 {
		t.Fatalf("Next mismatch: %d %d", p.Next(-1), p.Next(0))
	}
	if _, ok := p.At(5); ok {
		t.Fatalf("pc 5 is inside an instruction")
	}
}

func TestLabelTable_GlobalLaterWins(t *testing.T) {
	first := sample()
	second := sample()
	var table LabelTable
	table.Rebuild([]*Program{first, second})
	addr, ok := table.FindGlobal("FX")
	if !ok || addr.Prgm != 1 {
		t.Fatalf("global lookup mismatch: got=%+v ok=%v", addr, ok)
	}
	if _, ok := table.FindGlobal("NOPE"); ok {
		t.Fatalf("unexpected label NOPE")
	}
	gen := table.Generation()
	table.Rebuild([]*Program{first})
	if table.Generation() == gen {
		t.Fatalf("rebuild did not change generation")
	}
}

func TestFindLocal_WrapsAround(t *testing.T) {
	p := sample()
	lbl10 := p.OffsetOf(5)
	if got := FindLocal(p, p.OffsetOf(6), runtime.NumArg(10)); got != lbl10 {
		t.Fatalf("wrapped search mismatch: got=%d want=%d", got, lbl10)
	}
	if got := FindLocal(p, -1, runtime.NumArg(11)); got != runtime.Unresolved {
		t.Fatalf("missing label mismatch: got=%d", got)
	}
	if got := FindLocal(p, -1, runtime.NameArg("FX")); got != runtime.Unresolved {
		t.Fatalf("global label resolved as local: got=%d", got)
	}
}

func TestFrameStack_SentinelInvariant(t *testing.T) {
	s := NewFrameStack(3)
	if err := s.Push(Frame{Kind: TargetSolver}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := s.Push(Frame{Kind: TargetSolver}); !errors.Is(err, runtime.ErrInternalError) {
		t.Fatalf("expected internal error for second solver sentinel, got %v", err)
	}
	_ = s.Push(Frame{Kind: TargetUser, Addr: Address{Prgm: 0, PC: 4}})
	_ = s.Push(Frame{Kind: TargetIntegrator})
	if err := s.Push(Frame{Kind: TargetUser}); !errors.Is(err, runtime.ErrRTNStackFull) {
		t.Fatalf("expected full stack, got %v", err)
	}
	var dropped []TargetKind
	f, ok := s.UnwindTo(TargetSolver, func(f Frame) { dropped = append(dropped, f.Kind) })
	if !ok || f.Kind != TargetSolver || s.Len() != 0 {
		t.Fatalf("unwind mismatch: frame=%v ok=%v len=%d", f, ok, s.Len())
	}
	if len(dropped) != 2 || dropped[0] != TargetIntegrator || dropped[1] != TargetUser {
		t.Fatalf("discarded frames mismatch: got=%v want=[integrator user]", dropped)
	}
}

func TestFrameStack_ClearReportsDiscardedFrames(t *testing.T) {
	s := NewFrameStack(0)
	_ = s.Push(Frame{Kind: TargetSolver})
	_ = s.Push(Frame{Kind: TargetUser, Addr: Address{Prgm: 1, PC: 7}})
	_ = s.Push(Frame{Kind: TargetIntegrator})
	var kinds []TargetKind
	s.Clear(func(f Frame) { kinds = append(kinds, f.Kind) })
	if s.Len() != 0 {
		t.Fatalf("len mismatch: got=%d want=0", s.Len())
	}
	if len(kinds) != 3 || kinds[0] != TargetIntegrator || kinds[2] != TargetSolver {
		t.Fatalf("discarded frames mismatch: got=%v", kinds)
	}
	_ = s.Push(Frame{Kind: TargetSolver})
	s.Clear(nil)
	if s.Has(TargetSolver) {
		t.Fatalf("stack not cleared without a discard callback")
	}
}
