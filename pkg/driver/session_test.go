package driver

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"rpncalc/core-go/pkg/interpreter"
	"rpncalc/core-go/pkg/parser"
	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
	"rpncalc/core-go/pkg/solver"
)

const solveInside = `
LBL "MAIN"
PGMSLV "FX"
3
STO "X"
1
SOLVE "X"
END
LBL "FX"
RCL "X"
X^2
4
-
RTN
END
`

func startMain(t *testing.T) *interpreter.Engine {
	t.Helper()
	progs, err := parser.Parse([]byte(solveInside))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := interpreter.NewEngine(interpreter.Options{BigStack: true})
	e.Load(progs)
	st, err := e.Execute(&program.Instruction{Op: program.OpXeq, Arg: runtime.NameArg("MAIN")})
	if err != nil || st != runtime.StatusRun {
		t.Fatalf("XEQ mismatch: got=%v err=%v", st, err)
	}
	return e
}

func TestSession_SuspendedSolveResumesAfterReload(t *testing.T) {
	ref := startMain(t)
	if _, err := ref.Run(context.Background(), 1<<20); err != nil {
		t.Fatalf("reference run: %v", err)
	}

	e := startMain(t)
	st, err := e.Run(context.Background(), 14)
	if err != nil || st != runtime.StatusRun {
		t.Fatalf("budget status mismatch: got=%v err=%v", st, err)
	}
	if !e.Solver().Active() || len(e.Frames()) != 1 {
		t.Fatalf("expected a solve in progress: phase=%v frames=%v", e.Solver().Cont.Phase, e.Frames())
	}

	path := filepath.Join(t.TempDir(), "session.state")
	if err := SaveState(path, e); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	restored, err := LoadState(path, interpreter.Options{}, nil)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if restored.Position() != e.Position() || !restored.Running() {
		t.Fatalf("position mismatch: got=%v want=%v", restored.Position(), e.Position())
	}
	if !reflect.DeepEqual(restored.Frames(), e.Frames()) {
		t.Fatalf("frames mismatch: got=%v want=%v", restored.Frames(), e.Frames())
	}
	if restored.Solver().Cont.Caller != e.Solver().Cont.Caller {
		t.Fatalf("caller mismatch: got=%v want=%v", restored.Solver().Cont.Caller, e.Solver().Cont.Caller)
	}

	if _, err := restored.Run(context.Background(), 1<<20); err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if !reflect.DeepEqual(restored.Stack().Values(), ref.Stack().Values()) {
		t.Fatalf("stack mismatch: got=%v want=%v", restored.Stack().Values(), ref.Stack().Values())
	}
	x, _ := restored.Stack().X()
	if root, _ := runtime.AsReal(x); root != 2 {
		t.Fatalf("root mismatch: got=%v want=2", root)
	}
	code, _ := restored.Stack().Peek(3)
	if c, _ := runtime.AsReal(code); c != float64(solver.Root) {
		t.Fatalf("code mismatch: got=%v want=%v", c, float64(solver.Root))
	}
}

func TestSession_ContinuationsOnlyUseSuppliedPrograms(t *testing.T) {
	e := startMain(t)
	if _, err := e.Run(context.Background(), 14); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := Capture(e)
	s.Snapshot = nil
	report := Describe(s)
	if report.Solve.Phase == solver.Inactive.String() || report.Solve.Active != "FX" {
		t.Fatalf("report mismatch: %#v", report.Solve)
	}
	out, err := MarshalReport(report)
	if err != nil {
		t.Fatalf("MarshalReport: %v", err)
	}
	if !strings.Contains(string(out), "active_program: FX") {
		t.Fatalf("yaml report missing program:\n%s", out)
	}

	restored, err := Restore(s, interpreter.Options{BigStack: true}, e.Programs())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Solver().Cont.Var != "X" || restored.Solver().Cont.ActivePrgm != "FX" {
		t.Fatalf("solve continuation not installed: %+v", restored.Solver().Cont)
	}
	if len(restored.Frames()) != 0 || restored.Running() {
		t.Fatalf("continuation-only restore carried engine state")
	}
	// no sentinel came back, so the solve is over and a new one may start
	if restored.Solver().Active() {
		t.Fatalf("solve without its sentinel restored as active")
	}
	if err := restored.Variables().Store("X", runtime.RealValue{Val: 1}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := restored.Execute(&program.Instruction{Op: program.OpSolve, Arg: runtime.NameArg("X")}); err != nil {
		t.Fatalf("SOLVE after restore: %v", err)
	}
	if !restored.Solver().Active() {
		t.Fatalf("SOLVE after restore did not start")
	}
}

func TestLoadSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.rpn":         "LBL \"B\"\nRTN\nEND\n",
		"a.rpn":         "LBL \"A\"\n1\n",
		"notes.txt":     "ignored",
		".hidden/c.rpn": "LBL \"C\"\nEND\n",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	src, err := LoadSource(dir)
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if len(src.Programs) != 2 || len(src.Files) != 2 {
		t.Fatalf("program count mismatch: got=%d files=%v", len(src.Programs), src.Files)
	}
	if got := parser.FormatInstruction(&src.Programs[0].Instructions[0]); got != `LBL "A"` {
		t.Fatalf("program order mismatch: first=%s", got)
	}
	// the A listing had no END; one is appended
	if src.Programs[0].Len() != 3 {
		t.Fatalf("END not appended: len=%d", src.Programs[0].Len())
	}
	reparsed, err := parser.Parse([]byte(src.Text))
	if err != nil || len(reparsed) != 2 {
		t.Fatalf("source text does not reparse: n=%d err=%v", len(reparsed), err)
	}
}

func TestLoadSourceReportsFileAndLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.rpn")
	if err := os.WriteFile(path, []byte("LBL \"A\"\nFROB\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadSource(path)
	if err == nil || !strings.Contains(err.Error(), "bad.rpn:2:1") {
		t.Fatalf("error location mismatch: got=%v", err)
	}
}
