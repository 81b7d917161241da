package main

import (
	"os"
	"path/filepath"
	"testing"

	"rpncalc/core-go/pkg/driver"
	"rpncalc/core-go/pkg/runtime"
)

const countdown = `LBL "CNT"
10
STO "N"
LBL 01
RCL "N"
1
-
STO "N"
X!=0?
GTO 01
RCL "N"
END
`

func TestCLI_RunSuspendsAndResumes(t *testing.T) {
	dir := t.TempDir()
	prog := filepath.Join(dir, "cnt.rpn")
	if err := os.WriteFile(prog, []byte(countdown), 0o644); err != nil {
		t.Fatalf("write program: %v", err)
	}
	cfg := filepath.Join(dir, "rpncore.yaml")
	suspended := filepath.Join(dir, "suspended.state")
	done := filepath.Join(dir, "done.state")

	args := []string{"rpncore", "--config", cfg, "--no-color",
		"run", "--label", "CNT", "--max-steps", "5", "--save", suspended, prog}
	if err := newApp().Run(args); err != nil {
		t.Fatalf("run: %v", err)
	}
	s, err := driver.ReadState(suspended, nil)
	if err != nil {
		t.Fatalf("read suspended state: %v", err)
	}
	if s.Snapshot == nil || !s.Snapshot.Running {
		t.Fatalf("expected a suspended snapshot: %+v", s.Snapshot)
	}

	args = []string{"rpncore", "--config", cfg, "--no-color", "resume", "--save", done, suspended}
	if err := newApp().Run(args); err != nil {
		t.Fatalf("resume: %v", err)
	}
	s, err = driver.ReadState(done, nil)
	if err != nil {
		t.Fatalf("read final state: %v", err)
	}
	snap := s.Snapshot
	if snap == nil || snap.Running || len(snap.Stack) == 0 {
		t.Fatalf("expected a finished snapshot: %+v", snap)
	}
	if x, _ := runtime.AsReal(snap.Stack[len(snap.Stack)-1]); x != 0 {
		t.Fatalf("X mismatch: got=%v want=0", x)
	}

	if err := newApp().Run([]string{"rpncore", "--config", cfg, "inspect", done}); err != nil {
		t.Fatalf("inspect: %v", err)
	}
}

func TestCLI_SolveRequiresGuess(t *testing.T) {
	dir := t.TempDir()
	prog := filepath.Join(dir, "f.rpn")
	if err := os.WriteFile(prog, []byte("LBL \"FX\"\nRCL \"X\"\nX^2\n4\n-\nEND\n"), 0o644); err != nil {
		t.Fatalf("write program: %v", err)
	}
	args := []string{"rpncore", "--config", filepath.Join(dir, "none.yaml"),
		"solve", "--prgm", "FX", "--var", "X", prog}
	if err := newApp().Run(args); err == nil {
		t.Fatalf("expected an error without --guess")
	}
}
