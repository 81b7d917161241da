package state

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"rpncalc/core-go/pkg/integrator"
	"rpncalc/core-go/pkg/parser"
	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
	"rpncalc/core-go/pkg/solver"
)

// Magic starts every state file.
const Magic = "RPNS"

// ErrBadMagic reports a file that is not a state file.
var ErrBadMagic = errors.New("state: not a state file")

// maxFrames bounds the return stack read from disk.
const maxFrames = 1 << 16

// Session is the content of a state file.
type Session struct {
	Version int
	Solve   solver.Continuation
	Integ   integrator.Continuation
	// Snapshot is nil when only the continuations were saved.
	Snapshot *Snapshot
}

// Snapshot is the engine state needed to resume a suspended run.
type Snapshot struct {
	// Source is the program listing; positions refer to its programs.
	Source   string
	Prgm     int
	Line     int
	Running  bool
	Frames   []Frame
	BigStack bool
	Stack    []runtime.Value // bottom first
	LastX    runtime.Value
	Vars     []Binding

	programs []*program.Program
}

// Frame is a return frame with its address as a line number.
type Frame struct {
	Kind program.TargetKind
	Prgm int
	Line int
	Stop bool
}

type Binding struct {
	Name  runtime.Name
	Value runtime.Value
}

// Programs returns the programs parsed from Source by Decode.
func (s *Snapshot) Programs() []*program.Program { return s.programs }

// Encode writes s. lines converts the continuations' caller positions;
// when s carries a snapshot its own programs are used instead.
func Encode(out io.Writer, s *Session, lines LineMapper) error {
	w := NewWriter(out)
	w.write([]byte(Magic))
	w.Int(FormatVersion)
	if s.Snapshot != nil {
		progs, err := parser.Parse([]byte(s.Snapshot.Source))
		if err != nil {
			return fmt.Errorf("state: snapshot source: %w", err)
		}
		lines = Programs(progs)
		w.Bool(true)
		writeSnapshot(w, s.Snapshot)
	} else {
		w.Bool(false)
	}
	WriteSolve(w, &s.Solve, lines)
	WriteInteg(w, &s.Integ, lines)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("state: write: %w", err)
	}
	return nil
}

// Decode reads a state file. lines converts caller line numbers back into
// positions when the file has no snapshot of its own.
func Decode(in io.Reader, lines LineMapper) (*Session, error) {
	r := NewReader(in)
	magic := r.read(len(Magic))
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("state: read header: %w", err)
	}
	if !bytes.Equal(magic, []byte(Magic)) {
		return nil, ErrBadMagic
	}
	s := &Session{Version: r.Int()}
	if s.Version <= 0 || s.Version > FormatVersion {
		return nil, fmt.Errorf("state: unsupported format version %d", s.Version)
	}
	if r.Bool() {
		snap, err := readSnapshot(r)
		if err != nil {
			return nil, err
		}
		s.Snapshot = snap
		lines = Programs(snap.programs)
	}
	var err error
	if s.Solve, err = ReadSolve(r, s.Version, lines); err != nil {
		return nil, err
	}
	if s.Integ, err = ReadInteg(r, s.Version, lines); err != nil {
		return nil, err
	}
	return s, nil
}

func writeSnapshot(w *Writer, s *Snapshot) {
	w.Bytes([]byte(s.Source))
	w.Int(s.Prgm)
	w.Int(s.Line)
	w.Bool(s.Running)
	w.Int(len(s.Frames))
	for _, f := range s.Frames {
		w.Int(int(f.Kind))
		w.Int(f.Prgm)
		w.Int(f.Line)
		w.Bool(f.Stop)
	}
	w.Bool(s.BigStack)
	w.Int(len(s.Stack))
	for _, v := range s.Stack {
		WriteValue(w, v)
	}
	lastX := s.LastX
	if lastX == nil {
		lastX = runtime.RealValue{}
	}
	WriteValue(w, lastX)
	w.Int(len(s.Vars))
	for _, b := range s.Vars {
		w.Bytes([]byte(b.Name))
		WriteValue(w, b.Value)
	}
}

func readSnapshot(r *Reader) (*Snapshot, error) {
	s := &Snapshot{}
	s.Source = string(r.Bytes())
	s.Prgm = r.Int()
	s.Line = r.Int()
	s.Running = r.Bool()
	n := r.Count(maxFrames)
	for i := 0; i < n && r.Err() == nil; i++ {
		f := Frame{Kind: program.TargetKind(r.Int()), Prgm: r.Int(), Line: r.Int(), Stop: r.Bool()}
		if f.Kind < program.TargetUser || f.Kind > program.TargetIntegrator {
			return nil, fmt.Errorf("state: snapshot: bad frame kind %d", f.Kind)
		}
		s.Frames = append(s.Frames, f)
	}
	s.BigStack = r.Bool()
	n = r.Count(maxCells)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("state: snapshot: %w", err)
	}
	for i := 0; i < n; i++ {
		v, err := ReadValue(r)
		if err != nil {
			return nil, fmt.Errorf("state: snapshot stack: %w", err)
		}
		s.Stack = append(s.Stack, v)
	}
	lastX, err := ReadValue(r)
	if err != nil {
		return nil, fmt.Errorf("state: snapshot last x: %w", err)
	}
	s.LastX = lastX
	n = r.Count(maxCells)
	for i := 0; i < n && r.Err() == nil; i++ {
		name, err := runtime.NewName(string(r.Bytes()))
		if err != nil {
			return nil, fmt.Errorf("state: snapshot: %w", err)
		}
		v, err := ReadValue(r)
		if err != nil {
			return nil, fmt.Errorf("state: snapshot variable %q: %w", name, err)
		}
		s.Vars = append(s.Vars, Binding{Name: name, Value: v})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("state: snapshot: %w", err)
	}
	progs, err := parser.Parse([]byte(s.Source))
	if err != nil {
		return nil, fmt.Errorf("state: snapshot source: %w", err)
	}
	s.programs = progs
	return s, nil
}
