package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"rpncalc/core-go/pkg/interpreter"
	"rpncalc/core-go/pkg/parser"
	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
	"rpncalc/core-go/pkg/state"
)

// EngineOptions derives engine options from the configuration.
func (c *Config) EngineOptions() interpreter.Options {
	return interpreter.Options{
		BigStack:      c.BigStack(),
		MaxFrames:     c.MaxReturnDepth,
		RefreshMillis: c.RefreshMillis,
	}
}

// Capture snapshots everything needed to continue e later: programs,
// position, return frames, stack, variables and both continuations.
func Capture(e *interpreter.Engine) *state.Session {
	progs := state.Programs(e.Programs())
	pos := e.Position()
	snap := &state.Snapshot{
		Source:   parser.FormatAll(e.Programs()),
		Prgm:     pos.Prgm,
		Line:     progs.PCToLine(pos.Prgm, pos.PC),
		Running:  e.Running(),
		BigStack: e.Stack().Big(),
		Stack:    e.Stack().Values(),
	}
	for _, f := range e.Frames() {
		sf := state.Frame{Kind: f.Kind, Stop: f.Stop}
		if f.Kind == program.TargetUser {
			sf.Prgm = f.Addr.Prgm
			sf.Line = progs.PCToLine(f.Addr.Prgm, f.Addr.PC)
		}
		snap.Frames = append(snap.Frames, sf)
	}
	if lastX := e.Stack().LastX(); lastX != nil {
		snap.LastX = runtime.Copy(lastX)
	}
	vars := e.Variables()
	for _, name := range vars.Names() {
		v, _ := vars.Recall(name)
		snap.Vars = append(snap.Vars, state.Binding{Name: name, Value: runtime.Copy(v)})
	}
	return &state.Session{
		Version:  state.FormatVersion,
		Solve:    e.Solver().Cont,
		Integ:    e.Integrator().Cont,
		Snapshot: snap,
	}
}

// Restore builds an engine from a decoded session. A session without a
// snapshot only carries continuations; they are installed on a fresh engine
// running programs. A continuation whose sentinel frame did not come back
// with the session is no longer in progress.
func Restore(s *state.Session, opts interpreter.Options, programs []*program.Program) (*interpreter.Engine, error) {
	snap := s.Snapshot
	if snap == nil {
		e := interpreter.NewEngine(opts)
		e.Load(programs)
		e.Solver().Cont = s.Solve
		e.Integrator().Cont = s.Integ
		e.ReconcileContinuations()
		return e, nil
	}

	opts.BigStack = snap.BigStack
	e := interpreter.NewEngine(opts)
	e.Load(snap.Programs())
	progs := state.Programs(snap.Programs())

	frames := make([]program.Frame, 0, len(snap.Frames))
	for _, sf := range snap.Frames {
		f := program.Frame{Kind: sf.Kind, Stop: sf.Stop}
		if sf.Kind == program.TargetUser {
			if sf.Prgm < 0 || sf.Prgm >= len(progs) {
				return nil, fmt.Errorf("session: return frame into missing program %d", sf.Prgm)
			}
			f.Addr = program.Address{Prgm: sf.Prgm, PC: progs.LineToPC(sf.Prgm, sf.Line)}
		}
		frames = append(frames, f)
	}
	e.RestoreFrames(frames)

	if len(progs) > 0 && (snap.Prgm < 0 || snap.Prgm >= len(progs)) {
		return nil, fmt.Errorf("session: position in missing program %d", snap.Prgm)
	}
	e.SetPosition(program.Address{Prgm: snap.Prgm, PC: progs.LineToPC(snap.Prgm, snap.Line)})
	e.SetRunning(snap.Running)

	e.Stack().Restore(snap.Stack)
	e.Stack().SetLastX(snap.LastX)
	for _, b := range snap.Vars {
		if err := e.Variables().Store(b.Name, b.Value); err != nil {
			return nil, fmt.Errorf("session: restore %s: %w", b.Name, err)
		}
	}
	e.Solver().Cont = s.Solve
	e.Integrator().Cont = s.Integ
	e.ReconcileContinuations()
	return e, nil
}

// SaveState writes the engine session to path, replacing any previous file.
func SaveState(path string, e *interpreter.Engine) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("session: resolve %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".rpncore-*.tmp")
	if err != nil {
		return fmt.Errorf("session: create %s: %w", abs, err)
	}
	defer os.Remove(tmp.Name())
	if err := state.Encode(tmp, Capture(e), nil); err != nil {
		tmp.Close()
		return fmt.Errorf("session: encode %s: %w", abs, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: write %s: %w", abs, err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return fmt.Errorf("session: write %s: %w", abs, err)
	}
	return nil
}

// ReadState decodes the state file at path. programs translate caller
// lines when the file carries no snapshot.
func ReadState(path string, programs []*program.Program) (*state.Session, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	s, err := state.Decode(file, state.Programs(programs))
	if err != nil {
		return nil, fmt.Errorf("session: %s: %w", path, err)
	}
	return s, nil
}

// LoadState reads path and rebuilds the engine it describes.
func LoadState(path string, opts interpreter.Options, programs []*program.Program) (*interpreter.Engine, error) {
	s, err := ReadState(path, programs)
	if err != nil {
		return nil, err
	}
	return Restore(s, opts, programs)
}
