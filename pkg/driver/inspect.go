package driver

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"rpncalc/core-go/pkg/display"
	"rpncalc/core-go/pkg/integrator"
	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/solver"
	"rpncalc/core-go/pkg/state"
)

// Report is the human-readable view of a state file printed by inspect.
type Report struct {
	Version  int             `yaml:"version"`
	Solve    SolveReport     `yaml:"solve"`
	Integ    IntegReport     `yaml:"integ"`
	Snapshot *SnapshotReport `yaml:"snapshot,omitempty"`
}

type SolveReport struct {
	Phase      string            `yaml:"phase"`
	Program    string            `yaml:"program,omitempty"`
	Active     string            `yaml:"active_program,omitempty"`
	Variable   string            `yaml:"variable,omitempty"`
	Running    bool              `yaml:"keep_running"`
	Caller     string            `yaml:"caller,omitempty"`
	Bracket    []string          `yaml:"bracket,omitempty"`
	Best       string            `yaml:"best,omitempty"`
	Impatience int               `yaml:"impatience"`
	Shadows    map[string]string `yaml:"shadows,omitempty"`
}

type IntegReport struct {
	Phase    string `yaml:"phase"`
	Program  string `yaml:"program,omitempty"`
	Active   string `yaml:"active_program,omitempty"`
	Variable string `yaml:"variable,omitempty"`
	Running  bool   `yaml:"keep_running"`
	Caller   string `yaml:"caller,omitempty"`
	Limits   string `yaml:"limits,omitempty"`
	Level    int    `yaml:"level"`
	Estimate string `yaml:"estimate,omitempty"`
}

type SnapshotReport struct {
	Position  string            `yaml:"position"`
	Running   bool              `yaml:"running"`
	Stack     string            `yaml:"stack"`
	Levels    []string          `yaml:"levels"`
	Frames    []string          `yaml:"frames,omitempty"`
	Variables map[string]string `yaml:"variables,omitempty"`
	Source    string            `yaml:"source"`
}

// Describe builds the report for s.
func Describe(s *state.Session) *Report {
	r := &Report{
		Version: s.Version,
		Solve:   describeSolve(&s.Solve),
		Integ:   describeInteg(&s.Integ),
	}
	if snap := s.Snapshot; snap != nil {
		sr := &SnapshotReport{
			Position: fmt.Sprintf("%d:%02d", snap.Prgm, snap.Line),
			Running:  snap.Running,
			Stack:    StackClassic,
			Source:   snap.Source,
		}
		if snap.BigStack {
			sr.Stack = StackBig
		}
		// X first, the way the stack is shown on screen
		for i := len(snap.Stack) - 1; i >= 0; i-- {
			sr.Levels = append(sr.Levels, display.FormatValue(snap.Stack[i]))
		}
		for _, f := range snap.Frames {
			if f.Kind == program.TargetUser {
				sr.Frames = append(sr.Frames, fmt.Sprintf("%d:%02d", f.Prgm, f.Line))
			} else {
				sr.Frames = append(sr.Frames, f.Kind.String())
			}
		}
		if len(snap.Vars) > 0 {
			sr.Variables = make(map[string]string, len(snap.Vars))
			for _, b := range snap.Vars {
				sr.Variables[string(b.Name)] = display.FormatValue(b.Value)
			}
		}
		r.Snapshot = sr
	}
	return r
}

func describeSolve(c *solver.Continuation) SolveReport {
	r := SolveReport{
		Phase:      c.Phase.String(),
		Program:    string(c.Prgm),
		Active:     string(c.ActivePrgm),
		Variable:   string(c.Var),
		Running:    c.KeepRunning,
		Impatience: c.Impatience,
	}
	if c.Active() {
		r.Caller = fmt.Sprintf("%d:%d", c.Caller.Prgm, c.Caller.PC)
		r.Bracket = []string{display.FormatReal(c.X1), display.FormatReal(c.X2)}
		r.Best = display.FormatReal(c.BestX)
	}
	for _, sh := range c.Shadows.Slots {
		if sh.Name == "" {
			continue
		}
		if r.Shadows == nil {
			r.Shadows = make(map[string]string)
		}
		r.Shadows[string(sh.Name)] = display.FormatReal(sh.Value)
	}
	return r
}

func describeInteg(c *integrator.Continuation) IntegReport {
	r := IntegReport{
		Phase:    c.Phase.String(),
		Program:  string(c.Prgm),
		Active:   string(c.ActivePrgm),
		Variable: string(c.Var),
		Running:  c.KeepRunning,
	}
	if c.Active() {
		r.Caller = fmt.Sprintf("%d:%d", c.Caller.Prgm, c.Caller.PC)
		r.Limits = display.FormatReal(c.Llim) + " .. " + display.FormatReal(c.Ulim)
		r.Level = c.N
		r.Estimate = display.FormatReal(c.PrevInt)
	}
	return r
}

// MarshalReport renders the report as YAML.
func MarshalReport(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("inspect: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("inspect: encoder close: %w", err)
	}
	return buf.Bytes(), nil
}
