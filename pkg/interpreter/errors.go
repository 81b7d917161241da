package interpreter

import (
	"fmt"
	"strings"

	"rpncalc/core-go/pkg/program"
)

// Error reports an instruction failure together with where it happened and
// the return stack at that moment. errors.Is matches the underlying
// runtime.Errno.
type Error struct {
	Err    error
	Addr   program.Address
	Line   int
	Op     program.Opcode
	HasOp  bool
	Frames []program.Frame
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("interpreter: ")
	b.WriteString(e.Err.Error())
	fmt.Fprintf(&b, " at program %d line %02d", e.Addr.Prgm, e.Line)
	if e.HasOp {
		fmt.Fprintf(&b, " (%s)", e.Op)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Trace renders the return stack innermost first, one frame per line.
func (e *Error) Trace() []string {
	if e == nil {
		return nil
	}
	lines := make([]string, 0, len(e.Frames))
	for i := len(e.Frames) - 1; i >= 0; i-- {
		lines = append(lines, "  from "+e.Frames[i].String())
	}
	return lines
}
