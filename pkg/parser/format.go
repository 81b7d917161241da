package parser

import (
	"strconv"
	"strings"

	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

// FormatInstruction renders one instruction the way Parse reads it.
func FormatInstruction(in *program.Instruction) string {
	switch in.Op {
	case program.OpNumber:
		return strconv.FormatFloat(in.Arg.Number, 'g', -1, 64)
	case program.OpString:
		return `"` + string(in.Text) + `"`
	}
	if in.Arg.Kind == runtime.ArgNone {
		return in.Op.String()
	}
	return in.Op.String() + " " + formatOperand(in.Arg)
}

func formatOperand(arg runtime.Operand) string {
	switch arg.Kind {
	case runtime.ArgName:
		return `"` + string(arg.Name) + `"`
	case runtime.ArgIndName:
		return `IND "` + string(arg.Name) + `"`
	}
	return arg.String()
}

// Format renders a single program, END included.
func Format(p *program.Program) string {
	var b strings.Builder
	for i := range p.Instructions {
		b.WriteString(FormatInstruction(&p.Instructions[i]))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatAll renders programs back to back; Parse(FormatAll(ps)) yields the
// same programs.
func FormatAll(programs []*program.Program) string {
	var b strings.Builder
	for _, p := range programs {
		b.WriteString(Format(p))
	}
	return b.String()
}

// Listing renders p with line numbers, as shown when inspecting a program.
func Listing(p *program.Program) []string {
	out := make([]string, 0, p.Len()+1)
	out = append(out, "00 { "+strconv.Itoa(p.Size())+"-Byte Prgm }")
	for i := range p.Instructions {
		out = append(out, padLine(i+1)+" "+FormatInstruction(&p.Instructions[i]))
	}
	return out
}

func padLine(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}
