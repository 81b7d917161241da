package parser

import (
	"errors"
	"testing"

	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

const quadratic = `
# f(x) = x^2 - 4
LBL "FX"
RCL "X"   # the solve variable
X^2
4
-
RTN
END
LBL "G"
STO IND ST X
GTO A
LBL A
"done #1"
`

func TestParse_ProgramsAndOperands(t *testing.T) {
	programs, err := Parse([]byte(quadratic))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(programs) != 2 {
		t.Fatalf("program count mismatch: got=%d want=2", len(programs))
	}
	first := programs[0]
	if first.Len() != 7 {
		t.Fatalf("first program length mismatch: got=%d want=7", first.Len())
	}
	if in := first.Instructions[1]; in.Op != program.OpRcl || in.Arg.Kind != runtime.ArgName || in.Arg.Name != "X" {
		t.Fatalf("RCL mismatch: got=%#v", in)
	}
	if in := first.Instructions[3]; in.Op != program.OpNumber || in.Arg.Number != 4 {
		t.Fatalf("number mismatch: got=%#v", in)
	}
	if in := first.Instructions[4]; in.Op != program.OpSub {
		t.Fatalf("minus parsed as %v", in.Op)
	}

	second := programs[1]
	if in := second.Instructions[1]; in.Arg.Kind != runtime.ArgIndStack || in.Arg.Stack != 'X' {
		t.Fatalf("indirect stack operand mismatch: got=%#v", in.Arg)
	}
	if in := second.Instructions[2]; in.Arg.Kind != runtime.ArgLocalLabel || in.Arg.Stack != 'A' {
		t.Fatalf("local label operand mismatch: got=%#v", in.Arg)
	}
	if in := second.Instructions[4]; in.Op != program.OpString || string(in.Text) != "done #1" {
		t.Fatalf("string literal mismatch: got=%#v", in)
	}
	if last := second.Instructions[second.Len()-1].Op; last != program.OpEnd {
		t.Fatalf("missing implicit END: got=%v", last)
	}
}

func TestParse_RoundTripThroughFormat(t *testing.T) {
	programs, err := Parse([]byte(quadratic))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	text := FormatAll(programs)
	again, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, text)
	}
	if FormatAll(again) != text {
		t.Fatalf("format mismatch:\n%s\n---\n%s", text, FormatAll(again))
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name   string
		source string
		line   int
		column int
	}{
		{name: "unknown", source: "LBL \"A\"\n  FROB", line: 2, column: 3},
		{name: "missing operand", source: "RCL", line: 1, column: 1},
		{name: "extra operand", source: "ENTER 5", line: 1, column: 7},
		{name: "long name", source: "STO \"ABCDEFGH\"", line: 1, column: 5},
		{name: "indirect label definition", source: "LBL IND 05", line: 1, column: 5},
		{name: "unterminated string", source: "\"abc", line: 1, column: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.source))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if perr.Location.Line != tc.line || perr.Location.Column != tc.column {
				t.Fatalf("location mismatch: got=(%d,%d) want=(%d,%d)", perr.Location.Line, perr.Location.Column, tc.line, tc.column)
			}
		})
	}
}

func TestListing(t *testing.T) {
	p, err := ParseProgram([]byte("LBL \"FX\"\nRCL 05\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := Listing(p)
	want := []string{"00 { 7-Byte Prgm }", `01 LBL "FX"`, "02 RCL 05", "03 END"}
	if len(got) != len(want) {
		t.Fatalf("listing mismatch: got=%#v want=%#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("listing line %d mismatch: got=%q want=%q", i, got[i], want[i])
		}
	}
}

func TestParseInstruction(t *testing.T) {
	in, err := ParseInstruction(`  STO "ABC"  # keyboard entry`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if in.Op != program.OpSto || in.Arg.Name != "ABC" {
		t.Fatalf("instruction mismatch: got=%#v", in)
	}
	if _, err := ParseInstruction("   "); err == nil {
		t.Fatalf("expected error for blank input")
	}
	var perr *ParseError
	if _, err := ParseInstruction("  BOGUS"); !errors.As(err, &perr) || perr.Location.Column != 3 {
		t.Fatalf("error location mismatch: got=%v", err)
	}
}
