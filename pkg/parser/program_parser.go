// Package parser reads keystroke program listings, one instruction per line,
// into loaded programs and writes them back out.
//
//	LBL "FX"
//	RCL "X"
//	X^2
//	4
//	-
//	END
//
// Blank lines and text after '#' are ignored. END closes a program; trailing
// instructions without one form a final program.
package parser

import (
	"strconv"
	"strings"

	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

// Parse splits source into programs.
func Parse(source []byte) ([]*program.Program, error) {
	var (
		programs []*program.Program
		current  []program.Instruction
	)
	lines := strings.Split(string(source), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		text, col := trimLine(raw)
		if text == "" {
			continue
		}
		in, err := parseInstruction(text, lineNo, col)
		if err != nil {
			return nil, err
		}
		current = append(current, in)
		if in.Op == program.OpEnd {
			programs = append(programs, program.New(current))
			current = nil
		}
	}
	if len(current) > 0 {
		programs = append(programs, program.New(current))
	}
	return programs, nil
}

// ParseProgram parses source that must hold exactly one program.
func ParseProgram(source []byte) (*program.Program, error) {
	programs, err := Parse(source)
	if err != nil {
		return nil, err
	}
	if len(programs) != 1 {
		return nil, &ParseError{Message: "parser: expected one program, found " + strconv.Itoa(len(programs))}
	}
	return programs[0], nil
}

// ParseInstruction reads a single instruction, as typed at the keyboard.
func ParseInstruction(text string) (program.Instruction, error) {
	trimmed, col := trimLine(text)
	if trimmed == "" {
		return program.Instruction{}, errorAt(1, col, col, "empty instruction")
	}
	return parseInstruction(trimmed, 1, col)
}

// trimLine removes the comment and surrounding blanks and returns the
// 1-based column where the remaining text starts.
func trimLine(raw string) (string, int) {
	raw = strings.TrimRight(raw, "\r")
	inQuote := false
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '"':
			inQuote = !inQuote
		case '#':
			if !inQuote {
				raw = raw[:i]
			}
		}
	}
	trimmed := strings.TrimLeft(raw, " \t")
	col := len(raw) - len(trimmed) + 1
	return strings.TrimRight(trimmed, " \t"), col
}

func parseInstruction(text string, line, col int) (program.Instruction, error) {
	end := col + len(text)
	if text[0] == '"' {
		body, ok := unquote(text)
		if !ok {
			return program.Instruction{}, errorAt(line, col, end, "unterminated string")
		}
		if len(body) > runtime.MaxStringLength {
			return program.Instruction{}, errorAt(line, col, end, "string longer than %d bytes", runtime.MaxStringLength)
		}
		return program.Instruction{Op: program.OpString, Text: []byte(body)}, nil
	}

	keyword, rest := splitWord(text)
	op, ok := program.Lookup(keyword)
	if !ok {
		if x, err := strconv.ParseFloat(text, 64); err == nil && isNumberStart(text[0]) {
			return program.Instruction{Op: program.OpNumber, Arg: runtime.NumberArg(x)}, nil
		}
		return program.Instruction{}, errorAt(line, col, col+len(keyword), "unknown instruction %q", keyword)
	}

	argCol := col + len(text) - len(rest)
	if op.Args() == program.ArgClassNone {
		if rest != "" {
			return program.Instruction{}, errorAt(line, argCol, end, "%s takes no operand", op)
		}
		return program.Instruction{Op: op}, nil
	}
	if rest == "" {
		return program.Instruction{}, errorAt(line, col, end, "%s needs an operand", op)
	}
	arg, err := parseOperand(rest)
	if err != nil {
		return program.Instruction{}, errorAt(line, argCol, end, "%s: %v", op, err)
	}
	if !accepts(op, arg) {
		return program.Instruction{}, errorAt(line, argCol, end, "%s does not accept operand %s", op, arg)
	}
	return program.Instruction{Op: op, Arg: arg}, nil
}

func accepts(op program.Opcode, arg runtime.Operand) bool {
	switch op.Args() {
	case program.ArgClassLabel:
		switch arg.Kind {
		case runtime.ArgNum, runtime.ArgLocalLabel, runtime.ArgName:
			return true
		case runtime.ArgIndNum, runtime.ArgIndStack, runtime.ArgIndName:
			return op != program.OpLbl
		}
	case program.ArgClassVar:
		switch arg.Kind {
		case runtime.ArgNum, runtime.ArgStack, runtime.ArgName,
			runtime.ArgIndNum, runtime.ArgIndStack, runtime.ArgIndName:
			return true
		}
	case program.ArgClassName:
		return arg.Kind == runtime.ArgName
	}
	return false
}

type operandError string

func (e operandError) Error() string { return string(e) }

func parseOperand(text string) (runtime.Operand, error) {
	indirect := false
	if word, rest := splitWord(text); word == "IND" {
		indirect = true
		text = rest
		if text == "" {
			return runtime.Operand{}, operandError("IND needs a target")
		}
	}
	switch {
	case text[0] == '"':
		body, ok := unquote(text)
		if !ok {
			return runtime.Operand{}, operandError("unterminated name")
		}
		if body == "" {
			return runtime.Operand{}, operandError("empty name")
		}
		name, err := runtime.NewName(body)
		if err != nil {
			return runtime.Operand{}, err
		}
		if indirect {
			return runtime.IndNameArg(name), nil
		}
		return runtime.NameArg(name), nil
	case strings.HasPrefix(text, "ST "):
		slot := strings.TrimSpace(text[3:])
		if len(slot) != 1 || !strings.Contains("XYZTL", slot) {
			return runtime.Operand{}, operandError("bad stack slot " + strconv.Quote(slot))
		}
		if indirect {
			return runtime.IndStackArg(slot[0]), nil
		}
		return runtime.StackArg(slot[0]), nil
	case isDigits(text):
		n, err := strconv.Atoi(text)
		if err != nil {
			return runtime.Operand{}, err
		}
		if indirect {
			return runtime.IndNumArg(n), nil
		}
		return runtime.NumArg(n), nil
	case len(text) == 1 && isLocalLetter(text[0]) && !indirect:
		return runtime.LocalLabelArg(text[0]), nil
	}
	return runtime.Operand{}, operandError("bad operand " + strconv.Quote(text))
}

func splitWord(text string) (string, string) {
	i := strings.IndexAny(text, " \t")
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimLeft(text[i:], " \t")
}

// unquote returns the text between the opening quote and the last quote.
func unquote(text string) (string, bool) {
	last := strings.LastIndexByte(text, '"')
	if last <= 0 || strings.TrimSpace(text[last+1:]) != "" {
		return "", false
	}
	return text[1:last], true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
}

func isLocalLetter(c byte) bool {
	return (c >= 'A' && c <= 'J') || (c >= 'a' && c <= 'e')
}
