package program

import (
	"sort"

	"rpncalc/core-go/pkg/runtime"
)

// Instruction is one program step.
type Instruction struct {
	Op   Opcode
	Arg  runtime.Operand
	Text []byte // string literal for OpString
}

// Length is the encoded size of the instruction in bytes. Program counters
// are byte offsets, so they change when a program is edited; line numbers
// do not.
func (in *Instruction) Length() int {
	switch in.Op {
	case OpNumber:
		return 9
	case OpString:
		return 2 + len(in.Text)
	}
	switch in.Arg.Kind {
	case runtime.ArgNone:
		return 1
	case runtime.ArgName, runtime.ArgIndName:
		n := 2 + len(in.Arg.Name)
		if in.Arg.Kind == runtime.ArgIndName {
			n++
		}
		return n
	case runtime.ArgLabelIndex:
		return 3
	case runtime.ArgIndNum, runtime.ArgIndStack:
		return 3
	default:
		return 2
	}
}

// Address is a position inside a loaded program. PC -1 is the top of the
// program, before line 1.
type Address struct {
	Prgm int
	PC   int
}

// Program is a sequence of instructions terminated by END.
type Program struct {
	Instructions []Instruction
	offsets      []int
	size         int
}

// New builds a program, appending END when the last instruction is not one.
func New(instrs []Instruction) *Program {
	if len(instrs) == 0 || instrs[len(instrs)-1].Op != OpEnd {
		instrs = append(instrs, Instruction{Op: OpEnd})
	}
	p := &Program{Instructions: instrs}
	p.layout()
	return p
}

func (p *Program) layout() {
	p.offsets = make([]int, len(p.Instructions))
	off := 0
	for i := range p.Instructions {
		p.offsets[i] = off
		off += p.Instructions[i].Length()
	}
	p.size = off
}

// Size is the total encoded length.
func (p *Program) Size() int { return p.size }

// Len is the number of instructions, END included.
func (p *Program) Len() int { return len(p.Instructions) }

// OffsetOf returns the pc of instruction index i.
func (p *Program) OffsetOf(i int) int {
	if i < 0 {
		return -1
	}
	if i >= len(p.offsets) {
		return p.size
	}
	return p.offsets[i]
}

// IndexAt returns the instruction index starting at pc, or -1 if pc does not
// fall on an instruction boundary.
func (p *Program) IndexAt(pc int) int {
	i := sort.SearchInts(p.offsets, pc)
	if i < len(p.offsets) && p.offsets[i] == pc {
		return i
	}
	return -1
}

// At returns the instruction starting at pc.
func (p *Program) At(pc int) (*Instruction, bool) {
	i := p.IndexAt(pc)
	if i < 0 {
		return nil, false
	}
	return &p.Instructions[i], true
}

// Next returns the pc following the instruction at pc. The top of the
// program (-1) advances to the first instruction.
func (p *Program) Next(pc int) int {
	if pc < 0 {
		return 0
	}
	i := p.IndexAt(pc)
	if i < 0 {
		return p.size
	}
	return p.OffsetOf(i + 1)
}

// PCToLine converts a pc into a line number; line 0 is the program top.
func (p *Program) PCToLine(pc int) int {
	if pc < 0 {
		return 0
	}
	i := sort.SearchInts(p.offsets, pc)
	if i >= len(p.offsets) {
		return len(p.offsets)
	}
	if p.offsets[i] != pc {
		// inside an instruction: report the one that contains pc
		return i
	}
	return i + 1
}

// LineToPC converts a line number back into a pc.
func (p *Program) LineToPC(line int) int {
	if line <= 0 {
		return -1
	}
	return p.OffsetOf(line - 1)
}

// Invalidate drops every cached jump target in the program.
func (p *Program) Invalidate() {
	for i := range p.Instructions {
		p.Instructions[i].Arg.Invalidate()
	}
}
