package program

import "fmt"

// Opcode identifies an instruction.
type Opcode int

const (
	OpNumber Opcode = iota
	OpString
	OpEnter
	OpSwap
	OpDrop
	OpClx
	OpLastX
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpChs
	OpSquare
	OpSqrt
	OpInv
	OpPow
	OpSin
	OpCos
	OpTan
	OpExp
	OpLn
	OpAbs
	OpSto
	OpRcl
	OpLbl
	OpGto
	OpXeq
	OpRtn
	OpEnd
	OpStop
	OpXEq0
	OpXNe0
	OpXLt0
	OpXGt0
	OpXLtY
	OpPgmSlv
	OpSolve
	OpPgmInt
	OpInteg
	opCount
)

// ArgClass says which operand kinds an opcode accepts.
type ArgClass int

const (
	ArgClassNone ArgClass = iota
	// ArgClassLabel accepts local and global labels, directly or indirectly.
	ArgClassLabel
	// ArgClassVar accepts registers, stack slots and named variables.
	ArgClassVar
	// ArgClassName accepts a name only (programs, solver variables).
	ArgClassName
	// ArgClassLiteral is carried by OpNumber and OpString.
	ArgClassLiteral
)

type opInfo struct {
	name string
	args ArgClass
}

var opTable = [opCount]opInfo{
	OpNumber: {"", ArgClassLiteral},
	OpString: {"", ArgClassLiteral},
	OpEnter:  {"ENTER", ArgClassNone},
	OpSwap:   {"X<>Y", ArgClassNone},
	OpDrop:   {"DROP", ArgClassNone},
	OpClx:    {"CLX", ArgClassNone},
	OpLastX:  {"LASTX", ArgClassNone},
	OpAdd:    {"+", ArgClassNone},
	OpSub:    {"-", ArgClassNone},
	OpMul:    {"*", ArgClassNone},
	OpDiv:    {"/", ArgClassNone},
	OpChs:    {"+/-", ArgClassNone},
	OpSquare: {"X^2", ArgClassNone},
	OpSqrt:   {"SQRT", ArgClassNone},
	OpInv:    {"1/X", ArgClassNone},
	OpPow:    {"Y^X", ArgClassNone},
	OpSin:    {"SIN", ArgClassNone},
	OpCos:    {"COS", ArgClassNone},
	OpTan:    {"TAN", ArgClassNone},
	OpExp:    {"E^X", ArgClassNone},
	OpLn:     {"LN", ArgClassNone},
	OpAbs:    {"ABS", ArgClassNone},
	OpSto:    {"STO", ArgClassVar},
	OpRcl:    {"RCL", ArgClassVar},
	OpLbl:    {"LBL", ArgClassLabel},
	OpGto:    {"GTO", ArgClassLabel},
	OpXeq:    {"XEQ", ArgClassLabel},
	OpRtn:    {"RTN", ArgClassNone},
	OpEnd:    {"END", ArgClassNone},
	OpStop:   {"STOP", ArgClassNone},
	OpXEq0:   {"X=0?", ArgClassNone},
	OpXNe0:   {"X!=0?", ArgClassNone},
	OpXLt0:   {"X<0?", ArgClassNone},
	OpXGt0:   {"X>0?", ArgClassNone},
	OpXLtY:   {"X<Y?", ArgClassNone},
	OpPgmSlv: {"PGMSLV", ArgClassName},
	OpSolve:  {"SOLVE", ArgClassName},
	OpPgmInt: {"PGMINT", ArgClassName},
	OpInteg:  {"INTEG", ArgClassName},
}

func (op Opcode) String() string {
	switch op {
	case OpNumber:
		return "NUMBER"
	case OpString:
		return "STRING"
	}
	if op < 0 || op >= opCount {
		return fmt.Sprintf("OP_%d", int(op))
	}
	return opTable[op].name
}

// Args reports the operand class accepted by op.
func (op Opcode) Args() ArgClass {
	if op < 0 || op >= opCount {
		return ArgClassNone
	}
	return opTable[op].args
}

// Lookup finds the opcode for a keyword such as "RCL" or "X^2".
func Lookup(keyword string) (Opcode, bool) {
	op, ok := keywords[keyword]
	return op, ok
}

var keywords = func() map[string]Opcode {
	m := make(map[string]Opcode, opCount)
	for op := Opcode(0); op < opCount; op++ {
		if name := opTable[op].name; name != "" {
			m[name] = op
		}
	}
	m["SWAP"] = OpSwap
	m["CHS"] = OpChs
	m["x"] = OpMul
	m["X≠0?"] = OpXNe0
	return m
}()
