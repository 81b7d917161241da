package runtime

import (
	"fmt"
	"strconv"
)

// ArgKind tags the variant held by an Operand.
type ArgKind int

const (
	ArgNone ArgKind = iota
	// ArgNum is a register index or numeric label.
	ArgNum
	// ArgStack names a stack position: X, Y, Z, T or L (last x).
	ArgStack
	// ArgName is a variable, program or global label name.
	ArgName
	ArgIndNum
	ArgIndStack
	ArgIndName
	// ArgLocalLabel is a single letter local label (A-J, a-e).
	ArgLocalLabel
	// ArgLabelIndex refers directly to an entry in the label table.
	ArgLabelIndex
	// ArgNumber is an inline numeric literal.
	ArgNumber
)

func (k ArgKind) String() string {
	switch k {
	case ArgNone:
		return "none"
	case ArgNum:
		return "num"
	case ArgStack:
		return "stk"
	case ArgName:
		return "name"
	case ArgIndNum:
		return "ind_num"
	case ArgIndStack:
		return "ind_stk"
	case ArgIndName:
		return "ind_name"
	case ArgLocalLabel:
		return "local_label"
	case ArgLabelIndex:
		return "label_index"
	case ArgNumber:
		return "number"
	default:
		return fmt.Sprintf("unknown_arg_%d", int(k))
	}
}

// Unresolved marks an operand whose jump target has not been looked up.
const Unresolved = -2

// Operand describes an instruction argument.
type Operand struct {
	Kind   ArgKind
	Num    int
	Stack  byte
	Name   Name
	Number float64

	// target caches a resolved local jump offset for targetGen.
	target    int
	targetGen uint64
	cached    bool
}

func NumArg(n int) Operand { return Operand{Kind: ArgNum, Num: n} }
func StackArg(slot byte) Operand { return Operand{Kind: ArgStack, Stack: slot} }
func NameArg(name Name) Operand { return Operand{Kind: ArgName, Name: name} }
func LocalLabelArg(c byte) Operand { return Operand{Kind: ArgLocalLabel, Stack: c} }
func LabelIndexArg(i int) Operand { return Operand{Kind: ArgLabelIndex, Num: i} }
func NumberArg(x float64) Operand { return Operand{Kind: ArgNumber, Number: x} }
func IndNumArg(n int) Operand { return Operand{Kind: ArgIndNum, Num: n} }
func IndStackArg(slot byte) Operand { return Operand{Kind: ArgIndStack, Stack: slot} }
func IndNameArg(name Name) Operand { return Operand{Kind: ArgIndName, Name: name} }

// Indirect reports whether the operand must be resolved before use.
func (o Operand) Indirect() bool {
	return o.Kind == ArgIndNum || o.Kind == ArgIndStack || o.Kind == ArgIndName
}

// CachedTarget returns the cached jump offset if it was computed under gen.
func (o *Operand) CachedTarget(gen uint64) (int, bool) {
	if !o.cached || o.targetGen != gen {
		return Unresolved, false
	}
	return o.target, true
}

// CacheTarget remembers a resolved jump offset for label generation gen.
func (o *Operand) CacheTarget(target int, gen uint64) {
	o.target = target
	o.targetGen = gen
	o.cached = true
}

// Invalidate drops any cached jump target.
func (o *Operand) Invalidate() {
	o.cached = false
	o.target = Unresolved
}

func (o Operand) String() string {
	switch o.Kind {
	case ArgNone:
		return ""
	case ArgNum:
		return fmt.Sprintf("%02d", o.Num)
	case ArgStack:
		return "ST " + string(o.Stack)
	case ArgName:
		return strconv.Quote(string(o.Name))
	case ArgIndNum:
		return fmt.Sprintf("IND %02d", o.Num)
	case ArgIndStack:
		return "IND ST " + string(o.Stack)
	case ArgIndName:
		return "IND " + strconv.Quote(string(o.Name))
	case ArgLocalLabel:
		return string(o.Stack)
	case ArgLabelIndex:
		return fmt.Sprintf("#%d", o.Num)
	case ArgNumber:
		return strconv.FormatFloat(o.Number, 'g', -1, 64)
	default:
		return "?"
	}
}
