package program

import "rpncalc/core-go/pkg/runtime"

// Label is a global label entry.
type Label struct {
	Name runtime.Name
	Addr Address
}

// LabelTable indexes the global labels of every loaded program. Its
// generation changes whenever the table is rebuilt, which invalidates the
// jump targets cached in operands.
type LabelTable struct {
	entries []Label
	gen     uint64
}

// Rebuild rescans programs and bumps the generation.
func (t *LabelTable) Rebuild(programs []*Program) {
	t.entries = t.entries[:0]
	for prgm, p := range programs {
		for i := range p.Instructions {
			in := &p.Instructions[i]
			if in.Op == OpLbl && in.Arg.Kind == runtime.ArgName {
				t.entries = append(t.entries, Label{Name: in.Arg.Name, Addr: Address{Prgm: prgm, PC: p.OffsetOf(i)}})
			}
		}
	}
	t.gen++
}

// Generation identifies the current table contents.
func (t *LabelTable) Generation() uint64 { return t.gen }

func (t *LabelTable) Len() int { return len(t.entries) }

// Entry returns label i.
func (t *LabelTable) Entry(i int) (Label, bool) {
	if i < 0 || i >= len(t.entries) {
		return Label{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of the table.
func (t *LabelTable) Entries() []Label {
	return append([]Label(nil), t.entries...)
}

// FindGlobal looks a global label up by name. Later definitions win.
func (t *LabelTable) FindGlobal(name runtime.Name) (Address, bool) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Name == name {
			return t.entries[i].Addr, true
		}
	}
	return Address{}, false
}

// FindLocal searches p for a local label matching arg, scanning forward from
// pc to the end of the program and then from the top. It returns
// runtime.Unresolved when there is no such label.
func FindLocal(p *Program, pc int, arg runtime.Operand) int {
	if arg.Kind != runtime.ArgNum && arg.Kind != runtime.ArgLocalLabel {
		return runtime.Unresolved
	}
	start := 0
	if pc >= 0 {
		start = p.IndexAt(pc)
		if start < 0 {
			start = 0
		}
	}
	n := len(p.Instructions)
	for k := 0; k < n; k++ {
		i := (start + k) % n
		in := &p.Instructions[i]
		if in.Op != OpLbl || in.Arg.Kind != arg.Kind {
			continue
		}
		if arg.Kind == runtime.ArgNum && in.Arg.Num == arg.Num {
			return p.OffsetOf(i)
		}
		if arg.Kind == runtime.ArgLocalLabel && in.Arg.Stack == arg.Stack {
			return p.OffsetOf(i)
		}
	}
	return runtime.Unresolved
}
