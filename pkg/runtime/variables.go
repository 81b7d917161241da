package runtime

import "sort"

// RegsName is the variable holding the numbered storage registers.
const RegsName Name = "REGS"

// Variables is the named variable store. Each binding owns its value.
type Variables struct {
	vars map[Name]Value
}

func NewVariables() *Variables {
	return &Variables{vars: make(map[Name]Value)}
}

// Recall returns the value bound to name. The value remains owned by the
// store; callers that keep it must Copy it.
func (v *Variables) Recall(name Name) (Value, bool) {
	val, ok := v.vars[name]
	return val, ok
}

// Store binds val to name, creating the variable if absent. The store takes
// ownership of val.
func (v *Variables) Store(name Name, val Value) error {
	if name == "" {
		return ErrInvalidData
	}
	if val == nil {
		return ErrInternalError
	}
	v.vars[name] = val
	return nil
}

// Delete removes name if present.
func (v *Variables) Delete(name Name) {
	delete(v.vars, name)
}

// Names lists the bound names in sorted order.
func (v *Variables) Names() []Name {
	names := make([]Name, 0, len(v.vars))
	for name := range v.vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Register returns storage register n from REGS.
func (v *Variables) Register(n int) (Value, error) {
	regs, ok := v.vars[RegsName].(*RealMatrixValue)
	if !ok {
		return nil, ErrNonexistent
	}
	if n < 0 || n >= len(regs.Data) {
		return nil, ErrNonexistent
	}
	return regs.Get(n)
}

// SetRegister stores a real or string into register n, growing REGS if
// needed.
func (v *Variables) SetRegister(n int, val Value) error {
	if n < 0 {
		return ErrOutOfRange
	}
	regs, ok := v.vars[RegsName].(*RealMatrixValue)
	if !ok || n >= len(regs.Data) {
		size := n + 1
		if size < 25 {
			size = 25
		}
		grown, err := NewRealMatrix(size, 1)
		if err != nil {
			return err
		}
		if ok {
			for i := range regs.Data {
				grown.Data[i] = regs.Data[i]
				grown.IsString[i] = regs.IsString[i]
				grown.Text[i] = regs.Text[i]
			}
		}
		regs = grown
		v.vars[RegsName] = regs
	}
	switch x := val.(type) {
	case RealValue:
		return regs.SetReal(n, x.Val)
	case StringValue:
		return regs.SetString(n, x)
	default:
		return ErrInvalidType
	}
}
