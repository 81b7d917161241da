package runtime

// NoStackCleanup is recorded instead of a stack depth when the stack is the
// classic four level stack and nothing needs to be freed.
const NoStackCleanup = -2

const classicDepth = 4

// Stack is the evaluation stack. In big mode it grows without bound; in
// classic mode it always holds exactly four levels (T, Z, Y, X), pushing
// drops T and popping duplicates it.
type Stack struct {
	big   bool
	items []Value
	lastX Value
}

// NewStack creates an empty big stack or a zero-filled classic stack.
func NewStack(big bool) *Stack {
	s := &Stack{big: big, lastX: RealValue{}}
	if !big {
		s.items = make([]Value, classicDepth)
		for i := range s.items {
			s.items[i] = RealValue{}
		}
	} else {
		s.items = make([]Value, 0, 8)
	}
	return s
}

func (s *Stack) Big() bool { return s.big }

func (s *Stack) Depth() int { return len(s.items) }

// CleanupMark returns the depth to restore after a callback, or
// NoStackCleanup for the classic stack.
func (s *Stack) CleanupMark() int {
	if !s.big {
		return NoStackCleanup
	}
	return len(s.items)
}

// Peek returns the value at level (0 = X) without removing it.
func (s *Stack) Peek(level int) (Value, error) {
	if level < 0 || level >= len(s.items) {
		return nil, ErrTooFewArguments
	}
	return s.items[len(s.items)-1-level], nil
}

// X returns the value in the X level.
func (s *Stack) X() (Value, error) {
	return s.Peek(0)
}

// Push lifts the stack and stores v in X. The stack takes ownership of v.
func (s *Stack) Push(v Value) {
	if !s.big {
		copy(s.items, s.items[1:])
		s.items[classicDepth-1] = v
		return
	}
	s.items = append(s.items, v)
}

// ReplaceX overwrites X without lifting (stack lift disabled).
func (s *Stack) ReplaceX(v Value) {
	if len(s.items) == 0 {
		s.items = append(s.items, v)
		return
	}
	s.items[len(s.items)-1] = v
}

// Pop removes and returns X.
func (s *Stack) Pop() (Value, error) {
	if !s.big {
		x := s.items[classicDepth-1]
		copy(s.items[1:], s.items[:classicDepth-1])
		s.items[0] = Copy(s.items[1])
		return x, nil
	}
	if len(s.items) == 0 {
		return nil, ErrTooFewArguments
	}
	x := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return x, nil
}

// Consume drops the top n levels and pushes results in order, so the last
// result ends up in X. It fails without modifying the stack if fewer than n
// levels exist.
func (s *Stack) Consume(n int, results ...Value) error {
	if n > len(s.items) {
		return ErrTooFewArguments
	}
	for i := 0; i < n; i++ {
		if _, err := s.Pop(); err != nil {
			return err
		}
	}
	for _, r := range results {
		s.Push(r)
	}
	return nil
}

// Truncate shrinks a big stack to depth and hands the removed values to the
// caller, top first. Classic stacks are left alone.
func (s *Stack) Truncate(depth int) []Value {
	if !s.big || depth == NoStackCleanup || depth < 0 || depth >= len(s.items) {
		return nil
	}
	excess := len(s.items) - depth
	freed := make([]Value, 0, excess)
	for i := len(s.items) - 1; i >= depth; i-- {
		freed = append(freed, s.items[i])
		s.items[i] = nil
	}
	s.items = s.items[:depth]
	return freed
}

// Set overwrites the value at level (0 = X).
func (s *Stack) Set(level int, v Value) error {
	if level < 0 || level >= len(s.items) {
		return ErrTooFewArguments
	}
	s.items[len(s.items)-1-level] = v
	return nil
}

func (s *Stack) LastX() Value { return s.lastX }

func (s *Stack) SetLastX(v Value) { s.lastX = v }

// Values returns deep copies of the levels, bottom first (X last).
func (s *Stack) Values() []Value {
	out := make([]Value, len(s.items))
	for i, v := range s.items {
		out[i] = Copy(v)
	}
	return out
}

// Restore replaces the contents with vals, bottom first. A classic stack is
// padded or trimmed to four levels.
func (s *Stack) Restore(vals []Value) {
	if s.big {
		s.items = append(s.items[:0], vals...)
		return
	}
	s.items = make([]Value, classicDepth)
	for i := range s.items {
		s.items[i] = RealValue{}
	}
	if len(vals) > classicDepth {
		vals = vals[len(vals)-classicDepth:]
	}
	copy(s.items[classicDepth-len(vals):], vals)
}
