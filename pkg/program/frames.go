package program

import (
	"fmt"

	"rpncalc/core-go/pkg/runtime"
)

// TargetKind tags where a return frame sends control.
type TargetKind int

const (
	// TargetUser resumes at a program address.
	TargetUser TargetKind = iota
	// TargetSolver resumes the solver continuation.
	TargetSolver
	// TargetIntegrator resumes the integrator continuation.
	TargetIntegrator
)

func (k TargetKind) String() string {
	switch k {
	case TargetUser:
		return "user"
	case TargetSolver:
		return "solver"
	case TargetIntegrator:
		return "integrator"
	default:
		return fmt.Sprintf("target_%d", int(k))
	}
}

// Frame is one entry on the return stack.
type Frame struct {
	Kind TargetKind
	Addr Address // meaningful for TargetUser only
	Stop bool    // a stop was requested when the frame was pushed
}

func (f Frame) String() string {
	if f.Kind == TargetUser {
		return fmt.Sprintf("%d:%d", f.Addr.Prgm, f.Addr.PC)
	}
	return f.Kind.String()
}

// DefaultMaxFrames bounds the return stack.
const DefaultMaxFrames = 1024

// FrameStack is the LIFO return stack. It holds at most one solver and one
// integrator sentinel.
type FrameStack struct {
	frames []Frame
	limit  int
}

func NewFrameStack(limit int) *FrameStack {
	if limit <= 0 {
		limit = DefaultMaxFrames
	}
	return &FrameStack{frames: make([]Frame, 0, 8), limit: limit}
}

func (s *FrameStack) Len() int { return len(s.frames) }

// Push adds f. Pushing a second sentinel of the same kind is a broken
// invariant and reports an internal error.
func (s *FrameStack) Push(f Frame) error {
	if len(s.frames) >= s.limit {
		return runtime.ErrRTNStackFull
	}
	if f.Kind != TargetUser && s.Has(f.Kind) {
		return runtime.ErrInternalError
	}
	s.frames = append(s.frames, f)
	return nil
}

// Pop removes the top frame.
func (s *FrameStack) Pop() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// Has reports whether a sentinel of kind is on the stack.
func (s *FrameStack) Has(kind TargetKind) bool {
	for i := range s.frames {
		if s.frames[i].Kind == kind {
			return true
		}
	}
	return false
}

// UnwindTo pops frames up to and including the topmost frame of kind. Every
// other popped frame is passed to discard, if non-nil. It returns the frame
// of kind, or false (with the stack emptied) if none existed.
func (s *FrameStack) UnwindTo(kind TargetKind, discard func(Frame)) (Frame, bool) {
	for {
		f, ok := s.Pop()
		if !ok {
			return Frame{}, false
		}
		if f.Kind == kind {
			return f, true
		}
		if discard != nil {
			discard(f)
		}
	}
}

// Clear empties the stack, passing each frame to discard (top first) if
// discard is non-nil.
func (s *FrameStack) Clear(discard func(Frame)) {
	for discard != nil && len(s.frames) > 0 {
		f, _ := s.Pop()
		discard(f)
	}
	s.frames = s.frames[:0]
}

// Frames returns a copy of the stack, bottom first.
func (s *FrameStack) Frames() []Frame {
	return append([]Frame(nil), s.frames...)
}

// Restore replaces the stack contents.
func (s *FrameStack) Restore(frames []Frame) {
	s.frames = append(s.frames[:0], frames...)
}
