// Package solver finds roots of user programs with a secant, bisection and
// Ridders' method hybrid. The algorithm is a resumable state machine: each
// step either asks for one more function evaluation or finishes with a
// classified result.
package solver

import (
	"fmt"
	"math"

	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

// Version is the current on-disk layout of the continuation record.
const Version = 4

// NumShadows is the capacity of the shadow cache.
const NumShadows = 10

// Huge marks "no function value yet" and failed evaluations.
var Huge = math.Inf(1)

// Code classifies how a solve ended. It is pushed to the T level.
type Code int

const (
	// NotSure is internal; it is reclassified before results are reported.
	NotSure      Code = -1
	Root         Code = 0
	SignReversal Code = 1
	Extremum     Code = 2
	BadGuesses   Code = 3
	Constant     Code = 4
)

var messages = map[Code]string{
	Root:         "",
	SignReversal: "Sign Reversal",
	Extremum:     "Extremum",
	BadGuesses:   "Bad Guess(es)",
	Constant:     "Constant?",
}

// Message is the text shown for an interactive result; empty for Root.
func (c Code) Message() string {
	return messages[c]
}

func (c Code) String() string {
	switch c {
	case NotSure:
		return "not_sure"
	case Root:
		return "root"
	case SignReversal:
		return "sign_reversal"
	case Extremum:
		return "extremum"
	case BadGuesses:
		return "bad_guesses"
	case Constant:
		return "constant"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// Phase is the state ordinal of the solver.
type Phase int

const (
	Inactive Phase = iota
	// EvalFirst evaluates x1.
	EvalFirst
	// EvalSecondAfterFailure evaluates x2 after x1 could not be evaluated.
	EvalSecondAfterFailure
	// Separate searches for two points with different function values.
	Separate
	// SecantStep evaluated a secant estimate.
	SecantStep
	// BisectStep evaluated a forced bisection midpoint.
	BisectStep
	// RiddersMid evaluated the bracket midpoint for Ridders' method.
	RiddersMid
	// RiddersNew evaluated the Ridders' estimate.
	RiddersNew
)

func (p Phase) String() string {
	switch p {
	case Inactive:
		return "inactive"
	case EvalFirst:
		return "eval_x1"
	case EvalSecondAfterFailure:
		return "eval_x2_after_failure"
	case Separate:
		return "separate"
	case SecantStep:
		return "secant"
	case BisectStep:
		return "bisect"
	case RiddersMid:
		return "ridders_mid"
	case RiddersNew:
		return "ridders_new"
	default:
		return fmt.Sprintf("phase_%d", int(p))
	}
}

// Shadow remembers the value a variable held before it was last entered
// interactively.
type Shadow struct {
	Name  runtime.Name
	Value float64
}

// Shadows is a FIFO of at most NumShadows entries. Occupied slots come
// first; an empty name marks a free slot.
type Shadows struct {
	Slots [NumShadows]Shadow
}

func (s *Shadows) find(name runtime.Name) int {
	for i := range s.Slots {
		if s.Slots[i].Name != "" && s.Slots[i].Name == name {
			return i
		}
	}
	return -1
}

// Put records value for name, evicting the oldest entry when full.
func (s *Shadows) Put(name runtime.Name, value float64) {
	s.Remove(name)
	i := 0
	for ; i < NumShadows; i++ {
		if s.Slots[i].Name == "" {
			break
		}
	}
	if i == NumShadows {
		copy(s.Slots[:], s.Slots[1:])
		i = NumShadows - 1
	}
	s.Slots[i] = Shadow{Name: name, Value: value}
}

// Get looks name up.
func (s *Shadows) Get(name runtime.Name) (float64, bool) {
	i := s.find(name)
	if i < 0 {
		return 0, false
	}
	return s.Slots[i].Value, true
}

// Remove drops name and closes the gap.
func (s *Shadows) Remove(name runtime.Name) {
	i := s.find(name)
	if i < 0 {
		return
	}
	copy(s.Slots[i:], s.Slots[i+1:])
	s.Slots[NumShadows-1] = Shadow{}
}

// Len counts occupied slots.
func (s *Shadows) Len() int {
	n := 0
	for i := range s.Slots {
		if s.Slots[i].Name != "" {
			n++
		}
	}
	return n
}

// Continuation is the complete state of a solve in progress. Everything
// but the gap tracker is persisted.
type Continuation struct {
	Version    int
	Prgm       runtime.Name // set by PGMSLV
	ActivePrgm runtime.Name // copied from Prgm when a solve starts
	Var        runtime.Name

	KeepRunning bool
	Caller      program.Address

	Phase        Phase
	Which        int
	Toggle       bool
	RetryCounter int
	Impatience   int
	RetryValue   float64

	X1, X2, X3          float64
	Fx1, Fx2            float64
	PrevX, CurrX, CurrF float64
	Xm, Fxm             float64

	BestF, BestX     float64
	SecondF, SecondX float64

	Shadows     Shadows
	LastDisplay uint32
	PrevDepth   int

	// FGap is not persisted; it restarts as NaN.
	FGap          float64
	FGapWorsening int
}

// NewContinuation returns an inactive continuation.
func NewContinuation() Continuation {
	return Continuation{
		Version:   Version,
		BestF:     Huge,
		SecondF:   Huge,
		PrevDepth: runtime.NoStackCleanup,
		FGap:      math.NaN(),
	}
}

// Active reports whether a solve is in progress.
func (c *Continuation) Active() bool {
	return c.Phase != Inactive
}

func (c *Continuation) point(which int) float64 {
	switch which {
	case 1:
		return c.X1
	case 2:
		return c.X2
	default:
		return c.X3
	}
}
