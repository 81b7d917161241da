// Package integrator computes definite integrals of user programs with
// Romberg extrapolation over the substitution x = (3u-u^3)/2, which never
// samples the end points. Like the solver it is a resumable state machine
// that asks for one function value at a time.
package integrator

import (
	"fmt"
	"math"

	"rpncalc/core-go/pkg/program"
	"rpncalc/core-go/pkg/runtime"
)

// Version is the current on-disk layout of the continuation record.
const Version = 3

const (
	// RombK is the size of the extrapolation table.
	RombK = 5
	// RombMax caps the number of refinement levels.
	RombMax = 20
)

// Phase is the state ordinal of the integrator.
type Phase int

const (
	Inactive Phase = iota
	// Seed has parameters but no samples yet.
	Seed
	// Accumulate is waiting for a sample.
	Accumulate
)

func (p Phase) String() string {
	switch p {
	case Inactive:
		return "inactive"
	case Seed:
		return "seed"
	case Accumulate:
		return "accumulate"
	default:
		return fmt.Sprintf("phase_%d", int(p))
	}
}

// Continuation is the complete state of an integration in progress.
type Continuation struct {
	Version    int
	Prgm       runtime.Name // set by PGMINT
	ActivePrgm runtime.Name
	Var        runtime.Name

	KeepRunning bool
	Caller      program.Address

	Phase Phase

	Llim, Ulim, Acc float64
	A, B, Eps       float64
	N, M, I, K      int
	H, Sum          float64
	C               [RombK]float64
	S               [RombK + 1]float64
	NSteps          int
	P               float64
	T, U            float64
	PrevInt         float64
	PrevRes         float64
	PrevDepth       int
}

// NewContinuation returns an inactive continuation.
func NewContinuation() Continuation {
	return Continuation{Version: Version, PrevDepth: runtime.NoStackCleanup}
}

func (c *Continuation) Active() bool {
	return c.Phase != Inactive
}

// ClampAccuracy limits a requested relative accuracy to [8*eps, 1].
func ClampAccuracy(acc float64) float64 {
	if acc > 1 {
		return 1
	}
	eps := (1 - math.Nextafter(1, 0)) * 8
	if acc < eps {
		return eps
	}
	return acc
}
