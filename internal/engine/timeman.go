package engine

import (
	"time"

	"github.com/kestrelchess/engine/internal/board"
)

// SearchLimits describes one "go" request: depth/node/mate bounds plus
// whatever wall-clock information the protocol layer has (either a fixed
// per-move budget, or both sides' remaining clocks and increments).
type SearchLimits struct {
	Depth    int
	Nodes    uint64
	MoveTime time.Duration

	WTime, BTime time.Duration
	WInc, BInc   time.Duration
	MovesToGo    int

	Infinite bool
	MultiPV  int

	// MaxKnps caps search speed (thousand nodes/sec) for the Strength UCI
	// option; 0 means unbounded.
	MaxKnps int
}

// TimeManager derives the soft and hard time budgets for one search and
// tracks elapsed wall-clock time against them. Iteration is expected to
// continue only while Elapsed() < Soft(); any poll point - root or deep
// inside the tree - stops the search once Elapsed() >= Hard().
type TimeManager struct {
	start    time.Time
	soft     time.Duration
	hard     time.Duration
	infinite bool
}

// NewTimeManager derives soft/hard budgets from limits for the side to
// move us. A fixed MoveTime pins soft == hard. Otherwise the budget is
// carved from the side's remaining clock: soft = restTime/40, hard =
// restTime/2.
func NewTimeManager(limits SearchLimits, us board.Color) *TimeManager {
	tm := &TimeManager{start: time.Now()}

	if limits.Infinite {
		tm.infinite = true
		return tm
	}
	if limits.MoveTime > 0 {
		tm.soft = limits.MoveTime
		tm.hard = limits.MoveTime
		return tm
	}

	restTime := limits.WTime
	if us == board.Black {
		restTime = limits.BTime
	}
	if restTime <= 0 {
		tm.infinite = true
		return tm
	}

	tm.soft = restTime / 40
	tm.hard = restTime / 2
	if tm.soft > tm.hard {
		tm.soft = tm.hard
	}
	return tm
}

// Elapsed returns the wall-clock time spent since the manager was created.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.start)
}

// SoftExceeded reports whether the soft (optimum) budget has been used up;
// iterative deepening should not start another depth once this is true.
func (tm *TimeManager) SoftExceeded() bool {
	return !tm.infinite && tm.soft > 0 && tm.Elapsed() >= tm.soft
}

// HardExceeded reports whether the hard budget has been used up; any
// recursive search call should unwind immediately once this is true.
func (tm *TimeManager) HardExceeded() bool {
	return !tm.infinite && tm.hard > 0 && tm.Elapsed() >= tm.hard
}

// Hard returns the hard time budget, or 0 if unbounded.
func (tm *TimeManager) Hard() time.Duration {
	if tm.infinite {
		return 0
	}
	return tm.hard
}
