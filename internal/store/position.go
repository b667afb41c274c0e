package store

import (
	"errors"
	"math"
)

const (
	// DefaultPosition is assigned to the first task dropped into an empty column.
	DefaultPosition = 10000.0
	// PositionGap separates a task appended after the last one.
	PositionGap = 10000.0
)

var ErrNonFinitePosition = errors.New("position is not a finite number")

// PositionBetween returns an ordering key for an item inserted between prev and next.
// Either bound may be nil (no neighbor on that side).
//
// Positions are fractional: inserting never rewrites a sibling. Repeated inserts at the
// same boundary halve the gap each time, so precision runs out after roughly fifty
// inserts into one spot. That is fine for interactive use; bulk automated inserts into
// a single gap would need a rebalance, which this package does not do.
func PositionBetween(prev, next *float64) float64 {
	switch {
	case prev == nil && next == nil:
		return DefaultPosition
	case prev == nil:
		// Halving only moves toward zero; a non-positive head needs a step down instead.
		if *next <= 0 {
			return *next - PositionGap
		}
		return *next / 2
	case next == nil:
		return *prev + PositionGap
	default:
		return (*prev + *next) / 2
	}
}

func PositionAfter(prev float64) float64  { return PositionBetween(&prev, nil) }
func PositionBefore(next float64) float64 { return PositionBetween(nil, &next) }
func PositionInitial() float64            { return PositionBetween(nil, nil) }

// PositionAt computes the position for inserting at index into tasks, which must
// already be in display order and must not contain the task being placed.
func PositionAt(sorted []float64, index int) float64 {
	if index < 0 {
		index = 0
	}
	if index > len(sorted) {
		index = len(sorted)
	}
	var prev, next *float64
	if index > 0 {
		p := sorted[index-1]
		prev = &p
	}
	if index < len(sorted) {
		n := sorted[index]
		next = &n
	}
	return PositionBetween(prev, next)
}

func ValidPosition(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrNonFinitePosition
	}
	return nil
}
