package systems

import (
	"math"

	"github.com/pthm-cable/chroma/traits"
)

// Migration bonus constants.
const (
	migrationPosition = 0.7 // final 30% of a band
	migrationMismatch = 0.3 // must already fit the current band this well
	migrationScale    = 0.6
	overPressureMul   = 2.0
)

// Mismatch returns the normalized L1 distance between v and the target of (x, y).
func (e *Environment) Mismatch(v traits.Vector, x, y int) float64 {
	e.grid.index(x, y)
	return v.Mismatch(e.field.Target(x))
}

// DeathProbability returns the per-tick death chance of v at (x, y) given the
// cell's current occupancy.
func (e *Environment) DeathProbability(v traits.Vector, x, y int) float64 {
	idx := e.grid.index(x, y)
	return e.deathProbability(v, x, e.grid.count(idx))
}

// ReproductionProbability returns the chance v attempts to reproduce at (x, y).
func (e *Environment) ReproductionProbability(v traits.Vector, x, y int) float64 {
	e.grid.index(x, y)
	return e.reproductionProbability(v, x)
}

// deathProbability scores v in column x with the given occupancy. Crowding is
// square-root damped so the first occupants are not punished as steeply as a
// cell nearing capacity.
func (e *Environment) deathProbability(v traits.Vector, x, occupancy int) float64 {
	p := &e.params

	densityFactor := 1.0
	if occupancy < p.MaxDensity {
		densityFactor = math.Sqrt(float64(occupancy) / float64(p.MaxDensity))
	}

	mismatch := v.Mismatch(e.field.Target(x))
	var mismatchTerm float64
	if p.Variant.Pressure {
		mismatchTerm = mismatch * e.field.Pressure(x) * pressureMismatchMul
	} else {
		mismatchTerm = mismatch * p.MismatchPenalty
	}

	return math.Min(1, p.BaseDeathRate+p.CrowdingPenalty*densityFactor+mismatchTerm)
}

func (e *Environment) reproductionProbability(v traits.Vector, x int) float64 {
	p := &e.params
	if p.Variant.Fitness == FitnessConstant {
		return p.BaseReproProb
	}

	mismatch := v.Mismatch(e.field.Target(x))
	fitness := 1 - mismatch

	if p.Variant.Pressure {
		if pressure := e.field.Pressure(x); pressure > 1 {
			fitness = math.Max(0, fitness-mismatch*(pressure-1)*overPressureMul)
		}
	}

	// Organisms close to the eastern edge of their band that already fit it
	// well may score against the next band instead.
	if p.Variant.Migration && mismatch < migrationMismatch && e.field.Position(x) > migrationPosition {
		if next, ok := e.field.next(x); ok {
			fitness = math.Max(fitness, (1-v.Mismatch(next))*migrationScale)
		}
	}

	return fitness * p.BaseReproProb
}
