package systems

import (
	"math"

	"github.com/pthm-cable/chroma/traits"
)

// FitnessModel selects how reproduction probability is derived.
type FitnessModel string

const (
	// FitnessTarget scores an organism against its cell's target colour.
	FitnessTarget FitnessModel = "target"
	// FitnessConstant ignores the genome and always uses BaseReproProb.
	FitnessConstant FitnessModel = "constant"
)

// Variant toggles the behaviours that distinguish the engine generations.
type Variant struct {
	Mortality          bool            // run the mortality stage
	Fitness            FitnessModel    // how reproduction probability is scored
	Pressure           bool            // weight mismatch by environmental pressure
	Migration          bool            // near-boundary preview of the next segment
	ParentCrowdingGate bool            // only reproduce from cells below capacity
	EstablishmentGate  bool            // second draw against destination crowding
	StrictPlacement    bool            // refuse offspring into full cells
	Cull               bool            // trim over-capacity cells after placement
	Boundary           traits.Boundary // how mutation treats the [0,255] edges
}

// RichVariant is the full model: pressure, migration, double gate, strict placement.
func RichVariant() Variant {
	return Variant{
		Mortality:         true,
		Fitness:           FitnessTarget,
		Pressure:          true,
		Migration:         true,
		EstablishmentGate: true,
		StrictPlacement:   true,
		Boundary:          traits.Saturate,
	}
}

// SimpleVariant is the earliest model: constant fitness, no mortality,
// reproduction only from uncrowded cells, cull after placement, wraparound
// mutation.
func SimpleVariant() Variant {
	return Variant{
		Fitness:            FitnessConstant,
		ParentCrowdingGate: true,
		StrictPlacement:    true,
		Cull:               true,
		Boundary:           traits.Wrap,
	}
}

// Params holds everything NewEnvironment needs.
type Params struct {
	Width      int
	Height     int
	MaxDensity int

	SegmentCount int
	West         traits.Vector
	East         traits.Vector

	BaseDeathRate   float64
	CrowdingPenalty float64
	MismatchPenalty float64 // used only when Variant.Pressure is false
	BaseReproProb   float64
	MutationSigma   float64

	Variant Variant
}

// Validate reports the first parameter the engine cannot run with.
func (p Params) Validate() error {
	switch {
	case p.Width <= 0:
		return invalid("width", "must be positive, got %d", p.Width)
	case p.Height <= 0:
		return invalid("height", "must be positive, got %d", p.Height)
	case p.MaxDensity <= 0:
		return invalid("max_density", "must be positive, got %d", p.MaxDensity)
	case p.SegmentCount < 2:
		return invalid("segment_count", "must be at least 2, got %d", p.SegmentCount)
	}
	if !p.West.InBounds() {
		return invalid("west", "components must lie in [0,255], got %v", p.West)
	}
	if !p.East.InBounds() {
		return invalid("east", "components must lie in [0,255], got %v", p.East)
	}

	rates := []struct {
		name  string
		value float64
		prob  bool
	}{
		{"base_death_rate", p.BaseDeathRate, true},
		{"crowding_penalty", p.CrowdingPenalty, false},
		{"mismatch_penalty", p.MismatchPenalty, false},
		{"base_repro_prob", p.BaseReproProb, true},
		{"mutation_sigma", p.MutationSigma, false},
	}
	for _, r := range rates {
		if math.IsNaN(r.value) || math.IsInf(r.value, 0) || r.value < 0 {
			return invalid(r.name, "must be a finite non-negative number, got %v", r.value)
		}
		if r.prob && r.value > 1 {
			return invalid(r.name, "must not exceed 1, got %v", r.value)
		}
	}

	v := p.Variant
	if v.Fitness != FitnessTarget && v.Fitness != FitnessConstant {
		return invalid("variant.fitness", "unknown model %q", v.Fitness)
	}
	if !v.Boundary.Valid() {
		return invalid("variant.boundary", "unknown policy %q", v.Boundary)
	}
	if !v.StrictPlacement && !v.Cull {
		return invalid("variant.strict_placement", "lenient placement requires cull to bound occupancy")
	}
	return nil
}
