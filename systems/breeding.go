package systems

import (
	"math"

	"github.com/pthm-cable/chroma/traits"
)

// reproduce walks the post-mortality population and returns the offspring
// batch. Nothing is placed here, so no child born this tick influences the
// draws of its siblings.
//
// Each occupant reproduces with its reproduction probability. The child is a
// single-component mutation of the parent and is sent to a uniformly chosen
// cell of the clipped 3x3 neighbourhood. With the establishment gate, the
// child is only queued if a second draw beats (1-d)^2, where d is the
// destination's occupancy over capacity.
func (e *Environment) reproduce() []offspring {
	p := &e.params
	e.queue = e.queue[:0]
	e.scratch = e.grid.activeSnapshot(e.scratch)

	var nbuf [9]int
	for _, idx := range e.scratch {
		cell := e.grid.cells[idx]
		x := idx % p.Width

		for _, v := range cell {
			if p.Variant.ParentCrowdingGate && len(cell) >= p.MaxDensity {
				break
			}
			if e.rng.Float64() >= e.reproductionProbability(v, x) {
				continue
			}

			child := traits.Mutate(e.rng, v, p.MutationSigma, p.Variant.Boundary)
			around := e.grid.neighbors(idx, &nbuf)
			dest := around[e.rng.Intn(len(around))]
			e.last.Attempts++

			if p.Variant.EstablishmentGate && e.rng.Float64() >= e.establishment(dest) {
				e.last.Unestablished++
				continue
			}
			e.queue = append(e.queue, offspring{cell: dest, vector: child})
		}
	}

	return e.queue
}

// establishment returns the chance a child takes hold in dest.
func (e *Environment) establishment(dest int) float64 {
	d := math.Min(1, float64(e.grid.count(dest))/float64(e.params.MaxDensity))
	return math.Max(0, (1-d)*(1-d))
}
