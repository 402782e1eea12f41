package systems

import "github.com/pthm-cable/chroma/traits"

// place admits queued offspring in order. Under strict placement a child is
// refused once its destination is at capacity.
func (e *Environment) place(batch []offspring) {
	strict := e.params.Variant.StrictPlacement
	for _, o := range batch {
		if strict && e.grid.count(o.cell) >= e.params.MaxDensity {
			e.last.Rejected++
			continue
		}
		e.grid.push(o.cell, o.vector)
		e.last.Placed++
	}
}

// cull trims every over-capacity cell to a uniformly random subset of exactly
// MaxDensity occupants. The subset is drawn first, then assigned in one write.
func (e *Environment) cull() {
	limit := e.params.MaxDensity
	e.scratch = e.grid.activeSnapshot(e.scratch)

	for _, idx := range e.scratch {
		cell := e.grid.cells[idx]
		if len(cell) <= limit {
			continue
		}
		keep := e.sample(cell, limit)
		e.last.Culled += len(cell) - len(keep)
		e.grid.set(idx, keep)
	}
}

// sample draws k of from without replacement via a partial Fisher-Yates
// shuffle over an index permutation. from is not modified.
func (e *Environment) sample(from []traits.Vector, k int) []traits.Vector {
	perm := make([]int, len(from))
	for i := range perm {
		perm[i] = i
	}
	out := make([]traits.Vector, k)
	for i := 0; i < k; i++ {
		j := i + e.rng.Intn(len(perm)-i)
		perm[i], perm[j] = perm[j], perm[i]
		out[i] = from[perm[i]]
	}
	return out
}
