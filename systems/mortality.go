package systems

// mortality removes each occupant of every active cell independently with its
// death probability. Crowding is scored against the pre-mortality occupancy.
// A cell never loses its last organism here: if every occupant dies, one
// pre-mortality occupant chosen uniformly survives.
func (e *Environment) mortality() {
	e.scratch = e.grid.activeSnapshot(e.scratch)

	for _, idx := range e.scratch {
		cell := e.grid.cells[idx]
		n := len(cell)
		if n == 0 {
			continue
		}
		x := idx % e.params.Width

		// Filter in place. Writes only land on slots already read, and when
		// nothing survives nothing was written, so cell is intact for the
		// rescue draw.
		survivors := cell[:0]
		for _, v := range cell {
			if e.rng.Float64() >= e.deathProbability(v, x, n) {
				survivors = append(survivors, v)
			}
		}

		if len(survivors) == 0 {
			rescued := cell[e.rng.Intn(n)]
			survivors = append(survivors, rescued)
			e.last.ForcedSurvivors++
		}

		e.last.Deaths += n - len(survivors)
		e.grid.set(idx, survivors)
	}
}
