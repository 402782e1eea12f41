package systems

import (
	"fmt"

	"github.com/pthm-cable/chroma/traits"
)

// Stage names passed to the phase hook.
const (
	PhaseMortality    = "mortality"
	PhaseReproduction = "reproduction"
	PhasePlacement    = "placement"
	PhaseCull         = "cull"
)

// StepCounts tallies what happened during one Step.
type StepCounts struct {
	Deaths          int // organisms removed by mortality
	ForcedSurvivors int // cells rescued from local extinction
	Attempts        int // offspring produced by reproduction draws
	Unestablished   int // offspring lost to the establishment gate
	Placed          int // offspring admitted into a cell
	Rejected        int // offspring refused by a full cell
	Culled          int // organisms trimmed from over-capacity cells
}

// offspring is a queued child awaiting placement.
type offspring struct {
	cell   int
	vector traits.Vector
}

// Environment is the synchronous grid-of-populations simulator.
//
// Step must not run concurrently with any reader; slices returned by Cell and
// EachActive are valid until the next Step or Add.
type Environment struct {
	params Params
	rng    Rand
	grid   *PopulationGrid
	field  *Field

	queue   []offspring
	scratch []int
	last    StepCounts

	phaseHook func(phase string)
}

// NewEnvironment builds an empty environment. It fails with an error matching
// ErrInvalidConfiguration when params cannot be simulated.
func NewEnvironment(params Params, rng Rand) (*Environment, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, invalid("rng", "must not be nil")
	}
	return &Environment{
		params: params,
		rng:    rng,
		grid:   NewPopulationGrid(params.Width, params.Height),
		field:  NewField(params.Width, params.SegmentCount, params.West, params.East),
	}, nil
}

// SetPhaseHook registers fn to be called as each stage of Step begins.
func (e *Environment) SetPhaseHook(fn func(phase string)) {
	e.phaseHook = fn
}

// Params returns the construction parameters.
func (e *Environment) Params() Params { return e.params }

// Width returns the number of columns.
func (e *Environment) Width() int { return e.params.Width }

// Height returns the number of rows.
func (e *Environment) Height() int { return e.params.Height }

// MaxDensity returns the per-cell capacity.
func (e *Environment) MaxDensity() int { return e.params.MaxDensity }

// SegmentCount returns the number of target bands.
func (e *Environment) SegmentCount() int { return e.field.Segments() }

// Field exposes the immutable target and pressure landscape.
func (e *Environment) Field() *Field { return e.field }

// InBounds reports whether (x, y) addresses a cell.
func (e *Environment) InBounds(x, y int) bool { return e.grid.InBounds(x, y) }

// Segment returns the band index of (x, y).
func (e *Environment) Segment(x, y int) int {
	e.grid.index(x, y)
	return e.field.Segment(x)
}

// Target returns the target colour of (x, y).
func (e *Environment) Target(x, y int) traits.Vector {
	e.grid.index(x, y)
	return e.field.Target(x)
}

// Pressure returns the environmental pressure of (x, y).
func (e *Environment) Pressure(x, y int) float64 {
	e.grid.index(x, y)
	return e.field.Pressure(x)
}

// Add inserts one organism at (x, y) regardless of capacity. It is meant for
// seeding.
func (e *Environment) Add(x, y int, v traits.Vector) error {
	if !e.grid.InBounds(x, y) {
		return outOfBounds(x, y, e.params.Width, e.params.Height)
	}
	if !v.InBounds() {
		return fmt.Errorf("%w: %v", ErrInvalidTrait, v)
	}
	e.grid.push(e.grid.index(x, y), v)
	return nil
}

// Density returns the occupancy of (x, y).
func (e *Environment) Density(x, y int) int {
	return e.grid.count(e.grid.index(x, y))
}

// Cell returns the occupants of (x, y). The slice must not be modified.
func (e *Environment) Cell(x, y int) []traits.Vector {
	return e.grid.view(e.grid.index(x, y))
}

// ActiveCells returns the coordinates of every non-empty cell.
func (e *Environment) ActiveCells() []Coord {
	out := make([]Coord, len(e.grid.active))
	for i, idx := range e.grid.active {
		out[i] = e.grid.coord(idx)
	}
	return out
}

// EachActive calls fn for every non-empty cell in index order.
func (e *Environment) EachActive(fn func(c Coord, occupants []traits.Vector)) {
	for _, idx := range e.grid.active {
		fn(e.grid.coord(idx), e.grid.view(idx))
	}
}

// IsActive reports whether (x, y) is in the active index.
func (e *Environment) IsActive(x, y int) bool {
	return e.grid.isActive(e.grid.index(x, y))
}

// Population returns the total number of organisms.
func (e *Environment) Population() int {
	n := 0
	for _, idx := range e.grid.active {
		n += e.grid.count(idx)
	}
	return n
}

// LastStep returns the tallies of the most recent Step.
func (e *Environment) LastStep() StepCounts { return e.last }

// Step advances the simulation one tick: mortality, then reproduction from the
// survivors, then placement of the whole offspring batch, then cull if enabled.
func (e *Environment) Step() {
	e.last = StepCounts{}

	if e.params.Variant.Mortality {
		e.phase(PhaseMortality)
		e.mortality()
	}

	e.phase(PhaseReproduction)
	batch := e.reproduce()

	e.phase(PhasePlacement)
	e.place(batch)

	if e.params.Variant.Cull {
		e.phase(PhaseCull)
		e.cull()
	}
}

func (e *Environment) phase(name string) {
	if e.phaseHook != nil {
		e.phaseHook(name)
	}
}
