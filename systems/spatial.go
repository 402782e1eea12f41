// Package systems implements the environment simulation engine: a dense grid
// of colour-genome populations evolving under mortality, reproduction and
// density regulation.
package systems

import "github.com/pthm-cable/chroma/traits"

// Coord addresses one grid cell.
type Coord struct {
	X, Y int
}

// PopulationGrid stores a dense W*H array of per-cell populations in row-major
// order plus a sparse index of the non-empty cells.
//
// Every write goes through push or set, which keep the index in step with the
// cell contents: a cell is indexed iff it has at least one occupant. Index
// order depends only on the sequence of writes, so iteration is reproducible.
type PopulationGrid struct {
	w, h   int
	cells  [][]traits.Vector
	active []int   // linear indices of non-empty cells
	slot   []int32 // position of each cell within active, -1 if absent
}

// NewPopulationGrid allocates an empty grid.
func NewPopulationGrid(w, h int) *PopulationGrid {
	slot := make([]int32, w*h)
	for i := range slot {
		slot[i] = -1
	}
	return &PopulationGrid{
		w:     w,
		h:     h,
		cells: make([][]traits.Vector, w*h),
		slot:  slot,
	}
}

// InBounds reports whether (x, y) addresses a cell.
func (g *PopulationGrid) InBounds(x, y int) bool {
	return x >= 0 && x < g.w && y >= 0 && y < g.h
}

// index returns the linear index of (x, y). An invalid coordinate is a
// programming error and panics.
func (g *PopulationGrid) index(x, y int) int {
	if !g.InBounds(x, y) {
		panic(outOfBounds(x, y, g.w, g.h))
	}
	return y*g.w + x
}

func (g *PopulationGrid) coord(idx int) Coord {
	return Coord{X: idx % g.w, Y: idx / g.w}
}

func (g *PopulationGrid) count(idx int) int {
	return len(g.cells[idx])
}

// view returns the occupants of idx, capped so appends by the caller cannot
// write into the grid's backing array.
func (g *PopulationGrid) view(idx int) []traits.Vector {
	c := g.cells[idx]
	return c[:len(c):len(c)]
}

// push appends one occupant and indexes the cell.
func (g *PopulationGrid) push(idx int, v traits.Vector) {
	g.cells[idx] = append(g.cells[idx], v)
	g.markActive(idx)
}

// set replaces the population of idx. An empty population drops the cell from
// the index.
func (g *PopulationGrid) set(idx int, occupants []traits.Vector) {
	g.cells[idx] = occupants
	if len(occupants) == 0 {
		g.markEmpty(idx)
		return
	}
	g.markActive(idx)
}

func (g *PopulationGrid) markActive(idx int) {
	if g.slot[idx] >= 0 {
		return
	}
	g.slot[idx] = int32(len(g.active))
	g.active = append(g.active, idx)
}

func (g *PopulationGrid) markEmpty(idx int) {
	s := g.slot[idx]
	if s < 0 {
		return
	}
	last := len(g.active) - 1
	moved := g.active[last]
	g.active[s] = moved
	g.slot[moved] = s
	g.active = g.active[:last]
	g.slot[idx] = -1
}

// activeSnapshot copies the index so stages can mutate cells while iterating.
func (g *PopulationGrid) activeSnapshot(buf []int) []int {
	return append(buf[:0], g.active...)
}

// isActive reports whether idx is currently indexed.
func (g *PopulationGrid) isActive(idx int) bool {
	return g.slot[idx] >= 0
}

// neighbors writes the clipped 3x3 Moore neighbourhood of idx, including idx
// itself, into buf and returns the filled prefix.
func (g *PopulationGrid) neighbors(idx int, buf *[9]int) []int {
	x, y := idx%g.w, idx/g.w
	n := 0
	for dx := -1; dx <= 1; dx++ {
		nx := x + dx
		if nx < 0 || nx >= g.w {
			continue
		}
		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= g.h {
				continue
			}
			buf[n] = ny*g.w + nx
			n++
		}
	}
	return buf[:n]
}
