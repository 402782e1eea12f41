package systems

import "github.com/pthm-cable/chroma/traits"

// Pressure model constants.
const (
	pressureBase        = 0.2
	pressurePerSegment  = 0.15
	pressureBoundary    = 0.4
	pressureMax         = 2.0
	pressureMismatchMul = 0.6
)

// Field is the immutable target and pressure landscape. The grid is divided
// west to east into equal-width bands; each band has a target colour
// interpolated between the west and east boundary colours. Every value depends
// only on the column, so rows share a single precomputed entry.
type Field struct {
	w       int
	targets []traits.Vector

	// Per column.
	segment  []int
	position []float64
	pressure []float64
}

// NewField precomputes the landscape for a grid w columns wide.
// segments must be at least 2.
func NewField(w, segments int, west, east traits.Vector) *Field {
	f := &Field{
		w:        w,
		targets:  make([]traits.Vector, segments),
		segment:  make([]int, w),
		position: make([]float64, w),
		pressure: make([]float64, w),
	}

	for i := range f.targets {
		f.targets[i] = west.Lerp(east, float64(i)/float64(segments-1))
	}

	for x := 0; x < w; x++ {
		seg := x * segments / w
		start, end := f.bounds(seg)
		pos := 0.0
		if end > start {
			pos = float64(x-start) / float64(end-start)
		}
		p := pressureBase + pressurePerSegment*float64(seg) + pressureBoundary*pos
		if p > pressureMax {
			p = pressureMax
		}
		f.segment[x] = seg
		f.position[x] = pos
		f.pressure[x] = p
	}

	return f
}

// bounds returns seg*w/n and (seg+1)*w/n. When w is not a multiple of n the
// band's last column can sit on end itself, giving it position 1.
func (f *Field) bounds(seg int) (start, end int) {
	n := len(f.targets)
	return seg * f.w / n, (seg + 1) * f.w / n
}

// Segments returns the number of bands.
func (f *Field) Segments() int { return len(f.targets) }

// Targets returns a copy of the band target colours, west to east.
func (f *Field) Targets() []traits.Vector {
	return append([]traits.Vector(nil), f.targets...)
}

// Segment returns the band index of column x.
func (f *Field) Segment(x int) int { return f.segment[x] }

// Position returns how far column x lies across its band, in [0, 1].
func (f *Field) Position(x int) float64 { return f.position[x] }

// Pressure returns the environmental pressure in column x.
func (f *Field) Pressure(x int) float64 { return f.pressure[x] }

// Target returns the target colour of column x.
func (f *Field) Target(x int) traits.Vector { return f.targets[f.segment[x]] }

// next returns the target of the band east of column x's band.
func (f *Field) next(x int) (traits.Vector, bool) {
	seg := f.segment[x]
	if seg >= len(f.targets)-1 {
		return traits.Vector{}, false
	}
	return f.targets[seg+1], true
}
