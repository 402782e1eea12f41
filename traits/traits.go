// Package traits defines the colour genome carried by every organism.
package traits

import (
	"fmt"
	"image/color"
	"math"
)

// Components is the number of heritable channels in a Vector.
const Components = 3

// Bounds of every component.
const (
	MinComponent = 0.0
	MaxComponent = 255.0
)

// MaxDistance is the largest possible L1 distance between two vectors.
const MaxDistance = Components * MaxComponent

// Vector is an organism's sole heritable state, read as R, G, B.
// Vectors have no identity; equal vectors are interchangeable.
type Vector [Components]float64

// Boundary selects how out-of-range components are brought back into bounds.
type Boundary string

const (
	// Saturate clamps to [0, 255].
	Saturate Boundary = "saturate"
	// Wrap reduces modulo 256, the legacy policy of the earliest engine.
	Wrap Boundary = "wrap"
)

// Valid reports whether b names a known policy.
func (b Boundary) Valid() bool {
	return b == Saturate || b == Wrap
}

// Source is the randomness needed to mutate a vector.
// *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	NormFloat64() float64
}

// Distance returns the L1 distance between v and o.
func (v Vector) Distance(o Vector) float64 {
	var d float64
	for i := range v {
		d += math.Abs(v[i] - o[i])
	}
	return d
}

// Mismatch returns the L1 distance normalized to [0, 1].
func (v Vector) Mismatch(o Vector) float64 {
	return v.Distance(o) / MaxDistance
}

// InBounds reports whether every component lies in [0, 255].
func (v Vector) InBounds() bool {
	for _, c := range v {
		if !(c >= MinComponent && c <= MaxComponent) {
			return false
		}
	}
	return true
}

// Lerp interpolates component-wise between v and o.
func (v Vector) Lerp(o Vector, t float64) Vector {
	var out Vector
	for i := range v {
		out[i] = v[i] + (o[i]-v[i])*t
	}
	return out
}

// RGBA converts the vector to an opaque colour for presenters.
func (v Vector) RGBA() color.RGBA {
	return color.RGBA{
		R: uint8(ClampComponent(v[0], Saturate)),
		G: uint8(ClampComponent(v[1], Saturate)),
		B: uint8(ClampComponent(v[2], Saturate)),
		A: 255,
	}
}

func (v Vector) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", v[0], v[1], v[2])
}

// ClampComponent brings c into [0, 255] under the given policy.
func ClampComponent(c float64, b Boundary) float64 {
	if b == Wrap {
		c = math.Mod(c, MaxComponent+1)
		if c < 0 {
			c += MaxComponent + 1
		}
		// Mod leaves a sliver in (255, 256).
		return math.Min(c, MaxComponent)
	}
	return math.Min(MaxComponent, math.Max(MinComponent, c))
}

// FromSlice builds a Vector from exactly three values.
func FromSlice(vals []float64) (Vector, error) {
	var v Vector
	if len(vals) != Components {
		return v, fmt.Errorf("traits: want %d components, got %d", Components, len(vals))
	}
	copy(v[:], vals)
	return v, nil
}
