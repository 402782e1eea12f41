package systems

import "math/rand"

// Rand is the single random stream every stochastic decision draws from.
// *math/rand.Rand satisfies it; tests inject a seeded one.
type Rand interface {
	Float64() float64
	Intn(n int) int
	NormFloat64() float64
}

// NewRand returns a deterministic stream for seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
