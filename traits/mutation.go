package traits

// Mutate returns a child of parent with exactly one uniformly chosen component
// perturbed by zero-mean Gaussian noise of standard deviation sigma and brought
// back into bounds by b. The parent is never modified.
func Mutate(rng Source, parent Vector, sigma float64, b Boundary) Vector {
	i := rng.Intn(Components)
	child := parent
	child[i] = ClampComponent(child[i]+rng.NormFloat64()*sigma, b)
	return child
}
