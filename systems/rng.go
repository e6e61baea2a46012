// Package systems implements the phases of one simulation step: behavior
// matching, reaction binding, stochastic selection, application, aging and
// death, movement, and field updates. Each phase is a plain function over
// world.State so the engine can order and time them.
package systems

import "math/rand/v2"

// RNG is the per-instance random source. Every draw made during a step
// comes from it, in a fixed order, so a step is reproducible from the seed
// and the pre-step state. *rand.Rand satisfies it.
type RNG interface {
	Float64() float64
	IntN(n int) int
}

// NewRNG returns a deterministic PCG-backed generator.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}
