// Package paint provides grid editing tools for placing grains in bulk.
// Random placement draws from the caller's random source, normally the
// engine instance RNG, so edits replay with the run.
package paint

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/pthm-cable/grains/world"
)

// RNG is the random source the tools draw from.
type RNG interface {
	Float64() float64
	IntN(n int) int
}

// Spray sets each cell within radius of (cx, cy) to grain with probability
// density and returns the number of cells written. Passing model.Empty as
// grain erases. The center must be in bounds; the disc is clipped to the
// grid.
func Spray(st *world.State, rng RNG, cx, cy, radius int, density float64, grain int) (int, error) {
	if !st.InBounds(cx, cy) {
		return 0, fmt.Errorf("spray at (%d,%d): %w", cx, cy, world.ErrOutOfBounds)
	}
	if radius < 0 {
		radius = 0
	}
	r2 := radius * radius
	n := 0
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > r2 || !st.InBounds(x, y) {
				continue
			}
			if rng.Float64() >= density {
				continue
			}
			if err := st.SetCell(st.Index(x, y), grain); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// FillRect sets every cell in the inclusive rectangle spanned by the two
// corners to grain. Both corners must be in bounds.
func FillRect(st *world.State, x0, y0, x1, y1, grain int) error {
	if !st.InBounds(x0, y0) || !st.InBounds(x1, y1) {
		return fmt.Errorf("fill (%d,%d)-(%d,%d): %w", x0, y0, x1, y1, world.ErrOutOfBounds)
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if err := st.SetCell(st.Index(x, y), grain); err != nil {
				return err
			}
		}
	}
	return nil
}

// NoiseOptions shapes the Perlin noise used by NoiseFill and NoiseField.
type NoiseOptions struct {
	Alpha   float64 // weight divisor between octaves
	Beta    float64 // frequency multiplier between octaves
	Octaves int
	Scale   float64 // noise units per cell

	// Threshold is the noise value in [-1,1] a cell must exceed to be
	// filled by NoiseFill.
	Threshold float64
}

// DefaultNoise returns the noise settings used when none are configured.
func DefaultNoise() NoiseOptions {
	return NoiseOptions{Alpha: 2, Beta: 2, Octaves: 3, Scale: 0.1, Threshold: 0.2}
}

func (o NoiseOptions) generator(rng RNG) *perlin.Perlin {
	if o.Alpha <= 0 {
		o.Alpha = 2
	}
	if o.Beta <= 0 {
		o.Beta = 2
	}
	if o.Octaves < 1 {
		o.Octaves = 1
	}
	seed := int64(rng.IntN(math.MaxInt32))
	return perlin.NewPerlin(o.Alpha, o.Beta, int32(o.Octaves), seed)
}

func (o NoiseOptions) scale() float64 {
	if o.Scale <= 0 {
		return 0.1
	}
	return o.Scale
}

// NoiseFill sets grain on every cell whose noise value exceeds the
// threshold and returns the number of cells written. The noise seed is
// drawn from rng.
func NoiseFill(st *world.State, rng RNG, grain int, opts NoiseOptions) (int, error) {
	p := opts.generator(rng)
	scale := opts.scale()
	n := 0
	for i := 0; i < st.Len(); i++ {
		x, y := st.Position(i)
		if p.Noise2D(float64(x)*scale, float64(y)*scale) <= opts.Threshold {
			continue
		}
		if err := st.SetCell(i, grain); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// NoiseField sets the levels of a field layer from noise mapped from
// [-1,1] onto [0,1]. The layer is created if missing.
func NoiseField(st *world.State, rng RNG, field int, opts NoiseOptions) {
	p := opts.generator(rng)
	scale := opts.scale()
	levels := st.EnsureField(field)
	for i := range levels {
		x, y := st.Position(i)
		levels[i] = world.Clamp01((p.Noise2D(float64(x)*scale, float64(y)*scale) + 1) / 2)
	}
}
