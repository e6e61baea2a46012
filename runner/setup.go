package runner

import (
	"fmt"
	"math"

	"github.com/pthm-cable/grains/config"
	"github.com/pthm-cable/grains/paint"
)

// NoiseOptions converts the configured noise settings.
func NoiseOptions(nc config.NoiseConfig) paint.NoiseOptions {
	return paint.NoiseOptions{
		Alpha:     nc.Alpha,
		Beta:      nc.Beta,
		Octaves:   nc.Octaves,
		Scale:     nc.Scale,
		Threshold: nc.Threshold,
	}
}

// Populate paints the configured grain into the state with the instance
// random source, saves the result as the initial configuration and reseeds,
// so a Reset replays the run from the painted grid. An empty grain name
// selects the model's first grain; a model without grains is left empty.
func (r *Runner) Populate(pc config.PaintConfig) error {
	m := r.engine.Model()
	st := r.engine.State()
	if len(m.Grains) == 0 {
		st.SaveInitial()
		return nil
	}

	grain := m.Grains[0].ID
	if pc.Grain != "" {
		g, ok := m.GrainByName(pc.Grain)
		if !ok {
			return fmt.Errorf("paint: unknown grain %q", pc.Grain)
		}
		grain = g.ID
	}

	var (
		n   int
		err error
	)
	rng := r.engine.RNG()
	if pc.Noise.Enabled {
		n, err = paint.NoiseFill(st, rng, grain, NoiseOptions(pc.Noise))
	} else {
		radius := int(math.Ceil(math.Hypot(float64(st.Width), float64(st.Height))/2)) + 1
		n, err = paint.Spray(st, rng, st.Width/2, st.Height/2, radius, pc.Density, grain)
	}
	if err != nil {
		return fmt.Errorf("paint: %w", err)
	}

	st.SaveInitial()
	r.engine.Reseed(r.engine.Seed())
	r.logger.Info("initial grid painted", "grain", grain, "cells", n, "noise", pc.Noise.Enabled)
	return nil
}
