package systems

import (
	"math"

	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/world"
)

// DeathProbability is the per-step chance that an agent of the given age
// dies. Agents up to halfLife steps old never die; past it the chance is
// 1 - 0.5^((age-halfLife)/halfLife), growing strictly with age and crossing
// 0.5 at twice the half-life. A halfLife of 0 is immortal.
func DeathProbability(age, halfLife int) float64 {
	if halfLife <= 0 || age <= halfLife {
		return 0
	}
	return 1 - math.Pow(0.5, float64(age-halfLife)/float64(halfLife))
}

// AgeAndKill ages every occupied cell not marked transformed by one step,
// then removes agents past their half-life that fail their death draw.
// Draws happen in cell order, only for agents whose age exceeds their
// grain's half-life. The indices of removed cells are appended to dead.
// Grains unknown to the model age but never die.
func AgeAndKill(idx *model.Index, st *world.State, transformed []bool, rng RNG, dead []int) []int {
	for i, g := range st.Cells {
		if g == model.Empty || transformed[i] {
			continue
		}
		st.Ages[i]++
		grain, ok := idx.Grain(g)
		if !ok || grain.HalfLife <= 0 || st.Ages[i] <= grain.HalfLife {
			continue
		}
		if rng.Float64() < DeathProbability(st.Ages[i], grain.HalfLife) {
			st.Cells[i] = model.Empty
			st.Ages[i] = 0
			dead = append(dead, i)
		}
	}
	return dead
}
