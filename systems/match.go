package systems

import (
	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/world"
)

// MatchBehaviors appends to dst the indices of behaviors that can fire at
// cell, in model declaration order. A behavior matches when its anchor
// reactive equals the occupant, its age predicate holds for the occupant's
// age and every field threshold holds for the levels at cell. Thresholds on
// fields the state does not carry never hold.
func MatchBehaviors(idx *model.Index, st *world.State, cell int, dst []int) []int {
	occupant := st.Cells[cell]
	if occupant == model.Empty {
		return dst
	}
	age := st.Ages[cell]
	behaviors := idx.Model.Behaviors
	for _, bi := range idx.BehaviorsFor(occupant) {
		b := &behaviors[bi]
		if !b.Age.EvaluateInt(age) {
			continue
		}
		if !thresholdsHold(b.Thresholds, st, cell) {
			continue
		}
		dst = append(dst, bi)
	}
	return dst
}

func thresholdsHold(ts []model.FieldThreshold, st *world.State, cell int) bool {
	for _, t := range ts {
		levels, ok := st.Fields[t.Field]
		if !ok {
			return false
		}
		if !t.Predicate.Evaluate(levels[cell]) {
			return false
		}
	}
	return true
}
