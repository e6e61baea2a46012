package systems

import (
	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/world"
)

// Collect builds every fully bound candidate for every occupied cell against
// st, which must be the state at the start of the step. Candidates come out
// grouped by anchor in ascending cell order and, within an anchor, in model
// declaration order. The returned slice and its bindings live in sc and are
// only valid until the next Collect.
func Collect(idx *model.Index, st *world.State, sc *Scratch) []ApplicableBehavior {
	sc.candidates = sc.candidates[:0]
	sc.bindings = sc.bindings[:0]
	behaviors := idx.Model.Behaviors
	for cell, occupant := range st.Cells {
		if occupant == model.Empty {
			continue
		}
		sc.matches = MatchBehaviors(idx, st, cell, sc.matches[:0])
		for _, bi := range sc.matches {
			start := len(sc.bindings)
			var ok bool
			sc.bindings, ok = Resolve(st, &behaviors[bi], cell, sc.bindings)
			if !ok {
				continue
			}
			sc.candidates = append(sc.candidates, ApplicableBehavior{
				Behavior: bi,
				Anchor:   cell,
				Bindings: sc.bindings[start:len(sc.bindings):len(sc.bindings)],
			})
		}
	}
	return sc.candidates
}

// Select draws, per anchor, at most one behavior to fire. Candidates of an
// anchor are tried in order with one independent draw each; the first draw
// below the behavior's probability wins and later candidates of that anchor
// are not drawn. The selections are returned in anchor order with their
// bindings copied out of the scratch arena.
func Select(idx *model.Index, candidates []ApplicableBehavior, rng RNG) []ApplicableBehavior {
	var selected []ApplicableBehavior
	behaviors := idx.Model.Behaviors
	fired := -1
	for i := range candidates {
		c := &candidates[i]
		if c.Anchor == fired {
			continue
		}
		if rng.Float64() >= behaviors[c.Behavior].Probability {
			continue
		}
		fired = c.Anchor
		selected = append(selected, ApplicableBehavior{
			Behavior: c.Behavior,
			Anchor:   c.Anchor,
			Bindings: append([]Binding(nil), c.Bindings...),
		})
	}
	return selected
}
