package systems

import (
	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/world"
)

// Binding ties one reaction slot to a concrete neighbor cell.
type Binding struct {
	Slot      int
	Cell      int
	Direction model.Direction
}

// ApplicableBehavior is a behavior fully bound to concrete cells for one
// step. Bindings holds one entry per reaction slot, in slot order.
type ApplicableBehavior struct {
	Behavior int
	Anchor   int
	Bindings []Binding
}

// SourceCell returns the cell of binding k: 0 is the anchor, i is the cell
// bound to reaction slot i-1.
func (a *ApplicableBehavior) SourceCell(k int) (int, bool) {
	if k == 0 {
		return a.Anchor, true
	}
	if k < 0 || k > len(a.Bindings) {
		return 0, false
	}
	return a.Bindings[k-1].Cell, true
}

// Cells lists the anchor followed by every bound neighbor.
func (a *ApplicableBehavior) Cells() []int {
	out := make([]int, 0, 1+len(a.Bindings))
	out = append(out, a.Anchor)
	for _, b := range a.Bindings {
		out = append(out, b.Cell)
	}
	return out
}

// Resolve binds each reaction slot of b, in declaration order, to the first
// neighbor of anchor (in direction enumeration order, restricted to the
// slot's allowed set) whose occupant matches the slot and that no earlier
// slot already took. Binding is greedy: an earlier slot's choice is never
// revisited when a later slot fails. Bindings are appended to dst; ok is
// false when some slot finds no neighbor.
func Resolve(st *world.State, b *model.Behavior, anchor int, dst []Binding) ([]Binding, bool) {
	start := len(dst)
	for slot := range b.Reactions {
		r := &b.Reactions[slot]
		bound := false
		for d := model.Direction(0); d < model.NumDirections; d++ {
			if !r.Directions.Has(d) {
				continue
			}
			n, ok := st.Neighbor(anchor, d)
			if !ok {
				continue
			}
			if !model.Matches(r.Reactive, st.Cells[n]) {
				continue
			}
			if alreadyBound(dst[start:], n) {
				continue
			}
			dst = append(dst, Binding{Slot: slot, Cell: n, Direction: d})
			bound = true
			break
		}
		if !bound {
			return dst[:start], false
		}
	}
	return dst, true
}

func alreadyBound(bs []Binding, cell int) bool {
	for _, b := range bs {
		if b.Cell == cell {
			return true
		}
	}
	return false
}
