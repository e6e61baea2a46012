package systems

import (
	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/world"
)

// Apply materializes the selected behaviors into next, a copy of cur taken
// at the start of the step. Every product and copy reads from cur, so two
// selections never observe each other's writes; when selections write the
// same cell the later one in selection order wins.
//
// transformed is set for cells whose occupant was replaced by a different
// grain; those cells skip aging this step. Cells rewritten to their current
// grain and cells that receive a copied occupant keep that occupant's age
// and age normally.
func Apply(idx *model.Index, cur, next *world.State, selected []ApplicableBehavior, transformed []bool) {
	behaviors := idx.Model.Behaviors
	for i := range selected {
		a := &selected[i]
		b := &behaviors[a.Behavior]

		writeProduct(cur, next, a.Anchor, b.Product, transformed)
		for _, bind := range a.Bindings {
			r := &b.Reactions[bind.Slot]
			if r.Source != model.NoSource {
				if src, ok := a.SourceCell(r.Source); ok {
					next.Cells[bind.Cell] = cur.Cells[src]
					next.Ages[bind.Cell] = cur.Ages[src]
					transformed[bind.Cell] = false
					continue
				}
			}
			writeProduct(cur, next, bind.Cell, r.Product, transformed)
		}

		if b.Source == model.NoSource || len(b.Influences) == 0 {
			continue
		}
		cell, ok := a.SourceCell(b.Source)
		if !ok {
			continue
		}
		for _, inf := range b.Influences {
			levels, ok := next.Fields[inf.Field]
			if !ok {
				continue
			}
			levels[cell] = world.Clamp01(levels[cell] + inf.Delta)
		}
	}
}

func writeProduct(cur, next *world.State, cell, product int, transformed []bool) {
	switch product {
	case model.Any:
		return
	case model.Vacant:
		next.Cells[cell] = model.Empty
		next.Ages[cell] = 0
		transformed[cell] = true
		return
	}
	next.Cells[cell] = product
	if cur.Cells[cell] == product {
		// Unchanged occupant: keeps its age and ages this step.
		next.Ages[cell] = cur.Ages[cell]
		transformed[cell] = false
		return
	}
	next.Ages[cell] = 0
	transformed[cell] = true
}
