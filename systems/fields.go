package systems

import (
	"math"

	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/world"
)

// DefaultNegligibleLevel is the level under which a field cell snaps to 0.
const DefaultNegligibleLevel = 1e-6

// UpdateFields recomputes every model field layer of st. All layers are
// computed from their pre-update values before any is replaced, so the
// order of fields does not matter. Layers the state lacks are created.
func UpdateFields(idx *model.Index, st *world.State, sc *Scratch, negligible float64) {
	fields := idx.Model.Fields
	if len(fields) == 0 {
		return
	}
	for i := range fields {
		st.EnsureField(fields[i].ID)
	}
	for i := range fields {
		f := &fields[i]
		if !isPrimary(idx, f) {
			continue
		}
		src := st.Fields[f.ID]
		dst := sc.fieldBuffer(f.ID, len(src))
		switch u := idx.Update(f.ID).(type) {
		case *model.FormulaUpdate:
			formulaUpdate(idx, st, f, u, src, dst, sc)
		default:
			defaultUpdate(idx, st, f, src, dst)
		}
		snapNegligible(dst, negligible)
	}
	for i := range fields {
		f := &fields[i]
		if !isPrimary(idx, f) {
			continue
		}
		st.Fields[f.ID], sc.fieldOut[f.ID] = sc.fieldOut[f.ID], st.Fields[f.ID]
	}
}

// isPrimary reports whether f is the declaration the index resolves its ID
// to; later duplicates are ignored.
func isPrimary(idx *model.Index, f *model.Field) bool {
	p, ok := idx.Field(f.ID)
	return ok && p == f
}

// defaultUpdate spreads Speed of each cell's level evenly to its in-bounds
// neighbors along the field's directions, scaled by the permeability of the
// source and target occupants (the blocked share stays put), then applies
// half-life decay and grain production and absorption.
func defaultUpdate(idx *model.Index, st *world.State, f *model.Field, src, dst []float64) {
	clear(dst)
	for i, level := range src {
		if level == 0 || f.Speed <= 0 || f.Directions.Empty() {
			dst[i] += level
			continue
		}
		var targets [model.NumDirections]int
		n := 0
		for d := model.Direction(0); d < model.NumDirections; d++ {
			if !f.Directions.Has(d) {
				continue
			}
			if j, ok := st.Neighbor(i, d); ok {
				targets[n] = j
				n++
			}
		}
		if n == 0 {
			dst[i] += level
			continue
		}
		give := f.Speed * level * permeability(idx, st.Cells[i], f.ID)
		share := give / float64(n)
		kept := level - give
		for _, j := range targets[:n] {
			moved := share * permeability(idx, st.Cells[j], f.ID)
			dst[j] += moved
			kept += share - moved
		}
		dst[i] += kept
	}

	decay := 1.0
	if f.HalfLife > 0 {
		decay = math.Pow(0.5, 1/f.HalfLife)
	}
	for i := range dst {
		v := dst[i] * decay
		if g := st.Cells[i]; g != model.Empty {
			if grain, ok := idx.Grain(g); ok {
				if c, ok := grain.Coupling(f.ID); ok {
					v += c.Production
					v -= c.Influence * v
				}
			}
		}
		dst[i] = world.Clamp01(v)
	}
}

// formulaUpdate evaluates the field formula per cell. A cell whose
// evaluation fails keeps its current level.
func formulaUpdate(idx *model.Index, st *world.State, f *model.Field, u *model.FormulaUpdate, src, dst []float64, sc *Scratch) {
	env := &sc.env
	env.Step = st.Step
	env.Width = st.Width
	env.Height = st.Height
	if env.Field == nil {
		env.Field = make(map[string]float64, len(idx.Model.Fields))
	}
	for i := range src {
		env.X, env.Y = st.Position(i)
		env.Value = src[i]
		env.Agent = st.Cells[i]
		for k := range idx.Model.Fields {
			other := &idx.Model.Fields[k]
			env.Field[other.Name] = st.Fields[other.ID][i]
		}
		v, err := u.Eval(env)
		if err != nil {
			dst[i] = src[i]
			continue
		}
		dst[i] = world.Clamp01(v)
	}
}

func permeability(idx *model.Index, occupant, field int) float64 {
	if occupant == model.Empty {
		return 1
	}
	grain, ok := idx.Grain(occupant)
	if !ok {
		return 1
	}
	c, ok := grain.Coupling(field)
	if !ok {
		return 1
	}
	return c.PermeabilityValue()
}

func snapNegligible(levels []float64, negligible float64) {
	if negligible <= 0 {
		return
	}
	for i, v := range levels {
		if v < negligible {
			levels[i] = 0
		}
	}
}
