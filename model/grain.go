package model

// Grid and rule sentinels.
const (
	// Empty marks an unoccupied grid cell.
	Empty = -1
	// Any in a reactive slot matches every cell, occupied or not. In a
	// product slot it leaves the cell unchanged.
	Any = -1
	// Vacant in a reactive slot matches only empty cells. In a product slot
	// it empties the cell.
	Vacant = -2
	// NoSource disables a source back-reference.
	NoSource = -1
)

// Grain is a typed agent definition. Cells reference grains by ID only.
type Grain struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Color string `yaml:"color,omitempty"`

	// MoveProbability is the chance in [0,1] that the agent attempts a
	// move each step.
	MoveProbability float64      `yaml:"move_probability,omitempty"`
	MoveDirections  DirectionSet `yaml:"move_directions,omitempty"`

	// HalfLife is the age in steps an agent always survives. Past it the
	// agent dies each step with a chance that reaches 0.5 at twice HalfLife.
	// 0 is immortal.
	HalfLife int `yaml:"half_life,omitempty"`

	Fields []FieldCoupling `yaml:"fields,omitempty"`
}

// FieldCoupling describes how a grain interacts with one field at the cell
// it occupies.
type FieldCoupling struct {
	Field int `yaml:"field"`
	// Production is added to the local level each step.
	Production float64 `yaml:"production,omitempty"`
	// Influence is the fraction of the local level absorbed each step.
	Influence float64 `yaml:"influence,omitempty"`
	// Permeability scales diffusion into and out of the cell. Nil means 1.
	Permeability *float64 `yaml:"permeability,omitempty"`
}

// Coupling returns the grain's coupling to field, if any.
func (g *Grain) Coupling(field int) (FieldCoupling, bool) {
	for _, c := range g.Fields {
		if c.Field == field {
			return c, true
		}
	}
	return FieldCoupling{}, false
}

// PermeabilityValue returns the effective permeability in [0,1].
func (c FieldCoupling) PermeabilityValue() float64 {
	if c.Permeability == nil {
		return 1
	}
	return clamp01(*c.Permeability)
}

// Float returns a pointer to v, for optional coefficients.
func Float(v float64) *float64 { return &v }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
