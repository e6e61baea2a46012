package model

import "gopkg.in/yaml.v3"

// Behavior is a declarative rule that transforms an anchor grain, and
// optionally bound neighbors, with some probability.
type Behavior struct {
	Name string `yaml:"name,omitempty"`

	// Reactive is the anchor grain ID. Product replaces it when the
	// behavior fires (Any leaves it, Vacant empties the cell).
	Reactive int `yaml:"reactive"`
	Product  int `yaml:"product"`

	Probability float64 `yaml:"probability"`

	// Age gates on the anchor occupant's age.
	Age Predicate `yaml:"age,omitempty"`

	// Reactions are bound to distinct neighbor cells in declaration order.
	Reactions []Reaction `yaml:"reactions,omitempty"`

	Thresholds []FieldThreshold `yaml:"thresholds,omitempty"`
	Influences []FieldInfluence `yaml:"influences,omitempty"`

	// Source picks the cell where Influences apply: 0 is the anchor, i is
	// the cell bound to Reactions[i-1], NoSource disables influences.
	Source int `yaml:"source"`
}

// Reaction is one neighbor-binding slot of a Behavior.
type Reaction struct {
	Reactive   int          `yaml:"reactive"`
	Product    int          `yaml:"product"`
	Directions DirectionSet `yaml:"directions"`

	// Source, when not NoSource, makes the bound cell take a copy of the
	// pre-step occupant and age of binding Source (0 anchor, i slot i-1)
	// instead of Product.
	Source int `yaml:"source"`
}

// FieldThreshold gates a behavior on the field level at the anchor.
type FieldThreshold struct {
	Field     int       `yaml:"field"`
	Predicate Predicate `yaml:"predicate"`
}

// FieldInfluence adds Delta to a field at the behavior's source cell.
type FieldInfluence struct {
	Field int     `yaml:"field"`
	Delta float64 `yaml:"delta"`
}

// UnmarshalYAML fills omitted sentinel fields with Any/NoSource instead of 0,
// which would otherwise read as grain ID 0.
func (b *Behavior) UnmarshalYAML(node *yaml.Node) error {
	type plain Behavior
	raw := plain{Product: Any, Source: NoSource}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*b = Behavior(raw)
	return nil
}

// UnmarshalYAML fills omitted sentinel fields with Any/NoSource.
func (r *Reaction) UnmarshalYAML(node *yaml.Node) error {
	type plain Reaction
	raw := plain{Reactive: Any, Product: Any, Source: NoSource}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*r = Reaction(raw)
	return nil
}

// Matches reports whether a cell occupant satisfies a reactive constraint.
func Matches(reactive, occupant int) bool {
	switch reactive {
	case Any:
		return true
	case Vacant:
		return occupant == Empty
	}
	return reactive == occupant
}
