package model

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model is the full static rule set. Declaration order of Behaviors is the
// tie-break priority when several behaviors match the same anchor.
type Model struct {
	Name      string     `yaml:"name,omitempty"`
	Grains    []Grain    `yaml:"grains"`
	Behaviors []Behavior `yaml:"behaviors,omitempty"`
	Fields    []Field    `yaml:"fields,omitempty"`
}

// Grain returns the grain with the given ID.
func (m *Model) Grain(id int) (*Grain, bool) {
	for i := range m.Grains {
		if m.Grains[i].ID == id {
			return &m.Grains[i], true
		}
	}
	return nil, false
}

// Field returns the field with the given ID.
func (m *Model) Field(id int) (*Field, bool) {
	for i := range m.Fields {
		if m.Fields[i].ID == id {
			return &m.Fields[i], true
		}
	}
	return nil, false
}

// GrainByName returns the first grain with the given name.
func (m *Model) GrainByName(name string) (*Grain, bool) {
	for i := range m.Grains {
		if m.Grains[i].Name == name {
			return &m.Grains[i], true
		}
	}
	return nil, false
}

// FieldIDs lists field IDs in declaration order.
func (m *Model) FieldIDs() []int {
	ids := make([]int, len(m.Fields))
	for i, f := range m.Fields {
		ids[i] = f.ID
	}
	return ids
}

// Clone returns a deep copy so an editor can mutate it while a copy is
// being stepped.
func (m *Model) Clone() *Model {
	out := &Model{Name: m.Name}
	out.Grains = make([]Grain, len(m.Grains))
	for i, g := range m.Grains {
		g.Fields = cloneCouplings(g.Fields)
		out.Grains[i] = g
	}
	out.Behaviors = make([]Behavior, len(m.Behaviors))
	for i, b := range m.Behaviors {
		b.Reactions = append([]Reaction(nil), b.Reactions...)
		b.Thresholds = append([]FieldThreshold(nil), b.Thresholds...)
		b.Influences = append([]FieldInfluence(nil), b.Influences...)
		out.Behaviors[i] = b
	}
	out.Fields = append([]Field(nil), m.Fields...)
	return out
}

func cloneCouplings(in []FieldCoupling) []FieldCoupling {
	if in == nil {
		return nil
	}
	out := make([]FieldCoupling, len(in))
	for i, c := range in {
		if c.Permeability != nil {
			c.Permeability = Float(*c.Permeability)
		}
		out[i] = c
	}
	return out
}

// Parse decodes a model from YAML.
func Parse(data []byte) (*Model, error) {
	m := &Model{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	return m, nil
}

// Marshal encodes a model as YAML.
func (m *Model) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling model: %w", err)
	}
	return data, nil
}

// Load reads a model file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	return Parse(data)
}

// WriteYAML writes the model to path.
func (m *Model) WriteYAML(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}
	return nil
}

// Index is a read-only lookup view of a Model used by the step engine.
// Build it once after every edit; it must not be shared with a model that is
// still being mutated.
type Index struct {
	Model *Model

	grains     map[int]*Grain
	fields     map[int]*Field
	updates    map[int]Update
	byReactive map[int][]int
	anyAnchor  []int
}

// NewIndex builds the lookup tables and compiles field formulas. A formula
// that fails to compile falls back to DefaultUpdate; the returned error
// reports every such failure while the Index stays usable.
func NewIndex(m *Model) (*Index, error) {
	idx := &Index{
		Model:      m,
		grains:     make(map[int]*Grain, len(m.Grains)),
		fields:     make(map[int]*Field, len(m.Fields)),
		updates:    make(map[int]Update, len(m.Fields)),
		byReactive: make(map[int][]int),
	}
	for i := range m.Grains {
		g := &m.Grains[i]
		if _, dup := idx.grains[g.ID]; !dup {
			idx.grains[g.ID] = g
		}
	}
	var errs []error
	for i := range m.Fields {
		f := &m.Fields[i]
		if _, dup := idx.fields[f.ID]; dup {
			continue
		}
		idx.fields[f.ID] = f
		idx.updates[f.ID] = DefaultUpdate{}
		if f.Formula == "" {
			continue
		}
		u, err := CompileFormula(f.Formula)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %d (%s): %w", f.ID, f.Name, err))
			continue
		}
		idx.updates[f.ID] = u
	}
	for i, b := range m.Behaviors {
		if b.Reactive == Any {
			idx.anyAnchor = append(idx.anyAnchor, i)
			continue
		}
		idx.byReactive[b.Reactive] = append(idx.byReactive[b.Reactive], i)
	}
	return idx, errors.Join(errs...)
}

// Grain looks up a grain by ID.
func (x *Index) Grain(id int) (*Grain, bool) {
	g, ok := x.grains[id]
	return g, ok
}

// Field looks up a field by ID.
func (x *Index) Field(id int) (*Field, bool) {
	f, ok := x.fields[id]
	return f, ok
}

// Update returns the compiled update rule of a field.
func (x *Index) Update(field int) Update {
	if u, ok := x.updates[field]; ok {
		return u
	}
	return DefaultUpdate{}
}

// BehaviorsFor returns, in declaration order, the indices of behaviors whose
// anchor reactive can match grain. The result must not be modified.
func (x *Index) BehaviorsFor(grain int) []int {
	own := x.byReactive[grain]
	if len(x.anyAnchor) == 0 {
		return own
	}
	if len(own) == 0 {
		return x.anyAnchor
	}
	return mergeSorted(own, x.anyAnchor)
}

func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
