package model

import (
	"fmt"
	"strings"
)

// ValidationError collects every configuration issue found in a model.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid model: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "model validation errors: " + strings.Join(e.Issues, "; ")
}

// Add records an issue.
func (e *ValidationError) Add(format string, args ...any) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

// HasIssues reports whether any issue was recorded.
func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// Validate checks a model for the configuration errors the step engine
// silently treats as "never matches": dangling grain and field IDs, empty
// direction sets where motion or binding is implied, out-of-range
// coefficients and formulas that do not compile. It returns nil or a
// *ValidationError.
func Validate(m *Model) error {
	verr := &ValidationError{}

	grains := make(map[int]bool, len(m.Grains))
	for _, g := range m.Grains {
		if g.ID < 0 {
			verr.Add("grain %q: id %d is negative", g.Name, g.ID)
		}
		if grains[g.ID] {
			verr.Add("duplicate grain id %d", g.ID)
		}
		grains[g.ID] = true
	}

	fields := make(map[int]bool, len(m.Fields))
	for _, f := range m.Fields {
		label := fieldLabel(f)
		if fields[f.ID] {
			verr.Add("duplicate field id %d", f.ID)
		}
		fields[f.ID] = true
		if f.Speed < 0 || f.Speed > 1 {
			verr.Add("%s: speed %g outside [0,1]", label, f.Speed)
		}
		if f.HalfLife < 0 {
			verr.Add("%s: negative half-life %g", label, f.HalfLife)
		}
		if f.Formula == "" && f.Speed > 0 && f.Directions.Empty() {
			verr.Add("%s: speed %g with no spread directions", label, f.Speed)
		}
		if f.Formula != "" {
			if _, err := CompileFormula(f.Formula); err != nil {
				verr.Add("%s: %v", label, err)
			}
		}
	}

	for _, g := range m.Grains {
		label := fmt.Sprintf("grain %d (%s)", g.ID, g.Name)
		if g.MoveProbability < 0 || g.MoveProbability > 1 {
			verr.Add("%s: move probability %g outside [0,1]", label, g.MoveProbability)
		}
		if g.MoveProbability > 0 && g.MoveDirections.Empty() {
			verr.Add("%s: moves with no allowed directions", label)
		}
		if g.HalfLife < 0 {
			verr.Add("%s: negative half-life %d", label, g.HalfLife)
		}
		for _, c := range g.Fields {
			if !fields[c.Field] {
				verr.Add("%s: unknown field %d", label, c.Field)
			}
			if c.Production < 0 || c.Production > 1 {
				verr.Add("%s: production %g outside [0,1]", label, c.Production)
			}
			if c.Influence < 0 || c.Influence > 1 {
				verr.Add("%s: influence %g outside [0,1]", label, c.Influence)
			}
		}
	}

	checkReactive := func(label string, id int) {
		if id == Any || id == Vacant {
			return
		}
		if !grains[id] {
			verr.Add("%s: unknown reactive grain %d", label, id)
		}
	}
	checkProduct := func(label string, id int) {
		if id == Any || id == Vacant {
			return
		}
		if !grains[id] {
			verr.Add("%s: unknown product grain %d", label, id)
		}
	}

	for i, b := range m.Behaviors {
		label := fmt.Sprintf("behavior %d", i)
		if b.Name != "" {
			label = fmt.Sprintf("behavior %q", b.Name)
		}
		if b.Reactive == Vacant {
			verr.Add("%s: anchor cannot be vacant", label)
		} else {
			checkReactive(label, b.Reactive)
		}
		checkProduct(label, b.Product)
		if b.Probability < 0 || b.Probability > 1 {
			verr.Add("%s: probability %g outside [0,1]", label, b.Probability)
		}
		if _, err := ParseOp(string(b.Age.Op)); err != nil {
			verr.Add("%s: age predicate: %v", label, err)
		}
		for j, r := range b.Reactions {
			slot := fmt.Sprintf("%s reaction %d", label, j)
			checkReactive(slot, r.Reactive)
			checkProduct(slot, r.Product)
			if r.Directions.Empty() {
				verr.Add("%s: no allowed directions", slot)
			}
			if r.Source != NoSource && (r.Source < 0 || r.Source > len(b.Reactions)) {
				verr.Add("%s: source %d out of range", slot, r.Source)
			}
		}
		for _, t := range b.Thresholds {
			if !fields[t.Field] {
				verr.Add("%s: threshold on unknown field %d", label, t.Field)
			}
			if _, err := ParseOp(string(t.Predicate.Op)); err != nil {
				verr.Add("%s: threshold: %v", label, err)
			}
		}
		for _, inf := range b.Influences {
			if !fields[inf.Field] {
				verr.Add("%s: influence on unknown field %d", label, inf.Field)
			}
		}
		if b.Source != NoSource && (b.Source < 0 || b.Source > len(b.Reactions)) {
			verr.Add("%s: source %d out of range", label, b.Source)
		}
	}

	if verr.HasIssues() {
		return verr
	}
	return nil
}

func fieldLabel(f Field) string {
	return fmt.Sprintf("field %d (%s)", f.ID, f.Name)
}
