package main

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/grains/model"
)

// ParamSpec defines a single tunable behavior probability.
type ParamSpec struct {
	Name     string  // behavior name
	Behavior int     // index into the model's behaviors
	Min      float64 // lower bound
	Max      float64 // upper bound
	Default  float64 // probability in the loaded model
}

// ParamVector holds the set of tuned parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector selects behaviors by comma-separated name. Every named
// behavior must exist; duplicate names in the model resolve to the first.
func NewParamVector(m *model.Model, names string) (*ParamVector, error) {
	pv := &ParamVector{}
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		found := false
		for i, b := range m.Behaviors {
			if b.Name == name {
				pv.Specs = append(pv.Specs, ParamSpec{Name: name, Behavior: i, Min: 0, Max: 1, Default: b.Probability})
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown behavior %q", name)
		}
	}
	if len(pv.Specs) == 0 {
		return nil, fmt.Errorf("no behaviors selected")
	}
	return pv, nil
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Clamp clamps each value to its parameter's bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, spec := range pv.Specs {
		out[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return out
}

// Apply returns a copy of m with the clamped values written into the
// selected behaviors.
func (pv *ParamVector) Apply(m *model.Model, values []float64) *model.Model {
	out := m.Clone()
	for i, v := range pv.Clamp(values) {
		out.Behaviors[pv.Specs[i].Behavior].Probability = v
	}
	return out
}
