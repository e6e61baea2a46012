package model

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Field is a named scalar layer that diffuses and decays over the grid.
type Field struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`

	// Speed is the fraction of a cell's level spread to neighbors per step.
	Speed float64 `yaml:"speed,omitempty"`
	// HalfLife in steps; 0 disables decay.
	HalfLife   float64      `yaml:"half_life,omitempty"`
	Directions DirectionSet `yaml:"directions,omitempty"`

	// Formula, when set, replaces the default diffusion and decay.
	Formula string `yaml:"formula,omitempty"`
}

// Update is the per-field update rule: DefaultUpdate or *FormulaUpdate.
type Update interface {
	isUpdate()
}

// DefaultUpdate diffuses by Speed along Directions, decays by HalfLife and
// applies grain couplings.
type DefaultUpdate struct{}

func (DefaultUpdate) isUpdate() {}

// FormulaEnv is the evaluation environment of a field formula. Field holds
// every field's pre-update level at the cell, keyed by field name.
type FormulaEnv struct {
	Step   int                `expr:"step"`
	X      int                `expr:"x"`
	Y      int                `expr:"y"`
	Width  int                `expr:"width"`
	Height int                `expr:"height"`
	Value  float64            `expr:"value"`
	Agent  int                `expr:"agent"`
	Field  map[string]float64 `expr:"field"`
}

// FormulaUpdate computes a cell's next level from a compiled expression.
type FormulaUpdate struct {
	Source  string
	program *vm.Program
}

func (*FormulaUpdate) isUpdate() {}

// CompileFormula compiles src against FormulaEnv.
func CompileFormula(src string) (*FormulaUpdate, error) {
	program, err := expr.Compile(src, expr.Env(FormulaEnv{}), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("compile formula %q: %w", src, err)
	}
	return &FormulaUpdate{Source: src, program: program}, nil
}

// Eval runs the formula against env.
func (f *FormulaUpdate) Eval(env *FormulaEnv) (float64, error) {
	out, err := expr.Run(f.program, *env)
	if err != nil {
		return 0, err
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("formula %q returned %T", f.Source, out)
	}
	return v, nil
}
