package model

import (
	"errors"
	"fmt"
)

// ErrUnknownOperator is returned when a predicate operator cannot be parsed.
var ErrUnknownOperator = errors.New("unknown operator")

// Op is a comparison operator.
type Op string

const (
	// OpAny always holds. It is the zero value so an omitted predicate
	// never gates anything.
	OpAny Op = ""
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpLt  Op = "lt"
	OpGt  Op = "gt"
	OpLte Op = "lte"
	OpGte Op = "gte"
)

var validOps = map[Op]bool{
	OpAny: true,
	OpEq:  true,
	OpNe:  true,
	OpLt:  true,
	OpGt:  true,
	OpLte: true,
	OpGte: true,
}

// ParseOp validates an operator name. "any" is accepted for OpAny.
func ParseOp(s string) (Op, error) {
	if s == "any" {
		return OpAny, nil
	}
	op := Op(s)
	if !validOps[op] {
		return OpAny, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
	}
	return op, nil
}

// Predicate compares a sample against a stored constant.
type Predicate struct {
	Op    Op      `yaml:"op,omitempty" json:"op,omitempty"`
	Value float64 `yaml:"value,omitempty" json:"value,omitempty"`
}

// Always is the predicate that holds for every sample.
var Always = Predicate{}

// Evaluate reports whether the predicate holds for sample. Unknown
// operators never hold.
func (p Predicate) Evaluate(sample float64) bool {
	switch p.Op {
	case OpAny:
		return true
	case OpEq:
		return sample == p.Value
	case OpNe:
		return sample != p.Value
	case OpLt:
		return sample < p.Value
	case OpGt:
		return sample > p.Value
	case OpLte:
		return sample <= p.Value
	case OpGte:
		return sample >= p.Value
	}
	return false
}

// EvaluateInt is Evaluate for integer samples such as ages.
func (p Predicate) EvaluateInt(sample int) bool {
	return p.Evaluate(float64(sample))
}

func (p Predicate) String() string {
	if p.Op == OpAny {
		return "any"
	}
	return fmt.Sprintf("%s %g", p.Op, p.Value)
}
