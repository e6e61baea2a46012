package model

import (
	"errors"
	"testing"
)

func TestPredicateEvaluate(t *testing.T) {
	tests := []struct {
		p      Predicate
		sample float64
		want   bool
	}{
		{Always, -5, true},
		{Predicate{OpEq, 3}, 3, true},
		{Predicate{OpEq, 3}, 3.5, false},
		{Predicate{OpNe, 3}, 4, true},
		{Predicate{OpNe, 3}, 3, false},
		{Predicate{OpLt, 3}, 2, true},
		{Predicate{OpLt, 3}, 3, false},
		{Predicate{OpGt, 3}, 4, true},
		{Predicate{OpGt, 3}, 3, false},
		{Predicate{OpLte, 3}, 3, true},
		{Predicate{OpLte, 3}, 4, false},
		{Predicate{OpGte, 0.5}, 0.5, true},
		{Predicate{OpGte, 0.5}, 0.49, false},
		{Predicate{Op("between"), 1}, 1, false},
	}
	for _, tt := range tests {
		if got := tt.p.Evaluate(tt.sample); got != tt.want {
			t.Errorf("%s .Evaluate(%v) = %v, want %v", tt.p, tt.sample, got, tt.want)
		}
	}
	if !(Predicate{OpGte, 10}).EvaluateInt(10) {
		t.Error("EvaluateInt(10) for gte 10 = false")
	}
}

func TestParseOp(t *testing.T) {
	for _, s := range []string{"eq", "ne", "lt", "gt", "lte", "gte", ""} {
		if _, err := ParseOp(s); err != nil {
			t.Errorf("ParseOp(%q): %v", s, err)
		}
	}
	if op, err := ParseOp("any"); err != nil || op != OpAny {
		t.Errorf("ParseOp(any) = %q, %v", op, err)
	}
	if _, err := ParseOp("=="); !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("expected ErrUnknownOperator, got %v", err)
	}
}
