package systems

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pthm-cable/grains/model"
)

func TestResolve_DistinctCells(t *testing.T) {
	st := newState(t, 3, 3)
	anchor := place(t, st, 1, 1, 0)
	n := place(t, st, 1, 0, 1)
	e := place(t, st, 2, 1, 1)

	b := simple(0, model.Any)
	b.Reactions = []model.Reaction{
		{Reactive: 1, Product: model.Any, Directions: model.FirstDirections, Source: model.NoSource},
		{Reactive: 1, Product: model.Any, Directions: model.FirstDirections, Source: model.NoSource},
	}

	got, ok := Resolve(st, &b, anchor, nil)
	if !ok {
		t.Fatal("Resolve failed with two matching neighbors")
	}
	want := []Binding{
		{Slot: 0, Cell: n, Direction: model.North},
		{Slot: 1, Cell: e, Direction: model.East},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_NoDoubleBinding(t *testing.T) {
	st := newState(t, 3, 3)
	anchor := place(t, st, 1, 1, 0)
	place(t, st, 1, 0, 1)

	b := simple(0, model.Any)
	b.Reactions = []model.Reaction{
		{Reactive: 1, Product: model.Any, Directions: model.FirstDirections, Source: model.NoSource},
		{Reactive: 1, Product: model.Any, Directions: model.FirstDirections, Source: model.NoSource},
	}

	prefix := []Binding{{Slot: 9, Cell: 42}}
	got, ok := Resolve(st, &b, anchor, prefix)
	if ok {
		t.Fatal("Resolve bound one neighbor to two slots")
	}
	if diff := cmp.Diff(prefix, got); diff != "" {
		t.Errorf("failed Resolve must leave dst as it was (-want +got):\n%s", diff)
	}
}

func TestResolve_GreedyDoesNotBacktrack(t *testing.T) {
	// Slot 0 takes N first even though only slot 1 can use N; a matching
	// assignment exists but greedy binding does not find it.
	st := newState(t, 3, 3)
	anchor := place(t, st, 1, 1, 0)
	place(t, st, 1, 0, 1)
	place(t, st, 2, 1, 2)

	b := simple(0, model.Any)
	b.Reactions = []model.Reaction{
		{Reactive: model.Any, Product: model.Any, Directions: model.Dirs(model.North, model.East), Source: model.NoSource},
		{Reactive: 1, Product: model.Any, Directions: model.Dirs(model.North), Source: model.NoSource},
	}
	if _, ok := Resolve(st, &b, anchor, nil); ok {
		t.Error("expected greedy binding to fail")
	}
}

func TestResolve_HardEdges(t *testing.T) {
	st := newState(t, 2, 1)
	anchor := place(t, st, 1, 0, 0)

	b := simple(0, model.Any)
	b.Reactions = []model.Reaction{
		{Reactive: model.Vacant, Product: model.Any, Directions: model.Dirs(model.East), Source: model.NoSource},
	}
	if _, ok := Resolve(st, &b, anchor, nil); ok {
		t.Error("bound a neighbor past the grid edge")
	}
}

func TestResolve_NoReactions(t *testing.T) {
	st := newState(t, 1, 1)
	b := simple(0, 1)
	got, ok := Resolve(st, &b, 0, nil)
	if !ok || len(got) != 0 {
		t.Errorf("Resolve = %v, %v; want no bindings, true", got, ok)
	}
}

func TestApplicableBehavior_SourceCell(t *testing.T) {
	a := ApplicableBehavior{Anchor: 4, Bindings: []Binding{{Slot: 0, Cell: 1}, {Slot: 1, Cell: 5}}}
	tests := []struct {
		k    int
		cell int
		ok   bool
	}{
		{0, 4, true},
		{1, 1, true},
		{2, 5, true},
		{3, 0, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		cell, ok := a.SourceCell(tt.k)
		if cell != tt.cell || ok != tt.ok {
			t.Errorf("SourceCell(%d) = %d, %v; want %d, %v", tt.k, cell, ok, tt.cell, tt.ok)
		}
	}
	if diff := cmp.Diff([]int{4, 1, 5}, a.Cells()); diff != "" {
		t.Errorf("Cells mismatch (-want +got):\n%s", diff)
	}
}
