package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/world"
)

// runStep drives collect, select, apply and aging the way the engine does,
// with a draw of 0 so every candidate fires.
func runStep(t *testing.T, idx *model.Index, cur *world.State) (*world.State, []ApplicableBehavior, []bool) {
	t.Helper()
	sc := NewScratch()
	next := cur.Clone()
	selected := Select(idx, Collect(idx, cur, sc), fixedRNG{0})
	transformed, _ := sc.Flags(cur.Len())
	Apply(idx, cur, next, selected, transformed)
	AgeAndKill(idx, next, transformed, fixedRNG{0}, nil)
	return next, selected, transformed
}

func TestApply_AnchorTransform(t *testing.T) {
	const a, b = 0, 1
	m := &model.Model{
		Grains:    []model.Grain{{ID: a, Name: "a"}, {ID: b, Name: "b"}},
		Behaviors: []model.Behavior{simple(a, b)},
	}
	idx := mustIndex(t, m)
	cur := newState(t, 3, 3)
	center := place(t, cur, 1, 1, a)
	cur.Ages[center] = 7

	next, selected, _ := runStep(t, idx, cur)
	if len(selected) != 1 {
		t.Fatalf("selected %d behaviors, want 1", len(selected))
	}
	if next.Cells[center] != b {
		t.Errorf("center = %d, want %d", next.Cells[center], b)
	}
	if next.Ages[center] != 0 {
		t.Errorf("transformed agent age = %d, want 0", next.Ages[center])
	}
	if got := next.Occupied(); got != 1 {
		t.Errorf("occupied = %d, want 1", got)
	}
	if cur.Cells[center] != a || cur.Ages[center] != 7 {
		t.Error("Apply modified the pre-step state")
	}
}

func TestApply_NeighborReaction(t *testing.T) {
	const a, b, c, d = 0, 1, 2, 3
	behavior := simple(a, b)
	behavior.Reactions = []model.Reaction{
		{Reactive: c, Product: d, Directions: model.Dirs(model.East), Source: model.NoSource},
	}
	m := &model.Model{
		Grains:    []model.Grain{{ID: a}, {ID: b}, {ID: c}, {ID: d}},
		Behaviors: []model.Behavior{behavior},
	}
	idx := mustIndex(t, m)

	cur := newState(t, 3, 2)
	anchor := place(t, cur, 0, 0, a)
	target := place(t, cur, 1, 0, c)
	isolated := place(t, cur, 0, 1, a)
	cur.Ages[anchor] = 4
	cur.Ages[isolated] = 2

	next, selected, transformed := runStep(t, idx, cur)
	if len(selected) != 1 || selected[0].Anchor != anchor {
		t.Fatalf("selected = %+v, want only the anchor at %d", selected, anchor)
	}
	if next.Cells[anchor] != b || next.Ages[anchor] != 0 {
		t.Errorf("anchor = (%d, age %d), want main product (%d, age 0)", next.Cells[anchor], next.Ages[anchor], b)
	}
	if next.Cells[target] != d || next.Ages[target] != 0 {
		t.Errorf("neighbor = (%d, age %d), want (%d, age 0)", next.Cells[target], next.Ages[target], d)
	}
	if !transformed[anchor] || !transformed[target] {
		t.Error("rewritten cells not marked transformed")
	}
	if next.Cells[isolated] != a || next.Ages[isolated] != 3 {
		t.Errorf("isolated anchor = (%d, age %d), want unchanged (%d, age 3)", next.Cells[isolated], next.Ages[isolated], a)
	}
}

func TestApply_AnyProductKeepsAnchor(t *testing.T) {
	const a, c, d = 0, 1, 2
	behavior := simple(a, model.Any)
	behavior.Reactions = []model.Reaction{
		{Reactive: c, Product: d, Directions: model.Dirs(model.East), Source: model.NoSource},
	}
	idx := mustIndex(t, &model.Model{
		Grains:    []model.Grain{{ID: a}, {ID: c}, {ID: d}},
		Behaviors: []model.Behavior{behavior},
	})

	cur := newState(t, 2, 1)
	cur.Cells = []int{a, c}
	cur.Ages[0] = 4

	next, _, transformed := runStep(t, idx, cur)
	if next.Cells[0] != a || next.Ages[0] != 5 {
		t.Errorf("anchor = (%d, age %d), want (%d, age 5)", next.Cells[0], next.Ages[0], a)
	}
	if transformed[0] {
		t.Error("an Any product marked the anchor transformed")
	}
	if next.Cells[1] != d {
		t.Errorf("neighbor = %d, want %d", next.Cells[1], d)
	}
}

func TestApply_SameProductKeepsAging(t *testing.T) {
	const a, c = 0, 1
	self := simple(a, a)
	self.Reactions = []model.Reaction{
		{Reactive: c, Product: c, Directions: model.Dirs(model.East), Source: model.NoSource},
	}
	idx := mustIndex(t, &model.Model{Grains: []model.Grain{{ID: a}, {ID: c}}, Behaviors: []model.Behavior{self}})

	cur := newState(t, 2, 1)
	cur.Cells = []int{a, c}
	cur.Ages = []int{3, 7}

	for step := 1; step <= 3; step++ {
		next, selected, transformed := runStep(t, idx, cur)
		if len(selected) != 1 {
			t.Fatalf("step %d: selected %d, want 1", step, len(selected))
		}
		if transformed[0] || transformed[1] {
			t.Fatalf("step %d: cells rewritten to their own grain marked transformed", step)
		}
		if next.Ages[0] != 3+step || next.Ages[1] != 7+step {
			t.Fatalf("step %d: ages = %v, want [%d %d]", step, next.Ages, 3+step, 7+step)
		}
		cur = next
	}
}

func TestApply_LaterSameProductClearsTransformed(t *testing.T) {
	// The first selection replaces the middle grain, the second rewrites it
	// back to its pre-step grain; the cell ends unchanged and ages.
	const a, mid, x = 0, 1, 2
	left := simple(a, model.Any)
	left.Reactions = []model.Reaction{{Reactive: mid, Product: x, Directions: model.Dirs(model.East), Source: model.NoSource}}
	right := simple(a, model.Any)
	right.Reactions = []model.Reaction{{Reactive: mid, Product: mid, Directions: model.Dirs(model.West), Source: model.NoSource}}
	idx := mustIndex(t, &model.Model{
		Grains:    []model.Grain{{ID: a}, {ID: mid}, {ID: x}},
		Behaviors: []model.Behavior{left, right},
	})

	cur := newState(t, 3, 1)
	cur.Cells = []int{a, mid, a}
	cur.Ages = []int{0, 6, 0}

	next, _, transformed := runStep(t, idx, cur)
	if next.Cells[1] != mid || next.Ages[1] != 7 || transformed[1] {
		t.Errorf("middle = (%d, age %d, transformed %v), want (%d, age 7, false)", next.Cells[1], next.Ages[1], transformed[1], mid)
	}
}

func TestApply_VacantProductAndSourceCopy(t *testing.T) {
	// Moving by behavior: the anchor empties and the vacant neighbor takes a
	// copy of the anchor's pre-step occupant and age.
	const a = 0
	b := simple(a, model.Vacant)
	b.Reactions = []model.Reaction{
		{Reactive: model.Vacant, Product: model.Any, Directions: model.Dirs(model.East), Source: 0},
	}
	idx := mustIndex(t, &model.Model{Grains: []model.Grain{{ID: a}}, Behaviors: []model.Behavior{b}})

	cur := newState(t, 2, 1)
	cur.Cells[0] = a
	cur.Ages[0] = 3

	next, _, transformed := runStep(t, idx, cur)
	if next.Cells[0] != model.Empty || next.Cells[1] != a {
		t.Fatalf("cells = %v, want [empty a]", next.Cells)
	}
	if transformed[1] {
		t.Error("copied occupant marked transformed")
	}
	if next.Ages[1] != 4 {
		t.Errorf("copied age = %d, want 4 after aging", next.Ages[1])
	}
}

func TestApply_LastWriterWins(t *testing.T) {
	// Both anchors rewrite the cell between them; the later anchor in
	// selection order wins and neither sees the other's write.
	const a, mid, x, y = 0, 1, 2, 3
	left := simple(a, model.Any)
	left.Reactions = []model.Reaction{{Reactive: mid, Product: x, Directions: model.Dirs(model.East), Source: model.NoSource}}
	right := simple(a, model.Any)
	right.Reactions = []model.Reaction{{Reactive: mid, Product: y, Directions: model.Dirs(model.West), Source: model.NoSource}}
	idx := mustIndex(t, &model.Model{
		Grains:    []model.Grain{{ID: a}, {ID: mid}, {ID: x}, {ID: y}},
		Behaviors: []model.Behavior{left, right},
	})

	cur := newState(t, 3, 1)
	cur.Cells = []int{a, mid, a}

	next, selected, _ := runStep(t, idx, cur)
	if len(selected) != 2 {
		t.Fatalf("selected %d, want 2", len(selected))
	}
	if next.Cells[1] != y {
		t.Errorf("contested cell = %d, want %d", next.Cells[1], y)
	}
}

func TestApply_Influences(t *testing.T) {
	const a = 0
	b := simple(a, model.Any)
	b.Source = 0
	b.Influences = []model.FieldInfluence{{Field: 0, Delta: 0.3}, {Field: 9, Delta: 1}}
	idx := mustIndex(t, &model.Model{
		Grains:    []model.Grain{{ID: a}},
		Fields:    []model.Field{{ID: 0, Name: "heat"}},
		Behaviors: []model.Behavior{b},
	})

	cur := newState(t, 1, 1, 0)
	cur.Cells[0] = a
	cur.Fields[0][0] = 0.8

	next, _, _ := runStep(t, idx, cur)
	if got := next.Fields[0][0]; got != 1 {
		t.Errorf("level = %v, want clamped 1", got)
	}
	if _, ok := next.Fields[9]; ok {
		t.Error("influence created a missing field layer")
	}

	b.Influences[0].Delta = -0.5
	idx = mustIndex(t, &model.Model{Grains: []model.Grain{{ID: a}}, Fields: []model.Field{{ID: 0}}, Behaviors: []model.Behavior{b}})
	next, _, _ = runStep(t, idx, cur)
	if got := next.Fields[0][0]; math.Abs(got-0.3) > 1e-12 {
		t.Errorf("level = %v, want 0.3", got)
	}
}
