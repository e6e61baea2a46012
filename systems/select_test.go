package systems

import (
	"testing"

	"github.com/pthm-cable/grains/model"
)

func TestCollect_OrderAndBinding(t *testing.T) {
	st := newState(t, 3, 1)
	place(t, st, 0, 0, 0)
	place(t, st, 1, 0, 1)
	place(t, st, 2, 0, 0)

	toRight := simple(0, model.Any)
	toRight.Reactions = []model.Reaction{
		{Reactive: 1, Product: 2, Directions: model.Dirs(model.East), Source: model.NoSource},
	}
	m := &model.Model{
		Grains:    []model.Grain{{ID: 0}, {ID: 1}, {ID: 2}},
		Behaviors: []model.Behavior{toRight, simple(model.Any, model.Any), simple(1, 2)},
	}
	idx := mustIndex(t, m)
	sc := NewScratch()

	got := Collect(idx, st, sc)
	type key struct{ anchor, behavior int }
	want := []key{{0, 0}, {0, 1}, {1, 1}, {1, 2}, {2, 1}}
	if len(got) != len(want) {
		t.Fatalf("Collect returned %d candidates, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Anchor != w.anchor || got[i].Behavior != w.behavior {
			t.Errorf("candidate %d = (anchor %d, behavior %d), want %v", i, got[i].Anchor, got[i].Behavior, w)
		}
	}
	if len(got[0].Bindings) != 1 || got[0].Bindings[0].Cell != 1 {
		t.Errorf("anchor 0 bindings = %v, want cell 1", got[0].Bindings)
	}
	for _, c := range got[1:] {
		if len(c.Bindings) != 0 {
			t.Errorf("candidate %+v has unexpected bindings", c)
		}
	}
}

func TestSelect_OnePerAnchor(t *testing.T) {
	m := &model.Model{Behaviors: []model.Behavior{simple(0, 1), simple(0, 2)}}
	idx := mustIndex(t, m)
	candidates := []ApplicableBehavior{
		{Behavior: 0, Anchor: 3},
		{Behavior: 1, Anchor: 3},
		{Behavior: 1, Anchor: 5},
	}

	got := Select(idx, candidates, fixedRNG{0})
	if len(got) != 2 {
		t.Fatalf("selected %d, want 2", len(got))
	}
	if got[0].Anchor != 3 || got[0].Behavior != 0 {
		t.Errorf("first selection = %+v, want anchor 3 behavior 0", got[0])
	}
	if got[1].Anchor != 5 || got[1].Behavior != 1 {
		t.Errorf("second selection = %+v, want anchor 5 behavior 1", got[1])
	}
}

func TestSelect_FallsThroughToLaterCandidate(t *testing.T) {
	low := simple(0, 1)
	low.Probability = 0.2
	m := &model.Model{Behaviors: []model.Behavior{low, simple(0, 2)}}
	idx := mustIndex(t, m)
	candidates := []ApplicableBehavior{{Behavior: 0, Anchor: 0}, {Behavior: 1, Anchor: 0}}

	got := Select(idx, candidates, fixedRNG{0.5})
	if len(got) != 1 || got[0].Behavior != 1 {
		t.Errorf("Select = %+v, want only behavior 1", got)
	}
}

func TestSelect_Probabilities(t *testing.T) {
	never := simple(0, 1)
	never.Probability = 0
	m := &model.Model{Behaviors: []model.Behavior{never, simple(0, 1)}}
	idx := mustIndex(t, m)

	if got := Select(idx, []ApplicableBehavior{{Behavior: 0}}, fixedRNG{0}); len(got) != 0 {
		t.Errorf("probability 0 fired: %+v", got)
	}
	if got := Select(idx, []ApplicableBehavior{{Behavior: 1}}, fixedRNG{0.999999}); len(got) != 1 {
		t.Errorf("probability 1 did not fire: %+v", got)
	}
}

func TestSelect_CopiesBindings(t *testing.T) {
	idx := mustIndex(t, &model.Model{Behaviors: []model.Behavior{simple(0, 1)}})
	arena := []Binding{{Slot: 0, Cell: 7}}
	got := Select(idx, []ApplicableBehavior{{Behavior: 0, Bindings: arena}}, fixedRNG{0})
	arena[0].Cell = 99
	if got[0].Bindings[0].Cell != 7 {
		t.Error("selection aliases the candidate arena")
	}
}
