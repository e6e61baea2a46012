package systems

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/world"
)

// fixedRNG returns the same draw every time and always picks the first
// choice.
type fixedRNG struct{ f float64 }

func (r fixedRNG) Float64() float64 { return r.f }
func (r fixedRNG) IntN(int) int     { return 0 }

func newState(t *testing.T, w, h int, fieldIDs ...int) *world.State {
	t.Helper()
	st, err := world.New(w, h, fieldIDs...)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return st
}

func mustIndex(t *testing.T, m *model.Model) *model.Index {
	t.Helper()
	idx, err := model.NewIndex(m)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

func place(t *testing.T, st *world.State, x, y, grain int) int {
	t.Helper()
	i, err := st.CellIndex(x, y)
	if err != nil {
		t.Fatalf("CellIndex(%d,%d): %v", x, y, err)
	}
	if err := st.SetCell(i, grain); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	return i
}

func simple(reactive, product int) model.Behavior {
	return model.Behavior{Reactive: reactive, Product: product, Probability: 1, Source: model.NoSource}
}

func TestMatchBehaviors(t *testing.T) {
	m := &model.Model{
		Grains: []model.Grain{{ID: 0, Name: "a"}, {ID: 1, Name: "b"}},
		Fields: []model.Field{{ID: 0, Name: "heat"}},
	}
	old := simple(0, 1)
	old.Age = model.Predicate{Op: model.OpGte, Value: 3}
	warm := simple(0, 1)
	warm.Thresholds = []model.FieldThreshold{{Field: 0, Predicate: model.Predicate{Op: model.OpGt, Value: 0.5}}}
	anyAnchor := simple(model.Any, model.Any)
	other := simple(1, 0)
	m.Behaviors = []model.Behavior{old, anyAnchor, warm, other}
	idx := mustIndex(t, m)

	tests := []struct {
		name  string
		age   int
		level float64
		want  []int
	}{
		{"young cold", 0, 0.1, []int{1}},
		{"old cold", 3, 0.1, []int{0, 1}},
		{"young warm", 1, 0.6, []int{1, 2}},
		{"old warm", 9, 0.9, []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState(t, 1, 1, 0)
			st.Cells[0] = 0
			st.Ages[0] = tt.age
			st.Fields[0][0] = tt.level
			got := MatchBehaviors(idx, st, 0, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MatchBehaviors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchBehaviors_EmptyCell(t *testing.T) {
	m := &model.Model{Behaviors: []model.Behavior{simple(model.Any, model.Any)}}
	idx := mustIndex(t, m)
	st := newState(t, 1, 1)
	if got := MatchBehaviors(idx, st, 0, nil); len(got) != 0 {
		t.Errorf("empty cell matched %v", got)
	}
}

func TestMatchBehaviors_MissingFieldNeverHolds(t *testing.T) {
	b := simple(0, 1)
	b.Thresholds = []model.FieldThreshold{{Field: 7, Predicate: model.Always}}
	idx := mustIndex(t, &model.Model{Grains: []model.Grain{{ID: 0}}, Behaviors: []model.Behavior{b}})
	st := newState(t, 1, 1)
	st.Cells[0] = 0
	if got := MatchBehaviors(idx, st, 0, nil); len(got) != 0 {
		t.Errorf("threshold on missing field matched: %v", got)
	}
}
