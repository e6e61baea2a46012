package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/grains/model"
	"gonum.org/v1/gonum/stat"
)

func TestDeathProbability(t *testing.T) {
	tests := []struct {
		age, halfLife int
		want          float64
	}{
		{0, 5, 0},
		{5, 0, 0},
		{100, 0, 0},
		{1, 5, 0},
		{5, 5, 0},
		{10, 5, 0.5},
		{15, 5, 0.75},
		{2, 1, 0.5},
	}
	for _, tt := range tests {
		if got := DeathProbability(tt.age, tt.halfLife); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("DeathProbability(%d, %d) = %v, want %v", tt.age, tt.halfLife, got, tt.want)
		}
	}

	prev := 0.0
	for age := 8; age <= 60; age++ {
		p := DeathProbability(age, 7)
		if p <= prev {
			t.Fatalf("DeathProbability not increasing at age %d: %v <= %v", age, p, prev)
		}
		if p >= 1 {
			t.Fatalf("DeathProbability(%d, 7) = %v, want < 1", age, p)
		}
		prev = p
	}
}

func TestAgeAndKill_Immortal(t *testing.T) {
	idx := mustIndex(t, &model.Model{Grains: []model.Grain{{ID: 0}}})
	st := newState(t, 4, 4)
	for i := range st.Cells {
		st.Cells[i] = 0
	}
	transformed := make([]bool, st.Len())
	for step := 0; step < 500; step++ {
		if dead := AgeAndKill(idx, st, transformed, fixedRNG{0}, nil); len(dead) != 0 {
			t.Fatalf("immortal grain died at step %d", step)
		}
	}
	if st.Ages[0] != 500 {
		t.Errorf("age = %d, want 500", st.Ages[0])
	}
}

func TestAgeAndKill_Threshold(t *testing.T) {
	idx := mustIndex(t, &model.Model{Grains: []model.Grain{{ID: 0, HalfLife: 2}}})
	st := newState(t, 3, 1)
	st.Cells = []int{0, 0, model.Empty}
	st.Ages = []int{3, 1, 0}
	transformed := []bool{false, false, false}

	// After aging, cell 0 is at age 4 (p = 0.5) and cell 1 at its half-life.
	dead := AgeAndKill(idx, st, transformed, fixedRNG{0.49}, nil)
	if len(dead) != 1 || dead[0] != 0 {
		t.Fatalf("dead = %v, want [0]", dead)
	}
	if st.Cells[0] != model.Empty || st.Ages[0] != 0 {
		t.Errorf("dead cell = (%d, %d), want emptied", st.Cells[0], st.Ages[0])
	}
	if st.Cells[1] != 0 || st.Ages[1] != 2 {
		t.Errorf("survivor = (%d, %d), want (0, 2)", st.Cells[1], st.Ages[1])
	}
	if st.Ages[2] != 0 {
		t.Error("empty cell aged")
	}
}

// countingRNG records how many draws were taken.
type countingRNG struct {
	f     float64
	draws int
}

func (r *countingRNG) Float64() float64 { r.draws++; return r.f }
func (r *countingRNG) IntN(int) int     { return 0 }

func TestAgeAndKill_NoDeathUpToHalfLife(t *testing.T) {
	const halfLife = 5
	idx := mustIndex(t, &model.Model{Grains: []model.Grain{{ID: 0, HalfLife: halfLife}}})
	st := newState(t, 4, 4)
	for i := range st.Cells {
		st.Cells[i] = 0
	}
	transformed := make([]bool, st.Len())

	// A draw of 0 kills any agent with a nonzero death chance.
	rng := &countingRNG{}
	for age := 1; age <= halfLife; age++ {
		if dead := AgeAndKill(idx, st, transformed, rng, nil); len(dead) != 0 {
			t.Fatalf("agents died at age %d, half-life %d", age, halfLife)
		}
	}
	if rng.draws != 0 {
		t.Errorf("took %d death draws for agents within their half-life", rng.draws)
	}
	if dead := AgeAndKill(idx, st, transformed, rng, nil); len(dead) != st.Len() {
		t.Errorf("at age %d: %d died, want all %d", halfLife+1, len(dead), st.Len())
	}
}

func TestAgeAndKill_SkipsTransformed(t *testing.T) {
	idx := mustIndex(t, &model.Model{Grains: []model.Grain{{ID: 0, HalfLife: 1}}})
	st := newState(t, 1, 1)
	st.Cells[0] = 0
	dead := AgeAndKill(idx, st, []bool{true}, fixedRNG{0}, nil)
	if len(dead) != 0 || st.Ages[0] != 0 || st.Cells[0] != 0 {
		t.Errorf("transformed cell aged or died: age %d, dead %v", st.Ages[0], dead)
	}
}

func TestAgeAndKill_HazardGrowsWithAge(t *testing.T) {
	const halfLife = 5
	idx := mustIndex(t, &model.Model{Grains: []model.Grain{{ID: 0, HalfLife: halfLife}}})
	st := newState(t, 200, 200)
	for i := range st.Cells {
		st.Cells[i] = 0
	}
	transformed := make([]bool, st.Len())
	rng := NewRNG(11)

	var ages, rates []float64
	for step := 1; step <= 2*halfLife+1; step++ {
		alive := st.Occupied()
		dead := AgeAndKill(idx, st, transformed, rng, nil)
		rate := float64(len(dead)) / float64(alive)
		if want := DeathProbability(step, halfLife); math.Abs(rate-want) > 0.03 {
			t.Errorf("step %d: death rate %.3f, want about %.3f", step, rate, want)
		}
		ages = append(ages, float64(step))
		rates = append(rates, rate)
	}

	_, slope := stat.LinearRegression(ages, rates, nil, false)
	if slope <= 0 {
		t.Errorf("death rate slope = %v, want positive", slope)
	}
}
