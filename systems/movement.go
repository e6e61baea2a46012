package systems

import (
	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/world"
)

// Move records one agent relocation.
type Move struct {
	From, To int
}

// MoveAgents gives each agent at most one move attempt. Cells are visited in
// index order; an agent attempts with its grain's move probability and, on
// success, moves into a uniformly chosen empty neighbor within its allowed
// directions, taking its age along. An agent that already moved this step
// is not visited again at its new cell.
func MoveAgents(idx *model.Index, st *world.State, moved []bool, rng RNG, moves []Move) []Move {
	var targets [model.NumDirections]int
	for i := range st.Cells {
		g := st.Cells[i]
		if g == model.Empty || moved[i] {
			continue
		}
		grain, ok := idx.Grain(g)
		if !ok || grain.MoveProbability <= 0 || grain.MoveDirections.Empty() {
			continue
		}
		if rng.Float64() >= grain.MoveProbability {
			continue
		}
		n := 0
		for d := model.Direction(0); d < model.NumDirections; d++ {
			if !grain.MoveDirections.Has(d) {
				continue
			}
			j, ok := st.Neighbor(i, d)
			if ok && st.Cells[j] == model.Empty {
				targets[n] = j
				n++
			}
		}
		if n == 0 {
			continue
		}
		j := targets[rng.IntN(n)]
		st.Cells[j] = g
		st.Ages[j] = st.Ages[i]
		st.Cells[i] = model.Empty
		st.Ages[i] = 0
		moved[j] = true
		moves = append(moves, Move{From: i, To: j})
	}
	return moves
}
