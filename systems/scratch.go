package systems

import "github.com/pthm-cable/grains/model"

// Scratch holds buffers reused across steps so the hot path does not
// allocate per cell. A Scratch belongs to one simulation instance.
type Scratch struct {
	candidates []ApplicableBehavior
	bindings   []Binding
	matches    []int

	transformed []bool
	moved       []bool

	fieldOut map[int][]float64
	env      model.FormulaEnv
}

// NewScratch returns an empty Scratch.
func NewScratch() *Scratch {
	return &Scratch{fieldOut: make(map[int][]float64)}
}

// Flags returns the zeroed transformed and moved masks for n cells.
func (sc *Scratch) Flags(n int) (transformed, moved []bool) {
	sc.transformed = resizeBools(sc.transformed, n)
	sc.moved = resizeBools(sc.moved, n)
	return sc.transformed, sc.moved
}

func (sc *Scratch) fieldBuffer(id, n int) []float64 {
	if sc.fieldOut == nil {
		sc.fieldOut = make(map[int][]float64)
	}
	buf := sc.fieldOut[id]
	if len(buf) != n {
		buf = make([]float64, n)
		sc.fieldOut[id] = buf
	}
	return buf
}

func resizeBools(b []bool, n int) []bool {
	if cap(b) < n {
		return make([]bool, n)
	}
	b = b[:n]
	clear(b)
	return b
}
