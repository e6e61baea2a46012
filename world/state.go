// Package world holds the mutable simulation state: the grain grid, agent
// ages, field layers and the step counter, plus the grid edit primitives
// used by editor tooling.
package world

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/grains/model"
)

var (
	// ErrOutOfBounds is returned for coordinates or indices outside the grid.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrDimensionMismatch is returned when two states or a snapshot and a
	// state disagree on grid size.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidState is returned for a snapshot holding values no state
	// can reach.
	ErrInvalidState = errors.New("invalid state")
)

// State is a Width x Height row-major grid. Cells holds the occupant grain
// ID per cell (model.Empty when free), Ages the occupant age, and Fields
// one level slice per field ID. All slices have Width*Height entries.
type State struct {
	Width, Height int

	Cells  []int
	Ages   []int
	Fields map[int][]float64

	// Step counts completed steps since the last reset.
	Step int

	initial *State
}

// New allocates an empty grid with a zeroed layer for each field ID.
func New(width, height int, fieldIDs ...int) (*State, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	n := width * height
	s := &State{
		Width:  width,
		Height: height,
		Cells:  make([]int, n),
		Ages:   make([]int, n),
		Fields: make(map[int][]float64, len(fieldIDs)),
	}
	for i := range s.Cells {
		s.Cells[i] = model.Empty
	}
	for _, id := range fieldIDs {
		s.EnsureField(id)
	}
	return s, nil
}

// Len returns the number of cells.
func (s *State) Len() int { return s.Width * s.Height }

// InBounds reports whether (x, y) lies on the grid.
func (s *State) InBounds(x, y int) bool {
	return x >= 0 && x < s.Width && y >= 0 && y < s.Height
}

// Index maps (x, y) to a cell index without bounds checks.
func (s *State) Index(x, y int) int { return y*s.Width + x }

// Position is the inverse of Index, without bounds checks.
func (s *State) Position(i int) (x, y int) { return i % s.Width, i / s.Width }

// CellIndex maps (x, y) to a cell index.
func (s *State) CellIndex(x, y int) (int, error) {
	if !s.InBounds(x, y) {
		return 0, fmt.Errorf("%w: (%d,%d) outside %dx%d grid", ErrOutOfBounds, x, y, s.Width, s.Height)
	}
	return s.Index(x, y), nil
}

// CellPosition maps a cell index back to (x, y).
func (s *State) CellPosition(i int) (x, y int, err error) {
	if err := s.checkIndex(i); err != nil {
		return 0, 0, err
	}
	x, y = s.Position(i)
	return x, y, nil
}

func (s *State) checkIndex(i int) error {
	if i < 0 || i >= s.Len() {
		return fmt.Errorf("%w: index %d outside %dx%d grid", ErrOutOfBounds, i, s.Width, s.Height)
	}
	return nil
}

// Neighbor returns the index of the cell one step from i in direction d.
// Grid edges are hard: there is no neighbor past them.
func (s *State) Neighbor(i int, d model.Direction) (int, bool) {
	off := model.Offsets[d]
	x, y := s.Position(i)
	x += off.DX
	y += off.DY
	if !s.InBounds(x, y) {
		return 0, false
	}
	return s.Index(x, y), true
}

// Occupant returns the grain ID at cell i.
func (s *State) Occupant(i int) int { return s.Cells[i] }

// SetCell places grain at cell i. The age resets unless the cell already
// holds the same grain. Setting model.Empty clears the cell.
func (s *State) SetCell(i, grain int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if grain < model.Empty {
		return fmt.Errorf("invalid grain id %d", grain)
	}
	if s.Cells[i] != grain {
		s.Cells[i] = grain
		s.Ages[i] = 0
	}
	return nil
}

// ClearCell empties cell i.
func (s *State) ClearCell(i int) error {
	return s.SetCell(i, model.Empty)
}

// Clear empties every cell and zeroes every field.
func (s *State) Clear() {
	for i := range s.Cells {
		s.Cells[i] = model.Empty
		s.Ages[i] = 0
	}
	for _, levels := range s.Fields {
		clear(levels)
	}
}

// EnsureField adds a zeroed layer for field id if missing and returns it.
func (s *State) EnsureField(id int) []float64 {
	if levels, ok := s.Fields[id]; ok {
		return levels
	}
	levels := make([]float64, s.Len())
	s.Fields[id] = levels
	return levels
}

// SyncFields adds layers for every field ID the model declares. Layers for
// fields the model no longer declares are kept so history is not lost
// mid-edit.
func (s *State) SyncFields(ids []int) {
	for _, id := range ids {
		s.EnsureField(id)
	}
}

// FieldIDs lists the field layers in ascending ID order.
func (s *State) FieldIDs() []int {
	ids := make([]int, 0, len(s.Fields))
	for id := range s.Fields {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Level returns a field level, 0 for unknown fields.
func (s *State) Level(field, i int) float64 {
	levels, ok := s.Fields[field]
	if !ok {
		return 0
	}
	return levels[i]
}

// SetLevel writes a field level, clamped to [0,1].
func (s *State) SetLevel(field, i int, v float64) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	levels := s.EnsureField(field)
	levels[i] = Clamp01(v)
	return nil
}

// Clone returns a deep copy sharing the saved initial configuration.
func (s *State) Clone() *State {
	out := &State{
		Width:   s.Width,
		Height:  s.Height,
		Cells:   slices.Clone(s.Cells),
		Ages:    slices.Clone(s.Ages),
		Fields:  make(map[int][]float64, len(s.Fields)),
		Step:    s.Step,
		initial: s.initial,
	}
	for id, levels := range s.Fields {
		out.Fields[id] = slices.Clone(levels)
	}
	return out
}

// CopyFrom overwrites s with src, reusing s's buffers where sizes match.
func (s *State) CopyFrom(src *State) {
	n := src.Len()
	if s.Len() != n || len(s.Cells) != n {
		s.Cells = make([]int, n)
		s.Ages = make([]int, n)
		s.Fields = nil
	}
	s.Width, s.Height = src.Width, src.Height
	copy(s.Cells, src.Cells)
	copy(s.Ages, src.Ages)
	if s.Fields == nil {
		s.Fields = make(map[int][]float64, len(src.Fields))
	}
	for id := range s.Fields {
		if _, ok := src.Fields[id]; !ok {
			delete(s.Fields, id)
		}
	}
	for id, levels := range src.Fields {
		dst, ok := s.Fields[id]
		if !ok || len(dst) != n {
			dst = make([]float64, n)
			s.Fields[id] = dst
		}
		copy(dst, levels)
	}
	s.Step = src.Step
	s.initial = src.initial
}

// SaveInitial records the current grid as the configuration Reset restores.
func (s *State) SaveInitial() {
	snap := s.Clone()
	snap.initial = nil
	snap.Step = 0
	s.initial = snap
}

// HasInitial reports whether an initial configuration was saved.
func (s *State) HasInitial() bool { return s.initial != nil }

// Reset restores the last saved initial configuration, or clears the grid
// when none was saved, and zeroes the step counter. Dimensions never change.
func (s *State) Reset() {
	initial := s.initial
	if initial == nil {
		s.Clear()
		s.Step = 0
		return
	}
	s.CopyFrom(initial)
	s.initial = initial
	s.Step = 0
}

// GrainCounts returns the number of cells occupied by each grain ID.
func (s *State) GrainCounts() map[int]int {
	counts := make(map[int]int)
	for _, g := range s.Cells {
		if g != model.Empty {
			counts[g]++
		}
	}
	return counts
}

// Occupied returns the number of non-empty cells.
func (s *State) Occupied() int {
	n := 0
	for _, g := range s.Cells {
		if g != model.Empty {
			n++
		}
	}
	return n
}

// FieldTotals returns the summed level of each field layer.
func (s *State) FieldTotals() map[int]float64 {
	totals := make(map[int]float64, len(s.Fields))
	for id, levels := range s.Fields {
		totals[id] = floats.Sum(levels)
	}
	return totals
}

// Equal reports whether two states hold identical grids, ages, levels and
// step counters.
func (s *State) Equal(o *State) bool {
	if s.Width != o.Width || s.Height != o.Height || s.Step != o.Step {
		return false
	}
	if !slices.Equal(s.Cells, o.Cells) || !slices.Equal(s.Ages, o.Ages) {
		return false
	}
	if len(s.Fields) != len(o.Fields) {
		return false
	}
	for id, levels := range s.Fields {
		other, ok := o.Fields[id]
		if !ok || !slices.Equal(levels, other) {
			return false
		}
	}
	return true
}

// Clamp01 clamps v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
