package telemetry

import (
	"maps"
	"slices"

	"github.com/pthm-cable/grains/engine"
)

// History folds step results into per-grain occupancy and per-field total
// series. It is owned by the caller; the engine never writes to it.
type History struct {
	start int
	steps []int

	counts map[int]int
	totals map[int]float64

	grainSeries map[int][]int
	fieldSeries map[int][]float64
}

// HistoryRecord is one long-format row of the history export.
type HistoryRecord struct {
	Step  int     `csv:"step"`
	Kind  string  `csv:"kind"`
	ID    int     `csv:"id"`
	Value float64 `csv:"value"`
}

// Record kinds.
const (
	KindGrain = "grain"
	KindField = "field"
)

// NewHistory returns an empty history whose series start after step start.
func NewHistory(start int) *History {
	h := &History{}
	h.Reset(start)
	return h
}

// Reset drops every series and counter. The grid is not touched.
func (h *History) Reset(start int) {
	h.start = start
	h.steps = nil
	h.counts = make(map[int]int)
	h.totals = make(map[int]float64)
	h.grainSeries = make(map[int][]int)
	h.fieldSeries = make(map[int][]float64)
}

// Observe appends one step result. Ids first seen late are back-filled
// with zeros so every series has one entry per observed step.
func (h *History) Observe(res engine.Result) {
	n := len(h.steps)
	h.steps = append(h.steps, res.Step)

	h.counts = maps.Clone(res.GrainCounts)
	if h.counts == nil {
		h.counts = make(map[int]int)
	}
	h.totals = maps.Clone(res.FieldTotals)
	if h.totals == nil {
		h.totals = make(map[int]float64)
	}

	for id := range h.counts {
		if _, ok := h.grainSeries[id]; !ok {
			h.grainSeries[id] = make([]int, n)
		}
	}
	for id, s := range h.grainSeries {
		h.grainSeries[id] = append(s, h.counts[id])
	}

	for id := range h.totals {
		if _, ok := h.fieldSeries[id]; !ok {
			h.fieldSeries[id] = make([]float64, n)
		}
	}
	for id, s := range h.fieldSeries {
		h.fieldSeries[id] = append(s, h.totals[id])
	}
}

// Start returns the step the series were last reset at.
func (h *History) Start() int { return h.start }

// Len returns the number of observed steps.
func (h *History) Len() int { return len(h.steps) }

// Steps returns the observed step numbers.
func (h *History) Steps() []int { return h.steps }

// Counts returns the latest per-grain occupancy counts.
func (h *History) Counts() map[int]int { return h.counts }

// Totals returns the latest per-field total levels.
func (h *History) Totals() map[int]float64 { return h.totals }

// GrainSeries returns the occupancy series of one grain.
func (h *History) GrainSeries(id int) []int { return h.grainSeries[id] }

// FieldSeries returns the total level series of one field.
func (h *History) FieldSeries(id int) []float64 { return h.fieldSeries[id] }

// Records flattens the observations from index from onwards into rows,
// grains then fields, ids ascending.
func (h *History) Records(from int) []HistoryRecord {
	if from < 0 {
		from = 0
	}
	grainIDs := slices.Sorted(maps.Keys(h.grainSeries))
	fieldIDs := slices.Sorted(maps.Keys(h.fieldSeries))

	var out []HistoryRecord
	for i := from; i < len(h.steps); i++ {
		for _, id := range grainIDs {
			out = append(out, HistoryRecord{Step: h.steps[i], Kind: KindGrain, ID: id, Value: float64(h.grainSeries[id][i])})
		}
		for _, id := range fieldIDs {
			out = append(out, HistoryRecord{Step: h.steps[i], Kind: KindField, ID: id, Value: h.fieldSeries[id][i]})
		}
	}
	return out
}
