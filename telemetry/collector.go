package telemetry

import (
	"maps"
	"slices"

	"github.com/pthm-cable/grains/engine"
	"gonum.org/v1/gonum/floats"
)

// Collector accumulates step results within fixed windows of steps and
// produces WindowStats.
type Collector struct {
	windowSteps int
	windowStart int

	// Counters for the current window
	steps    int
	applied  int
	deaths   int
	moves    int
	occupied []float64

	last engine.Result
}

// NewCollector creates a stats collector flushing every windowSteps steps,
// counting from step start.
func NewCollector(windowSteps, start int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{
		windowSteps: windowSteps,
		windowStart: start,
	}
}

// Observe records one step result.
func (c *Collector) Observe(res engine.Result) {
	c.steps++
	c.applied += len(res.Applied)
	c.deaths += len(res.Dead)
	c.moves += len(res.Moves)

	occupied := 0
	for _, n := range res.GrainCounts {
		occupied += n
	}
	c.occupied = append(c.occupied, float64(occupied))
	c.last = res
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(step int) bool {
	return step-c.windowStart >= c.windowSteps
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush() WindowStats {
	mean, std, p10, p50, p90 := ComputeDistribution(c.occupied)

	end := c.last.Step
	if c.steps == 0 {
		end = c.windowStart
	}
	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   end,
		Steps:       c.steps,

		Applied: c.applied,
		Deaths:  c.deaths,
		Moves:   c.moves,

		OccupiedMean: mean,
		OccupiedStd:  std,
		OccupiedP10:  p10,
		OccupiedP50:  p50,
		OccupiedP90:  p90,
	}
	if n := len(c.occupied); n > 0 {
		stats.Occupied = int(c.occupied[n-1])
		stats.Churn = float64(c.applied+c.deaths+c.moves) / float64(c.steps)
	}
	for _, n := range c.last.GrainCounts {
		if n > 0 {
			stats.Grains++
		}
	}
	if len(c.last.FieldTotals) > 0 {
		totals := make([]float64, 0, len(c.last.FieldTotals))
		for _, id := range slices.Sorted(maps.Keys(c.last.FieldTotals)) {
			totals = append(totals, c.last.FieldTotals[id])
		}
		stats.FieldTotal = floats.Sum(totals)
	}

	c.windowStart = end
	c.steps = 0
	c.applied = 0
	c.deaths = 0
	c.moves = 0
	c.occupied = c.occupied[:0]

	return stats
}

// Reset discards the current window and restarts counting at step start.
func (c *Collector) Reset(start int) {
	c.windowStart = start
	c.steps = 0
	c.applied = 0
	c.deaths = 0
	c.moves = 0
	c.occupied = c.occupied[:0]
	c.last = engine.Result{}
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}
