package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of steps.
type WindowStats struct {
	WindowStart int `csv:"-"`
	WindowEnd   int `csv:"window_end"`
	Steps       int `csv:"steps"`

	// Occupancy at window end
	Occupied int `csv:"occupied"`
	Grains   int `csv:"grains"`

	// Events during window
	Applied int     `csv:"applied"`
	Deaths  int     `csv:"deaths"`
	Moves   int     `csv:"moves"`
	Churn   float64 `csv:"churn"` // (applied+deaths+moves) per step

	// Occupied-cell distribution over the window's steps
	OccupiedMean float64 `csv:"occupied_mean"`
	OccupiedStd  float64 `csv:"occupied_std"`
	OccupiedP10  float64 `csv:"occupied_p10"`
	OccupiedP50  float64 `csv:"occupied_p50"`
	OccupiedP90  float64 `csv:"occupied_p90"`

	// Sum of every field layer at window end
	FieldTotal float64 `csv:"field_total"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean, sample standard deviation and
// percentiles of values. The deviation is 0 for fewer than two values.
func ComputeDistribution(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	if n == 1 {
		mean = values[0]
	} else {
		mean, std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, std, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("steps", s.Steps),
		slog.Int("occupied", s.Occupied),
		slog.Int("grains", s.Grains),
		slog.Int("applied", s.Applied),
		slog.Int("deaths", s.Deaths),
		slog.Int("moves", s.Moves),
		slog.Float64("churn", s.Churn),
		slog.Float64("occupied_mean", s.OccupiedMean),
		slog.Float64("occupied_std", s.OccupiedStd),
		slog.Float64("occupied_p10", s.OccupiedP10),
		slog.Float64("occupied_p50", s.OccupiedP50),
		slog.Float64("occupied_p90", s.OccupiedP90),
		slog.Float64("field_total", s.FieldTotal),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "stats", s)
}
