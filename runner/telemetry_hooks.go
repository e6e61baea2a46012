package runner

import "log/slog"

// flushTelemetry checks if the stats window should be flushed and writes
// stats, perf and pending history.
func (r *Runner) flushTelemetry(step int) {
	if !r.collector.ShouldFlush(step) {
		return
	}

	stats := r.collector.Flush()
	perfStats := r.perfCollector.Stats()

	if r.opts.StatsCallback != nil {
		r.opts.StatsCallback(stats)
	}

	if r.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if r.outputManager != nil {
		if err := r.outputManager.WriteStats(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
		}
		if err := r.outputManager.WritePerf(perfStats, stats.WindowEnd); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := r.flushHistory(); err != nil {
			slog.Error("failed to write history", "error", err)
		}
	}
}

// flushHistory appends history rows not yet written.
func (r *Runner) flushHistory() error {
	if r.outputManager == nil {
		return nil
	}
	records := r.history.Records(r.historyWritten)
	r.historyWritten = r.history.Len()
	return r.outputManager.WriteHistory(records)
}

// saveSnapshot saves the current state under the output directory.
func (r *Runner) saveSnapshot() {
	if r.outputManager == nil {
		return
	}
	path, err := r.outputManager.WriteSnapshot(r.engine.State())
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "step", r.Step())
}
