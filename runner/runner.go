// Package runner drives an engine instance headlessly, wiring the step loop
// to stats windows, perf timing, history export and snapshots.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/grains/config"
	"github.com/pthm-cable/grains/engine"
	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/telemetry"
	"github.com/pthm-cable/grains/world"
)

// Options configures a Runner.
type Options struct {
	Seed            int64
	NegligibleLevel float64

	LogStats      bool // log window and perf stats via slog
	LogEvery      int  // steps between step summaries, 0 = never
	StatsWindow   int  // steps per stats window
	PerfWindow    int  // steps in the rolling perf window
	SnapshotEvery int  // steps between snapshots, 0 = never
	OutputDir     string

	Logger *slog.Logger

	// StatsCallback is called with every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Runner owns one engine instance plus its telemetry.
type Runner struct {
	engine *engine.Engine

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	history       *telemetry.History
	outputManager *telemetry.OutputManager

	historyWritten int
	opts           Options
	logger         *slog.Logger
}

// New builds a runner over st running m. Output files are created when
// opts.OutputDir is set. A formula compile error from the engine is
// logged and does not fail construction.
func New(st *world.State, m *model.Model, opts Options) (*Runner, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	perf := telemetry.NewPerfCollector(opts.PerfWindow)
	eng, err := engine.New(st, m, opts.Seed, engine.Options{
		NegligibleLevel: opts.NegligibleLevel,
		Logger:          logger,
		Timer:           perf,
	})
	if eng == nil {
		return nil, err
	}
	if err != nil {
		logger.Warn("model indexed with errors", "error", err)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if err := om.WriteModel(eng.Model()); err != nil {
		om.Close()
		return nil, err
	}

	return &Runner{
		engine:        eng,
		collector:     telemetry.NewCollector(opts.StatsWindow, st.Step),
		perfCollector: perf,
		history:       telemetry.NewHistory(st.Step),
		outputManager: om,
		opts:          opts,
		logger:        logger,
	}, nil
}

// Update performs one step and runs the telemetry hooks.
func (r *Runner) Update() engine.Result {
	res := r.engine.Step()
	r.history.Observe(res)
	r.collector.Observe(res)

	if r.opts.LogEvery > 0 && res.Step%r.opts.LogEvery == 0 {
		r.logger.Info("step", "result", res, "occupied", r.engine.State().Occupied())
	}
	r.flushTelemetry(res.Step)
	if r.opts.SnapshotEvery > 0 && res.Step%r.opts.SnapshotEvery == 0 {
		r.saveSnapshot()
	}
	return res
}

// Run steps until maxSteps have been completed since the last reset or ctx
// is done. maxSteps 0 runs until ctx is done.
func (r *Runner) Run(ctx context.Context, maxSteps int) error {
	for maxSteps <= 0 || r.Step() < maxSteps {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Update()
	}
	r.logger.Info("max steps reached", "step", r.Step())
	return nil
}

// Reset restores the initial configuration and drops the current history
// and stats window.
func (r *Runner) Reset() {
	if err := r.flushHistory(); err != nil {
		r.logger.Error("failed to write history", "error", err)
	}
	r.engine.Reset()
	r.history.Reset(r.engine.State().Step)
	r.collector.Reset(r.engine.State().Step)
	r.historyWritten = 0
}

// Step returns the current step counter.
func (r *Runner) Step() int { return r.engine.State().Step }

// Engine returns the engine instance.
func (r *Runner) Engine() *engine.Engine { return r.engine }

// History returns the occupancy and field total history since the last reset.
func (r *Runner) History() *telemetry.History { return r.history }

// WriteConfig saves cfg alongside the run output, if output is enabled.
func (r *Runner) WriteConfig(cfg *config.Config) error {
	return r.outputManager.WriteConfig(cfg)
}

// Close writes pending history and closes output files.
func (r *Runner) Close() error {
	err := r.flushHistory()
	if cerr := r.outputManager.Close(); err == nil {
		err = cerr
	}
	return err
}
