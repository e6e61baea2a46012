package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/grains/config"
	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/runner"
	"github.com/pthm-cable/grains/world"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	modelPath := flag.String("model", "", "Path to model YAML (grains, behaviors, fields)")
	statePath := flag.String("state", "", "Snapshot JSON to start from (empty = paint a fresh grid)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config, -1 = time-based)")
	maxSteps := flag.Int("max-steps", -1, "Stop after N steps (-1 = use config, 0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and model copies")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	snapshotEvery := flag.Int("snapshot-every", -1, "Steps between snapshots (-1 = use config, 0 = never)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := cfg.Engine.Seed
	switch {
	case *seed == -1:
		rngSeed = time.Now().UnixNano()
	case *seed != 0:
		rngSeed = *seed
	}
	steps := cfg.Run.MaxSteps
	if *maxSteps >= 0 {
		steps = *maxSteps
	}
	saveEvery := cfg.Run.SaveEvery
	if *snapshotEvery >= 0 {
		saveEvery = *snapshotEvery
	}

	m := &model.Model{}
	if *modelPath != "" {
		loaded, err := model.Load(*modelPath)
		if err != nil {
			slog.Error("failed to load model", "error", err)
			os.Exit(1)
		}
		m = loaded
	}
	if err := model.Validate(m); err != nil {
		slog.Error("invalid model", "error", err)
		os.Exit(1)
	}

	var st *world.State
	var err error
	if *statePath != "" {
		st, err = world.LoadSnapshot(*statePath)
	} else {
		st, err = world.New(cfg.World.Width, cfg.World.Height, m.FieldIDs()...)
	}
	if err != nil {
		slog.Error("failed to create state", "error", err)
		os.Exit(1)
	}

	r, err := runner.New(st, m, runner.Options{
		Seed:            rngSeed,
		NegligibleLevel: cfg.Engine.NegligibleLevel,
		LogStats:        *logStats,
		LogEvery:        cfg.Run.LogEvery,
		StatsWindow:     cfg.Telemetry.StatsWindow,
		PerfWindow:      cfg.Telemetry.PerfWindow,
		SnapshotEvery:   saveEvery,
		OutputDir:       *outputDir,
		Logger:          logger,
	})
	if err != nil {
		slog.Error("failed to start runner", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := r.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()

	if err := r.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if err := prepareInitial(r, st, cfg.Paint, *statePath != ""); err != nil {
		slog.Error("failed to paint initial grid", "error", err)
		if err := r.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
		os.Exit(1)
	}

	slog.Info("starting headless simulation",
		"seed", rngSeed,
		"model", m.Name,
		"width", st.Width,
		"height", st.Height,
		"max_steps", steps,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := r.Run(ctx, steps); err != nil {
		slog.Info("run interrupted", "step", r.Step(), "error", err)
	}
}

// prepareInitial paints a fresh grid, or records a loaded snapshot's state as
// the reset point when it carries none.
func prepareInitial(r *runner.Runner, st *world.State, paint config.PaintConfig, fromSnapshot bool) error {
	if !fromSnapshot {
		return r.Populate(paint)
	}
	if !st.HasInitial() {
		st.SaveInitial()
	}
	return nil
}
