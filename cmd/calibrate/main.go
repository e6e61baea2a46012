// Package main tunes behavior probabilities with Nelder-Mead so that runs
// of a model settle at a target occupied fraction of the grid.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/grains/config"
	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/runner"
	"github.com/pthm-cable/grains/world"
)

// EvalRecord is one row of calibrate_log.csv.
type EvalRecord struct {
	Eval      int     `csv:"eval"`
	Fitness   float64 `csv:"fitness"`
	Occupancy float64 `csv:"occupancy"`
	Params    string  `csv:"params"` // semicolon-separated, in --behaviors order
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func joinValues(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'f', 6, 64)
	}
	return strings.Join(parts, ";")
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	modelPath := flag.String("model", "", "Model YAML to tune")
	behaviors := flag.String("behaviors", "", "Comma-separated behavior names to tune (empty = calibrate.behavior)")
	target := flag.Float64("target", -1, "Target occupied fraction (-1 = use config)")
	steps := flag.Int("steps", 0, "Steps per run (0 = use config)")
	seeds := flag.Int("seeds", 0, "Seeds per evaluation (0 = use config)")
	iterations := flag.Int("iterations", 0, "Optimizer major iterations (0 = use config)")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = one per CPU)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" || *modelPath == "" {
		log.Fatal("--output and --model are required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()
	if *behaviors == "" {
		*behaviors = cfg.Calibrate.Behavior
	}
	if *target < 0 {
		*target = cfg.Calibrate.Target
	}
	if *steps == 0 {
		*steps = cfg.Calibrate.Steps
	}
	if *seeds == 0 {
		*seeds = cfg.Calibrate.Seeds
	}
	if *iterations == 0 {
		*iterations = cfg.Calibrate.Iterations
	}

	base, err := model.Load(*modelPath)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}
	if err := model.Validate(base); err != nil {
		log.Fatalf("invalid model: %v", err)
	}
	params, err := NewParamVector(base, *behaviors)
	if err != nil {
		log.Fatalf("selecting behaviors: %v", err)
	}

	// Runs stay quiet; progress goes to stdout.
	quiet := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	opts := runner.Options{
		NegligibleLevel: cfg.Engine.NegligibleLevel,
		StatsWindow:     cfg.Telemetry.StatsWindow,
		PerfWindow:      cfg.Telemetry.PerfWindow,
		Logger:          quiet,
	}

	initial, err := paintInitial(cfg, base, opts)
	if err != nil {
		log.Fatalf("painting initial grid: %v", err)
	}

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000) + cfg.Engine.Seed
	}
	evaluator := NewFitnessEvaluator(params, base, initial, *steps, evalSeeds, *target, *workers, opts)

	logFile, err := os.Create(filepath.Join(*outputDir, "calibrate_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	evalCount := 0
	headerWritten := false
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			fitness := evaluator.Evaluate(x)
			evalCount++

			clamped := params.Clamp(x)
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			rec := []EvalRecord{{Eval: evalCount, Fitness: fitness, Occupancy: evaluator.LastOccupancy(), Params: joinValues(clamped)}}
			var werr error
			if headerWritten {
				werr = gocsv.MarshalWithoutHeaders(rec, logFile)
			} else {
				werr = gocsv.Marshal(rec, logFile)
				headerWritten = true
			}
			if werr != nil {
				log.Printf("failed to write eval log: %v", werr)
			}

			fmt.Printf("Eval %d: occupancy=%.3f target=%.3f fitness=%.6f (best=%.6f) | elapsed: %s\n",
				evalCount, evaluator.LastOccupancy(), *target, fitness, bestFitness,
				formatDuration(time.Since(startTime)))
			return fitness
		},
	}

	settings := &optimize.Settings{
		MajorIterations: *iterations,
		Concurrent:      0,
	}

	fmt.Printf("Calibrating %d behavior(s) toward occupancy %.3f with Nelder-Mead, %d seeds x %d steps\n",
		params.Dim(), *target, *seeds, *steps)

	result, err := optimize.Minimize(problem, params.DefaultVector(), settings, &optimize.NelderMead{})
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(result.X)
	}
	if bestParams == nil {
		log.Fatal("no evaluation completed")
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.6f\n", bestFitness)
	fmt.Println("\nBest probabilities:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f (was %.6f)\n", spec.Name, bestParams[i], spec.Default)
	}

	best := params.Apply(base, bestParams)
	modelOut := filepath.Join(*outputDir, "best_model.yaml")
	if err := best.WriteYAML(modelOut); err != nil {
		log.Printf("failed to write best model: %v", err)
	} else {
		fmt.Printf("\nBest model saved to: %s\n", modelOut)
	}
}

// paintInitial builds the grid every evaluation starts from.
func paintInitial(cfg *config.Config, m *model.Model, opts runner.Options) (*world.State, error) {
	st, err := world.New(cfg.World.Width, cfg.World.Height, m.FieldIDs()...)
	if err != nil {
		return nil, err
	}
	opts.Seed = cfg.Engine.Seed
	r, err := runner.New(st, m, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if err := r.Populate(cfg.Paint); err != nil {
		return nil, err
	}
	return r.Engine().State().Clone(), nil
}
