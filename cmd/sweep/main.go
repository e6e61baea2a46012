// Package main runs one model under many seeds in parallel and summarises
// final occupancy per grain and field totals across seeds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/grains/config"
	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/runner"
	"github.com/pthm-cable/grains/world"
)

// SeedRecord is one row of sweep.csv.
type SeedRecord struct {
	Seed     int64  `csv:"seed"`
	Steps    int    `csv:"steps"`
	Occupied int    `csv:"occupied"`
	Error    string `csv:"error"`
}

// SummaryRecord is one row of summary.csv.
type SummaryRecord struct {
	Kind string  `csv:"kind"`
	ID   int     `csv:"id"`
	Name string  `csv:"name"`
	Mean float64 `csv:"mean"`
	Std  float64 `csv:"std"`
	Min  float64 `csv:"min"`
	Max  float64 `csv:"max"`
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	modelPath := flag.String("model", "", "Model YAML to run")
	seeds := flag.Int("seeds", 0, "Number of seeds (0 = use config)")
	steps := flag.Int("steps", 0, "Steps per run (0 = run.max_steps)")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = use config, then one per CPU)")
	outputDir := flag.String("output", "", "Directory for sweep.csv and summary.csv (empty = stdout only)")
	flag.Parse()

	if *modelPath == "" {
		log.Fatal("--model is required")
	}
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()
	if *seeds == 0 {
		*seeds = cfg.Sweep.Seeds
	}
	if *steps == 0 {
		*steps = cfg.Run.MaxSteps
	}
	if *workers == 0 {
		*workers = cfg.Sweep.Workers
	}
	if *workers <= 0 {
		*workers = runtime.NumCPU()
	}

	m, err := model.Load(*modelPath)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}
	if err := model.Validate(m); err != nil {
		log.Fatalf("invalid model: %v", err)
	}

	quiet := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	opts := runner.Options{
		NegligibleLevel: cfg.Engine.NegligibleLevel,
		StatsWindow:     cfg.Telemetry.StatsWindow,
		PerfWindow:      cfg.Telemetry.PerfWindow,
		Logger:          quiet,
	}

	// Each seed paints its own grid so the sweep covers initial placement too.
	jobs := make([]runner.Job, *seeds)
	for i := range jobs {
		seed := cfg.Engine.Seed + int64(i)
		st, err := world.New(cfg.World.Width, cfg.World.Height, m.FieldIDs()...)
		if err != nil {
			log.Fatalf("creating grid: %v", err)
		}
		opts.Seed = seed
		r, err := runner.New(st, m, opts)
		if err != nil {
			log.Fatalf("creating runner: %v", err)
		}
		if err := r.Populate(cfg.Paint); err != nil {
			log.Fatalf("painting seed %d: %v", seed, err)
		}
		r.Close()
		jobs[i] = runner.Job{Seed: seed, State: r.Engine().State(), Model: m}
	}

	fmt.Printf("Sweeping %d seeds (%d workers, %d steps, %dx%d grid)\n",
		len(jobs), *workers, *steps, cfg.World.Width, cfg.World.Height)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	outcomes := runner.RunAll(ctx, *workers, jobs, *steps, opts)
	elapsed := time.Since(start)

	seedRows := make([]SeedRecord, len(outcomes))
	for i, o := range outcomes {
		seedRows[i] = SeedRecord{Seed: o.Seed, Steps: o.Step, Occupied: o.Occupied}
		if o.Err != nil {
			seedRows[i].Error = o.Err.Error()
		}
	}
	summary := summarise(m, outcomes)

	fmt.Printf("Completed in %s\n", elapsed.Round(time.Millisecond))
	for _, s := range summary {
		fmt.Printf("  %-5s %-16s mean=%10.3f std=%9.3f min=%10.3f max=%10.3f\n",
			s.Kind, s.Name, s.Mean, s.Std, s.Min, s.Max)
	}

	if *outputDir == "" {
		return
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	if err := writeCSV(filepath.Join(*outputDir, "sweep.csv"), seedRows); err != nil {
		log.Fatalf("writing sweep.csv: %v", err)
	}
	if err := writeCSV(filepath.Join(*outputDir, "summary.csv"), summary); err != nil {
		log.Fatalf("writing summary.csv: %v", err)
	}
}

// summarise computes per-grain count and per-field total statistics over
// the successful outcomes.
func summarise(m *model.Model, outcomes []runner.Outcome) []SummaryRecord {
	var ok []runner.Outcome
	for _, o := range outcomes {
		if o.Err == nil {
			ok = append(ok, o)
		}
	}
	if len(ok) == 0 {
		return nil
	}

	var out []SummaryRecord
	values := make([]float64, len(ok))

	grainIDs := map[int]bool{}
	for _, g := range m.Grains {
		grainIDs[g.ID] = true
	}
	for _, o := range ok {
		for id := range o.Counts {
			grainIDs[id] = true
		}
	}
	for _, id := range slices.Sorted(maps.Keys(grainIDs)) {
		for i, o := range ok {
			values[i] = float64(o.Counts[id])
		}
		name := fmt.Sprintf("#%d", id)
		if g, found := m.Grain(id); found {
			name = g.Name
		}
		out = append(out, summaryRow("grain", id, name, values))
	}

	for _, f := range m.Fields {
		for i, o := range ok {
			values[i] = o.Totals[f.ID]
		}
		out = append(out, summaryRow("field", f.ID, f.Name, values))
	}
	return out
}

func summaryRow(kind string, id int, name string, values []float64) SummaryRecord {
	row := SummaryRecord{Kind: kind, ID: id, Name: name, Min: values[0], Max: values[0]}
	if len(values) > 1 {
		row.Mean, row.Std = stat.MeanStdDev(values, nil)
	} else {
		row.Mean = values[0]
	}
	for _, v := range values {
		row.Min = min(row.Min, v)
		row.Max = max(row.Max, v)
	}
	return row
}

func writeCSV[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
