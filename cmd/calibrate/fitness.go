package main

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/runner"
	"github.com/pthm-cable/grains/world"
)

// FitnessEvaluator scores a parameter vector by how far the mean occupied
// fraction at the end of a run lands from the target.
type FitnessEvaluator struct {
	params  *ParamVector
	base    *model.Model
	initial *world.State
	steps   int
	seeds   []int64
	target  float64
	workers int
	opts    runner.Options

	lastOccupancy float64
}

// NewFitnessEvaluator creates an evaluator. initial is cloned for every run.
func NewFitnessEvaluator(params *ParamVector, base *model.Model, initial *world.State, steps int, seeds []int64, target float64, workers int, opts runner.Options) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:  params,
		base:    base,
		initial: initial,
		steps:   steps,
		seeds:   seeds,
		target:  target,
		workers: workers,
		opts:    opts,
	}
}

// LastOccupancy returns the mean occupied fraction of the last evaluation.
func (fe *FitnessEvaluator) LastOccupancy() float64 {
	return fe.lastOccupancy
}

// Evaluate runs every seed under the tuned model and returns the squared
// distance between the mean occupied fraction and the target.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	m := fe.params.Apply(fe.base, x)

	jobs := make([]runner.Job, len(fe.seeds))
	for i, seed := range fe.seeds {
		jobs[i] = runner.Job{Seed: seed, State: fe.initial.Clone(), Model: m}
	}
	outcomes := runner.RunAll(context.Background(), fe.workers, jobs, fe.steps, fe.opts)

	cells := float64(fe.initial.Len())
	fractions := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			slog.Warn("evaluation run failed", "seed", o.Seed, "error", o.Err)
			continue
		}
		fractions = append(fractions, float64(o.Occupied)/cells)
	}
	if len(fractions) == 0 {
		return 1
	}

	fe.lastOccupancy = stat.Mean(fractions, nil)
	d := fe.lastOccupancy - fe.target
	return d * d
}
