// Package engine advances a grain simulation one step at a time.
//
// A step runs, in order: collecting candidates against the pre-step grid,
// selecting at most one behavior per anchor, applying the selections to a
// fresh copy of the grid, aging and death, movement, and the field update.
// Steps are synchronous and atomic; an instance must not be stepped and
// edited concurrently. Independent instances share nothing and may run in
// parallel.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/systems"
	"github.com/pthm-cable/grains/world"
)

// Result is everything observable about one completed step.
type Result struct {
	// Step is the state's step counter after the step.
	Step int

	Applied []systems.ApplicableBehavior
	Dead    []int
	Moves   []systems.Move

	GrainCounts map[int]int
	FieldTotals map[int]float64
}

// Options configures an Engine. The zero value is usable.
type Options struct {
	// NegligibleLevel is the field level under which cells snap to 0.
	// Zero selects systems.DefaultNegligibleLevel; negative disables snapping.
	NegligibleLevel float64

	Logger *slog.Logger
	Timer  Timer
}

func (o Options) negligible() float64 {
	if o.NegligibleLevel == 0 {
		return systems.DefaultNegligibleLevel
	}
	if o.NegligibleLevel < 0 {
		return 0
	}
	return o.NegligibleLevel
}

// LogValue implements slog.LogValuer for structured logging.
func (r Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", r.Step),
		slog.Int("applied", len(r.Applied)),
		slog.Int("dead", len(r.Dead)),
		slog.Int("moves", len(r.Moves)),
	)
}

// Step advances st by one step under m without modifying st and returns the
// new state. Fields whose formula fails to compile use the default update.
func Step(st *world.State, m *model.Model, rng systems.RNG, opts Options) (*world.State, Result) {
	if m == nil {
		m = &model.Model{}
	}
	idx, _ := model.NewIndex(m)
	return StepIndexed(st, idx, rng, opts)
}

// StepIndexed is Step over a prebuilt index. It is a pure function of st,
// idx and the draws taken from rng.
func StepIndexed(st *world.State, idx *model.Index, rng systems.RNG, opts Options) (*world.State, Result) {
	next := st.Clone()
	res := stepInto(st, next, idx, rng, systems.NewScratch(), opts.negligible(), noopTimer{}, nil)
	return next, res
}

// stepInto runs one step reading cur and writing next, which must already
// hold a copy of cur. Layers for model fields missing from cur are created in
// next before any influence is applied.
func stepInto(cur, next *world.State, idx *model.Index, rng systems.RNG, sc *systems.Scratch, negligible float64, timer Timer, phase *Phase) Result {
	enter := func(p Phase) {
		if phase != nil {
			*phase = p
		}
		if p != PhaseIdle {
			timer.StartPhase(p.String())
		}
	}

	timer.StartTick()

	enter(PhaseCollecting)
	candidates := systems.Collect(idx, cur, sc)

	enter(PhaseSelecting)
	selected := systems.Select(idx, candidates, rng)

	enter(PhaseApplying)
	next.SyncFields(idx.Model.FieldIDs())
	transformed, moved := sc.Flags(cur.Len())
	systems.Apply(idx, cur, next, selected, transformed)

	enter(PhaseAging)
	dead := systems.AgeAndKill(idx, next, transformed, rng, nil)

	enter(PhaseMoving)
	moves := systems.MoveAgents(idx, next, moved, rng, nil)

	enter(PhaseFields)
	systems.UpdateFields(idx, next, sc, negligible)

	next.Step = cur.Step + 1
	res := Result{
		Step:        next.Step,
		Applied:     selected,
		Dead:        dead,
		Moves:       moves,
		GrainCounts: next.GrainCounts(),
		FieldTotals: next.FieldTotals(),
	}
	timer.EndTick()
	enter(PhaseIdle)
	return res
}

// Engine is one simulation instance: a state, the model it runs, a seeded
// random source and reusable buffers.
type Engine struct {
	cur, next *world.State

	model *model.Model
	index *model.Index

	seed int64
	rng  *rand.Rand

	scratch *systems.Scratch
	opts    Options
	logger  *slog.Logger
	phase   Phase
}

// New creates an engine over st running m. The engine takes ownership of st.
// A formula compile error is returned alongside a usable engine; the
// affected fields fall back to the default update.
func New(st *world.State, m *model.Model, seed int64, opts Options) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("nil state")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timer == nil {
		opts.Timer = noopTimer{}
	}
	e := &Engine{
		cur:     st,
		next:    st.Clone(),
		seed:    seed,
		rng:     systems.NewRNG(seed),
		scratch: systems.NewScratch(),
		opts:    opts,
		logger:  logger,
	}
	err := e.SetModel(m)
	return e, err
}

// SetModel swaps the rule set between steps. The model must not be mutated
// while the engine runs it; edit a Clone and call SetModel again.
func (e *Engine) SetModel(m *model.Model) error {
	if m == nil {
		m = &model.Model{}
	}
	idx, err := model.NewIndex(m)
	e.model = m
	e.index = idx
	e.cur.SyncFields(m.FieldIDs())
	e.logger.Debug("model set",
		"name", m.Name,
		"grains", len(m.Grains),
		"behaviors", len(m.Behaviors),
		"fields", len(m.Fields),
	)
	if err != nil {
		e.logger.Warn("field formulas fall back to default update", "error", err)
		return fmt.Errorf("indexing model: %w", err)
	}
	return nil
}

// Step advances the simulation by one step.
func (e *Engine) Step() Result {
	e.next.CopyFrom(e.cur)
	res := stepInto(e.cur, e.next, e.index, e.rng, e.scratch, e.opts.negligible(), e.opts.Timer, &e.phase)
	e.cur, e.next = e.next, e.cur
	return res
}

// Run performs n steps, calling fn after each one. It stops early and
// returns fn's error if fn fails.
func (e *Engine) Run(n int, fn func(Result) error) error {
	for i := 0; i < n; i++ {
		res := e.Step()
		if fn == nil {
			continue
		}
		if err := fn(res); err != nil {
			return err
		}
	}
	return nil
}

// Reset restores the state's saved initial configuration and reseeds the
// random source, so a reset run replays the same steps.
func (e *Engine) Reset() {
	e.cur.Reset()
	e.cur.SyncFields(e.model.FieldIDs())
	e.rng = systems.NewRNG(e.seed)
	e.logger.Info("simulation reset", "seed", e.seed, "initial", e.cur.HasInitial())
}

// Reseed replaces the random source.
func (e *Engine) Reseed(seed int64) {
	e.seed = seed
	e.rng = systems.NewRNG(seed)
}

// State returns the current state. Edits through it must happen between
// steps.
func (e *Engine) State() *world.State { return e.cur }

// Model returns the model being run.
func (e *Engine) Model() *model.Model { return e.model }

// Index returns the lookup view of the model being run.
func (e *Engine) Index() *model.Index { return e.index }

// RNG returns the instance random source, for editor tools that must draw
// from the same stream as the steps.
func (e *Engine) RNG() *rand.Rand { return e.rng }

// Seed returns the seed the random source was last created from.
func (e *Engine) Seed() int64 { return e.seed }

// Phase reports the current step phase; PhaseIdle between steps.
func (e *Engine) Phase() Phase { return e.phase }
