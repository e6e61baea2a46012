package runner

import (
	"context"
	"runtime"
	"sync"

	"github.com/pthm-cable/grains/model"
	"github.com/pthm-cable/grains/telemetry"
	"github.com/pthm-cable/grains/world"
)

// Job is one independent run. Jobs must not share a State; models may be
// shared since the engine never writes to them.
type Job struct {
	Seed  int64
	State *world.State
	Model *model.Model
}

// Outcome is the end result of a Job.
type Outcome struct {
	Seed     int64
	Step     int
	Occupied int
	Counts   map[int]int
	Totals   map[int]float64
	History  *telemetry.History
	Err      error
}

// RunAll runs every job for steps steps on a pool of workers and returns
// the outcomes in job order. workers <= 0 uses one per CPU. opts.Seed is
// replaced by each job's seed; opts.OutputDir is ignored.
func RunAll(ctx context.Context, workers int, jobs []Job, steps int, opts Options) []Outcome {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	opts.OutputDir = ""
	opts.SnapshotEvery = 0

	out := make([]Outcome, len(jobs))
	work := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				out[i] = runJob(ctx, jobs[i], steps, opts)
			}
		}()
	}

	for i := range jobs {
		work <- i
	}
	close(work)
	wg.Wait()
	return out
}

func runJob(ctx context.Context, job Job, steps int, opts Options) Outcome {
	opts.Seed = job.Seed
	res := Outcome{Seed: job.Seed}
	r, err := New(job.State, job.Model, opts)
	if err != nil {
		res.Err = err
		return res
	}
	defer r.Close()

	res.Err = r.Run(ctx, steps)
	st := r.Engine().State()
	res.Step = st.Step
	res.Occupied = st.Occupied()
	res.Counts = st.GrainCounts()
	res.Totals = st.FieldTotals()
	res.History = r.History()
	return res
}
