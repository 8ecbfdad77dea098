package gridsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jambit/sensAI/cluster"
	"github.com/jambit/sensAI/evaluation"
	"github.com/jambit/sensAI/store"
	"github.com/jambit/sensAI/tracking"
)

// EvalFunc scores one parameter combination with a metrics dict.
type EvalFunc func(ctx context.Context, params Assignment) (map[string]float64, error)

// Search runs every grid combination through an evaluation function on a
// worker pool.
type Search struct {
	// Name labels the run in logs, tracking context and the sweep store.
	Name string
	// Algorithm names the swept algorithm for the sweep store run row.
	Algorithm string

	Grid *Grid
	Eval EvalFunc

	// Workers is the pool size; zero means GOMAXPROCS.
	Workers int

	// Store, when set, persists the run row at start and every result as
	// it completes.
	Store *store.SweepStore
	// Experiment, when set, receives each combination's metrics dict.
	Experiment tracking.Experiment
	// CSVPath, when set, is written with the result table after the run.
	CSVPath string
}

// NewClusterSearch builds a Search whose evaluation function constructs a
// clustering model per combination and scores it with the evaluator.
func NewClusterSearch(name string, grid *Grid, factory func(Assignment) (*cluster.Model, error),
	evaluator evaluation.ClusterEvaluator) *Search {
	return &Search{
		Name:      name,
		Algorithm: evaluator.Name(),
		Grid:      grid,
		Eval: func(ctx context.Context, params Assignment) (map[string]float64, error) {
			m, err := factory(params)
			if err != nil {
				return nil, err
			}
			return evaluator.Evaluate(m)
		},
	}
}

// Run evaluates all combinations. Per-combination evaluation errors are
// recorded on their result rows and do not abort the sweep; Run itself
// fails only on setup or persistence errors, or when the context is
// cancelled mid-sweep.
func (s *Search) Run(ctx context.Context) (*Results, error) {
	if s.Grid == nil {
		return nil, fmt.Errorf("gridsearch: grid must not be nil")
	}
	if s.Eval == nil {
		return nil, fmt.Errorf("gridsearch: eval func must not be nil")
	}

	combos, err := s.Grid.Combinations()
	if err != nil {
		return nil, err
	}
	if len(combos) == 0 {
		return nil, fmt.Errorf("gridsearch: no parameter combinations to sweep")
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(combos) {
		workers = len(combos)
	}

	runID, err := s.beginRun(len(combos))
	if err != nil {
		return nil, err
	}

	log.Printf("[gridsearch] %s: sweeping %d combinations on %d workers",
		s.Name, len(combos), workers)
	start := time.Now()

	type indexed struct {
		pos int
		res Result
	}

	jobs := make(chan int)
	out := make(chan indexed, len(combos))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				out <- indexed{pos: pos, res: s.evalOne(ctx, combos[pos])}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range combos {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	ordered := make([]*Result, len(combos))
	completed := 0
	for ix := range out {
		res := ix.res
		ordered[ix.pos] = &res
		completed++
		if err := s.persistResult(runID, res); err != nil {
			return nil, err
		}
		s.trackResult(res)
		if res.Err != nil {
			log.Printf("[gridsearch] %s: combination %d/%d failed: %v",
				s.Name, completed, len(combos), res.Err)
		}
	}

	results := NewResults(s.Grid.ParamNames())
	for _, res := range ordered {
		if res != nil {
			results.Add(*res)
		}
	}

	if ctx.Err() != nil {
		s.finishRun(runID, store.RunStatusCancelled, ctx.Err().Error())
		return results, fmt.Errorf("gridsearch: sweep cancelled after %d/%d combinations: %w",
			results.Len(), len(combos), ctx.Err())
	}

	s.finishRun(runID, store.RunStatusCompleted, "")
	log.Printf("[gridsearch] %s: completed %d combinations in %s (%d failed)",
		s.Name, results.Len(), time.Since(start).Round(time.Millisecond), len(results.Failed()))

	if s.CSVPath != "" {
		if err := results.WriteCSVFile(s.CSVPath); err != nil {
			return results, err
		}
	}
	return results, nil
}

// evalOne scores a single combination, converting a panic or error into a
// failed result row.
func (s *Search) evalOne(ctx context.Context, params Assignment) (res Result) {
	res = Result{ID: uuid.New().String(), Params: params}
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Metrics = nil
			res.Err = fmt.Errorf("gridsearch: evaluation panicked: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	metrics, err := s.Eval(ctx, params)
	if err != nil {
		res.Err = err
		return res
	}
	res.Metrics = metrics
	return res
}

func (s *Search) beginRun(combinations int) (string, error) {
	if s.Store == nil {
		return "", nil
	}
	paramsJSON, err := json.Marshal(s.Grid.Params())
	if err != nil {
		return "", fmt.Errorf("gridsearch: encoding params: %w", err)
	}
	run := &store.SweepRun{
		Name:         s.Name,
		Algorithm:    s.Algorithm,
		ParamsJSON:   paramsJSON,
		Combinations: combinations,
	}
	if err := s.Store.InsertRun(run); err != nil {
		return "", fmt.Errorf("gridsearch: inserting run: %w", err)
	}
	return run.RunID, nil
}

func (s *Search) finishRun(runID, status, errMsg string) {
	if s.Store == nil {
		return
	}
	if err := s.Store.FinishRun(runID, status, errMsg); err != nil {
		log.Printf("[gridsearch] %s: finishing run %s: %v", s.Name, runID, err)
	}
}

func (s *Search) persistResult(runID string, res Result) error {
	if s.Store == nil {
		return nil
	}
	paramsJSON, err := json.Marshal(res.Params)
	if err != nil {
		return fmt.Errorf("gridsearch: encoding result params: %w", err)
	}
	metricsJSON, err := json.Marshal(res.Metrics)
	if err != nil {
		return fmt.Errorf("gridsearch: encoding result metrics: %w", err)
	}
	rec := &store.SweepResult{
		ResultID:    res.ID,
		RunID:       runID,
		ParamsJSON:  paramsJSON,
		MetricsJSON: metricsJSON,
		DurationMs:  res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if err := s.Store.InsertResult(rec); err != nil {
		return fmt.Errorf("gridsearch: inserting result: %w", err)
	}
	return nil
}

func (s *Search) trackResult(res Result) {
	if s.Experiment == nil || res.Err != nil {
		return
	}
	ctxValues := map[string]string{"sweep": s.Name}
	for _, name := range s.Grid.ParamNames() {
		ctxValues[name] = formatValue(res.Params[name])
	}
	s.Experiment.TrackValues(res.Metrics, tracking.WithContextValues(ctxValues))
}
