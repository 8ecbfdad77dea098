// coordreport regenerates report artifacts from a stored sweep run: the
// results CSV and the HTML chart, without re-running the sweep.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jambit/sensAI/gridsearch"
	"github.com/jambit/sensAI/report"
	"github.com/jambit/sensAI/store"
)

func main() {
	dbPath := flag.String("db", "", "SQLite store with sweep runs (required)")
	runID := flag.String("run", "", "Run id; empty means the most recent run")
	list := flag.Bool("list", false, "List stored runs and exit")
	out := flag.String("out", "", "Results CSV path")
	htmlPath := flag.String("html", "", "Sweep chart HTML path")
	metric := flag.String("metric", "silhouette", "Metric for the HTML chart")
	xParam := flag.String("x", "eps", "Chart x parameter")
	yParam := flag.String("y", "minPts", "Chart y parameter (empty for a line chart)")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: coordreport -db runs.db [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *list, *out, *htmlPath, *metric, *xParam, *yParam); err != nil {
		log.Fatalf("coordreport: %v", err)
	}
}

func run(dbPath, runID string, list bool, out, htmlPath, metric, xParam, yParam string) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.MigrateUp(); err != nil {
		return err
	}
	sweepStore := store.NewSweepStore(db)

	if list {
		return listRuns(sweepStore)
	}

	sweepRun, err := resolveRun(sweepStore, runID)
	if err != nil {
		return err
	}
	log.Printf("[coordreport] run %s (%s): %s, %d combinations",
		sweepRun.RunID, sweepRun.Name, sweepRun.Status, sweepRun.Combinations)

	results, err := loadResults(sweepStore, sweepRun)
	if err != nil {
		return err
	}

	if out != "" {
		if err := results.WriteCSVFile(out); err != nil {
			return err
		}
		log.Printf("[coordreport] wrote %s", out)
	}

	if htmlPath != "" {
		f, err := os.Create(htmlPath)
		if err != nil {
			return err
		}
		if err := report.SweepHTML(f, results, xParam, yParam, metric); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("[coordreport] wrote %s", htmlPath)
	}
	return nil
}

func listRuns(s *store.SweepStore) error {
	runs, err := s.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs stored")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %-20s %-10s %4d combos  %s\n",
			r.RunID, r.Name, r.Status, r.Combinations, r.StartedAt.Format(time.RFC3339))
	}
	return nil
}

func resolveRun(s *store.SweepStore, runID string) (*store.SweepRun, error) {
	if runID != "" {
		return s.GetRun(runID)
	}
	runs, err := s.ListRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.New("no runs stored")
	}
	return runs[0], nil
}

// loadResults rebuilds the in-memory result table from stored rows. The
// parameter column order comes from the run's stored param declarations.
func loadResults(s *store.SweepStore, run *store.SweepRun) (*gridsearch.Results, error) {
	var params []gridsearch.Param
	if err := json.Unmarshal(run.ParamsJSON, &params); err != nil {
		return nil, fmt.Errorf("decoding run params: %w", err)
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}

	stored, err := s.ResultsForRun(run.RunID)
	if err != nil {
		return nil, err
	}

	results := gridsearch.NewResults(names)
	for _, rec := range stored {
		row := gridsearch.Result{
			ID:       rec.ResultID,
			Duration: time.Duration(rec.DurationMs) * time.Millisecond,
		}
		if err := json.Unmarshal(rec.ParamsJSON, &row.Params); err != nil {
			return nil, fmt.Errorf("decoding result %s params: %w", rec.ResultID, err)
		}
		if len(rec.MetricsJSON) > 0 {
			if err := json.Unmarshal(rec.MetricsJSON, &row.Metrics); err != nil {
				return nil, fmt.Errorf("decoding result %s metrics: %w", rec.ResultID, err)
			}
		}
		if rec.Error != "" {
			row.Err = errors.New(rec.Error)
		}
		results.Add(row)
	}
	return results, nil
}
