// coordsweep runs a clustering parameter sweep over a coordinate CSV.
//
// It loads points (x/y columns), optionally a ground-truth GeoJSON for
// supervised metrics, expands the parameter grid from flags or a JSON
// config, evaluates every combination on a worker pool, and writes the
// results to the sweep store, a CSV table, an HTML chart and a scatter PNG
// of the best combination.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jambit/sensAI/cluster"
	"github.com/jambit/sensAI/config"
	"github.com/jambit/sensAI/evaluation"
	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/geom"
	"github.com/jambit/sensAI/gridsearch"
	"github.com/jambit/sensAI/report"
	"github.com/jambit/sensAI/store"
	"github.com/jambit/sensAI/tracking"
)

func main() {
	input := flag.String("in", "", "Input coordinates CSV (required)")
	xCol := flag.String("x", "x", "Name of the x column")
	yCol := flag.String("y", "y", "Name of the y column")
	configPath := flag.String("config", "", "JSON sweep config (flags override)")

	algorithm := flag.String("algorithm", "", "Clustering algorithm: dbscan or kmeans")
	epsRange := flag.String("eps", "", "DBSCAN eps values: min:max:step or comma list")
	minPtsRange := flag.String("minpts", "", "DBSCAN minPts values: min:max:step or comma list")
	kRange := flag.String("k", "", "KMeans k values: min:max:step or comma list")
	minClusterSize := flag.Int("min-cluster-size", -1, "Demote clusters smaller than this to noise (0 disables)")

	groundTruth := flag.String("truth", "", "Ground-truth GeoJSON for supervised metrics")
	seed := flag.Int64("seed", -1, "Evaluation seed")
	workers := flag.Int("workers", 0, "Worker pool size (0 = GOMAXPROCS)")

	dbPath := flag.String("db", "", "SQLite store for runs and results")
	out := flag.String("out", "", "Results CSV path")
	htmlPath := flag.String("html", "", "Sweep chart HTML path")
	scatterPath := flag.String("scatter", "", "Best-combination scatter PNG path")
	trackURL := flag.String("track-url", "", "HTTP tracking endpoint base URL")
	name := flag.String("name", "coordsweep", "Run name for store and tracking")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: coordsweep -in points.csv [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if !*verbose {
		log.SetFlags(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("coordsweep: %v", err)
	}
	applyFlagOverrides(cfg, *algorithm, *epsRange, *minPtsRange, *kRange,
		*minClusterSize, *groundTruth, *seed, *workers, *dbPath, *out, *htmlPath, *scatterPath, *trackURL)

	if err := run(context.Background(), cfg, *input, *xCol, *yCol, *name); err != nil {
		log.Fatalf("coordsweep: %v", err)
	}
}

func loadConfig(path string) (*config.SweepConfig, error) {
	if path == "" {
		return config.EmptySweepConfig(), nil
	}
	return config.LoadSweepConfig(path)
}

// applyFlagOverrides layers explicitly set flags over the config file.
func applyFlagOverrides(cfg *config.SweepConfig,
	algorithm, epsRange, minPtsRange, kRange string, minClusterSize int,
	groundTruth string, seed int64, workers int,
	dbPath, out, htmlPath, scatterPath, trackURL string) {

	if algorithm != "" {
		cfg.Algorithm = config.StringPtr(algorithm)
	}
	if epsRange != "" {
		cfg.EpsRange = config.StringPtr(epsRange)
	}
	if minPtsRange != "" {
		cfg.MinPtsRange = config.StringPtr(minPtsRange)
	}
	if kRange != "" {
		cfg.KRange = config.StringPtr(kRange)
	}
	if minClusterSize >= 0 {
		cfg.MinClusterSize = config.IntPtr(minClusterSize)
	}
	if groundTruth != "" {
		cfg.GroundTruth = config.StringPtr(groundTruth)
	}
	if seed >= 0 {
		cfg.Seed = config.Int64Ptr(seed)
	}
	if workers > 0 {
		cfg.Workers = config.IntPtr(workers)
	}
	if dbPath != "" {
		cfg.StorePath = config.StringPtr(dbPath)
	}
	if out != "" {
		cfg.CSVPath = config.StringPtr(out)
	}
	if htmlPath != "" {
		cfg.HTMLPath = config.StringPtr(htmlPath)
	}
	if scatterPath != "" {
		cfg.ScatterPath = config.StringPtr(scatterPath)
	}
	if trackURL != "" {
		cfg.TrackingURL = config.StringPtr(trackURL)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("coordsweep: %v", err)
	}
}

func run(ctx context.Context, cfg *config.SweepConfig, input, xCol, yCol, name string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fr, err := frame.ReadCSVFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}
	points, err := cluster.PointsFromFrame(fr, xCol, yCol)
	if err != nil {
		return err
	}
	log.Printf("[coordsweep] loaded %d points from %s", len(points), input)

	evaluator, err := buildEvaluator(cfg, points)
	if err != nil {
		return err
	}

	grid, factory, err := buildGrid(cfg)
	if err != nil {
		return err
	}

	search := gridsearch.NewClusterSearch(name, grid, factory, evaluator)
	search.Algorithm = cfg.GetAlgorithm()
	search.Workers = cfg.GetWorkers()
	search.CSVPath = cfg.GetCSVPath()

	var db *store.DB
	if path := cfg.GetStorePath(); path != "" {
		db, err = store.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.MigrateUp(); err != nil {
			return err
		}
		search.Store = store.NewSweepStore(db)
	}

	if url := cfg.GetTrackingURL(); url != "" {
		search.Experiment = tracking.NewHTTPExperiment(nil, url, name)
	}

	results, err := search.Run(ctx)
	if err != nil {
		return err
	}

	return writeReports(cfg, results, points)
}

// buildEvaluator returns the supervised evaluator when ground truth is
// configured, else the unsupervised one.
func buildEvaluator(cfg *config.SweepConfig, points []geom.Point) (evaluation.ClusterEvaluator, error) {
	if path := cfg.GetGroundTruth(); path != "" {
		truth, err := geom.LoadGeoJSONFile(path)
		if err != nil {
			return nil, err
		}
		log.Printf("[coordsweep] ground truth: %d regions from %s", len(truth.Regions), path)
		return evaluation.NewClusteringSupervisedEvaluator(points, truth, cfg.GetSeed())
	}
	return evaluation.NewClusteringUnsupervisedEvaluator(points, cfg.GetSeed()), nil
}

// buildGrid expands the configured parameter ranges into the sweep grid
// and a model factory for the selected algorithm.
func buildGrid(cfg *config.SweepConfig) (*gridsearch.Grid, func(gridsearch.Assignment) (*cluster.Model, error), error) {
	minSize := cfg.GetMinClusterSize()
	newModel := func(alg cluster.Algorithm) *cluster.Model {
		m := cluster.New(alg)
		if minSize > 0 {
			m.WithMinClusterSize(minSize)
		}
		return m
	}

	switch cfg.GetAlgorithm() {
	case "dbscan":
		epsValues, err := gridsearch.ParseParamList(cfg.GetEpsRange())
		if err != nil {
			return nil, nil, fmt.Errorf("eps range: %w", err)
		}
		minPtsValues, err := gridsearch.ParseParamList(cfg.GetMinPtsRange())
		if err != nil {
			return nil, nil, fmt.Errorf("minpts range: %w", err)
		}
		grid, err := gridsearch.NewGrid(
			gridsearch.Param{Name: "eps", Kind: gridsearch.KindFloat, Values: anySlice(epsValues)},
			gridsearch.Param{Name: "minPts", Kind: gridsearch.KindInt, Values: anySlice(minPtsValues)},
		)
		if err != nil {
			return nil, nil, err
		}
		factory := func(params gridsearch.Assignment) (*cluster.Model, error) {
			eps, _ := params.Float("eps")
			minPts, _ := params.Int("minPts")
			alg, err := cluster.NewDBSCAN(cluster.DBSCANParams{Eps: eps, MinPts: minPts})
			if err != nil {
				return nil, err
			}
			return newModel(alg), nil
		}
		return grid, factory, nil

	case "kmeans":
		kValues, err := gridsearch.ParseParamList(cfg.GetKRange())
		if err != nil {
			return nil, nil, fmt.Errorf("k range: %w", err)
		}
		grid, err := gridsearch.NewGrid(
			gridsearch.Param{Name: "k", Kind: gridsearch.KindInt, Values: anySlice(kValues)},
		)
		if err != nil {
			return nil, nil, err
		}
		factory := func(params gridsearch.Assignment) (*cluster.Model, error) {
			k, _ := params.Int("k")
			alg, err := cluster.NewKMeans(cluster.KMeansParams{K: k, Seed: cfg.GetSeed()})
			if err != nil {
				return nil, err
			}
			return newModel(alg), nil
		}
		return grid, factory, nil

	default:
		return nil, nil, fmt.Errorf("unknown algorithm %q", cfg.GetAlgorithm())
	}
}

// writeReports emits the HTML chart and the scatter PNG of the best
// combination refit on the full point set.
func writeReports(cfg *config.SweepConfig, results *gridsearch.Results, points []geom.Point) error {
	metric := bestMetric(results)

	if path := cfg.GetHTMLPath(); path != "" && metric != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		xParam, yParam := chartParams(cfg)
		if err := report.SweepHTML(f, results, xParam, yParam, metric); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("[coordsweep] wrote %s", path)
	}

	if path := cfg.GetScatterPath(); path != "" && metric != "" {
		best, ok := results.Best(metric, false)
		if !ok {
			return fmt.Errorf("no successful combination to plot")
		}
		if err := plotBest(cfg, best, points, path, metric); err != nil {
			return err
		}
		log.Printf("[coordsweep] wrote %s", path)
	}
	return nil
}

// bestMetric picks the headline metric present in the results: F1 when
// supervised, silhouette otherwise.
func bestMetric(results *gridsearch.Results) string {
	for _, m := range results.MetricColumns() {
		if m == "matchedF1" {
			return m
		}
	}
	for _, m := range results.MetricColumns() {
		if m == "silhouette" {
			return m
		}
	}
	return ""
}

func chartParams(cfg *config.SweepConfig) (x, y string) {
	if cfg.GetAlgorithm() == "kmeans" {
		return "k", ""
	}
	return "eps", "minPts"
}

// plotBest refits the best combination on the full point set and renders
// the labelled scatter.
func plotBest(cfg *config.SweepConfig, best gridsearch.Result, points []geom.Point, path, metric string) error {
	var (
		alg cluster.Algorithm
		err error
	)
	switch cfg.GetAlgorithm() {
	case "kmeans":
		k, _ := best.Params.Int("k")
		alg, err = cluster.NewKMeans(cluster.KMeansParams{K: k, Seed: cfg.GetSeed()})
	default:
		eps, _ := best.Params.Float("eps")
		minPts, _ := best.Params.Int("minPts")
		alg, err = cluster.NewDBSCAN(cluster.DBSCANParams{Eps: eps, MinPts: minPts})
	}
	if err != nil {
		return err
	}

	m := cluster.New(alg)
	if size := cfg.GetMinClusterSize(); size > 0 {
		m.WithMinClusterSize(size)
	}
	if err := m.FitPoints(points); err != nil {
		return err
	}

	title := fmt.Sprintf("%s=%.4f, %d clusters", metric, best.Metrics[metric], m.NumClusters())
	return report.SaveClusterScatterPNG(path, m.Points(), m.Labels(), report.ScatterOptions{Title: title})
}

func anySlice(values []float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
