// Package config loads run configuration for coordinate sweeps from JSON
// files. All fields are pointers with omitempty so partial configs merge
// cleanly over defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// SweepConfig is the root configuration for a coordinate clustering sweep.
// The schema matches the coordsweep CLI flags so the same JSON can drive
// scripted and interactive runs.
type SweepConfig struct {
	// Algorithm selects the clustering algorithm: "dbscan" or "kmeans".
	Algorithm *string `json:"algorithm,omitempty"`

	// DBSCAN ranges, "min:max:step" or comma-separated values.
	EpsRange    *string `json:"eps_range,omitempty"`
	MinPtsRange *string `json:"minpts_range,omitempty"`

	// KMeans k range.
	KRange *string `json:"k_range,omitempty"`

	// Evaluation
	Seed           *int64  `json:"seed,omitempty"`
	GroundTruth    *string `json:"ground_truth,omitempty"` // GeoJSON path; enables supervised metrics
	MinClusterSize *int    `json:"min_cluster_size,omitempty"`

	// Execution
	Workers *int `json:"workers,omitempty"`

	// Persistence and reporting
	StorePath   *string `json:"store_path,omitempty"`
	TrackingURL *string `json:"tracking_url,omitempty"`
	CSVPath     *string `json:"csv_path,omitempty"`
	HTMLPath    *string `json:"html_path,omitempty"`
	ScatterPath *string `json:"scatter_path,omitempty"`
}

// Pointer helpers for building configs in code.
func Float64Ptr(v float64) *float64 { return &v }
func IntPtr(v int) *int             { return &v }
func Int64Ptr(v int64) *int64       { return &v }
func StringPtr(v string) *string    { return &v }

// EmptySweepConfig returns a SweepConfig with all fields unset.
func EmptySweepConfig() *SweepConfig {
	return &SweepConfig{}
}

// LoadSweepConfig loads a SweepConfig from a JSON file. The path must have
// a .json extension; fields omitted from the file keep their defaults.
func LoadSweepConfig(path string) (*SweepConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySweepConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that set fields carry usable values.
func (c *SweepConfig) Validate() error {
	if c.Algorithm != nil {
		switch *c.Algorithm {
		case "dbscan", "kmeans":
		default:
			return fmt.Errorf("algorithm must be dbscan or kmeans, got %q", *c.Algorithm)
		}
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", *c.Workers)
	}
	if c.MinClusterSize != nil && *c.MinClusterSize < 0 {
		return fmt.Errorf("min_cluster_size must be non-negative, got %d", *c.MinClusterSize)
	}
	if c.GroundTruth != nil && *c.GroundTruth != "" {
		if ext := filepath.Ext(*c.GroundTruth); ext != ".json" && ext != ".geojson" {
			return fmt.Errorf("ground_truth must be a .json or .geojson file, got %q", *c.GroundTruth)
		}
	}
	return nil
}

// GetAlgorithm returns the algorithm or the default.
func (c *SweepConfig) GetAlgorithm() string {
	if c.Algorithm == nil {
		return "dbscan"
	}
	return *c.Algorithm
}

// GetEpsRange returns the eps range spec or the default.
func (c *SweepConfig) GetEpsRange() string {
	if c.EpsRange == nil {
		return "0.2:1.0:0.2"
	}
	return *c.EpsRange
}

// GetMinPtsRange returns the minPts range spec or the default.
func (c *SweepConfig) GetMinPtsRange() string {
	if c.MinPtsRange == nil {
		return "4:16:4"
	}
	return *c.MinPtsRange
}

// GetKRange returns the k range spec or the default.
func (c *SweepConfig) GetKRange() string {
	if c.KRange == nil {
		return "2:8:1"
	}
	return *c.KRange
}

// GetSeed returns the seed or the default.
func (c *SweepConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 42
	}
	return *c.Seed
}

// GetWorkers returns the worker count or GOMAXPROCS.
func (c *SweepConfig) GetWorkers() int {
	if c.Workers == nil {
		return runtime.GOMAXPROCS(0)
	}
	return *c.Workers
}

// GetMinClusterSize returns the minimum cluster size or zero (disabled).
func (c *SweepConfig) GetMinClusterSize() int {
	if c.MinClusterSize == nil {
		return 0
	}
	return *c.MinClusterSize
}

// GetStorePath returns the store path; empty disables persistence.
func (c *SweepConfig) GetStorePath() string {
	if c.StorePath == nil {
		return ""
	}
	return *c.StorePath
}

// GetTrackingURL returns the tracking URL; empty disables HTTP tracking.
func (c *SweepConfig) GetTrackingURL() string {
	if c.TrackingURL == nil {
		return ""
	}
	return *c.TrackingURL
}

// GetGroundTruth returns the ground-truth path; empty means unsupervised.
func (c *SweepConfig) GetGroundTruth() string {
	if c.GroundTruth == nil {
		return ""
	}
	return *c.GroundTruth
}

// GetCSVPath returns the CSV output path; empty disables CSV output.
func (c *SweepConfig) GetCSVPath() string {
	if c.CSVPath == nil {
		return ""
	}
	return *c.CSVPath
}

// GetHTMLPath returns the HTML report path; empty disables it.
func (c *SweepConfig) GetHTMLPath() string {
	if c.HTMLPath == nil {
		return ""
	}
	return *c.HTMLPath
}

// GetScatterPath returns the scatter PNG path; empty disables it.
func (c *SweepConfig) GetScatterPath() string {
	if c.ScatterPath == nil {
		return ""
	}
	return *c.ScatterPath
}
