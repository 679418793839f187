// Package config loads pipeline settings from the environment.
//
// Every knob has a sensible default; a bare `mathsnap scan page.png`
// works without any configuration. Environment variables prefixed with
// MATHSNAP_ override individual settings, and a .env file in the working
// directory is honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the extraction pipeline.
type Config struct {
	// TesseractLanguage is the language code passed to the recognition
	// engine, for example "eng" or "eng+equ".
	TesseractLanguage string

	// Workers bounds the number of regions recognized concurrently.
	Workers int

	// ConfidenceFloor drops extracted formulas whose confidence score
	// falls below it.
	ConfidenceFloor float64

	// MinRegionArea and MaxRegionArea bound accepted region sizes in
	// square pixels after padding.
	MinRegionArea int
	MaxRegionArea int

	// PaddingFraction expands each detected region on every side before
	// extraction.
	PaddingFraction float64

	// MergeOverlap is the overlap fraction (of the smaller region) above
	// which two detected regions merge.
	MergeOverlap float64

	// MergeCenterDistance merges regions whose centers are closer than
	// this many pixels regardless of overlap.
	MergeCenterDistance float64

	// ClusterEpsilon is the DBSCAN neighborhood radius in normalized
	// image coordinates used to join fragments of multi-line formulas.
	ClusterEpsilon float64
}

// Default returns the configuration used when no environment overrides
// are set.
func Default() *Config {
	return &Config{
		TesseractLanguage:   "eng",
		Workers:             4,
		ConfidenceFloor:     0.5,
		MinRegionArea:       100,
		MaxRegionArea:       1_000_000,
		PaddingFraction:     0.15,
		MergeOverlap:        0.3,
		MergeCenterDistance: 20,
		ClusterEpsilon:      0.05,
	}
}

// Load builds a Config from the defaults, a .env file if one exists, and
// MATHSNAP_* environment variables, in increasing priority.
func Load() (*Config, error) {
	// Missing .env is fine; explicit environment still applies.
	_ = godotenv.Load()

	cfg := Default()
	var err error

	if v := os.Getenv("MATHSNAP_TESSERACT_LANG"); v != "" {
		cfg.TesseractLanguage = v
	}
	if cfg.Workers, err = intVar("MATHSNAP_WORKERS", cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.ConfidenceFloor, err = floatVar("MATHSNAP_CONFIDENCE_FLOOR", cfg.ConfidenceFloor); err != nil {
		return nil, err
	}
	if cfg.MinRegionArea, err = intVar("MATHSNAP_MIN_REGION_AREA", cfg.MinRegionArea); err != nil {
		return nil, err
	}
	if cfg.MaxRegionArea, err = intVar("MATHSNAP_MAX_REGION_AREA", cfg.MaxRegionArea); err != nil {
		return nil, err
	}
	if cfg.PaddingFraction, err = floatVar("MATHSNAP_PADDING", cfg.PaddingFraction); err != nil {
		return nil, err
	}
	if cfg.MergeOverlap, err = floatVar("MATHSNAP_MERGE_OVERLAP", cfg.MergeOverlap); err != nil {
		return nil, err
	}
	if cfg.MergeCenterDistance, err = floatVar("MATHSNAP_MERGE_DISTANCE", cfg.MergeCenterDistance); err != nil {
		return nil, err
	}
	if cfg.ClusterEpsilon, err = floatVar("MATHSNAP_CLUSTER_EPSILON", cfg.ClusterEpsilon); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("MATHSNAP_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return fmt.Errorf("MATHSNAP_CONFIDENCE_FLOOR must be in [0, 1], got %g", c.ConfidenceFloor)
	}
	if c.MinRegionArea >= c.MaxRegionArea {
		return fmt.Errorf("region area bounds inverted: min %d >= max %d", c.MinRegionArea, c.MaxRegionArea)
	}
	return nil
}

func intVar(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func floatVar(name string, fallback float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return f, nil
}
