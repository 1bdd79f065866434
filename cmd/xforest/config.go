package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/benz9527/xforest/observability"
)

type LogConfig struct {
	Level   string `yaml:"level"`
	Encoder string `yaml:"encoder"`
}

type BenchConfig struct {
	Rounds   int    `yaml:"rounds"`
	Keys     int    `yaml:"keys"`
	Deletes  int    `yaml:"deletes"`
	KeyRange uint64 `yaml:"key_range"`
	// Mixed interleaves inserts and deletes of random keys instead of
	// inserting unique keys first.
	Mixed   bool      `yaml:"mixed"`
	Workers int       `yaml:"workers"`
	Seed    uint64    `yaml:"seed"`
	Metrics string    `yaml:"metrics"`
	Log     LogConfig `yaml:"log"`
}

var defaultBenchConfig = BenchConfig{
	Rounds:   4,
	Keys:     1000,
	Deletes:  500,
	KeyRange: 1 << 20,
	Workers:  4,
	Seed:     2024,
	Metrics:  string(observability.NoneExporter),
	Log: LogConfig{
		Level:   "INFO",
		Encoder: "plaintext",
	},
}

var (
	errInvalidRounds   = errors.New("[xforest] rounds must be positive")
	errInvalidKeys     = errors.New("[xforest] keys must be positive")
	errInvalidDeletes  = errors.New("[xforest] deletes must be in [0, keys] without mixed mode")
	errInvalidKeyRange = errors.New("[xforest] key range must not be less than keys")
	errInvalidWorkers  = errors.New("[xforest] workers must be positive")
	errInvalidEncoder  = errors.New("[xforest] log encoder must be json or plaintext")
	errInvalidLogLevel = errors.New("[xforest] log level must be DEBUG, INFO, WARN or ERROR")
)

// LoadBenchConfig reads the yaml file over the defaults. The empty path
// returns the defaults.
func LoadBenchConfig(path string) (*BenchConfig, error) {
	config := defaultBenchConfig
	if path == "" {
		return &config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bench config: %w", err)
	}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse bench config: %w", err)
	}
	return &config, nil
}

func (cfg *BenchConfig) Validate() error {
	if cfg.Rounds <= 0 {
		return errInvalidRounds
	}
	if cfg.Keys <= 0 {
		return errInvalidKeys
	}
	if cfg.Deletes < 0 || (!cfg.Mixed && cfg.Deletes > cfg.Keys) {
		return errInvalidDeletes
	}
	if cfg.KeyRange < uint64(cfg.Keys) {
		return errInvalidKeyRange
	}
	if cfg.Workers <= 0 {
		return errInvalidWorkers
	}
	if _, err := observability.ParseMetricsExporter(cfg.Metrics); err != nil {
		return err
	}
	switch strings.ToUpper(cfg.Log.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return errInvalidLogLevel
	}
	switch cfg.Log.Encoder {
	case "json", "plaintext":
	default:
		return errInvalidEncoder
	}
	return nil
}
