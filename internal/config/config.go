// Package config loads the application configuration from a YAML file,
// falling back to defaults for anything unset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/feature"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/model"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/snapshot"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/training"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendDatabase = "database"
)

// Config is the full application configuration.
type Config struct {
	Builder   BuilderConfig   `yaml:"builder"`
	Features  FeaturesConfig  `yaml:"features"`
	Model     ModelConfig     `yaml:"model"`
	Training  TrainingConfig  `yaml:"training"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
}

// FeaturesConfig selects the columns the encoder feeds the model.
type FeaturesConfig struct {
	Numeric     []string `yaml:"numeric"`
	Categorical []string `yaml:"categorical"`
}

// BuilderConfig controls the snapshot dataset builder.
type BuilderConfig struct {
	PredictionWindowDays int    `yaml:"prediction_window_days"`
	SnapshotFreq         string `yaml:"snapshot_freq"`
	MinHistoryDays       int    `yaml:"min_history_days"`
	ActiveRecencyMax     int    `yaml:"active_recency_max"`
	Workers              int    `yaml:"workers"`
}

// ModelConfig controls the boosted ensemble.
type ModelConfig struct {
	NEstimators  int     `yaml:"n_estimators"`
	LearningRate float64 `yaml:"learning_rate"`
	MaxDepth     int     `yaml:"max_depth"`
	Subsample    float64 `yaml:"subsample"`
	Seed         int64   `yaml:"seed"`
}

// TrainingConfig controls the train/holdout split and scoring threshold.
type TrainingConfig struct {
	TestFraction float64 `yaml:"test_fraction"`
	Threshold    float64 `yaml:"threshold"`
	Seed         int64   `yaml:"seed"`
}

// ArtifactsConfig names the model artifact directory.
type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// ServerConfig configures the prediction server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Builder: BuilderConfig{
			PredictionWindowDays: 90,
			SnapshotFreq:         "30D",
			MinHistoryDays:       90,
			ActiveRecencyMax:     90,
		},
		Features: FeaturesConfig{
			Numeric:     feature.DefaultNumericFeatures,
			Categorical: feature.DefaultCategoricalFeatures,
		},
		Model: ModelConfig{
			NEstimators:  200,
			LearningRate: 0.05,
			MaxDepth:     3,
			Subsample:    0.8,
			Seed:         42,
		},
		Training: TrainingConfig{
			TestFraction: 0.25,
			Threshold:    0.5,
			Seed:         42,
		},
		Artifacts: ArtifactsConfig{Dir: "artifacts"},
		Storage:   StorageConfig{Backend: BackendMemory},
		Server:    ServerConfig{Addr: ":8080"},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Builder.PredictionWindowDays <= 0 {
		return fmt.Errorf("builder.prediction_window_days must be positive")
	}
	if c.Builder.MinHistoryDays < 0 {
		return fmt.Errorf("builder.min_history_days must not be negative")
	}
	if _, err := snapshot.ParseFrequency(c.Builder.SnapshotFreq); err != nil {
		return fmt.Errorf("builder.snapshot_freq: %w", err)
	}
	if len(c.Features.Numeric)+len(c.Features.Categorical) == 0 {
		return fmt.Errorf("features: at least one numeric or categorical column required")
	}
	if c.Training.TestFraction <= 0 || c.Training.TestFraction >= 1 {
		return fmt.Errorf("training.test_fraction must be in (0,1)")
	}
	if c.Training.Threshold <= 0 || c.Training.Threshold >= 1 {
		return fmt.Errorf("training.threshold must be in (0,1)")
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendDatabase:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn required for database backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q", BackendMemory, BackendDatabase)
	}
	return nil
}

// BuilderParams converts the builder section to snapshot.Params.
func (c *Config) BuilderParams() (snapshot.Params, error) {
	freq, err := snapshot.ParseFrequency(c.Builder.SnapshotFreq)
	if err != nil {
		return snapshot.Params{}, err
	}
	return snapshot.Params{
		PredictionWindowDays: c.Builder.PredictionWindowDays,
		SnapshotFreq:         freq,
		MinHistoryDays:       c.Builder.MinHistoryDays,
		ActiveRecencyMax:     c.Builder.ActiveRecencyMax,
		Workers:              c.Builder.Workers,
	}, nil
}

// Encoder builds a feature encoder from the features section.
func (c *Config) Encoder() *feature.Encoder {
	return &feature.Encoder{
		NumericFeatures:     c.Features.Numeric,
		CategoricalFeatures: c.Features.Categorical,
	}
}

// TrainingOptions converts the model and training sections to training.Options.
func (c *Config) TrainingOptions() training.Options {
	return training.Options{
		TestFraction: c.Training.TestFraction,
		Threshold:    c.Training.Threshold,
		Seed:         c.Training.Seed,
		Model: model.GBTParams{
			NEstimators:  c.Model.NEstimators,
			LearningRate: c.Model.LearningRate,
			MaxDepth:     c.Model.MaxDepth,
			Subsample:    c.Model.Subsample,
			Seed:         c.Model.Seed,
		},
	}
}
