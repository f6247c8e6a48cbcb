package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-cluster/algorithms/cluster"
	"github.com/RyanBlaney/sonido-cluster/algorithms/svd"
	"github.com/RyanBlaney/sonido-cluster/logging"
)

// DefaultMaxClusters bounds the number of clusters a run may request.
const DefaultMaxClusters = 10

var (
	// ErrInvalidConfig is wrapped by every Validate failure.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTooManyClusters is wrapped when num_clusters exceeds max_clusters.
	ErrTooManyClusters = errors.New("too many clusters requested")
)

// Config is the complete configuration of a clustering run.
type Config struct {
	Reduction  svd.Config       `json:"reduction" yaml:"reduction"`
	Clustering ClusteringConfig `json:"clustering" yaml:"clustering"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// ClusteringConfig configures k-means
type ClusteringConfig struct {
	NumClusters   int    `json:"num_clusters" yaml:"num_clusters"`
	MaxClusters   int    `json:"max_clusters" yaml:"max_clusters"`
	MaxIterations int    `json:"max_iterations" yaml:"max_iterations"`
	InitMethod    string `json:"init_method" yaml:"init_method"`   // "points", "range"
	EmptyPolicy   string `json:"empty_policy" yaml:"empty_policy"` // "keep", "farthest"
	Workers       int    `json:"workers" yaml:"workers"`

	// Seed for the random source; 0 seeds from the clock.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// LoggingConfig configures the global logger
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"` // "debug", "info", "warn", "error"
	Color bool   `json:"color" yaml:"color"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Reduction: svd.DefaultConfig(),
		Clustering: ClusteringConfig{
			NumClusters:   DefaultMaxClusters,
			MaxClusters:   DefaultMaxClusters,
			MaxIterations: cluster.DefaultMaxIterations,
			InitMethod:    string(cluster.InitPoints),
			EmptyPolicy:   string(cluster.EmptyKeep),
			Workers:       1,
			Seed:          0,
		},
		Logging: LoggingConfig{
			Level: "info",
			Color: false,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	cc := c.Clustering
	if cc.MaxClusters <= 0 {
		return fmt.Errorf("%w: max_clusters must be positive, got %d", ErrInvalidConfig, cc.MaxClusters)
	}
	if cc.NumClusters <= 0 {
		return fmt.Errorf("%w: num_clusters must be positive, got %d", ErrInvalidConfig, cc.NumClusters)
	}
	if cc.NumClusters > cc.MaxClusters {
		return fmt.Errorf("%w: %w: %d > %d", ErrInvalidConfig, ErrTooManyClusters, cc.NumClusters, cc.MaxClusters)
	}
	if cc.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive, got %d", ErrInvalidConfig, cc.MaxIterations)
	}
	if !cluster.InitMethod(cc.InitMethod).Valid() {
		return fmt.Errorf("%w: init_method %q", ErrInvalidConfig, cc.InitMethod)
	}
	if !cluster.EmptyPolicy(cc.EmptyPolicy).Valid() {
		return fmt.Errorf("%w: empty_policy %q", ErrInvalidConfig, cc.EmptyPolicy)
	}
	if cc.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, cc.Workers)
	}
	if c.Reduction.Components < 0 {
		return fmt.Errorf("%w: reduction.components must not be negative, got %d", ErrInvalidConfig, c.Reduction.Components)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Params converts the clustering section to k-means parameters.
func (cc ClusteringConfig) Params() cluster.Params {
	return cluster.Params{
		NumClusters:   cc.NumClusters,
		MaxIterations: cc.MaxIterations,
		InitMethod:    cluster.InitMethod(cc.InitMethod),
		EmptyPolicy:   cluster.EmptyPolicy(cc.EmptyPolicy),
		Workers:       cc.Workers,
	}
}

// Source returns the random source described by Seed.
func (cc ClusteringConfig) Source() cluster.Source {
	if cc.Seed == 0 {
		return cluster.NewTimeSource()
	}
	return cluster.NewSource(cc.Seed)
}

// NewLogger builds a logger from the logging section. Validate must have
// accepted the configuration.
func (lc LoggingConfig) NewLogger(stdout, stderr io.Writer) *logging.DefaultLogger {
	logger := logging.NewLogger(stdout, stderr, lc.Color)
	level, _ := logging.ParseLevel(lc.Level)
	logger.SetLevel(level)
	return logger
}
