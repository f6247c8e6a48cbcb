package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-cluster/algorithms/cluster"
	"github.com/RyanBlaney/sonido-cluster/logging"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Clustering.NumClusters)
	assert.Equal(t, 10, cfg.Clustering.MaxClusters)
	assert.Equal(t, 1000, cfg.Clustering.MaxIterations)
	assert.Equal(t, "points", cfg.Clustering.InitMethod)
	assert.Equal(t, "keep", cfg.Clustering.EmptyPolicy)
	assert.Equal(t, 0, cfg.Reduction.Components)
	assert.True(t, cfg.Reduction.RestoreMean)
}

func TestParse_OverridesDefaults(t *testing.T) {
	raw := []byte(`
reduction:
  components: 3
  whiten: true
  restore_mean: false
clustering:
  num_clusters: 4
  init_method: range
  empty_policy: farthest
  workers: 2
  seed: 1234
logging:
  level: debug
`)
	cfg, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Reduction.Components)
	assert.True(t, cfg.Reduction.Whiten)
	assert.False(t, cfg.Reduction.RestoreMean)
	assert.Equal(t, 4, cfg.Clustering.NumClusters)
	assert.Equal(t, 10, cfg.Clustering.MaxClusters, "default kept")
	assert.Equal(t, 1000, cfg.Clustering.MaxIterations, "default kept")
	assert.Equal(t, uint64(1234), cfg.Clustering.Seed)
	assert.Equal(t, "debug", cfg.Logging.Level)

	params := cfg.Clustering.Params()
	assert.Equal(t, cluster.Params{
		NumClusters:   4,
		MaxIterations: 1000,
		InitMethod:    cluster.InitRange,
		EmptyPolicy:   cluster.EmptyFarthest,
		Workers:       2,
	}, params)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("clustering:\n  clusters: 3\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero clusters", func(c *Config) { c.Clustering.NumClusters = 0 }},
		{"above max", func(c *Config) { c.Clustering.NumClusters = 11 }},
		{"zero max", func(c *Config) { c.Clustering.MaxClusters = 0 }},
		{"zero iterations", func(c *Config) { c.Clustering.MaxIterations = 0 }},
		{"bad init", func(c *Config) { c.Clustering.InitMethod = "kmeans++" }},
		{"bad policy", func(c *Config) { c.Clustering.EmptyPolicy = "nan" }},
		{"no workers", func(c *Config) { c.Clustering.Workers = 0 }},
		{"negative components", func(c *Config) { c.Reduction.Components = -2 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidate_TooManyClusters(t *testing.T) {
	cfg := Default()
	cfg.Clustering.NumClusters = 12

	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrTooManyClusters)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.Clustering.MaxClusters = 20
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clustering:\n  num_clusters: 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Clustering.NumClusters)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestClusteringConfig_Source(t *testing.T) {
	cc := Default().Clustering
	cc.Seed = 77

	a, b := cc.Source(), cc.Source()
	assert.Equal(t, a.Float64(), b.Float64(), "fixed seed is reproducible")

	cc.Seed = 0
	assert.NotNil(t, cc.Source())
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := LoggingConfig{Level: "warn"}.NewLogger(&stdout, &stderr)

	logger.Info("hidden")
	logger.Warn("shown", logging.Fields{"k": 1})

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "[WARN] shown")
}
