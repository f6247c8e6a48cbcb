package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-cluster/config"
	"github.com/RyanBlaney/sonido-cluster/dataio"
	"github.com/RyanBlaney/sonido-cluster/logging"
	"github.com/RyanBlaney/sonido-cluster/pipeline"
)

// Two coincident points and one outlier. With the farthest-point policy any
// seeding ends at the same two centers.
const trainingText = "3 2\n0 0\n0 0\n10 10\n"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(func() { logging.SetGlobalLogger(nil) })

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTraining(t *testing.T) (dir, train string) {
	t.Helper()
	dir = t.TempDir()
	train = filepath.Join(dir, "train.txt")
	require.NoError(t, os.WriteFile(train, []byte(trainingText), 0o644))
	return dir, train
}

func TestRootCmd_Definition(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "cluster-svd <nsv> <train> <centers>", cmd.Use)

	for _, name := range []string{
		"config", "clusters", "max-iter", "seed", "init", "empty-policy",
		"workers", "whiten", "no-restore-mean", "summary", "log-level",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}

	assert.Equal(t, "10", cmd.Flags().Lookup("clusters").DefValue)
	assert.Equal(t, "1000", cmd.Flags().Lookup("max-iter").DefValue)
}

func TestRootCmd_WritesCenters(t *testing.T) {
	dir, train := writeTraining(t)
	centers := filepath.Join(dir, "centers.txt")
	summary := filepath.Join(dir, "summary.json")

	_, _, err := execute(t, "0", train, centers,
		"--clusters", "2", "--seed", "7", "--empty-policy", "farthest",
		"--summary", summary, "--log-level", "error")
	require.NoError(t, err)

	got, err := dataio.ReadMatrixFile(centers)
	require.NoError(t, err)
	want := mat.NewDense(2, 2, []float64{0, 0, 10, 10})
	assert.True(t, mat.EqualApprox(want, got, 1e-6))

	raw, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"num_clusters": 2`)
	assert.Contains(t, string(raw), `"state": "converged"`)
}

func TestRootCmd_SummaryToStdout(t *testing.T) {
	dir, train := writeTraining(t)

	stdout, stderr, err := execute(t, "1", train, filepath.Join(dir, "c.txt"),
		"-k", "2", "--seed", "3", "--empty-policy", "farthest", "--summary", "-")
	require.NoError(t, err)

	var summary pipeline.Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary), "stdout: %s", stdout)
	assert.Equal(t, 2, summary.NumClusters)
	assert.Equal(t, 1, summary.Reduction.Components)
	require.Len(t, summary.Clusters, 2)
	assert.Equal(t, 2, summary.Clusters[0].Size)
	assert.Equal(t, 1, summary.Clusters[1].Size)

	// info logs still reach the user, on stderr
	assert.Contains(t, stderr, "[INFO] Centers written")
}

func TestRootCmd_LogsToStdoutWithoutSummary(t *testing.T) {
	dir, train := writeTraining(t)

	stdout, _, err := execute(t, "0", train, filepath.Join(dir, "c.txt"),
		"-k", "2", "--empty-policy", "farthest")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[INFO] Centers written")
}

func TestRootCmd_ConfigFile(t *testing.T) {
	dir, train := writeTraining(t)
	cfgPath := filepath.Join(dir, "cluster.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
clustering:
  num_clusters: 2
  empty_policy: farthest
  seed: 11
logging:
  level: error
`), 0o644))

	centers := filepath.Join(dir, "centers.txt")
	_, _, err := execute(t, "0", train, centers, "--config", cfgPath, "--no-restore-mean")
	require.NoError(t, err)

	got, err := dataio.ReadMatrixFile(centers)
	require.NoError(t, err)

	// the column means are (10/3, 10/3)
	m := 10.0 / 3
	want := mat.NewDense(2, 2, []float64{-m, -m, 10 - m, 10 - m})
	assert.True(t, mat.EqualApprox(want, got, 1e-6))
}

func TestRootCmd_Errors(t *testing.T) {
	dir, train := writeTraining(t)
	centers := filepath.Join(dir, "centers.txt")

	_, _, err := execute(t, "0", train)
	assert.Error(t, err)

	_, _, err = execute(t, "two", train, centers)
	assert.Error(t, err)

	_, _, err = execute(t, "0", train, centers, "--clusters", "11")
	assert.ErrorIs(t, err, config.ErrTooManyClusters)

	_, _, err = execute(t, "0", train, centers, "--init", "kmeans++")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, _, err = execute(t, "-k", "2", "--", "-1", train, centers)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, _, err = execute(t, "0", filepath.Join(dir, "missing.txt"), centers, "-k", "2")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Stat(centers)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}
