// Package pipeline runs the complete cluster-svd flow: read a training
// matrix, reduce it to its leading singular directions, cluster the reduced
// points and map the ranked centers back to the original space.
package pipeline

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-cluster/algorithms/cluster"
	"github.com/RyanBlaney/sonido-cluster/algorithms/common"
	"github.com/RyanBlaney/sonido-cluster/algorithms/svd"
	"github.com/RyanBlaney/sonido-cluster/config"
	"github.com/RyanBlaney/sonido-cluster/dataio"
	"github.com/RyanBlaney/sonido-cluster/logging"
)

// Output is the outcome of a run.
type Output struct {
	// Centers are the ranked centers in the original n-dimensional space.
	Centers *mat.Dense
	// Result holds the clustering in reduced coordinates; Result.Centers
	// are the reduced centers.
	Result *cluster.Result

	Rows           int
	Columns        int
	Reduction      svd.Config
	SingularValues []float64
	Means          []float64
}

// Pipeline wires the reducer and the clusterer together.
type Pipeline struct {
	config   *config.Config
	src      cluster.Source
	observer cluster.Observer
	logger   logging.Logger
}

// New creates a pipeline for cfg. The random source is derived from
// cfg.Clustering.Seed; a nil cfg means config.Default().
func New(cfg *config.Config) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Pipeline{
		config: cfg,
		src:    cfg.Clustering.Source(),
		logger: logging.WithFields(logging.Fields{
			"component": "pipeline",
		}),
	}
}

// SetSource replaces the random source used for seeding.
func (p *Pipeline) SetSource(src cluster.Source) {
	p.src = src
}

// SetObserver installs a per-iteration hook on the clusterer.
func (p *Pipeline) SetObserver(obs cluster.Observer) {
	p.observer = obs
}

// SetLogger replaces the pipeline logger. Components log through children
// of it.
func (p *Pipeline) SetLogger(logger logging.Logger) {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	p.logger = logger
}

// Config returns the configuration in effect.
func (p *Pipeline) Config() *config.Config {
	return p.config
}

// Run clusters data, which is not modified.
func (p *Pipeline) Run(ctx context.Context, data *mat.Dense) (*Output, error) {
	if err := p.config.Validate(); err != nil {
		return nil, err
	}
	if common.IsEmpty(data) {
		return nil, common.ErrEmptyInput
	}
	m, n := data.Dims()

	logger := p.logger.WithFields(logging.Fields{
		"function": "Run",
		"rows":     m,
		"columns":  n,
	})

	reducer := svd.NewReducer(p.config.Reduction)
	reducer.SetLogger(logger.WithFields(logging.Fields{"component": "svd_reducer"}))

	coords, err := reducer.FitTransform(data)
	if err != nil {
		logger.Error(err, "Failed to reduce training data")
		return nil, fmt.Errorf("reduction failed: %w", err)
	}
	_, dims := coords.Dims()
	logger.Info("Training data reduced", logging.Fields{
		"components": p.config.Reduction.Components,
		"whiten":     p.config.Reduction.Whiten,
		"dimensions": dims,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	km := cluster.NewKMeansWithParams(p.config.Clustering.Params(), p.src)
	km.SetLogger(logger.WithFields(logging.Fields{"component": "kmeans"}))
	if p.observer != nil {
		km.SetObserver(p.observer)
	}

	result, err := km.FitContext(ctx, coords)
	if err != nil {
		logger.Error(err, "Failed to cluster training data")
		return nil, fmt.Errorf("clustering failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	centers, err := reducer.InverseTransform(result.Centers)
	if err != nil {
		logger.Error(err, "Failed to map centers to the original space")
		return nil, fmt.Errorf("back-projection failed: %w", err)
	}
	if !common.AllFinite(centers) {
		err := fmt.Errorf("back-projection produced non-finite centers")
		logger.Error(err, "Invalid centers")
		return nil, err
	}

	logger.Debug("Centers mapped to the original space", logging.Fields{
		"restore_mean": p.config.Reduction.RestoreMean,
		"centers":      common.ToRows(centers),
	})

	return &Output{
		Centers:        centers,
		Result:         result,
		Rows:           m,
		Columns:        n,
		Reduction:      reducer.Config(),
		SingularValues: reducer.SingularValues(),
		Means:          reducer.Means(),
	}, nil
}

// RunFiles reads the training matrix at trainPath, runs the pipeline and
// writes the ranked centers to centersPath.
func (p *Pipeline) RunFiles(ctx context.Context, trainPath, centersPath string) (*Output, error) {
	logger := p.logger.WithFields(logging.Fields{
		"function": "RunFiles",
		"train":    trainPath,
		"centers":  centersPath,
	})

	data, err := dataio.ReadMatrixFile(trainPath)
	if err != nil {
		logger.Error(err, "Failed to read training data")
		return nil, err
	}
	rows, cols := data.Dims()
	logger.Debug("Training data loaded", logging.Fields{
		"rows":    rows,
		"columns": cols,
	})

	out, err := p.Run(ctx, data)
	if err != nil {
		return nil, err
	}

	if err := dataio.WriteCentersFile(centersPath, out.Centers); err != nil {
		logger.Error(err, "Failed to write centers")
		return nil, err
	}
	logger.Info("Centers written", logging.Fields{
		"clusters": out.Result.NumClusters(),
	})

	return out, nil
}
