package cluster

import (
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-cluster/algorithms/common"
	"github.com/RyanBlaney/sonido-cluster/logging"
)

// IterationStats is handed to an Observer after every assignment/update
// pass.
type IterationStats struct {
	Iteration int        // 1-based pass number
	Centers   *mat.Dense // snapshot of the centers after the update step
	Sizes     []int      // population of each cluster in this pass
	Changed   bool       // some point switched cluster
	Empty     []int      // clusters that received no points
}

// Observer receives per-iteration statistics. It runs synchronously on the
// fitting goroutine and owns the values it is given.
type Observer func(stats IterationStats)

// LogObserver traces every iteration at debug level, centers included.
func LogObserver(logger logging.Logger) Observer {
	if logger == nil {
		logger = logging.WithFields(logging.Fields{"component": "kmeans"})
	}
	return func(stats IterationStats) {
		logger.Debug("k-means iteration", logging.Fields{
			"iteration": stats.Iteration,
			"sizes":     stats.Sizes,
			"changed":   stats.Changed,
			"empty":     stats.Empty,
			"centers":   common.ToRows(stats.Centers),
		})
	}
}

// Recorder collects every IterationStats it observes.
type Recorder struct {
	Iterations []IterationStats
}

// Observe implements Observer; pass rec.Observe to SetObserver.
func (r *Recorder) Observe(stats IterationStats) {
	r.Iterations = append(r.Iterations, stats)
}
