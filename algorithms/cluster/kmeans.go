package cluster

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-cluster/algorithms/common"
	"github.com/RyanBlaney/sonido-cluster/logging"
)

// DefaultMaxIterations is the iteration ceiling used when Params leaves it
// unset.
const DefaultMaxIterations = 1000

// State is the convergence controller's state.
type State int

const (
	Running State = iota
	Converged
	MaxItersReached
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case MaxItersReached:
		return "max_iterations_reached"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Running, Converged, MaxItersReached} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Params contains parameters for k-means
type Params struct {
	NumClusters   int         `json:"num_clusters"`
	MaxIterations int         `json:"max_iterations"`
	InitMethod    InitMethod  `json:"init_method"`
	EmptyPolicy   EmptyPolicy `json:"empty_policy"`

	// Workers > 1 parallelises the assignment step over contiguous chunks
	// of points.
	Workers int `json:"workers"`
}

// DefaultParams returns the parameters used by NewKMeans.
func DefaultParams() Params {
	return Params{
		NumClusters:   10,
		MaxIterations: DefaultMaxIterations,
		InitMethod:    InitPoints,
		EmptyPolicy:   EmptyKeep,
		Workers:       1,
	}
}

// ClusterSummary describes one ranked cluster.
type ClusterSummary struct {
	ID       int       `json:"id"`
	Center   []float64 `json:"center"`
	Size     int       `json:"size"`
	Variance float64   `json:"variance"` // mean squared distance to the center
	Radius   float64   `json:"radius"`   // largest distance to the center
}

// Result is the outcome of a Fit call. Clusters are ranked: index 0 is the
// most populated.
type Result struct {
	Centers     *mat.Dense       `json:"-"`
	Sizes       []int            `json:"sizes"`
	Labels      []int            `json:"labels"`
	State       State            `json:"state"`
	Iterations  int              `json:"iterations"`
	Inertia     float64          `json:"inertia"` // total within-cluster sum of squares
	EmptyEvents int              `json:"empty_events"`
	Clusters    []ClusterSummary `json:"clusters"`

	// Order maps ranked position to the cluster's pre-ranking index.
	Order []int `json:"-"`
}

// NumClusters returns the number of centers produced.
func (r *Result) NumClusters() int {
	if r.Centers == nil {
		return 0
	}
	k, _ := r.Centers.Dims()
	return k
}

// Converged reports whether assignments stabilised before the ceiling.
func (r *Result) Converged() bool {
	return r.State == Converged
}

// KMeans clusters training matrices with Lloyd's algorithm.
//
// A KMeans is not safe for concurrent Fit calls unless its Source is
// (see NewLockedSource).
type KMeans struct {
	params   Params
	src      Source
	observer Observer
	logger   logging.Logger
}

// NewKMeans creates a k-means clusterer with default parameters.
func NewKMeans(src Source) *KMeans {
	return NewKMeansWithParams(DefaultParams(), src)
}

// NewKMeansWithParams creates a k-means clusterer with custom parameters. A
// nil src is replaced by a clock-seeded source.
func NewKMeansWithParams(params Params, src Source) *KMeans {
	if src == nil {
		src = NewTimeSource()
	}
	return &KMeans{
		params: params,
		src:    src,
		logger: logging.WithFields(logging.Fields{
			"component": "kmeans",
		}),
	}
}

// SetObserver installs a per-iteration hook; nil removes it.
func (km *KMeans) SetObserver(obs Observer) {
	km.observer = obs
}

// SetLogger replaces the component logger.
func (km *KMeans) SetLogger(logger logging.Logger) {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	km.logger = logger
}

// Params returns the parameters in effect.
func (km *KMeans) Params() Params {
	return km.params
}

// FitRows clusters a slice of vectors, which must all share one length.
func (km *KMeans) FitRows(rows [][]float64) (*Result, error) {
	data, err := common.FromRows(rows)
	if err != nil {
		return nil, err
	}
	return km.Fit(data)
}

// Fit clusters the rows of data. data is not modified.
//
// Fit fails only on invalid input or parameters. Running out of iterations
// is not an error: the centers reached so far are returned with State set
// to MaxItersReached.
func (km *KMeans) Fit(data *mat.Dense) (*Result, error) {
	return km.FitContext(context.Background(), data)
}

// FitContext is Fit with cancellation, checked before every assignment
// pass and by every assignment worker.
func (km *KMeans) FitContext(ctx context.Context, data *mat.Dense) (*Result, error) {
	if common.IsEmpty(data) {
		return nil, ErrEmptyInput
	}
	m, n := data.Dims()
	k := km.params.NumClusters
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidClusterCount, k)
	}
	if k > m {
		return nil, fmt.Errorf("%w: %d clusters requested from %d points", ErrInsufficientData, k, m)
	}
	policy := km.params.EmptyPolicy
	if policy == "" {
		policy = EmptyKeep
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEmptyPolicy, policy)
	}
	maxIter := km.params.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	logger := km.logger.WithFields(logging.Fields{
		"points":     m,
		"dimensions": n,
		"clusters":   k,
	})

	centers, err := km.seed(data, k)
	if err != nil {
		return nil, err
	}
	logger.Debug("Initial centers selected", logging.Fields{
		"init_method": km.params.InitMethod,
		"centers":     common.ToRows(centers),
	})

	labels := make([]int, m)
	for i := range labels {
		labels[i] = Unassigned
	}
	acc := newAccumulator(k, n)

	state := Running
	iterations := 0
	emptyEvents := 0
	for state == Running {
		iterations++
		changed, err := assign(ctx, data, centers, labels, acc, km.params.Workers)
		if err != nil {
			logger.Warn("Clustering cancelled", logging.Fields{
				"iteration": iterations,
			})
			return nil, err
		}
		out := update(data, centers, labels, acc, policy)

		if len(out.empty) > 0 {
			emptyEvents += len(out.empty)
			logger.Warn("Empty clusters during update", logging.Fields{
				"iteration": iterations,
				"empty":     out.empty,
				"policy":    policy,
				"reseeded":  out.reseeded,
			})
		}

		if km.observer != nil {
			km.observer(IterationStats{
				Iteration: iterations,
				Centers:   mat.DenseCopyOf(centers),
				Sizes:     append([]int(nil), acc.counts...),
				Changed:   changed,
				Empty:     out.empty,
			})
		}

		switch {
		case !changed && !out.reseeded:
			state = Converged
		case iterations >= maxIter:
			state = MaxItersReached
		}
	}

	ranked, sizes, relabeled, order := rank(centers, acc.counts, labels)
	result := &Result{
		Centers:     ranked,
		Sizes:       sizes,
		Labels:      relabeled,
		State:       state,
		Iterations:  iterations,
		EmptyEvents: emptyEvents,
		Order:       order,
	}
	result.Clusters = buildClusters(data, relabeled, ranked, sizes)
	result.Inertia = calculateInertia(data, relabeled, ranked)

	if state == MaxItersReached {
		logger.Warn("Iteration ceiling reached before assignments stabilised", logging.Fields{
			"max_iterations": maxIter,
		})
	}
	logger.Info("Clustering completed", logging.Fields{
		"state":      state.String(),
		"iterations": iterations,
		"sizes":      sizes,
		"inertia":    result.Inertia,
	})

	return result, nil
}

func (km *KMeans) seed(data *mat.Dense, k int) (*mat.Dense, error) {
	switch km.params.InitMethod {
	case InitPoints, "":
		centers, _, err := SeedPoints(data, k, km.src)
		return centers, err
	case InitRange:
		return SeedRange(data, k, km.src)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInitMethod, km.params.InitMethod)
	}
}

// Cluster runs k-means with default settings and returns the number of
// clusters produced together with the ranked centers. On failure it returns
// 0 and the error.
func Cluster(data *mat.Dense, k int, src Source) (int, *mat.Dense, error) {
	params := DefaultParams()
	params.NumClusters = k

	result, err := NewKMeansWithParams(params, src).Fit(data)
	if err != nil {
		return 0, nil, err
	}
	return result.NumClusters(), result.Centers, nil
}

// buildClusters constructs cluster summaries from labels and centers
func buildClusters(data *mat.Dense, labels []int, centers *mat.Dense, sizes []int) []ClusterSummary {
	k, _ := centers.Dims()
	clusters := make([]ClusterSummary, k)

	for c := range clusters {
		clusters[c].ID = c
		clusters[c].Center = mat.Row(nil, c, centers)
		clusters[c].Size = sizes[c]
	}

	for i, c := range labels {
		d := sqDist(data.RawRowView(i), centers.RawRowView(c))
		clusters[c].Variance += d
		if r := math.Sqrt(d); r > clusters[c].Radius {
			clusters[c].Radius = r
		}
	}

	for c := range clusters {
		if clusters[c].Size > 0 {
			clusters[c].Variance /= float64(clusters[c].Size)
		}
	}

	return clusters
}

// calculateInertia computes total within-cluster sum of squares
func calculateInertia(data *mat.Dense, labels []int, centers *mat.Dense) float64 {
	inertia := 0.0
	for i, c := range labels {
		inertia += sqDist(data.RawRowView(i), centers.RawRowView(c))
	}
	return inertia
}
