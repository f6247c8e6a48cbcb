package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-cluster/algorithms/cluster"
	"github.com/RyanBlaney/sonido-cluster/algorithms/svd"
)

// Summary is the JSON diagnostics document for a run.
type Summary struct {
	Rows           int             `json:"rows"`
	Columns        int             `json:"columns"`
	Reduction      svd.Config      `json:"reduction"`
	SingularValues []float64       `json:"singular_values,omitempty"`
	NumClusters    int             `json:"num_clusters"`
	State          cluster.State   `json:"state"`
	Iterations     int             `json:"iterations"`
	Inertia        float64         `json:"inertia"`
	EmptyEvents    int             `json:"empty_events"`
	Clusters       []ClusterReport `json:"clusters"`
}

// ClusterReport describes one ranked cluster. Variance and Radius are
// measured in the clustered (reduced) coordinates; Center is in the original
// space. SeedIndex is the cluster's position before ranking.
type ClusterReport struct {
	ID        int       `json:"id"`
	SeedIndex int       `json:"seed_index"`
	Size      int       `json:"size"`
	Variance  float64   `json:"variance"`
	Radius    float64   `json:"radius"`
	Center    []float64 `json:"center"`
}

// Summary builds the diagnostics document for o.
func (o *Output) Summary() Summary {
	res := o.Result
	reports := make([]ClusterReport, len(res.Clusters))
	for i, c := range res.Clusters {
		reports[i] = ClusterReport{
			ID:        c.ID,
			SeedIndex: res.Order[i],
			Size:      c.Size,
			Variance:  c.Variance,
			Radius:    c.Radius,
			Center:    mat.Row(nil, i, o.Centers),
		}
	}

	return Summary{
		Rows:           o.Rows,
		Columns:        o.Columns,
		Reduction:      o.Reduction,
		SingularValues: o.SingularValues,
		NumClusters:    res.NumClusters(),
		State:          res.State,
		Iterations:     res.Iterations,
		Inertia:        res.Inertia,
		EmptyEvents:    res.EmptyEvents,
		Clusters:       reports,
	}
}
