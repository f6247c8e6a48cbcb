// Package svd reduces training matrices to their leading singular
// directions before clustering and maps reduced coordinates back afterwards.
package svd

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-cluster/algorithms/common"
	"github.com/RyanBlaney/sonido-cluster/logging"
)

var (
	// ErrInvalidComponents is returned when the requested number of
	// components cannot be taken from the data.
	ErrInvalidComponents = errors.New("invalid number of singular components")

	// ErrFactorization is returned when the decomposition does not converge.
	ErrFactorization = errors.New("singular value decomposition failed")

	// ErrNotFitted is returned by InverseTransform before FitTransform.
	ErrNotFitted = errors.New("reducer has not been fitted")
)

// Decomposition holds A = U·Σ·Vᵀ for an m×n matrix A.
type Decomposition struct {
	// Values are the singular values in descending order, padded with zeros
	// to length n when m < n.
	Values []float64
	// U is m×min(m,n); its columns are the left singular vectors.
	U *mat.Dense
	// V is n×n; its first min(m,n) columns are the right singular vectors.
	V *mat.Dense
}

// Decompose computes the thin-U, full-V singular value decomposition of a.
func Decompose(a mat.Matrix) (*Decomposition, error) {
	_, n := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThinU|mat.SVDFullV); !ok {
		return nil, ErrFactorization
	}

	values := make([]float64, n)
	copy(values, svd.Values(nil))

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	return &Decomposition{Values: values, U: &u, V: &v}, nil
}

// Config controls the reduction.
type Config struct {
	// Components is the number of leading singular directions kept. Zero
	// clusters the mean-centred data without any transformation.
	Components int `json:"components" yaml:"components"`

	// Whiten uses the left singular vectors U as coordinates, so every kept
	// direction has unit scale; back-projection then multiplies by the
	// singular values. Otherwise coordinates are the projections X·V.
	Whiten bool `json:"whiten" yaml:"whiten"`

	// RestoreMean adds the column means back when mapping centers to the
	// original space.
	RestoreMean bool `json:"restore_mean" yaml:"restore_mean"`
}

// DefaultConfig returns a configuration that clusters untransformed data
// and reports centers in the original coordinates.
func DefaultConfig() Config {
	return Config{
		Components:  0,
		Whiten:      false,
		RestoreMean: true,
	}
}

// Reducer centres data, projects it onto the leading singular directions
// and maps cluster centers back to the original space.
type Reducer struct {
	config Config
	logger logging.Logger

	fitted bool
	dims   int
	means  []float64
	values []float64  // all singular values, descending
	basis  *mat.Dense // n×Components, leading right singular vectors
}

// NewReducer creates a reducer with the given configuration.
func NewReducer(config Config) *Reducer {
	return &Reducer{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "svd_reducer",
		}),
	}
}

// SetLogger replaces the component logger.
func (r *Reducer) SetLogger(logger logging.Logger) {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	r.logger = logger
}

// FitTransform centres data, decomposes it and returns the m×Components
// reduced coordinates (m×n centred data when Components is zero). data is
// not modified.
func (r *Reducer) FitTransform(data *mat.Dense) (*mat.Dense, error) {
	if common.IsEmpty(data) {
		return nil, common.ErrEmptyInput
	}
	m, n := data.Dims()
	k := r.config.Components
	if k < 0 || k > n {
		return nil, fmt.Errorf("%w: %d requested for %d columns", ErrInvalidComponents, k, n)
	}
	if r.config.Whiten && k > min(m, n) {
		return nil, fmt.Errorf("%w: whitening needs at most %d components, got %d", ErrInvalidComponents, min(m, n), k)
	}

	centered, means := common.CenterColumns(data)
	r.means = means
	r.dims = n
	r.values = nil
	r.basis = nil

	if k == 0 {
		r.fitted = true
		r.logger.Debug("Using untransformed data", logging.Fields{
			"rows":    m,
			"columns": n,
		})
		return centered, nil
	}

	dec, err := Decompose(centered)
	if err != nil {
		return nil, err
	}
	r.values = dec.Values
	r.basis = mat.DenseCopyOf(dec.V.Slice(0, n, 0, k))
	r.fitted = true

	r.logger.Debug("Singular value decomposition completed", logging.Fields{
		"rows":            m,
		"columns":         n,
		"components":      k,
		"singular_values": dec.Values[:k],
	})

	if r.config.Whiten {
		return mat.DenseCopyOf(dec.U.Slice(0, m, 0, k)), nil
	}

	var coords mat.Dense
	coords.Mul(centered, r.basis)
	return &coords, nil
}

// InverseTransform maps reduced coordinates (one row per point or center)
// back to the original n-dimensional space.
func (r *Reducer) InverseTransform(coords *mat.Dense) (*mat.Dense, error) {
	if !r.fitted {
		return nil, ErrNotFitted
	}
	if common.IsEmpty(coords) {
		return nil, common.ErrEmptyInput
	}
	_, c := coords.Dims()
	want := r.config.Components
	if want == 0 {
		want = r.dims
	}
	if c != want {
		return nil, &common.DimensionMismatchError{Expected: want, Actual: c, Row: -1}
	}

	var out *mat.Dense
	if r.config.Components == 0 {
		out = mat.DenseCopyOf(coords)
	} else {
		scaled := coords
		if r.config.Whiten {
			scaled = new(mat.Dense)
			scaled.Apply(func(_, j int, v float64) float64 {
				return v * r.values[j]
			}, coords)
		}
		out = new(mat.Dense)
		out.Mul(scaled, r.basis.T())
	}

	if r.config.RestoreMean {
		common.AddToRows(out, r.means)
	}
	return out, nil
}

// Config returns the reducer's configuration.
func (r *Reducer) Config() Config {
	return r.config
}

// Means returns the column means removed by the last fit.
func (r *Reducer) Means() []float64 {
	return append([]float64(nil), r.means...)
}

// SingularValues returns all singular values of the last fit, descending.
// It is nil when Components is zero.
func (r *Reducer) SingularValues() []float64 {
	return append([]float64(nil), r.values...)
}

// Basis returns the n×Components matrix of kept right singular vectors.
// It is nil when Components is zero.
func (r *Reducer) Basis() mat.Matrix {
	if r.basis == nil {
		return nil
	}
	return r.basis
}
