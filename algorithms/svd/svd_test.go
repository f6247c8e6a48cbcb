package svd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-cluster/algorithms/common"
	"github.com/RyanBlaney/sonido-cluster/logging"
)

func sample() *mat.Dense {
	return mat.NewDense(5, 3, []float64{
		2, 0, 1,
		4, 1, 3,
		1, 5, 2,
		0, 2, 7,
		3, 3, 3,
	})
}

func quietReducer(cfg Config) *Reducer {
	r := NewReducer(cfg)
	r.SetLogger(&logging.NoOpLogger{})
	return r
}

func TestDecompose_Reconstructs(t *testing.T) {
	a := sample()
	dec, err := Decompose(a)
	require.NoError(t, err)

	require.Len(t, dec.Values, 3)
	assert.True(t, sortedDescending(dec.Values))

	ur, uc := dec.U.Dims()
	assert.Equal(t, 5, ur)
	assert.Equal(t, 3, uc)
	vr, vc := dec.V.Dims()
	assert.Equal(t, 3, vr)
	assert.Equal(t, 3, vc)

	var us, rec mat.Dense
	us.Mul(dec.U, mat.NewDiagDense(3, dec.Values))
	rec.Mul(&us, dec.V.T())
	assert.True(t, mat.EqualApprox(a, &rec, 1e-10))
}

func TestDecompose_WideMatrixPadsValues(t *testing.T) {
	a := mat.NewDense(2, 4, []float64{
		1, 2, 3, 4,
		2, 1, 0, 1,
	})
	dec, err := Decompose(a)
	require.NoError(t, err)

	require.Len(t, dec.Values, 4)
	assert.Zero(t, dec.Values[2])
	assert.Zero(t, dec.Values[3])
	vr, vc := dec.V.Dims()
	assert.Equal(t, 4, vr)
	assert.Equal(t, 4, vc)
}

func TestReducer_FullRankRoundTrip(t *testing.T) {
	data := sample()

	for _, whiten := range []bool{false, true} {
		r := quietReducer(Config{Components: 3, Whiten: whiten, RestoreMean: true})
		coords, err := r.FitTransform(data)
		require.NoError(t, err)

		rows, cols := coords.Dims()
		assert.Equal(t, 5, rows)
		assert.Equal(t, 3, cols)

		back, err := r.InverseTransform(coords)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(data, back, 1e-9), "whiten=%v", whiten)
	}
}

func TestReducer_WhitenedCoordinatesAreOrthonormal(t *testing.T) {
	r := quietReducer(Config{Components: 2, Whiten: true})
	coords, err := r.FitTransform(sample())
	require.NoError(t, err)

	var gram mat.Dense
	gram.Mul(coords.T(), coords)
	assert.True(t, mat.EqualApprox(&gram, mat.NewDiagDense(2, []float64{1, 1}), 1e-10))
}

func TestReducer_ProjectionKeepsVariance(t *testing.T) {
	r := quietReducer(Config{Components: 2})
	coords, err := r.FitTransform(sample())
	require.NoError(t, err)

	// squared column norms of X·V equal the squared singular values
	values := r.SingularValues()
	for j := range 2 {
		col := mat.Col(nil, j, coords)
		assert.InDelta(t, values[j]*values[j], floats.Dot(col, col), 1e-9)
	}
}

func TestReducer_RankOneData(t *testing.T) {
	// every row lies on the line (1, 2, 3)·t + (5, 5, 5)
	data := mat.NewDense(4, 3, nil)
	for i, s := range []float64{-2, 0, 1, 4} {
		data.SetRow(i, []float64{5 + s, 5 + 2*s, 5 + 3*s})
	}

	r := quietReducer(Config{Components: 1, RestoreMean: true})
	coords, err := r.FitTransform(data)
	require.NoError(t, err)

	back, err := r.InverseTransform(coords)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(data, back, 1e-9))

	values := r.SingularValues()
	assert.InDelta(t, 0, values[1], 1e-9)
	assert.InDelta(t, 0, values[2], 1e-9)

	basis := r.Basis()
	require.NotNil(t, basis)
	dir := mat.Col(nil, 0, basis)
	assert.InDelta(t, 1, math.Abs(floats.Dot(dir, []float64{1, 2, 3}))/math.Sqrt(14), 1e-9)
}

func TestReducer_NoComponents(t *testing.T) {
	data := sample()

	r := quietReducer(Config{Components: 0, RestoreMean: false})
	coords, err := r.FitTransform(data)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0, 0, 0}, common.ColumnMeans(coords), 1e-12)
	assert.Nil(t, r.Basis())
	assert.Empty(t, r.SingularValues())
	assert.InDeltaSlice(t, []float64{2, 2.2, 3.2}, r.Means(), 1e-12)

	back, err := r.InverseTransform(coords)
	require.NoError(t, err)
	assert.True(t, mat.Equal(coords, back), "no mean restored")

	r = quietReducer(DefaultConfig())
	coords, err = r.FitTransform(data)
	require.NoError(t, err)
	back, err = r.InverseTransform(coords)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(data, back, 1e-12))
}

func TestReducer_Errors(t *testing.T) {
	data := sample()

	_, err := quietReducer(Config{Components: 4}).FitTransform(data)
	assert.ErrorIs(t, err, ErrInvalidComponents)

	_, err = quietReducer(Config{Components: -1}).FitTransform(data)
	assert.ErrorIs(t, err, ErrInvalidComponents)

	wide := mat.NewDense(2, 4, []float64{1, 2, 3, 4, 4, 3, 2, 1})
	_, err = quietReducer(Config{Components: 3, Whiten: true}).FitTransform(wide)
	assert.ErrorIs(t, err, ErrInvalidComponents)

	_, err = quietReducer(Config{Components: 1}).FitTransform(&mat.Dense{})
	assert.ErrorIs(t, err, common.ErrEmptyInput)

	r := quietReducer(Config{Components: 2})
	_, err = r.InverseTransform(mat.NewDense(1, 2, nil))
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = r.FitTransform(data)
	require.NoError(t, err)
	_, err = r.InverseTransform(mat.NewDense(1, 3, nil))
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
}

func sortedDescending(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] > v[i-1] {
			return false
		}
	}
	return true
}
