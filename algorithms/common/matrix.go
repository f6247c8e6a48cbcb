package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix helpers shared by the reduction and clustering stages. Training
// data is always a row-major *mat.Dense: one row per training vector.

// FromRows copies a slice of equal-length vectors into a dense matrix.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyInput
	}

	dim := len(rows[0])
	data := make([]float64, 0, len(rows)*dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, &DimensionMismatchError{Expected: dim, Actual: len(row), Row: i}
		}
		data = append(data, row...)
	}

	return mat.NewDense(len(rows), dim, data), nil
}

// ToRows copies a matrix into freshly allocated row slices.
func ToRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range r {
		rows[i] = mat.Row(make([]float64, c), i, m)
	}
	return rows
}

// IsEmpty reports whether m is nil or has a zero dimension.
func IsEmpty(m *mat.Dense) bool {
	if m == nil || m.IsEmpty() {
		return true
	}
	r, c := m.Dims()
	return r == 0 || c == 0
}

// ColumnMeans returns the arithmetic mean of every column.
func ColumnMeans(m mat.Matrix) []float64 {
	r, c := m.Dims()
	means := make([]float64, c)
	col := make([]float64, r)
	for j := range c {
		mat.Col(col, j, m)
		means[j] = Mean(col)
	}
	return means
}

// CenterColumns returns a copy of m with each column's mean subtracted,
// together with the means that were removed.
func CenterColumns(m *mat.Dense) (*mat.Dense, []float64) {
	means := ColumnMeans(m)
	centered := mat.DenseCopyOf(m)
	r, _ := centered.Dims()
	for i := range r {
		floats.Sub(centered.RawRowView(i), means)
	}
	return centered, means
}

// AddToRows adds v to every row of m in place.
func AddToRows(m *mat.Dense, v []float64) {
	r, _ := m.Dims()
	for i := range r {
		floats.Add(m.RawRowView(i), v)
	}
}

// ColumnRanges returns the per-column minimum and maximum of m.
func ColumnRanges(m mat.Matrix) (mins, maxs []float64) {
	r, c := m.Dims()
	mins = make([]float64, c)
	maxs = make([]float64, c)
	col := make([]float64, r)
	for j := range c {
		mat.Col(col, j, m)
		mins[j] = floats.Min(col)
		maxs[j] = floats.Max(col)
	}
	return mins, maxs
}

// AllFinite reports whether every element of m is neither NaN nor ±Inf.
func AllFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := range r {
		for j := range c {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
