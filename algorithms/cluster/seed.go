package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-cluster/algorithms/common"
)

// InitMethod selects how initial centers are placed.
type InitMethod string

const (
	// InitPoints copies k distinct training rows chosen uniformly at random.
	InitPoints InitMethod = "points"
	// InitRange draws every coordinate uniformly within the column's
	// [min, max] over the training data.
	InitRange InitMethod = "range"
)

// Valid reports whether m names a supported method.
func (m InitMethod) Valid() bool {
	return m == InitPoints || m == InitRange
}

// maxDrawsPerSeed bounds rejection sampling. A usable source collides
// rarely; past the bound the next free index after the last draw is taken.
const maxDrawsPerSeed = 1000

// SeedPoints picks k distinct row indices of data by rejection sampling and
// returns the copied rows as a k×n matrix along with the chosen indices.
// Distinctness is by index: duplicate rows in data may still produce equal
// seeds.
func SeedPoints(data *mat.Dense, k int, src Source) (*mat.Dense, []int, error) {
	if common.IsEmpty(data) {
		return nil, nil, ErrEmptyInput
	}
	if k <= 0 {
		return nil, nil, ErrInvalidClusterCount
	}
	m, n := data.Dims()
	if k > m {
		return nil, nil, fmt.Errorf("%w: %d clusters requested from %d points", ErrInsufficientData, k, m)
	}

	taken := make(map[int]bool, k)
	indices := make([]int, 0, k)
	for len(indices) < k {
		idx := intn(src, m)
		for draws := 1; taken[idx]; draws++ {
			if draws >= maxDrawsPerSeed {
				idx = nextFree(taken, idx, m)
				break
			}
			idx = intn(src, m)
		}
		taken[idx] = true
		indices = append(indices, idx)
	}

	centers := mat.NewDense(k, n, nil)
	for i, idx := range indices {
		centers.SetRow(i, data.RawRowView(idx))
	}
	return centers, indices, nil
}

func nextFree(taken map[int]bool, from, m int) int {
	for off := 1; off < m; off++ {
		idx := (from + off) % m
		if !taken[idx] {
			return idx
		}
	}
	return from
}

// SeedRange draws k centers uniformly inside the bounding box of data.
// Coordinates are drawn center by center, column by column.
func SeedRange(data *mat.Dense, k int, src Source) (*mat.Dense, error) {
	if common.IsEmpty(data) {
		return nil, ErrEmptyInput
	}
	if k <= 0 {
		return nil, ErrInvalidClusterCount
	}
	m, n := data.Dims()
	if k > m {
		return nil, fmt.Errorf("%w: %d clusters requested from %d points", ErrInsufficientData, k, m)
	}

	mins, maxs := common.ColumnRanges(data)
	centers := mat.NewDense(k, n, nil)
	for i := range k {
		row := centers.RawRowView(i)
		for j := range n {
			row[j] = common.Lerp(mins[j], maxs[j], src.Float64())
		}
	}
	return centers, nil
}
