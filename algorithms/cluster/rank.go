package cluster

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// rankedCluster pairs a center's row index with its final population.
type rankedCluster struct {
	index int
	size  int
}

// rank orders clusters by descending population. The sort is stable, so
// clusters of equal size keep their pre-sort order. It returns the permuted
// centers and sizes, labels rewritten to the new indices, and the
// permutation itself (order[new] = old).
func rank(centers *mat.Dense, counts []int, labels []int) (*mat.Dense, []int, []int, []int) {
	k, n := centers.Dims()

	records := make([]rankedCluster, k)
	for c := range k {
		records[c] = rankedCluster{index: c, size: counts[c]}
	}
	slices.SortStableFunc(records, func(a, b rankedCluster) int {
		return cmp.Compare(b.size, a.size)
	})

	ranked := mat.NewDense(k, n, nil)
	sizes := make([]int, k)
	order := make([]int, k)
	remap := make([]int, k)
	for pos, rec := range records {
		ranked.SetRow(pos, centers.RawRowView(rec.index))
		sizes[pos] = rec.size
		order[pos] = rec.index
		remap[rec.index] = pos
	}

	relabeled := make([]int, len(labels))
	for i, c := range labels {
		relabeled[i] = remap[c]
	}
	return ranked, sizes, relabeled, order
}
