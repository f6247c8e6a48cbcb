package cluster

import (
	"context"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"golang.org/x/sync/errgroup"
)

// Unassigned marks a point that has not been through an assignment pass.
const Unassigned = -1

// minPointsPerWorker keeps tiny inputs on the serial path.
const minPointsPerWorker = 256

// accumulator holds the per-cluster coordinate sums and populations of one
// assignment pass. It is rebuilt from zero every pass.
type accumulator struct {
	sums   *mat.Dense // k×n
	counts []int
}

func newAccumulator(k, n int) *accumulator {
	return &accumulator{
		sums:   mat.NewDense(k, n, nil),
		counts: make([]int, k),
	}
}

func (a *accumulator) reset() {
	a.sums.Zero()
	clear(a.counts)
}

// nearest returns the index of the closest center to point. Ties keep the
// lowest index: a later center must be strictly closer to win.
func nearest(point []float64, centers *mat.Dense) (int, float64) {
	k, _ := centers.Dims()
	best := 0
	bestDist := sqDist(point, centers.RawRowView(0))
	for j := 1; j < k; j++ {
		d := sqDist(point, centers.RawRowView(j))
		if d < bestDist {
			bestDist = d
			best = j
		}
	}
	return best, bestDist
}

// assign labels every row of data with its nearest center and accumulates
// sums and counts into acc. It reports whether any label changed. A
// cancelled ctx aborts the pass; labels and acc are then unusable.
func assign(ctx context.Context, data, centers *mat.Dense, labels []int, acc *accumulator, workers int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	acc.reset()
	m, _ := data.Dims()
	if workers <= 1 || m < workers*minPointsPerWorker {
		return assignRange(data, centers, labels, 0, m, acc), nil
	}
	return assignParallel(ctx, data, centers, labels, acc, workers)
}

func assignRange(data, centers *mat.Dense, labels []int, start, end int, acc *accumulator) bool {
	changed := false
	for i := start; i < end; i++ {
		point := data.RawRowView(i)
		c, _ := nearest(point, centers)
		if labels[i] != c {
			changed = true
		}
		labels[i] = c
		floats.Add(acc.sums.RawRowView(c), point)
		acc.counts[c]++
	}
	return changed
}

// assignParallel splits the rows into contiguous chunks. Each worker writes
// only its own label slots and its own partial accumulator; partials are
// merged serially in chunk order so the result depends only on the worker
// count, not on scheduling.
func assignParallel(ctx context.Context, data, centers *mat.Dense, labels []int, acc *accumulator, workers int) (bool, error) {
	m, n := data.Dims()
	k, _ := centers.Dims()
	chunk := (m + workers - 1) / workers

	partials := make([]*accumulator, workers)
	changed := make([]bool, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for w := range workers {
		start := w * chunk
		end := min(start+chunk, m)
		if start >= end {
			continue
		}
		partials[w] = newAccumulator(k, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			changed[w] = assignRange(data, centers, labels, start, end, partials[w])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	anyChanged := false
	for w, part := range partials {
		if part == nil {
			continue
		}
		acc.sums.Add(acc.sums, part.sums)
		for c, cnt := range part.counts {
			acc.counts[c] += cnt
		}
		anyChanged = anyChanged || changed[w]
	}
	return anyChanged, nil
}
