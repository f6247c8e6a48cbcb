package cluster

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EmptyPolicy decides what happens to a center that attracted no points.
type EmptyPolicy string

const (
	// EmptyKeep leaves the center where it was for the iteration.
	EmptyKeep EmptyPolicy = "keep"
	// EmptyFarthest moves the center onto the point lying farthest from its
	// own center, taken only from clusters that hold at least two points.
	EmptyFarthest EmptyPolicy = "farthest"
)

// Valid reports whether p names a supported policy.
func (p EmptyPolicy) Valid() bool {
	return p == EmptyKeep || p == EmptyFarthest
}

// updateOutcome describes what the update step did besides averaging.
type updateOutcome struct {
	empty    []int // clusters with zero population this pass
	reseeded bool  // at least one empty center was moved
}

// update recomputes every populated center as the mean of its points.
// Empty clusters never divide by zero; they are handled per policy.
func update(data, centers *mat.Dense, labels []int, acc *accumulator, policy EmptyPolicy) updateOutcome {
	var out updateOutcome
	k, _ := centers.Dims()

	for c := range k {
		if acc.counts[c] == 0 {
			out.empty = append(out.empty, c)
			continue
		}
		row := centers.RawRowView(c)
		copy(row, acc.sums.RawRowView(c))
		floats.Scale(1/float64(acc.counts[c]), row)
	}

	if len(out.empty) == 0 || policy != EmptyFarthest {
		return out
	}

	// Donor bookkeeping is local; populations reported for this pass stay
	// as assigned.
	remaining := make([]int, k)
	copy(remaining, acc.counts)
	used := make(map[int]bool, len(out.empty))

	for _, c := range out.empty {
		donor := farthestPoint(data, centers, labels, remaining, used)
		if donor < 0 {
			continue
		}
		used[donor] = true
		remaining[labels[donor]]--
		centers.SetRow(c, data.RawRowView(donor))
		out.reseeded = true
	}
	return out
}

// farthestPoint returns the index of the point with the largest positive
// distance to its own center among clusters that can spare a point, or -1.
func farthestPoint(data, centers *mat.Dense, labels []int, remaining []int, used map[int]bool) int {
	best := -1
	bestDist := 0.0
	for i, c := range labels {
		if used[i] || remaining[c] < 2 {
			continue
		}
		d := sqDist(data.RawRowView(i), centers.RawRowView(c))
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
