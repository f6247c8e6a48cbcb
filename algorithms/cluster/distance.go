package cluster

// SquaredEuclidean returns the sum of squared element-wise differences
// between a and b. Both vectors must have the same length.
func SquaredEuclidean(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Expected: len(a), Actual: len(b), Row: -1}
	}
	return sqDist(a, b), nil
}

// sqDist is the unchecked form used once dimensions are known to agree.
func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
