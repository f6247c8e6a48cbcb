// Package cluster implements k-means clustering of dense training matrices.
//
// Centers are seeded from distinct training rows drawn uniformly at random
// (or uniformly inside the data's bounding box), refined with Lloyd
// iterations until no point changes cluster or the iteration ceiling is
// reached, and finally ranked by descending population with a stable sort
// so that equal-sized clusters keep their relative order.
//
// Distances are squared Euclidean throughout.
//
// References:
//   - MacQueen, J. (1967). "Some methods for classification and analysis of
//     multivariate observations"
//   - Lloyd, S. P. (1982). "Least squares quantization in PCM"
package cluster
