package cluster

import (
	"errors"

	"github.com/RyanBlaney/sonido-cluster/algorithms/common"
)

var (
	// ErrEmptyInput is returned when the training matrix has no rows or columns.
	ErrEmptyInput = common.ErrEmptyInput

	// ErrDimensionMismatch matches every *DimensionMismatchError.
	ErrDimensionMismatch = common.ErrDimensionMismatch

	// ErrInvalidClusterCount is returned when k is not positive.
	ErrInvalidClusterCount = errors.New("cluster count must be positive")

	// ErrInsufficientData is returned when more clusters are requested than
	// there are training points.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnknownInitMethod is returned for an unsupported InitMethod.
	ErrUnknownInitMethod = errors.New("unknown init method")

	// ErrUnknownEmptyPolicy is returned for an unsupported EmptyPolicy.
	ErrUnknownEmptyPolicy = errors.New("unknown empty cluster policy")
)

// DimensionMismatchError reports a vector of the wrong length.
type DimensionMismatchError = common.DimensionMismatchError
