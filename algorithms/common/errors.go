package common

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a matrix or vector has no elements.
	ErrEmptyInput = errors.New("empty input")

	// ErrDimensionMismatch is the sentinel matched by DimensionMismatchError.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// DimensionMismatchError reports a vector whose length differs from the
// expected dimensionality. Row is -1 when the vector is not a matrix row.
type DimensionMismatchError struct {
	Expected int
	Actual   int
	Row      int
}

func (e *DimensionMismatchError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("dimension mismatch at row %d: expected %d, got %d", e.Row, e.Expected, e.Actual)
	}
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrDimensionMismatch) hold.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
