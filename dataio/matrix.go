// Package dataio reads training matrices and writes cluster centers in the
// whitespace-separated text format used by cluster-svd.
//
// A matrix file starts with a "<rows> <columns>" header followed by
// rows*columns numbers in row-major order. Line breaks carry no meaning.
package dataio

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-cluster/algorithms/common"
)

// HeaderRow is the Row of a FormatError raised while reading the header.
const HeaderRow = -1

// ErrFormat matches every *FormatError.
var ErrFormat = errors.New("malformed matrix")

// FormatError reports malformed matrix text. Row is zero-based, or
// HeaderRow for the header.
type FormatError struct {
	Row    int
	Column int
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	var msg string
	if e.Row == HeaderRow {
		msg = "matrix header: " + e.Msg
	} else {
		msg = fmt.Sprintf("matrix row %d, column %d: %s", e.Row, e.Column, e.Msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// ReadMatrix parses a matrix. Content after the last declared value is
// ignored.
func ReadMatrix(r io.Reader) (*mat.Dense, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	rows, err := readDim(sc, "rows")
	if err != nil {
		return nil, err
	}
	cols, err := readDim(sc, "columns")
	if err != nil {
		return nil, err
	}

	data := make([]float64, rows*cols)
	for idx := range data {
		row, col := idx/cols, idx%cols
		if !sc.Scan() {
			return nil, &FormatError{Row: row, Column: col, Msg: "unexpected end of input", Err: sc.Err()}
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, &FormatError{Row: row, Column: col, Msg: fmt.Sprintf("invalid number %q", sc.Text()), Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &FormatError{Row: row, Column: col, Msg: fmt.Sprintf("non-finite value %q", sc.Text())}
		}
		data[idx] = v
	}

	return mat.NewDense(rows, cols, data), nil
}

func readDim(sc *bufio.Scanner, name string) (int, error) {
	if !sc.Scan() {
		return 0, &FormatError{Row: HeaderRow, Msg: "missing " + name, Err: sc.Err()}
	}
	v, err := strconv.Atoi(sc.Text())
	if err != nil {
		return 0, &FormatError{Row: HeaderRow, Msg: fmt.Sprintf("invalid %s %q", name, sc.Text()), Err: err}
	}
	if v <= 0 {
		return 0, &FormatError{Row: HeaderRow, Msg: fmt.Sprintf("%s must be positive, got %d", name, v)}
	}
	return v, nil
}

// ReadMatrixFile opens path and parses it with ReadMatrix.
func ReadMatrixFile(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open training file: %w", err)
	}
	defer f.Close()

	m, err := ReadMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteCenters writes a "<k> <n>" header followed by one line per center.
func WriteCenters(w io.Writer, centers mat.Matrix) error {
	if centers == nil {
		return common.ErrEmptyInput
	}
	k, n := centers.Dims()
	if k == 0 || n == 0 {
		return common.ErrEmptyInput
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", k, n)
	for i := range k {
		for j := range n {
			fmt.Fprintf(bw, "%16.8g", centers.At(i, j))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteCentersFile creates or truncates path and writes centers to it.
func WriteCentersFile(path string, centers mat.Matrix) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create centers file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close centers file: %w", cerr)
		}
	}()

	if err := WriteCenters(f, centers); err != nil {
		return fmt.Errorf("failed to write centers: %w", err)
	}
	return nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}
