package tensor

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/tt/internal/storage"
)

// AsDense returns a gonum matrix sharing t's storage. Writes through either
// side are visible through the other. t must stay alive while the matrix
// is in use.
// Panics with ErrRank unless t is a non-empty matrix.
func AsDense(t SharedTensor[float64, RowMajorMapping]) *mat.Dense {
	rows, cols := matrixDims("dense", t.Extents())
	return mat.NewDense(rows, cols, t.handle.Slice()[:rows*cols])
}

// AsGeneral returns a BLAS view of a strided float64 matrix.
// Panics with ErrStrides if the innermost stride is not 1.
func AsGeneral(t SharedTensor[float64, StridedMapping]) blas64.General {
	rows, cols := matrixDims("general", t.Extents())
	m := t.mapping
	if cols > 1 && m.Stride(1) != 1 {
		violate("general", ErrStrides, "column stride %d, BLAS needs 1", m.Stride(1))
	}
	stride := max(int(m.Stride(0)), cols)
	data := t.handle.Slice()[m.Origin():m.RequiredSpanSize()]
	return blas64.General{Rows: rows, Cols: cols, Stride: stride, Data: data}
}

// FromDense wraps d's backing array as a strided tensor without copying.
// The tensor takes its own reference to the adopted slice; d keeps working.
func FromDense(d *mat.Dense) SharedTensor[float64, StridedMapping] {
	raw := d.RawMatrix()
	e := Dims(Index(raw.Rows), Index(raw.Cols))
	m := NewStrided(e, []Index{Index(raw.Stride), 1}, 0)
	data := raw.Data[:m.RequiredSpanSize()]
	return NewShared(storage.Wrap(data), m)
}

func matrixDims(op string, e Extents) (rows, cols int) {
	if e.Rank() != 2 {
		violate(op, ErrRank, "gonum needs a matrix, got rank %d", e.Rank())
	}
	rows, cols = int(e.exts[0]), int(e.exts[1])
	if rows == 0 || cols == 0 {
		violate(op, ErrRank, "gonum cannot represent an empty %v matrix", e)
	}
	return rows, cols
}
