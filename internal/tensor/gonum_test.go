package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/tt/internal/storage"
)

func float64Matrix(rows, cols Index) SharedTensor[float64, RowMajorMapping] {
	buf := storage.Make[float64](int(rows * cols))
	for i, p := 0, buf.Slice(); i < len(p); i++ {
		p[i] = float64(i + 1)
	}
	return NewRowMajorFrom(buf, rows, cols)
}

func TestAsDenseShares(t *testing.T) {
	x := float64Matrix(2, 3)
	defer Release(x)

	d := AsDense(x)
	r, c := d.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 6.0, d.At(1, 2))

	d.Set(0, 1, -1)
	assert.Equal(t, -1.0, x.At(0, 1))

	x.Set(10, 1, 0)
	assert.Equal(t, 10.0, d.At(1, 0))
}

func TestAsDenseMul(t *testing.T) {
	a := float64Matrix(2, 3)
	defer Release(a)
	b := float64Matrix(3, 2)
	defer Release(b)

	var out mat.Dense
	out.Mul(AsDense(a), AsDense(b))
	want := mat.NewDense(2, 2, []float64{22, 28, 49, 64})
	assert.True(t, mat.Equal(want, &out))
}

func TestAsDenseContract(t *testing.T) {
	v := NewRowMajorFrom(storage.Make[float64](4), 4)
	defer Release(v)
	requireViolation(t, ErrRank, func() { AsDense(v) })

	e := NewRowMajorFrom(storage.Make[float64](0), 0, 3)
	requireViolation(t, ErrRank, func() { AsDense(e) })
}

func TestAsGeneralPadded(t *testing.T) {
	buf := storage.Make[float64](1 + 2*5 + 3)
	defer buf.Release()
	m := NewStrided(Dims(3, 3), []Index{5, 1}, 1)
	x := NewShared(buf, m)
	for idx := range x.Extents().Indices() {
		x.Set(float64(idx[0]*3+idx[1]), idx...)
	}

	g := AsGeneral(x)
	assert.Equal(t, 3, g.Rows)
	assert.Equal(t, 3, g.Cols)
	assert.Equal(t, 5, g.Stride)
	assert.Equal(t, 7.0, g.Data[2*g.Stride+1])

	// y = A * [1 1 1]
	y := blas64.Vector{N: 3, Inc: 1, Data: make([]float64, 3)}
	blas64.Gemv(blas.NoTrans, 1, g, blas64.Vector{N: 3, Inc: 1, Data: []float64{1, 1, 1}}, 0, y)
	assert.Equal(t, []float64{3, 12, 21}, y.Data)
}

func TestAsGeneralRejectsColumnStride(t *testing.T) {
	buf := storage.Make[float64](12)
	defer buf.Release()
	x := NewShared(buf, NewStrided(Dims(3, 4), []Index{1, 3}, 0))
	requireViolation(t, ErrStrides, func() { AsGeneral(x) })
}

func TestFromDense(t *testing.T) {
	d := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			d.Set(i, j, float64(i*4+j))
		}
	}
	sub := d.Slice(1, 3, 1, 4).(*mat.Dense)

	x := FromDense(sub)
	defer Release(x)
	require.True(t, x.Extents().Equal(Dims(2, 3)))
	assert.Equal(t, Index(4), x.Stride(0))
	assert.Equal(t, 5.0, x.At(0, 0))
	assert.Equal(t, 11.0, x.At(1, 2))
	assert.False(t, x.Mapping().IsExhaustive())

	x.Set(-5, 0, 0)
	assert.Equal(t, -5.0, d.At(1, 1))

	rm := ToRowMajor(x)
	defer Release(rm)
	assert.Equal(t, []float64{-5, 6, 7, 9, 10, 11}, rm.DataHandle().Slice())
}
