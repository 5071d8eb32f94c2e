// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/tt/internal/tensor"
)

// AsDense returns a gonum matrix sharing the storage of a row-major
// float64 matrix.
//
// Example:
//
//	a := tensor.Arange[float64](tensor.Dims(2, 3), 1)
//	var out mat.Dense
//	out.Mul(tensor.AsDense(a), tensor.AsDense(a).T())
func AsDense(t SharedTensor[float64, RowMajorMapping]) *mat.Dense {
	return tensor.AsDense(t)
}

// AsGeneral returns a BLAS view of a strided float64 matrix whose
// innermost stride is 1.
func AsGeneral(t SharedTensor[float64, StridedMapping]) blas64.General {
	return tensor.AsGeneral(t)
}

// FromDense wraps a gonum matrix's backing array without copying.
func FromDense(d *mat.Dense) SharedTensor[float64, StridedMapping] {
	return tensor.FromDense(d)
}
