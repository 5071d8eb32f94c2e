// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides shape-polymorphic tensor views over shared storage.
//
// # Overview
//
// A Tensor is the composition of three independent pieces:
//   - a data handle: an owning Shared or non-owning Weak reference to a buffer
//   - a layout mapping: how index tuples become linear offsets
//     (RowMajorMapping, StridedMapping, TiledMapping)
//   - an accessor: how offsets become element references through the handle
//
// Views never copy. Reshape reinterprets the same storage under new extents
// in the same layout family; ToLayout and its shortcuts copy into a fresh
// buffer with a different layout.
//
// # Basic Usage
//
//	import "github.com/born-ml/tt/tensor"
//
//	func main() {
//	    x := tensor.Arange[float32](tensor.Dims(3, 5, 7), 1)
//	    defer tensor.Release(x)
//
//	    tiled := tensor.ToTiled(x)      // 4x4 tiles, padded to 3x8x8
//	    defer tensor.Release(tiled)
//
//	    padded := tensor.Reshape(tiled, tensor.Dims(3, 8, 8))
//	    fmt.Printf("%3v\n", padded)
//	}
//
// # Supported Element Types
//
// float32, float64, bfloat16, float16, uint8, int8, int16, int32, int64,
// bool, complex64 and complex128.
//
// # Contract Violations
//
// Out-of-range indices, a wrong number of indices, reshaping beyond the
// available storage and touching released storage through a weak view are
// programming errors: they panic with a *ContractError. Use Recover at an
// API boundary to turn them into errors, or CheckReshape to pre-validate.
package tensor
