// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/tt/internal/storage"
	"github.com/born-ml/tt/internal/tensor"
)

// Type aliases for public API

// Element is the constraint for tensor element types.
type Element = tensor.Element

// DType is the runtime identity of an element type.
type DType = tensor.DType

// Element type constants.
const (
	Float32    DType = tensor.Float32
	Float64    DType = tensor.Float64
	BFloat16   DType = tensor.BFloat16
	Float16    DType = tensor.Float16
	Uint8      DType = tensor.Uint8
	Int8       DType = tensor.Int8
	Int16      DType = tensor.Int16
	Int32      DType = tensor.Int32
	Int64      DType = tensor.Int64
	Bool       DType = tensor.Bool
	Complex64  DType = tensor.Complex64
	Complex128 DType = tensor.Complex128
)

// Index is the unsigned index and size type.
type Index = tensor.Index

// DynamicExtent marks a dimension whose size is only known at run time.
const DynamicExtent = tensor.DynamicExtent

// Extents is a tensor's logical shape.
// Example: Dims(2, 3, 4) is a 2×3×4 shape with every dimension dynamic.
type Extents = tensor.Extents

// Shared is an owning storage handle.
type Shared[T any] = storage.Shared[T]

// Weak is a non-owning storage handle.
type Weak[T any] = storage.Weak[T]

// Tensor is a view of storage through a layout mapping and an accessor.
//
// T is the element type, M the layout mapping, H the data handle and A the
// accessor policy for H. Most code uses the SharedTensor and WeakTensor
// shorthands.
type Tensor[T Element, M Mapping[M], H any, A Accessor[T, H]] = tensor.Tensor[T, M, H, A]

// SharedTensor is a Tensor that owns a reference to its storage.
type SharedTensor[T Element, M Mapping[M]] = tensor.SharedTensor[T, M]

// WeakTensor is a Tensor that observes storage owned elsewhere.
type WeakTensor[T Element, M Mapping[M]] = tensor.WeakTensor[T, M]

// Accessor turns a handle and an offset into an element reference.
type Accessor[T any, H any] = tensor.Accessor[T, H]

// ContractError describes a violated precondition.
type ContractError = tensor.ContractError

// Contract violation causes, for use with errors.Is.
var (
	ErrRank     = tensor.ErrRank
	ErrArity    = tensor.ErrArity
	ErrIndex    = tensor.ErrIndex
	ErrSpanSize = tensor.ErrSpanSize
	ErrTile     = tensor.ErrTile
	ErrStrides  = tensor.ErrStrides
	ErrExpired  = tensor.ErrExpired
)

// Recover converts a contract-violation panic into an error in *errp.
// Use it in a deferred call.
func Recover(errp *error) {
	tensor.Recover(errp)
}

// Dims returns extents with every dimension dynamic.
func Dims(sizes ...Index) Extents {
	return tensor.Dims(sizes...)
}

// NewExtents builds extents from a static description; DynamicExtent
// slots take their sizes from dynamic, in order.
func NewExtents(static []Index, dynamic ...Index) Extents {
	return tensor.NewExtents(static, dynamic...)
}

// DTypeOf returns the DType of T.
func DTypeOf[T Element]() DType {
	return tensor.DTypeOf[T]()
}

// ParseDType parses a dtype name such as "bfloat16" or "bf16".
func ParseDType(s string) (DType, error) {
	return tensor.ParseDType(s)
}

// Storage

// Make allocates n zero elements with one owner.
func Make[T any](n int) Shared[T] {
	return storage.Make[T](n)
}

// MakeFilled allocates n elements set to value.
func MakeFilled[T any](n int, value T) Shared[T] {
	return storage.MakeFilled(n, value)
}

// Wrap adopts data as storage with one owner. No copy is made.
func Wrap[T any](data []T) Shared[T] {
	return storage.Wrap(data)
}

// Creation functions

// NewShared creates a tensor over an owning handle.
// Panics if the handle holds fewer elements than the mapping needs.
//
// Example:
//
//	m := tensor.NewTiled(tensor.Dims(3, 5, 7))
//	x := tensor.NewShared(tensor.Make[float32](int(m.RequiredSpanSize())), m)
func NewShared[T Element, M Mapping[M]](h Shared[T], m M) SharedTensor[T, M] {
	return tensor.NewShared(h, m)
}

// NewWeak creates a tensor over a non-owning handle.
func NewWeak[T Element, M Mapping[M]](h Weak[T], m M) WeakTensor[T, M] {
	return tensor.NewWeak(h, m)
}

// FromSlice creates a row-major tensor that adopts data.
//
// Example:
//
//	x := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
func FromSlice[T Element](data []T, sizes ...Index) SharedTensor[T, RowMajorMapping] {
	return tensor.NewRowMajorFrom(storage.Wrap(data), sizes...)
}

// Zeros creates a zero-filled row-major tensor.
//
// Example:
//
//	x := tensor.Zeros[float32](tensor.Dims(2, 3))
func Zeros[T Element](e Extents) SharedTensor[T, RowMajorMapping] {
	return tensor.Zeros[T](e)
}

// Full creates a row-major tensor filled with value.
func Full[T Element](e Extents, value T) SharedTensor[T, RowMajorMapping] {
	return tensor.Full(e, value)
}

// Arange creates a row-major tensor over e holding start, start+1, ...
//
// Example:
//
//	x := tensor.Arange[bfloat16.BFloat16](tensor.Dims(3, 5, 7), 1) // 1..105
func Arange[T Element](e Extents, start float64) SharedTensor[T, RowMajorMapping] {
	return tensor.Arange[T](e, start)
}

// Eye creates an n x n identity matrix.
func Eye[T Element](n Index) SharedTensor[T, RowMajorMapping] {
	return tensor.Eye[T](n)
}

// FormatTensor renders t with every element formatted by elem, e.g. "%.2f".
// Tensors also implement fmt.Formatter and fmt.Stringer directly.
func FormatTensor[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A], elem string) string {
	return tensor.FormatTensor(t, elem)
}

// Views

// Reshape reinterprets t under new extents without copying.
func Reshape[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A], e Extents) Tensor[T, M, H, A] {
	return tensor.Reshape(t, e)
}

// CheckReshape reports whether Reshape(t, e) would succeed.
func CheckReshape[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A], e Extents) error {
	return tensor.CheckReshape(t, e)
}

// ToLayout copies t into new storage laid out by build(t.Extents()).
func ToLayout[N Mapping[N], T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A], build func(Extents) N) SharedTensor[T, N] {
	return tensor.ToLayout(t, build)
}

// ToRowMajor copies t into row-major storage.
func ToRowMajor[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A]) SharedTensor[T, RowMajorMapping] {
	return tensor.ToRowMajor(t)
}

// ToTiled copies t into tiled storage with 4x4 tiles.
func ToTiled[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A]) SharedTensor[T, TiledMapping] {
	return tensor.ToTiled(t)
}

// ToTiledWith copies t into tiled storage with tileH x tileW tiles.
func ToTiledWith[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A], tileH, tileW Index) SharedTensor[T, TiledMapping] {
	return tensor.ToTiledWith(t, tileH, tileW)
}

// ToStrided copies t into contiguous strided storage.
func ToStrided[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A]) SharedTensor[T, StridedMapping] {
	return tensor.ToStrided(t)
}

// Ownership

// Downgrade returns a weak view of t's storage.
func Downgrade[T Element, M Mapping[M]](t SharedTensor[T, M]) WeakTensor[T, M] {
	return tensor.Weak(t)
}

// Lock upgrades a weak view. It reports false once the storage is gone.
func Lock[T Element, M Mapping[M]](t WeakTensor[T, M]) (SharedTensor[T, M], bool) {
	return tensor.LockTensor(t)
}

// Release drops t's storage reference.
func Release[T Element, M Mapping[M]](t SharedTensor[T, M]) {
	tensor.Release(t)
}
