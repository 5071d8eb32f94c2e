package tensor

import (
	"github.com/born-ml/tt/internal/storage"
)

// Tensor is an immutable view: a data handle, the layout mapping that turns
// index tuples into offsets, and the accessor policy that turns offsets into
// element references. It owns no storage itself; lifetime is a property of
// the handle.
//
// Type Parameters:
//   - T: element type
//   - M: layout mapping (RowMajorMapping, StridedMapping, TiledMapping)
//   - H: data handle (storage.Shared[T] or storage.Weak[T])
//   - A: accessor policy for H
//
// Example:
//
//	m := tensor.NewTiled(tensor.Dims(3, 5, 7))
//	t := tensor.NewShared(storage.Make[float32](int(m.RequiredSpanSize())), m)
//	t.Set(1.5, 2, 4, 6)
type Tensor[T Element, M Mapping[M], H any, A Accessor[T, H]] struct {
	handle   H
	mapping  M
	accessor A
}

// New creates a Tensor from a handle, a mapping and an accessor.
// Panics with ErrSpanSize if the handle is shorter than the mapping's
// required span, and with ErrExpired if h is a storage.Weak[T] whose storage
// is gone. Handles of other types that have no Len method are not checked.
func New[T Element, M Mapping[M], H any, A Accessor[T, H]](h H, m M, a A) Tensor[T, M, H, A] {
	switch hv := any(h).(type) {
	case storage.Weak[T]:
		s, ok := hv.Lock()
		if !ok {
			violate("new", ErrExpired, "weak handle outlived its storage")
		}
		defer s.Release()
		checkSpan(s.Len(), m.RequiredSpanSize())
	case interface{ Len() int }:
		checkSpan(hv.Len(), m.RequiredSpanSize())
	}
	return Tensor[T, M, H, A]{handle: h, mapping: m, accessor: a}
}

func checkSpan(n int, span Index) {
	if Index(n) < span {
		violate("new", ErrSpanSize, "storage holds %d elements, mapping needs %d", n, span)
	}
}

// NewShared creates a Tensor over an owning handle.
func NewShared[T Element, M Mapping[M]](h storage.Shared[T], m M) Tensor[T, M, storage.Shared[T], SharedAccessor[T]] {
	return New(h, m, SharedAccessor[T]{})
}

// NewWeak creates a Tensor over a non-owning handle. Panics with ErrExpired
// if the handle has already expired.
func NewWeak[T Element, M Mapping[M]](h storage.Weak[T], m M) Tensor[T, M, storage.Weak[T], WeakAccessor[T]] {
	return New(h, m, WeakAccessor[T]{})
}

// NewRowMajorFrom creates a row-major Tensor with dynamic extents sizes.
func NewRowMajorFrom[T Element](h storage.Shared[T], sizes ...Index) Tensor[T, RowMajorMapping, storage.Shared[T], SharedAccessor[T]] {
	return NewShared(h, NewRowMajor(Dims(sizes...)))
}

// Extents returns the logical shape.
func (t Tensor[T, M, H, A]) Extents() Extents {
	return t.mapping.Extents()
}

// Mapping returns the layout mapping.
func (t Tensor[T, M, H, A]) Mapping() M {
	return t.mapping
}

// Accessor returns the accessor policy.
func (t Tensor[T, M, H, A]) Accessor() A {
	return t.accessor
}

// DataHandle returns the data handle.
func (t Tensor[T, M, H, A]) DataHandle() H {
	return t.handle
}

// Rank returns the number of dimensions.
func (t Tensor[T, M, H, A]) Rank() int {
	return t.mapping.Extents().Rank()
}

// Extent returns the size of dimension i.
func (t Tensor[T, M, H, A]) Extent(i int) Index {
	return t.mapping.Extents().Extent(i)
}

// Size returns the number of logical elements.
func (t Tensor[T, M, H, A]) Size() Index {
	return t.mapping.Extents().Size()
}

// Stride returns the mapping's stride along dimension r.
func (t Tensor[T, M, H, A]) Stride(r int) Index {
	return t.mapping.Stride(r)
}

// Layout returns the layout family.
func (t Tensor[T, M, H, A]) Layout() LayoutKind {
	return t.mapping.Layout()
}

// DType returns the runtime element type.
func (t Tensor[T, M, H, A]) DType() DType {
	return DTypeOf[T]()
}

// RankName returns the rank's registration name, e.g. "Matrix".
func (t Tensor[T, M, H, A]) RankName() string {
	return RankName(t.Rank())
}

// TypeName returns the registration name "<layout>.<dtype>.<rank>",
// e.g. "Tiled.BFloat16.Tensor3D".
func (t Tensor[T, M, H, A]) TypeName() string {
	return t.Layout().String() + "." + t.DType().Name() + "." + t.RankName()
}

// AccessorName returns the accessor policy name.
func (t Tensor[T, M, H, A]) AccessorName() string {
	return t.accessor.Name()
}

// Ref returns a reference to the element at idx.
// Panics if the number of indices is wrong or an index is out of range.
//
// Example:
//
//	*t.Ref(1, 2) += 3
func (t Tensor[T, M, H, A]) Ref(idx ...Index) *T {
	e := t.mapping.Extents()
	checkArity("index", e, idx)
	for i, x := range idx {
		if x >= e.exts[i] {
			violate("index", ErrIndex, "index %d out of bounds for dimension %d (size %d)", x, i, e.exts[i])
		}
	}
	return t.ref(idx)
}

// ref skips bounds checks; idx must be valid.
func (t Tensor[T, M, H, A]) ref(idx []Index) *T {
	return t.accessor.Access(t.handle, t.mapping.Offset(idx...))
}

// At returns the element at idx.
func (t Tensor[T, M, H, A]) At(idx ...Index) T {
	return *t.Ref(idx...)
}

// Set stores value at idx.
func (t Tensor[T, M, H, A]) Set(value T, idx ...Index) {
	*t.Ref(idx...) = value
}
