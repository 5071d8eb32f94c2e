package tensor

import (
	"fmt"

	"github.com/born-ml/tt/internal/storage"
)

// SharedTensor is a Tensor that owns a reference to its storage.
type SharedTensor[T Element, M Mapping[M]] = Tensor[T, M, storage.Shared[T], SharedAccessor[T]]

// WeakTensor is a Tensor that observes storage owned elsewhere.
type WeakTensor[T Element, M Mapping[M]] = Tensor[T, M, storage.Weak[T], WeakAccessor[T]]

// Reshape reinterprets t's storage under extents e, keeping the layout
// family and the data handle. No data is copied; writes through either
// view are visible through the other.
// Panics with ErrSpanSize if the reshaped mapping needs more storage than t's.
//
// Example:
//
//	padded := tensor.Reshape(tiled, tensor.Dims(3, 8, 8))
func Reshape[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A], e Extents) Tensor[T, M, H, A] {
	m := t.mapping.Remap(e)
	if m.RequiredSpanSize() > t.mapping.RequiredSpanSize() {
		violate("reshape", ErrSpanSize, "%v needs %d elements, source %v spans %d",
			e, m.RequiredSpanSize(), t.mapping.Extents(), t.mapping.RequiredSpanSize())
	}
	return Tensor[T, M, H, A]{handle: t.handle, mapping: m, accessor: t.accessor}
}

// CheckReshape reports whether Reshape(t, e) would succeed.
func CheckReshape[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A], e Extents) (err error) {
	defer Recover(&err)
	m := t.mapping.Remap(e)
	if need, have := m.RequiredSpanSize(), t.mapping.RequiredSpanSize(); need > have {
		return fmt.Errorf("reshape to %v: need %d elements, have %d: %w", e, need, have, ErrSpanSize)
	}
	return nil
}

// ToLayout copies t into freshly allocated storage laid out by the mapping
// build returns for t's extents. Elements are copied in outer-to-inner
// order; padding in a non-exhaustive target is zero.
// The result owns its storage; release its handle when done.
func ToLayout[N Mapping[N], T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A], build func(Extents) N) SharedTensor[T, N] {
	dst := build(t.Extents())

	var buf storage.Shared[T]
	if dst.IsExhaustive() {
		buf = storage.MakeForOverwrite[T](int(dst.RequiredSpanSize()))
	} else {
		buf = storage.Make[T](int(dst.RequiredSpanSize()))
	}
	out := NewShared(buf, dst)

	for idx := range t.Extents().Indices() {
		*out.ref(idx) = *t.ref(idx)
	}
	return out
}

// ToRowMajor copies t into row-major storage.
func ToRowMajor[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A]) SharedTensor[T, RowMajorMapping] {
	return ToLayout(t, NewRowMajor)
}

// ToTiled copies t into tiled storage with DefaultTileExtent tiles.
// Panics with ErrRank if t has fewer than two dimensions.
func ToTiled[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A]) SharedTensor[T, TiledMapping] {
	return ToLayout(t, NewTiled)
}

// ToTiledWith copies t into tiled storage with tileH x tileW tiles.
func ToTiledWith[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A], tileH, tileW Index) SharedTensor[T, TiledMapping] {
	return ToLayout(t, func(e Extents) TiledMapping { return NewTiledWith(e, tileH, tileW) })
}

// ToStrided copies t into contiguous strided storage.
func ToStrided[T Element, M Mapping[M], H any, A Accessor[T, H]](t Tensor[T, M, H, A]) SharedTensor[T, StridedMapping] {
	return ToLayout(t, ContiguousStrided)
}

// Weak returns a non-owning view of t's storage. The view does not keep the
// storage alive; element access panics with ErrExpired once every owner has
// released it.
func Weak[T Element, M Mapping[M]](t SharedTensor[T, M]) WeakTensor[T, M] {
	return WeakTensor[T, M]{handle: t.handle.Downgrade(), mapping: t.mapping}
}

// LockTensor upgrades a weak view to an owning one. It reports false if the
// storage has already been released. A successful lock must be balanced by
// Release on the result.
func LockTensor[T Element, M Mapping[M]](t WeakTensor[T, M]) (SharedTensor[T, M], bool) {
	h, ok := t.handle.Lock()
	if !ok {
		return SharedTensor[T, M]{}, false
	}
	return SharedTensor[T, M]{handle: h, mapping: t.mapping}, true
}

// Release drops the storage reference held by an owning tensor.
func Release[T Element, M Mapping[M]](t SharedTensor[T, M]) {
	t.handle.Release()
}
