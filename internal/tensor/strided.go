package tensor

import (
	"slices"
)

// StridedMapping is an affine layout: offset = origin + sum(idx[k] * stride[k]).
// Strides are arbitrary but must admit an ordering in which no two
// dimensions overlap, so the mapping is always unique.
type StridedMapping struct {
	exts    Extents
	strides [MaxRank]Index
	origin  Index
}

// NewStrided returns a strided mapping over e. Panics if len(strides) does
// not match the rank or if the strides would map two index tuples onto the
// same offset.
func NewStrided(e Extents, strides []Index, origin Index) StridedMapping {
	if len(strides) != e.rank {
		violate("strided", ErrArity, "%d strides for rank %d", len(strides), e.rank)
	}
	m := StridedMapping{exts: e, origin: origin}
	copy(m.strides[:], strides)
	if !m.nonOverlapping() {
		violate("strided", ErrStrides, "extents %v strides %v", e, strides)
	}
	return m
}

// ContiguousStrided returns a strided mapping with row-major strides and no
// origin offset. It addresses the same offsets as NewRowMajor(e).
func ContiguousStrided(e Extents) StridedMapping {
	return StridedMapping{exts: e, strides: rowMajorStrides(e)}
}

// nonOverlapping checks that some permutation of the dimensions with more
// than one element satisfies stride[p(i)] >= stride[p(i-1)] * extent[p(i-1)].
func (m StridedMapping) nonOverlapping() bool {
	dims := make([]int, 0, m.exts.rank)
	for i := 0; i < m.exts.rank; i++ {
		if m.exts.exts[i] > 1 {
			dims = append(dims, i)
		}
	}
	slices.SortFunc(dims, func(a, b int) int {
		switch {
		case m.strides[a] < m.strides[b]:
			return -1
		case m.strides[a] > m.strides[b]:
			return 1
		default:
			return a - b
		}
	})
	for k, d := range dims {
		if k == 0 {
			if m.strides[d] == 0 {
				return false
			}
			continue
		}
		prev := dims[k-1]
		if m.strides[d] < m.strides[prev]*m.exts.exts[prev] {
			return false
		}
	}
	return true
}

// Extents returns the mapped shape.
func (m StridedMapping) Extents() Extents { return m.exts }

// Origin returns the offset of the all-zero index tuple.
func (m StridedMapping) Origin() Index { return m.origin }

// Offset returns origin + sum(idx[k] * stride[k]).
func (m StridedMapping) Offset(idx ...Index) Index {
	checkArity("offset", m.exts, idx)
	off := m.origin
	for i, x := range idx {
		off += x * m.strides[i]
	}
	return off
}

// RequiredSpanSize is one past the largest reachable offset, or zero when
// the extents hold no elements.
func (m StridedMapping) RequiredSpanSize() Index {
	if m.exts.Size() == 0 {
		return 0
	}
	span := m.origin + 1
	for i := 0; i < m.exts.rank; i++ {
		span += (m.exts.exts[i] - 1) * m.strides[i]
	}
	return span
}

// Stride returns the stride of dimension r.
func (m StridedMapping) Stride(r int) Index {
	if r < 0 || r >= m.exts.rank {
		violate("stride", ErrRank, "dimension %d of rank %d", r, m.exts.rank)
	}
	return m.strides[r]
}

// Strides returns all strides, outermost first.
func (m StridedMapping) Strides() []Index {
	out := make([]Index, m.exts.rank)
	copy(out, m.strides[:m.exts.rank])
	return out
}

// IsExhaustive reports whether every offset below the span is reachable.
// For a unique mapping that holds exactly when the span equals the element count.
func (m StridedMapping) IsExhaustive() bool {
	return m.RequiredSpanSize() == m.exts.Size()
}

func (StridedMapping) IsUnique() bool           { return true }
func (StridedMapping) IsStrided() bool          { return true }
func (StridedMapping) IsAlwaysUnique() bool     { return true }
func (StridedMapping) IsAlwaysExhaustive() bool { return false }
func (StridedMapping) IsAlwaysStrided() bool    { return true }
func (StridedMapping) Layout() LayoutKind       { return Strided }

// Remap returns a strided mapping over e with contiguous row-major strides,
// keeping the origin.
func (m StridedMapping) Remap(e Extents) StridedMapping {
	out := ContiguousStrided(e)
	out.origin = m.origin
	return out
}
