package tensor

import (
	"fmt"
	"strings"
)

// LayoutKind identifies a layout mapping family.
type LayoutKind int

// Supported layouts.
const (
	RowMajor LayoutKind = iota
	Strided
	Tiled
)

// String returns the registration name of the layout.
func (k LayoutKind) String() string {
	switch k {
	case RowMajor:
		return "RowMajor"
	case Strided:
		return "Strided"
	case Tiled:
		return "Tiled"
	default:
		return "Unknown"
	}
}

// ParseLayoutKind parses a layout name case-insensitively. Separators are
// ignored, so "row-major", "row_major" and "RowMajor" are equivalent.
func ParseLayoutKind(s string) (LayoutKind, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	switch norm {
	case "rowmajor", "right", "layoutright":
		return RowMajor, nil
	case "strided", "stride":
		return Strided, nil
	case "tiled", "tile":
		return Tiled, nil
	default:
		return 0, fmt.Errorf("unknown layout %q", s)
	}
}

// LayoutMapping is the layout-independent view of a mapping from index
// tuples to linear offsets.
type LayoutMapping interface {
	// Extents returns the logical shape the mapping was built from.
	Extents() Extents

	// Offset maps a valid index tuple to a linear offset. It is only defined
	// for 0 <= idx[k] < Extent(k); bounds are the caller's responsibility.
	Offset(idx ...Index) Index

	// RequiredSpanSize is the minimum buffer length, in elements, that holds
	// every offset the mapping can produce. Padding and strides can push it
	// past Size; mappings do not detect a span that overflows Index.
	RequiredSpanSize() Index

	// Stride returns the offset distance between neighbours along dimension r.
	Stride(r int) Index

	IsUnique() bool
	IsExhaustive() bool
	IsStrided() bool

	// The IsAlways* predicates are decided without looking at dynamic sizes.
	IsAlwaysUnique() bool
	IsAlwaysExhaustive() bool
	IsAlwaysStrided() bool

	// Layout identifies the mapping family.
	Layout() LayoutKind
}

// Mapping is a LayoutMapping that can rebuild itself, in the same layout
// family, over different extents. M is the implementing type itself.
type Mapping[M any] interface {
	LayoutMapping

	// Remap builds a mapping of the same kind over e.
	Remap(e Extents) M
}

// checkArity panics unless len(idx) matches the rank.
func checkArity(op string, e Extents, idx []Index) {
	if len(idx) != e.rank {
		violate(op, ErrArity, "expected %d indices, got %d", e.rank, len(idx))
	}
}

// rowMajorStrides fills strides[:rank] with row-major strides for e.
func rowMajorStrides(e Extents) [MaxRank]Index {
	var strides [MaxRank]Index
	s := Index(1)
	for i := e.rank - 1; i >= 0; i-- {
		strides[i] = s
		s *= e.exts[i]
	}
	return strides
}
