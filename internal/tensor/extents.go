package tensor

import (
	"fmt"
	"iter"
	"math/bits"
	"strings"
)

// Index is the unsigned index and size type. Negative extents and indices
// are unrepresentable.
type Index = uint

// MaxRank is the largest supported rank.
const MaxRank = 8

// DynamicExtent marks a dimension whose size is only known at run time.
const DynamicExtent = ^Index(0)

// Extents describes a tensor's logical shape: a rank fixed at construction
// and one size per dimension. Each dimension is independently static (its
// size was fixed by the caller's type-level description) or dynamic.
//
// Compare Extents with Equal, not ==: equality is on effective sizes only.
type Extents struct {
	rank   int
	static uint8 // bit i set: dimension i is static
	exts   [MaxRank]Index
}

// Dims returns extents with every dimension dynamic.
// Panics with ErrSpanSize if the element count does not fit in an Index.
func Dims(sizes ...Index) Extents {
	if len(sizes) > MaxRank {
		violate("extents", ErrRank, "rank %d exceeds %d", len(sizes), MaxRank)
	}
	e := Extents{rank: len(sizes)}
	copy(e.exts[:], sizes)
	e.checkSize()
	return e
}

// NewExtents builds extents from a static description in which dynamic
// dimensions are marked with DynamicExtent; their sizes are taken, in
// order, from dynamic. Panics if the number of dynamic sizes does not
// match the number of DynamicExtent slots.
//
//	NewExtents([]Index{3, DynamicExtent, 7}, 5) // 3x5x7, dimension 1 dynamic
func NewExtents(static []Index, dynamic ...Index) Extents {
	if len(static) > MaxRank {
		violate("extents", ErrRank, "rank %d exceeds %d", len(static), MaxRank)
	}
	want := 0
	for _, s := range static {
		if s == DynamicExtent {
			want++
		}
	}
	if want != len(dynamic) {
		violate("extents", ErrArity, "%d dynamic sizes for %d dynamic dimensions", len(dynamic), want)
	}

	e := Extents{rank: len(static)}
	next := 0
	for i, s := range static {
		if s == DynamicExtent {
			e.exts[i] = dynamic[next]
			next++
			continue
		}
		e.exts[i] = s
		e.static |= 1 << i
	}
	e.checkSize()
	return e
}

func (e Extents) checkSize() {
	n := Index(1)
	for _, x := range e.exts[:e.rank] {
		if x == 0 {
			return
		}
		hi, lo := bits.Mul(n, x)
		if hi != 0 {
			violate("extents", ErrSpanSize, "size of %v overflows", e.exts[:e.rank])
		}
		n = lo
	}
}

// Rank returns the number of dimensions.
func (e Extents) Rank() int {
	return e.rank
}

// RankDynamic returns the number of dynamic dimensions.
func (e Extents) RankDynamic() int {
	n := 0
	for i := 0; i < e.rank; i++ {
		if !e.IsStatic(i) {
			n++
		}
	}
	return n
}

// Extent returns the size of dimension i.
func (e Extents) Extent(i int) Index {
	if i < 0 || i >= e.rank {
		violate("extent", ErrRank, "dimension %d of rank %d", i, e.rank)
	}
	return e.exts[i]
}

// IsStatic reports whether dimension i is static.
func (e Extents) IsStatic(i int) bool {
	return i >= 0 && i < e.rank && e.static&(1<<i) != 0
}

// StaticExtent returns the size of dimension i if it is static and
// DynamicExtent otherwise.
func (e Extents) StaticExtent(i int) Index {
	if !e.IsStatic(i) {
		return DynamicExtent
	}
	return e.exts[i]
}

// Sizes returns a copy of the per-dimension sizes.
func (e Extents) Sizes() []Index {
	out := make([]Index, e.rank)
	copy(out, e.exts[:e.rank])
	return out
}

// Size returns the number of logical elements. A rank-0 extents has one.
// Construction guarantees the product fits in an Index.
func (e Extents) Size() Index {
	n := Index(1)
	for _, x := range e.exts[:e.rank] {
		n *= x
	}
	return n
}

// Equal reports whether both extents have the same rank and the same
// effective sizes, regardless of which dimensions are static.
func (e Extents) Equal(o Extents) bool {
	return e.rank == o.rank && e.exts == o.exts
}

// Contains reports whether idx is a valid index tuple.
func (e Extents) Contains(idx ...Index) bool {
	if len(idx) != e.rank {
		return false
	}
	for i, x := range idx {
		if x >= e.exts[i] {
			return false
		}
	}
	return true
}

// Indices yields every valid index tuple in outer-to-inner (row-major)
// order. The yielded slice is reused between iterations; copy it to retain it.
func (e Extents) Indices() iter.Seq[[]Index] {
	return func(yield func([]Index) bool) {
		if e.Size() == 0 {
			return
		}
		idx := make([]Index, e.rank)
		for {
			if !yield(idx) {
				return
			}
			d := e.rank - 1
			for ; d >= 0; d-- {
				idx[d]++
				if idx[d] < e.exts[d] {
					break
				}
				idx[d] = 0
			}
			if d < 0 {
				return
			}
		}
	}
}

// String renders the extents as "3x5x7"; dynamic dimensions are not marked.
func (e Extents) String() string {
	if e.rank == 0 {
		return "scalar"
	}
	parts := make([]string, e.rank)
	for i, x := range e.exts[:e.rank] {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, "x")
}

// withExtent returns a copy with dimension i replaced; static-ness is kept.
func (e Extents) withExtent(i int, size Index) Extents {
	e.exts[i] = size
	return e
}
