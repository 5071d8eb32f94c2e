package tensor

// RowMajorMapping is the conventional C-order layout: the innermost
// dimension is contiguous and the outermost varies slowest.
type RowMajorMapping struct {
	exts    Extents
	strides [MaxRank]Index
}

// NewRowMajor returns the row-major mapping over e.
func NewRowMajor(e Extents) RowMajorMapping {
	return RowMajorMapping{exts: e, strides: rowMajorStrides(e)}
}

// Extents returns the mapped shape.
func (m RowMajorMapping) Extents() Extents { return m.exts }

// Offset returns the mixed-radix positional value of idx.
func (m RowMajorMapping) Offset(idx ...Index) Index {
	checkArity("offset", m.exts, idx)
	var off Index
	for i, x := range idx {
		off = off*m.exts.exts[i] + x
	}
	return off
}

// RequiredSpanSize equals the number of elements.
func (m RowMajorMapping) RequiredSpanSize() Index { return m.exts.Size() }

// Stride returns the product of the extents to the right of r.
func (m RowMajorMapping) Stride(r int) Index {
	if r < 0 || r >= m.exts.rank {
		violate("stride", ErrRank, "dimension %d of rank %d", r, m.exts.rank)
	}
	return m.strides[r]
}

// Strides returns all strides, outermost first.
func (m RowMajorMapping) Strides() []Index {
	out := make([]Index, m.exts.rank)
	copy(out, m.strides[:m.exts.rank])
	return out
}

func (RowMajorMapping) IsUnique() bool           { return true }
func (RowMajorMapping) IsExhaustive() bool       { return true }
func (RowMajorMapping) IsStrided() bool          { return true }
func (RowMajorMapping) IsAlwaysUnique() bool     { return true }
func (RowMajorMapping) IsAlwaysExhaustive() bool { return true }
func (RowMajorMapping) IsAlwaysStrided() bool    { return true }
func (RowMajorMapping) Layout() LayoutKind       { return RowMajor }

// Remap returns the row-major mapping over e.
func (RowMajorMapping) Remap(e Extents) RowMajorMapping { return NewRowMajor(e) }
