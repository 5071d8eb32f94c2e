package tensor

import "math/bits"

// DefaultTileExtent is the default tile side.
const DefaultTileExtent Index = 4

// TiledMapping stores the two innermost dimensions in fixed-size tiles.
//
// The innermost extents are padded up to whole tiles. Tiles are laid out
// row-major over the padded plane and each tile is itself row-major, so a
// tile occupies TileHeight*TileWidth contiguous elements. Outer dimensions
// address whole padded planes in row-major order.
//
// For (3, 5, 7) with 4x4 tiles the padded plane is 8x8 and the required
// span is 3*8*8 = 192.
type TiledMapping struct {
	exts    Extents
	tileH   Index
	tileW   Index
	padRows Index
	padCols Index
}

// NewTiled returns a tiled mapping over e with DefaultTileExtent square tiles.
func NewTiled(e Extents) TiledMapping {
	return NewTiledWith(e, DefaultTileExtent, DefaultTileExtent)
}

// NewTiledWith returns a tiled mapping over e with tileH x tileW tiles.
// Panics if e has fewer than two dimensions or if a tile side is not a
// power of two.
func NewTiledWith(e Extents, tileH, tileW Index) TiledMapping {
	if e.rank < 2 {
		violate("tiled", ErrRank, "tiled layout needs rank >= 2, got %d", e.rank)
	}
	if bits.OnesCount(tileH) != 1 || bits.OnesCount(tileW) != 1 {
		violate("tiled", ErrTile, "tile %dx%d", tileH, tileW)
	}
	return TiledMapping{
		exts:    e,
		tileH:   tileH,
		tileW:   tileW,
		padRows: roundUp(e.exts[e.rank-2], tileH),
		padCols: roundUp(e.exts[e.rank-1], tileW),
	}
}

// roundUp returns the next multiple of align at or above x.
func roundUp(x, align Index) Index {
	return (x + align - 1) / align * align
}

// Extents returns the logical (unpadded) shape.
func (m TiledMapping) Extents() Extents { return m.exts }

// Tile returns the tile height and width.
func (m TiledMapping) Tile() (height, width Index) { return m.tileH, m.tileW }

// Padding returns the padded sizes of the two innermost dimensions.
func (m TiledMapping) Padding() (rows, cols Index) { return m.padRows, m.padCols }

// PaddedExtents returns the logical extents with the two innermost
// dimensions rounded up to whole tiles. Static dimensions stay static.
func (m TiledMapping) PaddedExtents() Extents {
	r := m.exts.rank
	return m.exts.withExtent(r-2, m.padRows).withExtent(r-1, m.padCols)
}

// Offset returns the position of idx in tiled storage.
func (m TiledMapping) Offset(idx ...Index) Index {
	checkArity("offset", m.exts, idx)
	r := m.exts.rank

	var outer Index
	for i := 0; i < r-2; i++ {
		outer = outer*m.exts.exts[i] + idx[i]
	}

	row, col := idx[r-2], idx[r-1]
	return m.padCols*(m.padRows*outer+(row/m.tileH)*m.tileH) +
		(row%m.tileH)*m.tileW +
		(col/m.tileW)*m.tileH*m.tileW +
		col%m.tileW
}

// RequiredSpanSize is the product of the outer extents and the padded plane.
func (m TiledMapping) RequiredSpanSize() Index {
	span := m.padRows * m.padCols
	for i := 0; i < m.exts.rank-2; i++ {
		span *= m.exts.exts[i]
	}
	return span
}

// Stride returns the distance between neighbours along an outer dimension.
// The two tiled dimensions have no single stride; asking for one panics.
func (m TiledMapping) Stride(r int) Index {
	outer := m.exts.rank - 2
	if r < 0 || r >= outer {
		violate("stride", ErrRank, "tiled layout has strides only for dimensions below %d, got %d", outer, r)
	}
	s := m.padRows * m.padCols
	for i := r + 1; i < outer; i++ {
		s *= m.exts.exts[i]
	}
	return s
}

// IsExhaustive reports whether no padding was introduced.
func (m TiledMapping) IsExhaustive() bool {
	r := m.exts.rank
	return m.exts.exts[r-2] == m.padRows && m.exts.exts[r-1] == m.padCols
}

// IsAlwaysExhaustive reports whether both tiled dimensions are static and
// already tile-aligned.
func (m TiledMapping) IsAlwaysExhaustive() bool {
	r := m.exts.rank
	return m.exts.IsStatic(r-2) && m.exts.IsStatic(r-1) && m.IsExhaustive()
}

func (TiledMapping) IsUnique() bool        { return true }
func (TiledMapping) IsStrided() bool       { return false }
func (TiledMapping) IsAlwaysUnique() bool  { return true }
func (TiledMapping) IsAlwaysStrided() bool { return false }
func (TiledMapping) Layout() LayoutKind    { return Tiled }

// Remap returns a tiled mapping over e with the same tile shape.
func (m TiledMapping) Remap(e Extents) TiledMapping {
	return NewTiledWith(e, m.tileH, m.tileW)
}
