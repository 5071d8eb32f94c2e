// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/tt/internal/tensor"

// LayoutKind identifies a layout mapping family.
type LayoutKind = tensor.LayoutKind

// Layout families.
const (
	RowMajor LayoutKind = tensor.RowMajor
	Strided  LayoutKind = tensor.Strided
	Tiled    LayoutKind = tensor.Tiled
)

// DefaultTileExtent is the default tile side of tiled layouts.
const DefaultTileExtent = tensor.DefaultTileExtent

// LayoutMapping is the layout-independent view of a mapping.
type LayoutMapping = tensor.LayoutMapping

// Mapping is a LayoutMapping that can rebuild itself over new extents.
type Mapping[M any] = tensor.Mapping[M]

// RowMajorMapping is the C-order layout.
type RowMajorMapping = tensor.RowMajorMapping

// StridedMapping is an affine layout with arbitrary non-overlapping strides.
type StridedMapping = tensor.StridedMapping

// TiledMapping stores the two innermost dimensions in fixed-size tiles.
type TiledMapping = tensor.TiledMapping

// NewRowMajor returns the row-major mapping over e.
func NewRowMajor(e Extents) RowMajorMapping {
	return tensor.NewRowMajor(e)
}

// NewStrided returns a strided mapping over e.
// Panics if the strides would map two indices to one offset.
func NewStrided(e Extents, strides []Index, origin Index) StridedMapping {
	return tensor.NewStrided(e, strides, origin)
}

// NewTiled returns a tiled mapping over e with 4x4 tiles.
// Panics if e has fewer than two dimensions.
func NewTiled(e Extents) TiledMapping {
	return tensor.NewTiled(e)
}

// NewTiledWith returns a tiled mapping with tileH x tileW tiles.
func NewTiledWith(e Extents, tileH, tileW Index) TiledMapping {
	return tensor.NewTiledWith(e, tileH, tileW)
}

// ParseLayoutKind parses a layout name such as "row-major" or "tiled".
func ParseLayoutKind(s string) (LayoutKind, error) {
	return tensor.ParseLayoutKind(s)
}
