// Package raster provides the canonical pixel and grid types the whole
// detection pipeline is built on. Every later stage reads and writes
// IndexRaster values; nothing outside this package does raw channel
// arithmetic on a Cell.
package raster

import (
	"image"

	"github.com/brunoga/deep"
)

// Cell is a single pixel's tri-channel legend-index encoding.
//
//   - Empty:       Primary == Valid == Reserved == -1
//   - Valid echo:  Primary == Valid == Reserved == idx
//   - Base echo:   Primary == Reserved == base, Valid == -1
//   - Base fill:   Primary == idx, Valid == -1, Reserved == -1
type Cell struct {
	Primary  int8
	Valid    int8
	Reserved int8
}

// EmptyCell returns the "no echo" encoding.
func EmptyCell() Cell { return Cell{-1, -1, -1} }

// ValidEchoCell returns a pixel that carries a real, observed legend index.
func ValidEchoCell(idx int8) Cell { return Cell{idx, idx, idx} }

// BaseEchoCell returns the substrate painting used by the per-sign
// denoiser before any trust analysis has run.
func BaseEchoCell(base int8) Cell { return Cell{base, -1, base} }

// BaseFillCell returns a pixel whose index was inferred from its
// surroundings rather than read from the source image.
func BaseFillCell(idx int8) Cell { return Cell{idx, -1, -1} }

// IsEmpty reports whether the cell carries no echo.
func (c Cell) IsEmpty() bool { return c.Primary < 0 }

// IsValidEcho reports whether the cell is a directly observed echo.
func (c Cell) IsValidEcho() bool { return c.Primary >= 0 && c.Primary == c.Valid && c.Valid == c.Reserved }

// IsBaseEcho reports whether the cell is substrate painted by the
// denoiser's base-echo step (not yet classified as trusted or filled).
func (c Cell) IsBaseEcho() bool { return c.Primary >= 0 && c.Valid < 0 && c.Primary == c.Reserved }

// IsBaseFill reports whether the cell's index was inferred from its
// neighbors (base-echo that resolved to a concrete velocity).
func (c Cell) IsBaseFill() bool { return c.Primary >= 0 && c.Valid < 0 && c.Reserved < 0 }

// DisplayIndex returns the ch0 ("displayed") legend index, or -1 if empty.
func (c Cell) DisplayIndex() int8 { return c.Primary }

// ValidIndex returns the ch1 ("valid", non-base) legend index, or -1.
func (c Cell) ValidIndex() int8 { return c.Valid }

// IndexRaster is the canonical w*h grid of Cells, stored row-major
// (x varies fastest within a row, consistent with image.Image's layout).
type IndexRaster struct {
	W, H  int
	Cells []Cell
}

// NewIndexRaster allocates a w*h raster with every cell empty.
func NewIndexRaster(w, h int) *IndexRaster {
	cells := make([]Cell, w*h)
	for i := range cells {
		cells[i] = EmptyCell()
	}
	return &IndexRaster{W: w, H: h, Cells: cells}
}

// InBounds reports whether (x, y) addresses a cell in the raster.
func (r *IndexRaster) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.W && y < r.H
}

func (r *IndexRaster) offset(x, y int) int { return y*r.W + x }

// At returns the cell at (x, y). Out-of-bounds coordinates return an
// empty cell rather than panicking, so boundary-adjacent neighbor scans
// in later stages don't need their own clipping logic.
func (r *IndexRaster) At(x, y int) Cell {
	if !r.InBounds(x, y) {
		return EmptyCell()
	}
	return r.Cells[r.offset(x, y)]
}

// IndexAt returns the ch0 ("displayed") index at (x, y), or -1 if out of
// bounds or empty.
func (r *IndexRaster) IndexAt(x, y int) int8 { return r.At(x, y).DisplayIndex() }

// Set writes a cell at (x, y). Out-of-bounds writes are silently dropped.
func (r *IndexRaster) Set(x, y int, c Cell) {
	if !r.InBounds(x, y) {
		return
	}
	r.Cells[r.offset(x, y)] = c
}

// Clone returns an independent deep copy of the raster, used wherever a
// stage must mutate a working copy while treating its input as read-only.
func (r *IndexRaster) Clone() *IndexRaster {
	return deep.MustCopy(r)
}

// Zone is the inclusive-exclusive square bound analysis iterates over.
type Zone struct {
	MinX, MinY, MaxX, MaxY int
}

// Contains reports whether (x, y) falls within the zone.
func (z Zone) Contains(x, y int) bool {
	return x >= z.MinX && x < z.MaxX && y >= z.MinY && y < z.MaxY
}

// ForEach walks every (x, y) in the zone with x in the outer loop and y
// in the inner loop (the order spec.md §5 calls row-major).
func (z Zone) ForEach(fn func(x, y int)) {
	for x := z.MinX; x < z.MaxX; x++ {
		for y := z.MinY; y < z.MaxY; y++ {
			fn(x, y)
		}
	}
}

// Region is an ordered collection of connected pixel coordinates.
type Region struct {
	Points []image.Point
}

// Len returns the number of points in the region.
func (g Region) Len() int { return len(g.Points) }
