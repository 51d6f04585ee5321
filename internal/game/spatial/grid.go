// Package spatial provides the broad-phase index and the input queue used
// by the simulation.
//
// The grid stores integer indices, not pointers, so rebuilding it every
// tick costs no allocations once its cells have grown.
package spatial

import (
	"math"
)

// SpatialGrid buckets points on the XZ plane into fixed-size cells.
// The grid covers [minX, minX+width) × [minZ, minZ+depth); points outside
// are clamped into the border cells.
//
// Cell size should match the largest query radius.
type SpatialGrid struct {
	minX, minZ  float64
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       [][]uint32 // cells[row*cols+col]
	scratch     []uint32
	count       int
}

// NewSpatialGrid creates a grid for the given world rectangle.
func NewSpatialGrid(minX, minZ, width, depth, cellSize float64, maxEntities int) *SpatialGrid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(depth / cellSize))

	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	perCell := maxEntities / len(cells)
	if perCell < 4 {
		perCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, perCell)
	}

	return &SpatialGrid{
		minX:        minX,
		minZ:        minZ,
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear empties every cell, keeping capacity.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert adds an index at (x, z).
func (g *SpatialGrid) Insert(id uint32, x, z float64) {
	col, row := g.cellOf(x, z)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], id)
	g.count++
}

func (g *SpatialGrid) cellOf(x, z float64) (int, int) {
	return g.clampCol(int(math.Floor((x - g.minX) * g.invCellSize))),
		g.clampRow(int(math.Floor((z - g.minZ) * g.invCellSize)))
}

func (g *SpatialGrid) clampCol(c int) int {
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

func (g *SpatialGrid) clampRow(r int) int {
	if r < 0 {
		return 0
	}
	if r >= g.rows {
		return g.rows - 1
	}
	return r
}

// QueryRadius returns candidate indices within radius of (cx, cz).
//
// The returned slice is reused by the next query. Candidates may lie
// outside the radius; callers do the exact distance check.
func (g *SpatialGrid) QueryRadius(cx, cz, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, minRow := g.cellOf(cx-radius, cz-radius)
	maxCol, maxRow := g.cellOf(cx+radius, cz+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}

	return g.scratch
}

// Len returns the number of inserted indices.
func (g *SpatialGrid) Len() int { return g.count }

// Stats returns grid statistics for debugging/profiling.
func (g *SpatialGrid) Stats() GridStats {
	var maxInCell, nonEmpty int
	for _, cell := range g.cells {
		if len(cell) > maxInCell {
			maxInCell = len(cell)
		}
		if len(cell) > 0 {
			nonEmpty++
		}
	}
	return GridStats{
		TotalCells:    len(g.cells),
		NonEmptyCells: nonEmpty,
		TotalEntities: g.count,
		MaxInCell:     maxInCell,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	TotalCells    int
	NonEmptyCells int
	TotalEntities int
	MaxInCell     int
}
