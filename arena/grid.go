package arena

import (
	"math"

	"spaceship-shmup/entity"
)

// GridCellSize is about twice the largest ship radius
const GridCellSize = 8.0

// Grid is a fixed-size broad-phase grid over the play area. Positions
// outside the area are clamped to the edge cells.
type Grid struct {
	cellSize   float64
	cols, rows int
	minX, minY float64
	cells      [][]entity.ID
}

// NewGrid creates a grid covering b
func NewGrid(b Bounds, cellSize float64) *Grid {
	cols := int(math.Ceil(2*b.HalfWidth/cellSize)) + 1
	rows := int(math.Ceil(2*b.HalfHeight/cellSize)) + 1
	return &Grid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		minX:     -b.HalfWidth,
		minY:     -b.HalfHeight,
		cells:    make([][]entity.ID, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *Grid) span(pos entity.Vec2, radius float64) (minCX, maxCX, minCY, maxCY int) {
	clampCell := func(v float64, n int) int {
		c := int(math.Floor(v / g.cellSize))
		if c < 0 {
			return 0
		}
		if c >= n {
			return n - 1
		}
		return c
	}
	minCX = clampCell(pos.X-radius-g.minX, g.cols)
	maxCX = clampCell(pos.X+radius-g.minX, g.cols)
	minCY = clampCell(pos.Y-radius-g.minY, g.rows)
	maxCY = clampCell(pos.Y+radius-g.minY, g.rows)
	return
}

// Insert adds id to all cells overlapping the circle's bounding box
func (g *Grid) Insert(pos entity.Vec2, radius float64, id entity.ID) {
	minCX, maxCX, minCY, maxCY := g.span(pos, radius)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cy*g.cols + cx
			g.cells[idx] = append(g.cells[idx], id)
		}
	}
}

// QueryBuf appends the ids in cells overlapping the box to buf. An id that
// spans several cells appears once per cell.
func (g *Grid) QueryBuf(pos entity.Vec2, radius float64, buf []entity.ID) []entity.ID {
	minCX, maxCX, minCY, maxCY := g.span(pos, radius)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	return buf
}
