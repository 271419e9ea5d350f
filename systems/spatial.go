// Package systems provides the simulation subsystems: emission, forces,
// and the spatial index.
package systems

import (
	"github.com/pthm-cable/plume/particle"
)

// Neighbor holds a nearby particle slot with precomputed spatial data.
// This avoids recomputing deltas and distances in force contributors.
type Neighbor struct {
	Idx    int32
	DX, DY float32 // delta from query origin
	DistSq float32 // squared distance (avoid sqrt in hot path)
}

// SpatialGrid provides bounded-time neighbor lookups using a cell-based
// grid over the world rectangle. It is rebuilt fully each tick; backing
// storage is reused across rebuilds so steady-state ticks do not allocate.
type SpatialGrid struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]int32 // flat grid of slot index lists
}

// NewSpatialGrid creates a spatial grid covering the given world size.
// Cell size is a tuning knob fixed at configuration time; it should match
// the largest force interaction radius.
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int32, cols*rows)
	for i := range cells {
		cells[i] = make([]int32, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entries from the grid, keeping cell capacity.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds a particle slot to the cell containing (x, y). Positions
// outside the world clamp into edge cells; the exact distance filter in
// queries keeps results correct for them.
func (g *SpatialGrid) Insert(idx int32, x, y float32) {
	cell := g.cellIndex(x, y)
	g.cells[cell] = append(g.cells[cell], idx)
}

// Rebuild clears the grid and repopulates it from the pool's live
// particles. Cost is linear in live particle count.
func (g *SpatialGrid) Rebuild(pool *particle.Pool) {
	g.Clear()
	pool.ForEachLive(func(idx int32, pt *particle.Particle) {
		cell := g.cellIndex(pt.Pos.X, pt.Pos.Y)
		g.cells[cell] = append(g.cells[cell], idx)
	})
}

// QueryRadiusInto finds particles within radius of (x, y) and appends them
// to dst, excluding the given slot. Returns the updated slice; reuse dst
// across calls to avoid allocations. The cell walk visits the enclosing
// cell plus the ring within ceil(radius/cellSize); exactness comes from
// the distance filter, not the walk.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, x, y, radius float32, exclude int32, pool *particle.Pool) []Neighbor {
	cellRadius := int(radius/g.cellSize) + 1

	centerCol := g.clampCol(int(x / g.cellSize))
	centerRow := g.clampRow(int(y / g.cellSize))

	minCol := g.clampCol(centerCol - cellRadius)
	maxCol := g.clampCol(centerCol + cellRadius)
	minRow := g.clampRow(centerRow - cellRadius)
	maxRow := g.clampRow(centerRow + cellRadius)

	radiusSq := radius * radius

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, idx := range g.cells[row*g.cols+col] {
				if idx == exclude {
					continue
				}
				pos := pool.At(idx).Pos
				dx := pos.X - x
				dy := pos.Y - y
				distSq := dx*dx + dy*dy
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{Idx: idx, DX: dx, DY: dy, DistSq: distSq})
				}
			}
		}
	}

	return dst
}

// cellIndex returns the flat index for a world position, clamped to the
// grid bounds.
func (g *SpatialGrid) cellIndex(x, y float32) int {
	col := g.clampCol(int(x / g.cellSize))
	row := g.clampRow(int(y / g.cellSize))
	return row*g.cols + col
}

func (g *SpatialGrid) clampCol(col int) int {
	if col < 0 {
		return 0
	}
	if col >= g.cols {
		return g.cols - 1
	}
	return col
}

func (g *SpatialGrid) clampRow(row int) int {
	if row < 0 {
		return 0
	}
	if row >= g.rows {
		return g.rows - 1
	}
	return row
}
