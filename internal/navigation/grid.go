package navigation

import (
	"math"

	"kitchenrush/internal/models"
)

// StationMargin is trimmed off each side of a tile before it is tested
// against station collision boxes, so tiles that only graze a station stay open
const StationMargin = 4

// MaxRetargetRadius bounds the ring search for a walkable tile near a blocked goal
const MaxRetargetRadius = 9

// Cell addresses one grid tile
type Cell struct {
	X, Y int
}

// Grid is the walkability map derived once from a layout
type Grid struct {
	Cols, Rows int
	TileSize   float64
	walkable   []bool
}

// NewGrid rasterises the layout: a tile is blocked when it overlaps a wall band
// or when its core, the tile shrunk by StationMargin, overlaps a station
func NewGrid(layout *models.KitchenLayout) *Grid {
	cols := int(math.Ceil(layout.Width / layout.TileSize))
	rows := int(math.Ceil(layout.Height / layout.TileSize))
	g := &Grid{
		Cols:     cols,
		Rows:     rows,
		TileSize: layout.TileSize,
		walkable: make([]bool, cols*rows),
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			tile := g.tileRect(Cell{x, y})
			g.walkable[y*cols+x] = !blocked(tile, layout)
		}
	}
	return g
}

func blocked(tile models.Rect, layout *models.KitchenLayout) bool {
	for _, w := range layout.Walls {
		if tile.Intersects(w) {
			return true
		}
	}
	core := tile.Inflate(-StationMargin)
	for _, s := range layout.Stations {
		if core.Intersects(s.CollisionBox) {
			return true
		}
	}
	return false
}

func (g *Grid) tileRect(c Cell) models.Rect {
	return models.Rect{
		X:      float64(c.X) * g.TileSize,
		Y:      float64(c.Y) * g.TileSize,
		Width:  g.TileSize,
		Height: g.TileSize,
	}
}

// InBounds reports whether the cell lies on the grid
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Cols && c.Y < g.Rows
}

// Walkable reports whether the player may stand on the cell
func (g *Grid) Walkable(c Cell) bool {
	return g.InBounds(c) && g.walkable[c.Y*g.Cols+c.X]
}

// CellAt returns the cell containing p, clamped to the grid
func (g *Grid) CellAt(p models.Point) Cell {
	x := int(math.Floor(p.X / g.TileSize))
	y := int(math.Floor(p.Y / g.TileSize))
	return Cell{X: clamp(x, 0, g.Cols-1), Y: clamp(y, 0, g.Rows-1)}
}

// Center returns the midpoint of a cell
func (g *Grid) Center(c Cell) models.Point {
	return models.Point{
		X: float64(c.X)*g.TileSize + g.TileSize/2,
		Y: float64(c.Y)*g.TileSize + g.TileSize/2,
	}
}

// NearestWalkable searches square rings of growing radius around c
func (g *Grid) NearestWalkable(c Cell, maxRadius int) (Cell, bool) {
	if g.Walkable(c) {
		return c, true
	}
	for r := 1; r <= maxRadius; r++ {
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				// ring only
				if abs(dx) != r && abs(dy) != r {
					continue
				}
				n := Cell{X: c.X + dx, Y: c.Y + dy}
				if g.Walkable(n) {
					return n, true
				}
			}
		}
	}
	return Cell{}, false
}

// WalkableCount returns the number of open tiles
func (g *Grid) WalkableCount() int {
	n := 0
	for _, w := range g.walkable {
		if w {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
