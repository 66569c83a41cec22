package navigation

import (
	"container/heap"
	"math"

	"kitchenrush/internal/models"
)

var cardinalDirs = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
var diagonalDirs = [4][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}

// AStar finds routes over a Grid
type AStar struct {
	grid     *Grid
	diagonal bool
}

// NewAStar creates a grid pathfinder. With diagonal set, corner moves cost sqrt(2)
// and are only allowed when both adjacent cardinal cells are open.
func NewAStar(grid *Grid, diagonal bool) *AStar {
	return &AStar{grid: grid, diagonal: diagonal}
}

// Grid returns the walkability map in use
func (a *AStar) Grid() *Grid {
	return a.grid
}

type node struct {
	cell  Cell
	g, f  float64
	seq   int
	index int
}

type openSet []*node

func (s openSet) Len() int { return len(s) }

func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	// FIFO among equal scores keeps routes deterministic
	return s[i].seq < s[j].seq
}

func (s openSet) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].index = i
	s[j].index = j
}

func (s *openSet) Push(x interface{}) {
	n := x.(*node)
	n.index = len(*s)
	*s = append(*s, n)
}

func (s *openSet) Pop() interface{} {
	old := *s
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*s = old[:len(old)-1]
	n.index = -1
	return n
}

// FindPath returns tile centers from start to goal, ending exactly at goal
func (a *AStar) FindPath(start, goal models.Point) []models.Point {
	g := a.grid
	from := g.CellAt(start)
	target := g.CellAt(goal)

	if !g.Walkable(target) {
		retarget, ok := g.NearestWalkable(target, MaxRetargetRadius)
		if !ok {
			return direct(goal)
		}
		target = retarget
	}
	if from == target {
		return direct(goal)
	}

	cells, ok := a.search(from, target)
	if !ok {
		return direct(goal)
	}

	path := make([]models.Point, 0, len(cells)+1)
	if c := g.Center(from); c != start {
		path = append(path, c)
	}
	for _, cell := range cells {
		path = append(path, g.Center(cell))
	}
	// the final waypoint is the exact requested goal, not the tile center
	path[len(path)-1] = goal
	return path
}

// search runs A* and returns the cells after from, up to and including to
func (a *AStar) search(from, to Cell) ([]Cell, bool) {
	g := a.grid
	idx := func(c Cell) int { return c.Y*g.Cols + c.X }

	gScore := make(map[int]float64)
	parent := make(map[int]Cell)
	closed := make(map[int]bool)
	open := make(map[int]*node)

	pq := &openSet{}
	seq := 0
	startNode := &node{cell: from, g: 0, f: a.heuristic(from, to), seq: seq}
	heap.Push(pq, startNode)
	open[idx(from)] = startNode
	gScore[idx(from)] = 0

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*node)
		ci := idx(current.cell)
		delete(open, ci)

		if current.cell == to {
			return reconstruct(parent, from, to, idx), true
		}
		closed[ci] = true

		for _, step := range a.neighbors(current.cell) {
			ni := idx(step.cell)
			if closed[ni] {
				continue
			}
			tentative := current.g + step.cost
			if prev, seen := gScore[ni]; seen && tentative >= prev {
				continue
			}
			gScore[ni] = tentative
			parent[ni] = current.cell
			f := tentative + a.heuristic(step.cell, to)

			if n, ok := open[ni]; ok {
				n.g = tentative
				n.f = f
				heap.Fix(pq, n.index)
				continue
			}
			seq++
			n := &node{cell: step.cell, g: tentative, f: f, seq: seq}
			heap.Push(pq, n)
			open[ni] = n
		}
	}
	return nil, false
}

type move struct {
	cell Cell
	cost float64
}

func (a *AStar) neighbors(c Cell) []move {
	g := a.grid
	out := make([]move, 0, 8)
	for _, d := range cardinalDirs {
		n := Cell{X: c.X + d[0], Y: c.Y + d[1]}
		if g.Walkable(n) {
			out = append(out, move{cell: n, cost: 1})
		}
	}
	if !a.diagonal {
		return out
	}
	for _, d := range diagonalDirs {
		n := Cell{X: c.X + d[0], Y: c.Y + d[1]}
		if !g.Walkable(n) {
			continue
		}
		if !g.Walkable(Cell{X: c.X + d[0], Y: c.Y}) || !g.Walkable(Cell{X: c.X, Y: c.Y + d[1]}) {
			continue
		}
		out = append(out, move{cell: n, cost: math.Sqrt2})
	}
	return out
}

// heuristic is Manhattan distance; octile when diagonal moves are enabled
func (a *AStar) heuristic(c, to Cell) float64 {
	dx := float64(abs(c.X - to.X))
	dy := float64(abs(c.Y - to.Y))
	if !a.diagonal {
		return dx + dy
	}
	return dx + dy + (math.Sqrt2-2)*math.Min(dx, dy)
}

func reconstruct(parent map[int]Cell, from, to Cell, idx func(Cell) int) []Cell {
	var cells []Cell
	for c := to; c != from; c = parent[idx(c)] {
		cells = append(cells, c)
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}
