package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenrush/internal/config"
	"kitchenrush/internal/models"
)

func openLayout(size float64, walls ...models.Rect) *models.KitchenLayout {
	return &models.KitchenLayout{Width: size, Height: size, TileSize: 32, Walls: walls}
}

func TestGridWalkability(t *testing.T) {
	g := NewGrid(models.DefaultLayout())

	assert.Equal(t, 40, g.Cols)
	assert.Equal(t, 23, g.Rows)

	cases := []struct {
		name string
		cell Cell
		want bool
	}{
		{"spawn", Cell{20, 14}, true},
		{"header band", Cell{10, 2}, false},
		{"footer band", Cell{10, 19}, false},
		{"left margin", Cell{0, 12}, false},
		{"next to left margin", Cell{1, 12}, true},
		{"fridge", Cell{3, 10}, false},
		{"touching the fridge", Cell{5, 10}, true},
		{"gap between fridge and prep", Cell{6, 10}, true},
		{"overlapping prep", Cell{7, 10}, false},
		{"beside the fridge at the wall", Cell{1, 10}, true},
		{"front corridor", Cell{1, 8}, true},
		{"hot line aisle", Cell{3, 12}, true},
		{"off grid", Cell{-1, 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, g.Walkable(tc.cell))
		})
	}
}

func TestStationMarginShrinksTile(t *testing.T) {
	layout := openLayout(320)
	layout.Stations = []models.Station{
		// reaches 3 units into column 1
		{ID: "graze", CollisionBox: models.Rect{X: 0, Y: 0, Width: 35, Height: 32}},
		// reaches 6 units into column 1
		{ID: "overlap", CollisionBox: models.Rect{X: 0, Y: 64, Width: 38, Height: 32}},
	}
	g := NewGrid(layout)

	assert.False(t, g.Walkable(Cell{0, 0}))
	assert.True(t, g.Walkable(Cell{1, 0}), "a tile grazed by less than the margin stays open")
	assert.False(t, g.Walkable(Cell{1, 2}), "a tile overlapped past the margin is blocked")
	assert.True(t, g.Walkable(Cell{1, 1}))
}

func TestNearestWalkableRing(t *testing.T) {
	g := NewGrid(models.DefaultLayout())

	c, ok := g.NearestWalkable(Cell{3, 10}, MaxRetargetRadius)
	require.True(t, ok)
	assert.Equal(t, Cell{1, 8}, c)

	c, ok = g.NearestWalkable(Cell{20, 14}, MaxRetargetRadius)
	require.True(t, ok)
	assert.Equal(t, Cell{20, 14}, c)
}

func TestAStarRoundTripToEveryStation(t *testing.T) {
	layout := models.DefaultLayout()
	grid := NewGrid(layout)
	finder := NewAStar(grid, false)

	for _, s := range layout.Stations {
		goal := s.ApproachPoint()
		path := finder.FindPath(layout.PlayerSpawn, goal)

		require.NotEmpty(t, path, s.ID)
		assert.Equal(t, goal, path[len(path)-1], s.ID)
		for _, p := range path[:len(path)-1] {
			assert.True(t, grid.Walkable(grid.CellAt(p)), "%s: waypoint %v is blocked", s.ID, p)
		}
		assert.Greater(t, len(path), 1, s.ID)
	}
}

func TestAStarCardinalSteps(t *testing.T) {
	layout := models.DefaultLayout()
	grid := NewGrid(layout)
	path := NewAStar(grid, false).FindPath(layout.PlayerSpawn, models.Point{X: 1168, Y: 264})

	// interior points are adjacent tile centers
	for i := 1; i < len(path)-1; i++ {
		dx := path[i].X - path[i-1].X
		dy := path[i].Y - path[i-1].Y
		assert.True(t, (dx == 0) != (dy == 0), "step %d is not cardinal", i)
		assert.InDelta(t, 32.0, abs64(dx)+abs64(dy), 1e-9)
	}
}

func TestAStarRetargetsBlockedGoal(t *testing.T) {
	layout := models.DefaultLayout()
	finder := NewAStar(NewGrid(layout), false)

	fridge, _ := layout.Station("fridge")
	goal := fridge.InteractionZone.Center()
	path := finder.FindPath(layout.PlayerSpawn, goal)

	require.GreaterOrEqual(t, len(path), 2)
	assert.Equal(t, goal, path[len(path)-1])
	// the route ends beside tile (1,8), the first open tile in the ring search
	prev := path[len(path)-2]
	assert.InDelta(t, 32.0, abs64(prev.X-48)+abs64(prev.Y-272), 1e-9)
}

func TestAStarSameTile(t *testing.T) {
	finder := NewAStar(NewGrid(openLayout(320)), false)
	goal := models.Point{X: 20, Y: 20}
	assert.Equal(t, []models.Point{goal}, finder.FindPath(models.Point{X: 10, Y: 10}, goal))
}

func TestAStarUnreachableFallsBackToDirect(t *testing.T) {
	layout := openLayout(320, models.Rect{X: 160, Y: 0, Width: 32, Height: 320})
	finder := NewAStar(NewGrid(layout), false)

	goal := models.Point{X: 272, Y: 48}
	assert.Equal(t, []models.Point{goal}, finder.FindPath(models.Point{X: 48, Y: 48}, goal))
}

func TestAStarNoWalkableTileNearGoal(t *testing.T) {
	layout := openLayout(960, models.Rect{X: 320, Y: 0, Width: 640, Height: 960})
	finder := NewAStar(NewGrid(layout), false)

	goal := models.Point{X: 900, Y: 900}
	assert.Equal(t, []models.Point{goal}, finder.FindPath(models.Point{X: 48, Y: 48}, goal))
}

func TestAStarDiagonal(t *testing.T) {
	grid := NewGrid(openLayout(320))
	start := models.Point{X: 16, Y: 16}
	goal := models.Point{X: 304, Y: 304}

	straight := NewAStar(grid, false).FindPath(start, goal)
	diagonal := NewAStar(grid, true).FindPath(start, goal)

	assert.Len(t, straight, 18)
	assert.Len(t, diagonal, 9)
	assert.Equal(t, goal, diagonal[len(diagonal)-1])
}

func TestAStarDiagonalDoesNotCutCorners(t *testing.T) {
	// a single blocked tile at (1,0) forbids the (0,0)->(1,1) diagonal
	layout := openLayout(96, models.Rect{X: 40, Y: 0, Width: 8, Height: 8})
	grid := NewGrid(layout)
	require.False(t, grid.Walkable(Cell{1, 0}))

	path := NewAStar(grid, true).FindPath(models.Point{X: 16, Y: 16}, models.Point{X: 48, Y: 48})
	assert.Equal(t, []models.Point{{X: 16, Y: 48}, {X: 48, Y: 48}}, path)
}

func TestWaypointGraphFindPath(t *testing.T) {
	layout := models.DefaultLayout()
	g, err := NewWaypointGraph(layout.Waypoints, layout.Edges)
	require.NoError(t, err)

	goal := models.Point{X: 112, Y: 400}
	path := g.FindPath(layout.PlayerSpawn, goal)

	center, _ := g.Position("CENTER")
	require.Len(t, path, 8)
	assert.Equal(t, center, path[0])
	assert.Equal(t, goal, path[len(path)-1])

	route, ok := g.Route("TICKET_APPROACH", "PLATING_APPROACH")
	require.True(t, ok)
	assert.Equal(t, "TICKET_APPROACH", route[0])
	assert.Equal(t, "PLATING_APPROACH", route[len(route)-1])
}

func TestWaypointGraphSameSnap(t *testing.T) {
	layout := models.DefaultLayout()
	g, err := NewWaypointGraph(layout.Waypoints, layout.Edges)
	require.NoError(t, err)

	goal := models.Point{X: 645, Y: 455}
	assert.Equal(t, []models.Point{goal}, g.FindPath(layout.PlayerSpawn, goal))
}

func TestWaypointGraphDisconnected(t *testing.T) {
	g, err := NewWaypointGraph([]models.Waypoint{
		{Name: "A", Position: models.Point{X: 0, Y: 0}},
		{Name: "B", Position: models.Point{X: 100, Y: 0}},
	}, nil)
	require.NoError(t, err)

	goal := models.Point{X: 101, Y: 1}
	assert.Equal(t, []models.Point{goal}, g.FindPath(models.Point{X: 1, Y: 1}, goal))

	_, err = NewWaypointGraph([]models.Waypoint{{Name: "A"}}, [][2]string{{"A", "Z"}})
	assert.Error(t, err)
}

func TestNewPathfinder(t *testing.T) {
	layout := models.DefaultLayout()

	p, err := New(config.PathfindingGrid, layout, false)
	require.NoError(t, err)
	assert.IsType(t, &AStar{}, p)

	p, err = New(config.PathfindingWaypoint, layout, false)
	require.NoError(t, err)
	assert.IsType(t, &WaypointGraph{}, p)

	_, err = New("teleport", layout, false)
	assert.Error(t, err)
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
