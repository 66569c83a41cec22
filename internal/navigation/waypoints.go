package navigation

import (
	"fmt"
	"sort"

	"kitchenrush/internal/models"
)

// WaypointGraph routes between named kitchen landmarks with unweighted BFS
type WaypointGraph struct {
	names     []string
	positions map[string]models.Point
	adjacency map[string][]string
}

// NewWaypointGraph builds an undirected graph from waypoints and edges
func NewWaypointGraph(waypoints []models.Waypoint, edges [][2]string) (*WaypointGraph, error) {
	if len(waypoints) == 0 {
		return nil, fmt.Errorf("waypoint graph needs at least one waypoint")
	}
	g := &WaypointGraph{
		positions: make(map[string]models.Point, len(waypoints)),
		adjacency: make(map[string][]string, len(waypoints)),
	}
	for _, w := range waypoints {
		if _, dup := g.positions[w.Name]; dup {
			return nil, fmt.Errorf("duplicate waypoint: %s", w.Name)
		}
		g.names = append(g.names, w.Name)
		g.positions[w.Name] = w.Position
	}
	for _, e := range edges {
		a, b := e[0], e[1]
		if _, ok := g.positions[a]; !ok {
			return nil, fmt.Errorf("edge references unknown waypoint: %s", a)
		}
		if _, ok := g.positions[b]; !ok {
			return nil, fmt.Errorf("edge references unknown waypoint: %s", b)
		}
		g.adjacency[a] = append(g.adjacency[a], b)
		g.adjacency[b] = append(g.adjacency[b], a)
	}
	for name := range g.adjacency {
		sort.Strings(g.adjacency[name])
	}
	return g, nil
}

// Nearest returns the waypoint closest to p; ties go to the earlier declared one
func (g *WaypointGraph) Nearest(p models.Point) string {
	best := g.names[0]
	bestDist := models.Distance(p, g.positions[best])
	for _, name := range g.names[1:] {
		if d := models.Distance(p, g.positions[name]); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// Position returns the location of a named waypoint
func (g *WaypointGraph) Position(name string) (models.Point, bool) {
	p, ok := g.positions[name]
	return p, ok
}

// FindPath snaps both ends to waypoints, walks the fewest hops between them
// and finishes at the exact goal
func (g *WaypointGraph) FindPath(start, goal models.Point) []models.Point {
	from := g.Nearest(start)
	to := g.Nearest(goal)
	if from == to {
		return direct(goal)
	}

	route, ok := g.bfs(from, to)
	if !ok {
		return direct(goal)
	}
	path := make([]models.Point, 0, len(route)+1)
	for _, name := range route {
		path = append(path, g.positions[name])
	}
	return append(path, goal)
}

// Route returns the waypoint names between two landmarks, both included
func (g *WaypointGraph) Route(from, to string) ([]string, bool) {
	if _, ok := g.positions[from]; !ok {
		return nil, false
	}
	if _, ok := g.positions[to]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}
	return g.bfs(from, to)
}

func (g *WaypointGraph) bfs(from, to string) ([]string, bool) {
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			break
		}
		for _, next := range g.adjacency[current] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = current
			queue = append(queue, next)
		}
	}
	if _, reached := prev[to]; !reached {
		return nil, false
	}

	var route []string
	for n := to; n != ""; n = prev[n] {
		route = append(route, n)
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route, true
}
