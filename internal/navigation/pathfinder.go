// Package navigation routes the player through the kitchen. Two strategies are
// available: A* over a walkable tile grid, and BFS over a fixed waypoint graph.
// A session uses exactly one of them.
package navigation

import (
	"fmt"

	"kitchenrush/internal/config"
	"kitchenrush/internal/models"
)

// Pathfinder computes a route between two points. It never fails: when no
// route exists the result is a single point at the goal.
type Pathfinder interface {
	FindPath(start, goal models.Point) []models.Point
}

// New builds the pathfinder selected by strategy for the given layout
func New(strategy string, layout *models.KitchenLayout, diagonal bool) (Pathfinder, error) {
	switch strategy {
	case config.PathfindingGrid, "":
		return NewAStar(NewGrid(layout), diagonal), nil
	case config.PathfindingWaypoint:
		g, err := NewWaypointGraph(layout.Waypoints, layout.Edges)
		if err != nil {
			return nil, fmt.Errorf("failed to build waypoint graph: %w", err)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown pathfinding strategy: %s", strategy)
	}
}

func direct(goal models.Point) []models.Point {
	return []models.Point{goal}
}
