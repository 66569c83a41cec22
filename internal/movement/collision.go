package movement

import "kitchenrush/internal/models"

// Resolver keeps the player out of walls and station collision boxes
type Resolver struct {
	obstacles []models.Rect
}

// NewResolver collects the solid rectangles of a layout
func NewResolver(layout *models.KitchenLayout) *Resolver {
	obstacles := make([]models.Rect, 0, len(layout.Walls)+len(layout.Stations))
	obstacles = append(obstacles, layout.Walls...)
	for _, s := range layout.Stations {
		obstacles = append(obstacles, s.CollisionBox)
	}
	return &Resolver{obstacles: obstacles}
}

// Check reports whether box overlaps any obstacle
func (r *Resolver) Check(box models.Rect) bool {
	for _, o := range r.obstacles {
		if box.Intersects(o) {
			return true
		}
	}
	return false
}

// Resolve reverts the player to previous when its box is inside an obstacle
func (r *Resolver) Resolve(p *Player, previous models.Point) bool {
	if !r.Check(p.Box()) {
		return false
	}
	p.Position = previous
	return true
}

// StepResult reports what one movement frame did
type StepResult struct {
	Moved           bool
	KeyboardBlocked bool
	PathBlocked     bool
}

// Step advances one frame: keyboard movement is applied and checked first,
// then path movement is applied and checked on its own. A blocked path is
// abandoned.
func Step(p *Player, r *Resolver, dt float64) StepResult {
	var res StepResult
	start := p.Position

	prev := p.Position
	if p.StepKeyboard(dt) && r.Resolve(p, prev) {
		res.KeyboardBlocked = true
	}

	prev = p.Position
	if p.StepPath(dt) && r.Resolve(p, prev) {
		res.PathBlocked = true
		p.ClearPath()
	}

	res.Moved = p.Position != start
	return res
}
