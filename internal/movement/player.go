// Package movement advances the player along click paths and keyboard input
// and keeps the player out of walls and stations.
package movement

import (
	"math"

	"kitchenrush/internal/models"
)

// ArriveEpsilon is the distance at which a waypoint counts as reached
const ArriveEpsilon = 2.0

// PlayerSize is the side of the player's square bounding box
const PlayerSize = 32.0

// Direction is the player's facing, used only for presentation
type Direction string

const (
	FacingUp    Direction = "up"
	FacingDown  Direction = "down"
	FacingLeft  Direction = "left"
	FacingRight Direction = "right"
)

// Player is the movement state of the session's avatar
type Player struct {
	Position models.Point   `json:"position"`
	Target   *models.Point  `json:"target,omitempty"`
	Path     []models.Point `json:"path,omitempty"`
	Facing   Direction      `json:"facing"`
	Speed    float64        `json:"speed"`

	input models.Point
}

// NewPlayer places a player at spawn
func NewPlayer(spawn models.Point, speed float64) *Player {
	return &Player{Position: spawn, Facing: FacingDown, Speed: speed}
}

// Box returns the player's bounding box at its current position
func (p *Player) Box() models.Rect {
	return models.BoxAround(p.Position, PlayerSize)
}

// SetPath replaces any outstanding route. Keyboard input is released.
func (p *Player) SetPath(path []models.Point) {
	p.input = models.Point{}
	p.ClearPath()
	if len(path) == 0 {
		return
	}
	first := path[0]
	p.Target = &first
	p.Path = append([]models.Point(nil), path[1:]...)
}

// ClearPath drops the current target and every queued waypoint
func (p *Player) ClearPath() {
	p.Target = nil
	p.Path = nil
}

// SetInput holds a keyboard direction. Diagonals are normalised so they are
// not faster than straight moves. A non-zero vector cancels any click path.
func (p *Player) SetInput(dx, dy float64) {
	length := math.Hypot(dx, dy)
	if length == 0 {
		p.input = models.Point{}
		return
	}
	p.input = models.Point{X: dx / length, Y: dy / length}
	p.ClearPath()
}

// Input returns the held keyboard direction
func (p *Player) Input() models.Point {
	return p.input
}

// Moving reports whether either movement channel still has work to do
func (p *Player) Moving() bool {
	return p.Target != nil || p.input != (models.Point{})
}

// StepKeyboard applies the held direction for dt seconds
func (p *Player) StepKeyboard(dt float64) bool {
	if dt <= 0 || p.input == (models.Point{}) {
		return false
	}
	dx := p.input.X * p.Speed * dt
	dy := p.input.Y * p.Speed * dt
	p.Position.X += dx
	p.Position.Y += dy
	p.face(dx, dy)
	return true
}

// StepPath moves toward the current target for dt seconds without
// overshooting it, popping the next waypoint once the target is reached
func (p *Player) StepPath(dt float64) bool {
	if dt <= 0 || p.Target == nil {
		return false
	}
	before := p.Position
	target := *p.Target

	dist := models.Distance(p.Position, target)
	if dist < ArriveEpsilon {
		p.Position = target
		if len(p.Path) > 0 {
			next := p.Path[0]
			p.Target = &next
			p.Path = p.Path[1:]
		} else {
			p.Target = nil
		}
		return p.Position != before
	}

	dx := target.X - p.Position.X
	dy := target.Y - p.Position.Y
	step := p.Speed * dt
	if step >= dist {
		p.Position = target
	} else {
		p.Position.X += dx / dist * step
		p.Position.Y += dy / dist * step
	}
	p.face(dx, dy)
	return true
}

func (p *Player) face(dx, dy float64) {
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			p.Facing = FacingRight
		} else {
			p.Facing = FacingLeft
		}
		return
	}
	if dy > 0 {
		p.Facing = FacingDown
	} else if dy < 0 {
		p.Facing = FacingUp
	}
}
