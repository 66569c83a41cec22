package models

import "fmt"

// StationType identifies the kind of work a station performs
type StationType string

const (
	StationTicket  StationType = "ticket"
	StationFridge  StationType = "fridge"
	StationPrep    StationType = "prep"
	StationStove   StationType = "stove"
	StationGrill   StationType = "grill"
	StationFry     StationType = "fry"
	StationOven    StationType = "oven"
	StationPlating StationType = "plating"
	StationDrinks  StationType = "drinks"
	StationDessert StationType = "dessert"
	StationServing StationType = "serving"
)

// AllStationTypes lists every station type in kitchen flow order
var AllStationTypes = []StationType{
	StationTicket,
	StationFridge,
	StationPrep,
	StationStove,
	StationGrill,
	StationFry,
	StationOven,
	StationPlating,
	StationDrinks,
	StationDessert,
	StationServing,
}

// IsValid checks if the station type is known
func (t StationType) IsValid() bool {
	for _, st := range AllStationTypes {
		if st == t {
			return true
		}
	}
	return false
}

// IsProcess reports whether the station gates an order step behind a challenge.
// Ticket and serving are bookkeeping stations.
func (t StationType) IsProcess() bool {
	return t.IsValid() && t != StationTicket && t != StationServing
}

// Station is the immutable descriptor of one kitchen location
type Station struct {
	ID              string      `json:"id" yaml:"id"`
	Type            StationType `json:"type" yaml:"type"`
	Name            string      `json:"name" yaml:"name"`
	Position        Point       `json:"position" yaml:"position"`
	CollisionBox    Rect        `json:"collision_box" yaml:"collision_box"`
	InteractionZone Rect        `json:"interaction_zone" yaml:"interaction_zone"`
	SpriteRef       string      `json:"sprite_ref" yaml:"sprite_ref"`
}

// Center returns the center of the station's collision box, the reference
// point for proximity checks
func (s *Station) Center() Point {
	return s.CollisionBox.Center()
}

// ApproachPoint is where a player is sent when the station itself is clicked:
// just below the collision box
func (s *Station) ApproachPoint() Point {
	return Point{
		X: s.CollisionBox.X + s.CollisionBox.Width/2,
		Y: s.CollisionBox.Y + s.CollisionBox.Height + 24,
	}
}

// Waypoint is a named navigation landmark
type Waypoint struct {
	Name     string `json:"name" yaml:"name"`
	Position Point  `json:"position" yaml:"position"`
}

// KitchenLayout describes the static kitchen map
type KitchenLayout struct {
	Width       float64     `json:"width" yaml:"width"`
	Height      float64     `json:"height" yaml:"height"`
	TileSize    float64     `json:"tile_size" yaml:"tile_size"`
	Walls       []Rect      `json:"walls" yaml:"walls"`
	Stations    []Station   `json:"stations" yaml:"stations"`
	PlayerSpawn Point       `json:"player_spawn" yaml:"player_spawn"`
	Waypoints   []Waypoint  `json:"waypoints,omitempty" yaml:"waypoints"`
	Edges       [][2]string `json:"edges,omitempty" yaml:"edges"`
}

// Station returns the station with the given id
func (l *KitchenLayout) Station(id string) (*Station, bool) {
	for i := range l.Stations {
		if l.Stations[i].ID == id {
			return &l.Stations[i], true
		}
	}
	return nil, false
}

// StationAt returns the station whose collision box contains p
func (l *KitchenLayout) StationAt(p Point) (*Station, bool) {
	for i := range l.Stations {
		if l.Stations[i].CollisionBox.Contains(p) {
			return &l.Stations[i], true
		}
	}
	return nil, false
}

// StationsOfType returns every station of the given type
func (l *KitchenLayout) StationsOfType(t StationType) []*Station {
	var out []*Station
	for i := range l.Stations {
		if l.Stations[i].Type == t {
			out = append(out, &l.Stations[i])
		}
	}
	return out
}

// Validate checks the layout for duplicate ids and unknown station types
func (l *KitchenLayout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 || l.TileSize <= 0 {
		return fmt.Errorf("layout dimensions must be positive")
	}
	seen := make(map[string]bool, len(l.Stations))
	for _, s := range l.Stations {
		if s.ID == "" {
			return fmt.Errorf("station id is required")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate station id: %s", s.ID)
		}
		seen[s.ID] = true
		if !s.Type.IsValid() {
			return fmt.Errorf("station %s has unknown type %q", s.ID, s.Type)
		}
	}
	names := make(map[string]bool, len(l.Waypoints))
	for _, w := range l.Waypoints {
		names[w.Name] = true
	}
	for _, e := range l.Edges {
		if !names[e[0]] || !names[e[1]] {
			return fmt.Errorf("edge %s-%s references an unknown waypoint", e[0], e[1])
		}
	}
	return nil
}

/*
  Default kitchen, 1280x720, 32-unit tiles.

  y   0-160   header band (customer area and top wall)
  y 176-240   front row:  TICKET   DRINKS   DESSERT   SERVING
  y 256-288   front corridor
  y 296-376   hot line:   FRIDGE PREP GRILL STOVE FRY OVEN PLATING
  y 376-608   kitchen floor, spawn at (640, 450)
  y 608-720   footer band
*/

const (
	frontRowY      = 176
	frontRowHeight = 64
	lineRowY       = 296
	lineRowHeight  = 80
	stationWidth   = 96
	zoneMargin     = 20
)

func newStation(id string, t StationType, name string, x, y, h float64) Station {
	box := Rect{X: x, Y: y, Width: stationWidth, Height: h}
	return Station{
		ID:              id,
		Type:            t,
		Name:            name,
		Position:        box.Center(),
		CollisionBox:    box,
		InteractionZone: box.Inflate(zoneMargin),
		SpriteRef:       id,
	}
}

// DefaultLayout returns the standard kitchen map
func DefaultLayout() *KitchenLayout {
	return &KitchenLayout{
		Width:    1280,
		Height:   720,
		TileSize: 32,
		Walls: []Rect{
			{X: 0, Y: 0, Width: 1280, Height: 160},   // header band
			{X: 0, Y: 608, Width: 1280, Height: 112}, // footer band
			{X: 0, Y: 0, Width: 32, Height: 720},     // left margin
			{X: 1248, Y: 0, Width: 32, Height: 720},  // right margin
		},
		Stations: []Station{
			newStation("ticket-board", StationTicket, "Order Tickets", 64, frontRowY, frontRowHeight),
			newStation("drinks-bar", StationDrinks, "Drinks Bar", 416, frontRowY, frontRowHeight),
			newStation("dessert-counter", StationDessert, "Dessert Counter", 768, frontRowY, frontRowHeight),
			newStation("serving-window", StationServing, "Serving Window", 1120, frontRowY, frontRowHeight),

			newStation("fridge", StationFridge, "Walk-in Cooler", 64, lineRowY, lineRowHeight),
			newStation("prep-station", StationPrep, "Prep Station", 240, lineRowY, lineRowHeight),
			newStation("grill", StationGrill, "Grill", 416, lineRowY, lineRowHeight),
			newStation("stove", StationStove, "Stove", 592, lineRowY, lineRowHeight),
			newStation("fryer", StationFry, "Fryer", 768, lineRowY, lineRowHeight),
			newStation("oven", StationOven, "Oven", 944, lineRowY, lineRowHeight),
			newStation("plating-station", StationPlating, "Plating Station", 1120, lineRowY, lineRowHeight),
		},
		PlayerSpawn: Point{X: 640, Y: 450},
		Waypoints:   defaultWaypoints(),
		Edges:       defaultEdges(),
	}
}

func defaultWaypoints() []Waypoint {
	return []Waypoint{
		{Name: "CENTER", Position: Point{X: 640, Y: 450}},

		// front corridor, y=272
		{Name: "TICKET_APPROACH", Position: Point{X: 112, Y: 264}},
		{Name: "CORRIDOR_1", Position: Point{X: 200, Y: 272}},
		{Name: "CORRIDOR_2", Position: Point{X: 376, Y: 272}},
		{Name: "DRINKS_APPROACH", Position: Point{X: 464, Y: 264}},
		{Name: "CORRIDOR_3", Position: Point{X: 552, Y: 272}},
		{Name: "CORRIDOR_4", Position: Point{X: 728, Y: 272}},
		{Name: "DESSERT_APPROACH", Position: Point{X: 816, Y: 264}},
		{Name: "CORRIDOR_5", Position: Point{X: 904, Y: 272}},
		{Name: "CORRIDOR_6", Position: Point{X: 1080, Y: 272}},
		{Name: "WINDOW_APPROACH", Position: Point{X: 1168, Y: 264}},

		// hot line aisle, y=400..416
		{Name: "FRIDGE_APPROACH", Position: Point{X: 112, Y: 400}},
		{Name: "AISLE_1", Position: Point{X: 200, Y: 416}},
		{Name: "PREP_APPROACH", Position: Point{X: 288, Y: 400}},
		{Name: "AISLE_2", Position: Point{X: 376, Y: 416}},
		{Name: "GRILL_APPROACH", Position: Point{X: 464, Y: 400}},
		{Name: "AISLE_3", Position: Point{X: 552, Y: 416}},
		{Name: "STOVE_APPROACH", Position: Point{X: 640, Y: 400}},
		{Name: "AISLE_4", Position: Point{X: 728, Y: 416}},
		{Name: "FRY_APPROACH", Position: Point{X: 816, Y: 400}},
		{Name: "AISLE_5", Position: Point{X: 904, Y: 416}},
		{Name: "OVEN_APPROACH", Position: Point{X: 992, Y: 400}},
		{Name: "AISLE_6", Position: Point{X: 1080, Y: 416}},
		{Name: "PLATING_APPROACH", Position: Point{X: 1168, Y: 400}},
	}
}

func defaultEdges() [][2]string {
	corridor := []string{
		"TICKET_APPROACH", "CORRIDOR_1", "CORRIDOR_2", "DRINKS_APPROACH", "CORRIDOR_3",
		"CORRIDOR_4", "DESSERT_APPROACH", "CORRIDOR_5", "CORRIDOR_6", "WINDOW_APPROACH",
	}
	aisle := []string{
		"FRIDGE_APPROACH", "AISLE_1", "PREP_APPROACH", "AISLE_2", "GRILL_APPROACH", "AISLE_3",
		"STOVE_APPROACH", "AISLE_4", "FRY_APPROACH", "AISLE_5", "OVEN_APPROACH", "AISLE_6",
		"PLATING_APPROACH",
	}

	var edges [][2]string
	for i := 1; i < len(corridor); i++ {
		edges = append(edges, [2]string{corridor[i-1], corridor[i]})
	}
	for i := 1; i < len(aisle); i++ {
		edges = append(edges, [2]string{aisle[i-1], aisle[i]})
	}
	// the gaps between hot line stations connect the aisle to the corridor
	for i := 1; i <= 6; i++ {
		edges = append(edges, [2]string{fmt.Sprintf("AISLE_%d", i), fmt.Sprintf("CORRIDOR_%d", i)})
	}
	edges = append(edges,
		[2]string{"CENTER", "STOVE_APPROACH"},
		[2]string{"CENTER", "AISLE_3"},
		[2]string{"CENTER", "AISLE_4"},
	)
	return edges
}
