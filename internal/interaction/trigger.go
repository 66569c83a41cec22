// Package interaction decides when the player has arrived at a station.
package interaction

import (
	"time"

	"kitchenrush/internal/models"
)

// Trigger tracks the station the player is near and fires it once per visit
// when the player is still in its range after the dwell delay
type Trigger struct {
	stations []models.Station
	radius   float64
	dwell    time.Duration

	current    string
	elapsed    time.Duration
	interacted map[string]bool
}

// NewTrigger creates a trigger over the layout's stations
func NewTrigger(stations []models.Station, radius float64, dwell time.Duration) *Trigger {
	return &Trigger{
		stations:   stations,
		radius:     radius,
		dwell:      dwell,
		interacted: make(map[string]bool, len(stations)),
	}
}

// Nearest returns the closest station whose collision-box center is within
// the interaction radius of p
func (t *Trigger) Nearest(p models.Point) (*models.Station, bool) {
	var best *models.Station
	bestDist := t.radius
	for i := range t.stations {
		s := &t.stations[i]
		d := models.Distance(p, s.Center())
		if d > t.radius {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, best != nil
}

// Update runs once per frame with the player's post-movement position.
// The dwell clock starts when a new station becomes the nearest one in range
// and keeps running whether or not the player moves. The returned station,
// if any, is the one to interact with.
func (t *Trigger) Update(pos models.Point, dt time.Duration) *models.Station {
	station, ok := t.Nearest(pos)
	if !ok {
		t.current = ""
		t.elapsed = 0
		return nil
	}

	if station.ID != t.current {
		t.current = station.ID
		t.elapsed = 0
		t.interacted[station.ID] = false
	}

	if t.interacted[station.ID] {
		return nil
	}
	t.elapsed += dt
	if t.elapsed < t.dwell {
		return nil
	}
	t.interacted[station.ID] = true
	return station
}

// Current returns the id of the highlighted station, or ""
func (t *Trigger) Current() string {
	return t.current
}

// Pending reports how much dwell time is still needed before the current
// station fires
func (t *Trigger) Pending() time.Duration {
	if t.current == "" || t.interacted[t.current] {
		return 0
	}
	return t.dwell - t.elapsed
}

// Rearm lets the current station fire again without leaving its range
func (t *Trigger) Rearm() bool {
	if t.current == "" {
		return false
	}
	t.interacted[t.current] = false
	t.elapsed = 0
	return true
}
