// Package challenge implements the short timed mini-games that gate process
// stations. Every mechanic satisfies the same Challenge interface so the game
// loop does not care which one is running.
package challenge

import (
	"fmt"
	"time"

	"kitchenrush/internal/models"
)

// State is the lifecycle of a running challenge
type State string

const (
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Kind names a mechanic family
type Kind string

const (
	// KindTap needs a number of actions before time runs out
	KindTap Kind = "tap"
	// KindTiming needs actions while a sweeping meter is inside a window
	KindTiming Kind = "timing"
)

// Challenge is a timed mini-game
type Challenge interface {
	Station() models.StationType
	Duration() time.Duration
	// Act registers one player action
	Act() State
	// Tick advances the challenge clock
	Tick(dt time.Duration) State
	// Finish ends the challenge and reports how it went; a challenge still
	// running at Finish has failed
	Finish() Outcome
	View() View
}

// Outcome is the final result of a challenge
type Outcome struct {
	Station models.StationType `json:"station"`
	Success bool               `json:"success"`
	Elapsed time.Duration      `json:"elapsed"`
}

// View is what the presentation layer draws
type View struct {
	Station  models.StationType `json:"station"`
	Kind     Kind               `json:"kind"`
	State    State              `json:"state"`
	TimeLeft time.Duration      `json:"time_left"`
	Progress int                `json:"progress"`
	Target   int                `json:"target"`
	Meter    float64            `json:"meter,omitempty"`
	Window   [2]float64         `json:"window,omitempty"`
	Misses   int                `json:"misses,omitempty"`
}

// Spec tunes one station's mechanic
type Spec struct {
	Kind      Kind
	Duration  time.Duration
	Target    int
	WindowLow float64
	WindowHi  float64
	Period    time.Duration
	MaxMisses int
}

// Specs is the mechanic for every process station
var Specs = map[models.StationType]Spec{
	models.StationFridge:  {Kind: KindTap, Duration: 20 * time.Second, Target: 3},
	models.StationPrep:    {Kind: KindTap, Duration: 15 * time.Second, Target: 5},
	models.StationPlating: {Kind: KindTap, Duration: 15 * time.Second, Target: 3},
	models.StationDessert: {Kind: KindTap, Duration: 15 * time.Second, Target: 4},
	models.StationStove:   {Kind: KindTiming, Duration: 30 * time.Second, Target: 2, WindowLow: 65, WindowHi: 85, Period: 2 * time.Second, MaxMisses: 3},
	models.StationGrill:   {Kind: KindTiming, Duration: 25 * time.Second, Target: 2, WindowLow: 60, WindowHi: 80, Period: 2 * time.Second, MaxMisses: 3},
	models.StationFry:     {Kind: KindTiming, Duration: 20 * time.Second, Target: 1, WindowLow: 40, WindowHi: 60, Period: 1500 * time.Millisecond, MaxMisses: 2},
	models.StationOven:    {Kind: KindTiming, Duration: 30 * time.Second, Target: 1, WindowLow: 70, WindowHi: 90, Period: 3 * time.Second, MaxMisses: 2},
	models.StationDrinks:  {Kind: KindTiming, Duration: 15 * time.Second, Target: 1, WindowLow: 45, WindowHi: 60, Period: 2 * time.Second, MaxMisses: 3},
}

// New starts the mechanic for a station
func New(station models.StationType) (Challenge, error) {
	spec, ok := Specs[station]
	if !ok {
		return nil, fmt.Errorf("no mechanic for station type %q", station)
	}
	return NewFromSpec(station, spec)
}

// NewFromSpec starts a mechanic with explicit tuning
func NewFromSpec(station models.StationType, spec Spec) (Challenge, error) {
	if spec.Duration <= 0 || spec.Target <= 0 {
		return nil, fmt.Errorf("mechanic for %s needs a positive duration and target", station)
	}
	b := clock{station: station, duration: spec.Duration, state: StateRunning}
	switch spec.Kind {
	case KindTap:
		return &tapChallenge{clock: b, target: spec.Target}, nil
	case KindTiming:
		if spec.Period <= 0 || spec.WindowLow >= spec.WindowHi {
			return nil, fmt.Errorf("timing mechanic for %s needs a period and a window", station)
		}
		return &timingChallenge{clock: b, spec: spec}, nil
	default:
		return nil, fmt.Errorf("unknown mechanic kind %q", spec.Kind)
	}
}

// clock is the countdown shared by every mechanic
type clock struct {
	station  models.StationType
	duration time.Duration
	elapsed  time.Duration
	state    State
}

func (c *clock) Station() models.StationType { return c.station }
func (c *clock) Duration() time.Duration     { return c.duration }

func (c *clock) advance(dt time.Duration) {
	if c.state != StateRunning || dt <= 0 {
		return
	}
	c.elapsed += dt
	if c.elapsed >= c.duration {
		c.elapsed = c.duration
		c.state = StateFailed
	}
}

func (c *clock) finish() Outcome {
	if c.state == StateRunning {
		c.state = StateFailed
	}
	return Outcome{Station: c.station, Success: c.state == StateSucceeded, Elapsed: c.elapsed}
}

func (c *clock) timeLeft() time.Duration {
	return c.duration - c.elapsed
}
