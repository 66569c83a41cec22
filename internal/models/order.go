package models

import (
	"fmt"
	"time"
)

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
)

// StepStatus represents the possible states of an order step
type StepStatus string

const (
	StepStatusLocked    StepStatus = "locked"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// InitialQuality is the quality score every order starts with
const InitialQuality = 100

// OrderStep is one required station visit within an order
type OrderStep struct {
	StationType StationType   `json:"station_type"`
	Status      StepStatus    `json:"status"`
	IsCorrect   *bool         `json:"is_correct,omitempty"`
	Attempts    int           `json:"attempts"`
	TimeTaken   time.Duration `json:"time_taken"`
}

// Order represents one customer ticket moving through the kitchen
type Order struct {
	ID            string        `json:"id"`
	RecipeID      string        `json:"recipe_id"`
	DishName      string        `json:"dish_name"`
	Steps         []OrderStep   `json:"steps"`
	Deadline      time.Duration `json:"deadline"`
	TimeRemaining time.Duration `json:"time_remaining"`
	Status        OrderStatus   `json:"status"`
	QualityScore  int           `json:"quality_score"`
}

// StepResult describes what a recorded attempt did to an order
type StepResult struct {
	Station        StationType
	Correct        bool
	StepCompleted  bool
	OrderCompleted bool
	OrderFailed    bool
}

// NewOrder creates a pending order whose first step is active
func NewOrder(id, recipeID, dishName string, stations []StationType, deadline time.Duration) *Order {
	steps := make([]OrderStep, len(stations))
	for i, st := range stations {
		steps[i] = OrderStep{StationType: st, Status: StepStatusLocked}
	}
	if len(steps) > 0 {
		steps[0].Status = StepStatusActive
	}
	return &Order{
		ID:            id,
		RecipeID:      recipeID,
		DishName:      dishName,
		Steps:         steps,
		Deadline:      deadline,
		TimeRemaining: deadline,
		Status:        OrderStatusPending,
		QualityScore:  InitialQuality,
	}
}

// IsOpen reports whether the order is still pending or in progress
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusInProgress
}

// ActiveStep returns the index and step currently awaiting work, or -1 and nil
func (o *Order) ActiveStep() (int, *OrderStep) {
	for i := range o.Steps {
		if o.Steps[i].Status == StepStatusActive {
			return i, &o.Steps[i]
		}
	}
	return -1, nil
}

// NextStation returns the station type of the active step
func (o *Order) NextStation() (StationType, bool) {
	_, step := o.ActiveStep()
	if step == nil {
		return "", false
	}
	return step.StationType, true
}

// Start marks a pending order as carried
func (o *Order) Start() {
	if o.Status == OrderStatusPending {
		o.Status = OrderStatusInProgress
	}
}

// ReadyToServe reports whether the only work left is the serving step
func (o *Order) ReadyToServe() bool {
	st, ok := o.NextStation()
	return ok && o.IsOpen() && st == StationServing
}

// RecordSuccess completes the active step and unlocks the next one.
// The order completes when no step remains.
func (o *Order) RecordSuccess() StepResult {
	idx, step := o.ActiveStep()
	if step == nil || !o.IsOpen() {
		return StepResult{}
	}
	o.Start()

	correct := true
	step.IsCorrect = &correct
	step.Attempts++
	step.Status = StepStatusCompleted

	result := StepResult{Station: step.StationType, Correct: true, StepCompleted: true}
	if idx+1 < len(o.Steps) {
		o.Steps[idx+1].Status = StepStatusActive
		return result
	}
	o.Status = OrderStatusCompleted
	result.OrderCompleted = true
	return result
}

// RecordFailure applies a quality penalty for a wrong attempt on the active step.
// The step stays active until quality drops to the threshold, at which point the
// step and the order both fail.
func (o *Order) RecordFailure(penalty, threshold int) StepResult {
	_, step := o.ActiveStep()
	if step == nil || !o.IsOpen() {
		return StepResult{}
	}
	o.Start()

	correct := false
	step.IsCorrect = &correct
	step.Attempts++
	o.QualityScore -= penalty
	if o.QualityScore < 0 {
		o.QualityScore = 0
	}

	result := StepResult{Station: step.StationType}
	if o.QualityScore <= threshold {
		o.Fail()
		result.OrderFailed = true
	}
	return result
}

// Fail moves the order to failed, failing its active step
func (o *Order) Fail() {
	if !o.IsOpen() {
		return
	}
	if _, step := o.ActiveStep(); step != nil {
		step.Status = StepStatusFailed
	}
	o.Status = OrderStatusFailed
}

// Tick counts the deadline down by d. It reports true when this tick
// expired the order.
func (o *Order) Tick(d time.Duration) bool {
	if !o.IsOpen() || d <= 0 {
		return false
	}
	if _, step := o.ActiveStep(); step != nil {
		step.TimeTaken += d
	}
	o.TimeRemaining -= d
	if o.TimeRemaining <= 0 {
		o.TimeRemaining = 0
		o.Fail()
		return true
	}
	return false
}

// Progress returns the fraction of completed steps
func (o *Order) Progress() float64 {
	if len(o.Steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range o.Steps {
		if s.Status == StepStatusCompleted {
			done++
		}
	}
	return float64(done) / float64(len(o.Steps))
}

// CheckSteps verifies the step sequence: at most one active step, everything
// before it finished, everything after it locked
func (o *Order) CheckSteps() error {
	active := -1
	for i, s := range o.Steps {
		if s.Status == StepStatusActive {
			if active >= 0 {
				return fmt.Errorf("order %s: steps %d and %d are both active", o.ID, active, i)
			}
			active = i
		}
	}
	if active < 0 {
		if o.IsOpen() && len(o.Steps) > 0 {
			return fmt.Errorf("order %s is %s with no active step", o.ID, o.Status)
		}
		if o.Status == OrderStatusCompleted {
			for i, s := range o.Steps {
				if s.Status != StepStatusCompleted {
					return fmt.Errorf("order %s completed with step %d %s", o.ID, i, s.Status)
				}
			}
		}
		return nil
	}
	for i, s := range o.Steps {
		switch {
		case i < active && s.Status != StepStatusCompleted && s.Status != StepStatusFailed:
			return fmt.Errorf("order %s: step %d before the active step is %s", o.ID, i, s.Status)
		case i > active && s.Status != StepStatusLocked:
			return fmt.Errorf("order %s: step %d after the active step is %s", o.ID, i, s.Status)
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand to readers outside the session
func (o *Order) Clone() *Order {
	c := *o
	c.Steps = make([]OrderStep, len(o.Steps))
	for i, s := range o.Steps {
		c.Steps[i] = s
		if s.IsCorrect != nil {
			v := *s.IsCorrect
			c.Steps[i].IsCorrect = &v
		}
	}
	return &c
}
