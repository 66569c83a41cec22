// Package orders keeps the collection of open orders and enforces how many
// may be open at once.
package orders

import (
	"time"

	"kitchenrush/internal/models"
)

// Config bounds the board
type Config struct {
	MaxActive        int
	LastCall         time.Duration
	QualityPenalty   int
	QualityThreshold int
}

// PickupResult explains what a ticket-station visit did
type PickupResult string

const (
	PickedUpPending PickupResult = "picked_up"
	PickedUpNew     PickupResult = "new_order"
	AlreadyCarrying PickupResult = "already_carrying"
	BoardFull       PickupResult = "board_full"
	LastCallRefusal PickupResult = "last_call"
)

// Board is the active-order collection. It is not safe for concurrent use;
// the owning session serialises access.
type Board struct {
	cfg     Config
	open    []*models.Order
	retired []*models.Order
	carried string

	generated int
}

// NewBoard creates an empty board
func NewBoard(cfg Config) *Board {
	return &Board{cfg: cfg}
}

// Open returns the pending and in-progress orders, oldest first
func (b *Board) Open() []*models.Order {
	out := make([]*models.Order, len(b.open))
	copy(out, b.open)
	return out
}

// Retired returns completed and failed orders in the order they finished
func (b *Board) Retired() []*models.Order {
	out := make([]*models.Order, len(b.retired))
	copy(out, b.retired)
	return out
}

// Generated returns how many orders have entered the board
func (b *Board) Generated() int {
	return b.generated
}

// Counts returns completed and failed totals
func (b *Board) Counts() (completed, failed int) {
	for _, o := range b.retired {
		switch o.Status {
		case models.OrderStatusCompleted:
			completed++
		case models.OrderStatusFailed:
			failed++
		}
	}
	return completed, failed
}

// Carried returns the order the player is working on
func (b *Board) Carried() *models.Order {
	if b.carried == "" {
		return nil
	}
	return b.find(b.carried)
}

func (b *Board) find(id string) *models.Order {
	for _, o := range b.open {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// CanAdmit reports whether a new order may be issued with sessionLeft on the clock
func (b *Board) CanAdmit(sessionLeft time.Duration) bool {
	return len(b.open) < b.cfg.MaxActive && sessionLeft >= b.cfg.LastCall
}

// Seed places an order on the board without cap or last-call checks
func (b *Board) Seed(o *models.Order) {
	b.open = append(b.open, o)
	b.generated++
}

// Admit adds an order when the board has room and last call has not passed
func (b *Board) Admit(o *models.Order, sessionLeft time.Duration) bool {
	if !b.CanAdmit(sessionLeft) {
		return false
	}
	b.Seed(o)
	return true
}

// PickUp handles a ticket-station visit. The oldest pending order is taken
// first; a new order from next is admitted only when none is waiting.
func (b *Board) PickUp(sessionLeft time.Duration, next func() *models.Order) (*models.Order, PickupResult) {
	if carried := b.Carried(); carried != nil {
		return carried, AlreadyCarrying
	}
	for _, o := range b.open {
		if o.Status == models.OrderStatusPending {
			b.carry(o)
			return o, PickedUpPending
		}
	}
	if len(b.open) >= b.cfg.MaxActive {
		return nil, BoardFull
	}
	if sessionLeft < b.cfg.LastCall {
		return nil, LastCallRefusal
	}
	o := next()
	b.Seed(o)
	b.carry(o)
	return o, PickedUpNew
}

func (b *Board) carry(o *models.Order) {
	o.Start()
	b.carried = o.ID
}

// Awaiting returns the order whose active step would be advanced by station t
func (b *Board) Awaiting(t models.StationType) *models.Order {
	if carried := b.Carried(); carried != nil {
		if st, ok := carried.NextStation(); ok && st == t {
			return carried
		}
		return nil
	}
	for _, o := range b.open {
		if st, ok := o.NextStation(); ok && st == t {
			return o
		}
	}
	return nil
}

// Progress records the outcome of a challenge at station t against the order
// awaiting it. The order is retired when it completes or fails.
func (b *Board) Progress(t models.StationType, correct bool) (*models.Order, models.StepResult, bool) {
	o := b.Awaiting(t)
	if o == nil {
		return nil, models.StepResult{}, false
	}
	b.carry(o)

	var res models.StepResult
	if correct {
		res = o.RecordSuccess()
	} else {
		res = o.RecordFailure(b.cfg.QualityPenalty, b.cfg.QualityThreshold)
	}
	if !o.IsOpen() {
		b.retire(o)
	}
	return o, res, true
}

// Serve completes the carried order when serving is all that is left
func (b *Board) Serve() (*models.Order, bool) {
	o := b.Carried()
	if o == nil || !o.ReadyToServe() {
		return nil, false
	}
	res := o.RecordSuccess()
	if !res.OrderCompleted {
		return nil, false
	}
	b.retire(o)
	return o, true
}

// Tick counts every open order down by d and retires the ones that expired
func (b *Board) Tick(d time.Duration) []*models.Order {
	var expired []*models.Order
	for _, o := range b.Open() {
		if o.Tick(d) {
			expired = append(expired, o)
			b.retire(o)
		}
	}
	return expired
}

// FailAll fails every open order, used when the session ends
func (b *Board) FailAll() []*models.Order {
	var failed []*models.Order
	for _, o := range b.Open() {
		o.Fail()
		failed = append(failed, o)
		b.retire(o)
	}
	return failed
}

func (b *Board) retire(o *models.Order) {
	for i, open := range b.open {
		if open.ID == o.ID {
			b.open = append(b.open[:i], b.open[i+1:]...)
			break
		}
	}
	if b.carried == o.ID {
		b.carried = ""
	}
	b.retired = append(b.retired, o)
}
