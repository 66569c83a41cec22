package game

import (
	"time"

	"kitchenrush/internal/challenge"
	"kitchenrush/internal/models"
	"kitchenrush/internal/movement"
)

// PlayerView is the avatar state the presentation layer draws
type PlayerView struct {
	Position models.Point       `json:"position"`
	Target   *models.Point      `json:"target,omitempty"`
	Path     []models.Point     `json:"path,omitempty"`
	Facing   movement.Direction `json:"facing"`
	Moving   bool               `json:"moving"`
}

// Snapshot is a point-in-time copy of everything needed to render a session
type Snapshot struct {
	SessionID       string                 `json:"session_id"`
	UserID          string                 `json:"user_id"`
	Status          Status                 `json:"status"`
	TimeLeft        time.Duration          `json:"time_left"`
	Score           int                    `json:"score"`
	Paused          bool                   `json:"paused"`
	Player          PlayerView             `json:"player"`
	Highlight       string                 `json:"highlight,omitempty"`
	DwellRemaining  time.Duration          `json:"dwell_remaining,omitempty"`
	ActiveStation   string                 `json:"active_station,omitempty"`
	Orders          []*models.Order        `json:"orders"`
	CarriedOrderID  string                 `json:"carried_order_id,omitempty"`
	Question        *models.QuestionView   `json:"question,omitempty"`
	Mechanic        *challenge.View        `json:"mechanic,omitempty"`
	Recipe          *models.Order          `json:"recipe,omitempty"`
	Inventory       []models.InventoryItem `json:"inventory"`
	OrdersGenerated int                    `json:"orders_generated"`
	OrdersCompleted int                    `json:"orders_completed"`
	OrdersFailed    int                    `json:"orders_failed"`
}

// Snapshot copies the session state; nothing in it aliases live data
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID: s.ID,
		UserID:    s.UserID,
		Status:    s.status,
		TimeLeft:  s.timeLeft,
		Score:     s.score,
		Paused:    s.paused(),
		Player: PlayerView{
			Position: s.player.Position,
			Path:     append([]models.Point(nil), s.player.Path...),
			Facing:   s.player.Facing,
			Moving:   s.player.Moving(),
		},
		Highlight:       s.trigger.Current(),
		DwellRemaining:  s.trigger.Pending(),
		Inventory:       append([]models.InventoryItem(nil), s.inventory.Items...),
		OrdersGenerated: s.board.Generated(),
	}
	snap.OrdersCompleted, snap.OrdersFailed = s.board.Counts()

	if s.player.Target != nil {
		target := *s.player.Target
		snap.Player.Target = &target
	}
	if s.activeStation != nil {
		snap.ActiveStation = s.activeStation.ID
	}
	for _, o := range s.board.Open() {
		snap.Orders = append(snap.Orders, o.Clone())
	}
	if carried := s.board.Carried(); carried != nil {
		snap.CarriedOrderID = carried.ID
	}
	if s.question != nil {
		view := s.question.question.View()
		snap.Question = &view
	}
	if s.mechanic != nil {
		view := s.mechanic.View()
		snap.Mechanic = &view
	}
	if s.recipe != nil {
		snap.Recipe = s.recipe.Clone()
	}
	return snap
}
