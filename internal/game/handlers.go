package game

import (
	"log"

	"kitchenrush/internal/challenge"
	"kitchenrush/internal/models"
	"kitchenrush/internal/orders"
)

// InteractionHandler runs when the trigger fires at a station
type InteractionHandler func(s *Session, st *models.Station)

func defaultHandlers() map[models.StationType]InteractionHandler {
	handlers := map[models.StationType]InteractionHandler{
		models.StationTicket:  (*Session).handleTicket,
		models.StationServing: (*Session).handleServing,
	}
	for _, t := range models.AllStationTypes {
		if t.IsProcess() {
			handlers[t] = (*Session).handleProcess
		}
	}
	return handlers
}

// handleTicket picks up the oldest waiting order, or takes a new one
func (s *Session) handleTicket(st *models.Station) {
	order, res := s.board.PickUp(s.timeLeft, s.nextOrder)
	switch res {
	case orders.PickedUpNew:
		s.publishOrder(EventOrderAdmitted, order)
		fallthrough
	case orders.PickedUpPending:
		s.recipe = order
		s.publishOrder(EventOrderPickedUp, order)
	case orders.AlreadyCarrying:
	default:
		log.Printf("session %s: ticket refused: %s", s.ID, res)
		s.publish(Event{Type: EventPickupRefused, Station: st.Type, Message: string(res)})
	}
}

// handleServing completes the carried order once serving is all that is left
func (s *Session) handleServing(st *models.Station) {
	o, ok := s.board.Serve()
	if !ok {
		return
	}
	s.score += s.cfg.CompletionBonus
	s.inventory.Clear()
	s.closeRecipe(o)
	s.publishOrder(EventOrderCompleted, o)
}

// handleProcess opens the station's mechanic, or its question when
// mechanics are off or the station has none
func (s *Session) handleProcess(st *models.Station) {
	if s.cfg.MechanicsEnabled {
		m, err := challenge.New(st.Type)
		if err == nil {
			s.mechanic = m
			s.publish(Event{Type: EventMechanicStarted, Station: st.Type})
			return
		}
		log.Printf("session %s: %v", s.ID, err)
	}
	s.openQuestion(st.Type)
}
