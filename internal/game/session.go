// Package game runs kitchen sessions: it owns the frame loop that moves the
// player, fires station interactions and drives the order board.
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"kitchenrush/internal/challenge"
	"kitchenrush/internal/config"
	"kitchenrush/internal/evaluation"
	"kitchenrush/internal/interaction"
	"kitchenrush/internal/models"
	"kitchenrush/internal/movement"
	"kitchenrush/internal/navigation"
	"kitchenrush/internal/orders"
	"kitchenrush/internal/questions"
)

// Status is the lifecycle of a session
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionEnded     = errors.New("session has ended")
	ErrNoActiveQuestion = errors.New("no question is open")
	ErrNoActiveMechanic = errors.New("no mechanic is running")
	ErrNoActiveRecipe   = errors.New("no recipe ticket is open")
	ErrUnknownStation   = errors.New("unknown station")
	ErrInvalidChoice    = errors.New("choice does not belong to the open question")
	ErrPaused           = errors.New("a modal is open")
	ErrNoStationInRange = errors.New("no station in range")
)

// Deps are the collaborators a session is built from
type Deps struct {
	Layout    *models.KitchenLayout
	Recipes   *orders.RecipeBook
	Questions questions.Source
	Evaluator *evaluation.Evaluator
	Bus       *Bus
}

type openQuestion struct {
	question models.Question
	station  models.StationType
	openedAt time.Duration
}

// Session is the context object for one player's game. Every exported
// method is safe to call from the API while the frame loop runs.
type Session struct {
	ID     string
	UserID string

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time

	cfg        config.GameConfig
	layout     *models.KitchenLayout
	pathfinder navigation.Pathfinder
	resolver   *movement.Resolver
	player     *movement.Player
	trigger    *interaction.Trigger
	board      *orders.Board
	recipes    *orders.RecipeBook
	questions  questions.Source
	evaluator  *evaluation.Evaluator
	inventory  *models.Inventory
	handlers   map[models.StationType]InteractionHandler
	rng        *rand.Rand
	bus        *Bus

	status    Status
	startedAt time.Time
	endedAt   time.Time
	elapsed   time.Duration
	timeLeft  time.Duration
	tickAcc   time.Duration
	score     int

	activeStation *models.Station
	question      *openQuestion
	mechanic      challenge.Challenge
	recipe        *models.Order
	attempts      []evaluation.Attempt
	report        *evaluation.Report
}

// NewSession builds a session and seeds its initial orders
func NewSession(ctx context.Context, id, userID string, cfg config.GameConfig, deps Deps) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}
	if deps.Layout == nil || deps.Recipes == nil || deps.Questions == nil {
		return nil, fmt.Errorf("session requires a layout, recipes and a question source")
	}
	if err := deps.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}

	pf, err := navigation.New(cfg.Pathfinding, deps.Layout, cfg.Diagonal)
	if err != nil {
		return nil, err
	}

	handlers := defaultHandlers()
	for _, t := range models.AllStationTypes {
		if handlers[t] == nil {
			return nil, fmt.Errorf("no interaction handler for station type %s", t)
		}
	}

	if id == "" {
		id = uuid.NewString()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	evaluator := deps.Evaluator
	if evaluator == nil {
		evaluator = evaluation.NewEvaluator()
	}
	bus := deps.Bus
	if bus == nil {
		bus = NewBus()
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:         id,
		UserID:     userID,
		ctx:        sctx,
		cancel:     cancel,
		now:        time.Now,
		cfg:        cfg,
		layout:     deps.Layout,
		pathfinder: pf,
		resolver:   movement.NewResolver(deps.Layout),
		player:     movement.NewPlayer(deps.Layout.PlayerSpawn, cfg.PlayerSpeed),
		trigger:    interaction.NewTrigger(deps.Layout.Stations, cfg.InteractionRadius, cfg.DwellDelay),
		board: orders.NewBoard(orders.Config{
			MaxActive:        cfg.MaxActiveOrders,
			LastCall:         cfg.LastCall,
			QualityPenalty:   cfg.QualityPenalty,
			QualityThreshold: cfg.QualityFailThreshold,
		}),
		recipes:   deps.Recipes,
		questions: deps.Questions,
		evaluator: evaluator,
		inventory: models.NewInventory(models.DefaultInventoryCapacity),
		handlers:  handlers,
		rng:       rand.New(rand.NewSource(seed)),
		bus:       bus,
		status:    StatusActive,
		timeLeft:  cfg.SessionDuration,
	}
	s.startedAt = s.now()

	for i := 0; i < cfg.InitialOrders; i++ {
		o := s.nextOrder()
		s.board.Seed(o)
		s.publishOrder(EventOrderAdmitted, o)
	}
	return s, nil
}

// Subscribe listens to this session's events
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	return s.bus.Subscribe(buffer)
}

// Frame advances the session by dt: clocks first, then the running
// mechanic, then movement and proximity unless a modal is open
func (s *Session) Frame(dt time.Duration) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded || dt <= 0 {
		return s.status
	}

	s.advanceClock(dt)
	if s.status == StatusEnded {
		return s.status
	}

	if s.mechanic != nil && s.mechanic.Tick(dt) != challenge.StateRunning {
		s.finishMechanic()
	}

	if s.paused() {
		return s.status
	}

	movement.Step(s.player, s.resolver, dt.Seconds())
	if st := s.trigger.Update(s.player.Position, dt); st != nil {
		s.interact(st)
	}
	return s.status
}

func (s *Session) advanceClock(dt time.Duration) {
	s.elapsed += dt
	s.timeLeft -= dt
	s.tickAcc += dt
	for s.tickAcc >= s.cfg.TickInterval {
		s.tickAcc -= s.cfg.TickInterval
		for _, o := range s.board.Tick(s.cfg.TickInterval) {
			s.closeRecipe(o)
			s.publishOrder(EventOrderFailed, o)
		}
	}
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		s.endLocked()
	}
}

func (s *Session) paused() bool {
	return s.question != nil || s.mechanic != nil || s.recipe != nil
}

func (s *Session) interact(st *models.Station) {
	h, ok := s.handlers[st.Type]
	if !ok {
		log.Printf("session %s: no handler for station %s", s.ID, st.ID)
		return
	}
	s.activeStation = st
	s.publish(Event{Type: EventStationTriggered, Station: st.Type, Message: st.ID})
	h(s, st)
}

func (s *Session) nextOrder() *models.Order {
	recipe := s.recipes.Random(s.rng)
	return recipe.NewOrder(uuid.NewString())
}

// progress applies a challenge outcome to the order awaiting station t
func (s *Session) progress(t models.StationType, correct bool) *models.Order {
	o, res, ok := s.board.Progress(t, correct)
	if !ok {
		return nil
	}
	switch {
	case res.OrderCompleted:
		s.score += s.cfg.CompletionBonus
		s.closeRecipe(o)
		s.publishOrder(EventOrderCompleted, o)
	case res.OrderFailed:
		s.closeRecipe(o)
		s.publishOrder(EventOrderFailed, o)
	case res.StepCompleted:
		s.publishOrder(EventStepCompleted, o)
	}
	return o
}

func (s *Session) openQuestion(t models.StationType) {
	qs, err := s.questions.Fetch(s.ctx, questions.Query{Count: 1, StationType: t})
	if err == nil && len(qs) == 0 {
		err = questions.ErrNoQuestions
	}
	if err != nil {
		log.Printf("session %s: warning: no question for station %s: %v", s.ID, t, err)
		return
	}
	s.question = &openQuestion{question: qs[0], station: t, openedAt: s.elapsed}
	s.publish(Event{Type: EventQuestionOpened, Station: t, Message: qs[0].ID})
}

func (s *Session) finishMechanic() {
	out := s.mechanic.Finish()
	s.mechanic = nil
	s.publish(Event{Type: EventMechanicFinished, Station: out.Station, Success: out.Success, Elapsed: out.Elapsed})

	if !out.Success {
		s.progress(out.Station, false)
		return
	}
	// products only land in the inventory when an order is waiting on them
	if product, ok := models.ProductOf(out.Station); ok {
		if o := s.board.Awaiting(out.Station); o != nil {
			s.inventory.Add(models.InventoryItem{Name: product, Station: out.Station, OrderID: o.ID})
		}
	}
	s.openQuestion(out.Station)
}

func (s *Session) closeRecipe(o *models.Order) {
	if s.recipe != nil && s.recipe.ID == o.ID {
		s.recipe = nil
	}
}

// AnswerResult reports what a submitted answer did
type AnswerResult struct {
	Correct         bool          `json:"correct"`
	CorrectChoiceID string        `json:"correct_choice_id"`
	Explanation     string        `json:"explanation"`
	Points          int           `json:"points"`
	Score           int           `json:"score"`
	Order           *models.Order `json:"order,omitempty"`
}

// Answer submits a choice for the open question and closes it
func (s *Session) Answer(choiceID string) (*AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return nil, ErrSessionEnded
	}
	if s.question == nil {
		return nil, ErrNoActiveQuestion
	}
	open := s.question
	if !open.question.HasChoice(choiceID) {
		return nil, ErrInvalidChoice
	}
	s.question = nil

	correct := open.question.IsCorrect(choiceID)
	s.attempts = append(s.attempts, evaluation.Attempt{
		QuestionID: open.question.ID,
		SkillID:    open.question.SkillID,
		Station:    open.station,
		ChoiceID:   choiceID,
		Correct:    correct,
		TimeTaken:  s.elapsed - open.openedAt,
		AnsweredAt: s.now(),
	})

	before := s.score
	if correct {
		s.score += s.cfg.QuestionReward
	}
	s.publish(Event{Type: EventQuestionAnswered, Station: open.station, Success: correct, Message: open.question.ID})
	o := s.progress(open.station, correct)

	res := &AnswerResult{
		Correct:         correct,
		CorrectChoiceID: open.question.CorrectChoiceID,
		Explanation:     open.question.Explanation,
		Points:          s.score - before,
		Score:           s.score,
	}
	if o != nil {
		res.Order = o.Clone()
	}
	return res, nil
}

// MechanicAction registers one player action on the running mechanic
func (s *Session) MechanicAction() (challenge.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return challenge.View{}, ErrSessionEnded
	}
	if s.mechanic == nil {
		return challenge.View{}, ErrNoActiveMechanic
	}
	m := s.mechanic
	state := m.Act()
	view := m.View()
	if state != challenge.StateRunning {
		s.finishMechanic()
	}
	return view, nil
}

// AbandonMechanic closes the running mechanic without affecting any order
func (s *Session) AbandonMechanic() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return ErrSessionEnded
	}
	if s.mechanic == nil {
		return ErrNoActiveMechanic
	}
	station := s.mechanic.Station()
	s.mechanic = nil
	s.publish(Event{Type: EventMechanicFinished, Station: station, Message: "abandoned"})
	return nil
}

// DismissRecipe closes the recipe ticket shown on pickup
func (s *Session) DismissRecipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return ErrSessionEnded
	}
	if s.recipe == nil {
		return ErrNoActiveRecipe
	}
	s.recipe = nil
	return nil
}

// ClickAt routes the player to an exact floor point
func (s *Session) ClickAt(p models.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptMovement(); err != nil {
		return err
	}
	s.player.SetPath(s.pathfinder.FindPath(s.player.Position, p))
	return nil
}

// MoveToStation routes the player to the approach point in front of a station
func (s *Session) MoveToStation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptMovement(); err != nil {
		return err
	}
	st, ok := s.layout.Station(id)
	if !ok {
		log.Printf("session %s: move to unknown station %q ignored", s.ID, id)
		return fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}
	s.player.SetPath(s.pathfinder.FindPath(s.player.Position, st.ApproachPoint()))
	return nil
}

// SetKeys holds a keyboard direction; a zero vector releases it
func (s *Session) SetKeys(dx, dy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusEnded {
		return ErrSessionEnded
	}
	s.player.SetInput(dx, dy)
	return nil
}

// Interact lets the highlighted station fire again once the dwell delay passes
func (s *Session) Interact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptMovement(); err != nil {
		return err
	}
	if !s.trigger.Rearm() {
		return ErrNoStationInRange
	}
	return nil
}

func (s *Session) acceptMovement() error {
	if s.status == StatusEnded {
		return ErrSessionEnded
	}
	if s.paused() {
		return ErrPaused
	}
	return nil
}

// End stops the session, failing every open order, and returns its recap.
// Ending twice returns the same recap.
func (s *Session) End() *evaluation.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endLocked()
}

func (s *Session) endLocked() *evaluation.Report {
	if s.status == StatusEnded {
		return s.report
	}
	s.status = StatusEnded
	s.endedAt = s.now()

	for _, o := range s.board.FailAll() {
		s.publishOrder(EventOrderFailed, o)
	}
	s.question = nil
	s.mechanic = nil
	s.recipe = nil
	s.player.ClearPath()
	s.player.SetInput(0, 0)

	s.report = s.evaluator.Evaluate(s.summary())
	s.publish(Event{Type: EventSessionEnded, Message: s.report.Grade})
	s.cancel()
	return s.report
}

func (s *Session) summary() evaluation.SessionSummary {
	completed, failed := s.board.Counts()
	var dishes []string
	for _, o := range s.board.Retired() {
		if o.Status == models.OrderStatusCompleted {
			dishes = append(dishes, o.DishName)
		}
	}
	ended := s.endedAt
	if ended.IsZero() {
		ended = s.now()
	}
	return evaluation.SessionSummary{
		SessionID:       s.ID,
		UserID:          s.UserID,
		StartedAt:       s.startedAt,
		EndedAt:         ended,
		Score:           s.score,
		OrdersGenerated: s.board.Generated(),
		OrdersCompleted: completed,
		OrdersFailed:    failed,
		DishesServed:    dishes,
		Attempts:        append([]evaluation.Attempt(nil), s.attempts...),
	}
}

// Stats returns the recap so far; after the session ends it is the final one
func (s *Session) Stats() *evaluation.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report != nil {
		return s.report
	}
	return s.evaluator.Evaluate(s.summary())
}

// Status returns whether the session is still running
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Score returns the current score
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

func (s *Session) publish(e Event) {
	e.SessionID = s.ID
	s.bus.Publish(e)
}

func (s *Session) publishOrder(t EventType, o *models.Order) {
	s.publish(Event{
		Type:    t,
		OrderID: o.ID,
		Recipe:  o.RecipeID,
		Elapsed: o.Deadline - o.TimeRemaining,
	})
}

// Done is closed when the session ends
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}
