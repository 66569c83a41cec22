package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenrush/internal/config"
	"kitchenrush/internal/models"
	"kitchenrush/internal/orders"
	"kitchenrush/internal/questions"
)

const frame = time.Second / 60

func testQuestions(t *testing.T) questions.Source {
	t.Helper()
	var qs []models.Question
	for _, st := range models.AllStationTypes {
		if !st.IsProcess() {
			continue
		}
		qs = append(qs, models.Question{
			ID:          string(st) + "-q",
			SkillID:     "math.ratios",
			ExamType:    "SAT",
			Section:     "math",
			Difficulty:  2,
			StationType: st,
			Stem:        "How many cups?",
			Choices: []models.Choice{
				{ID: "a", Text: "two"},
				{ID: "b", Text: "three"},
			},
			CorrectChoiceID: "a",
			Explanation:     "Two cups.",
		})
	}
	bank, err := questions.NewBank(qs, 1)
	require.NoError(t, err)
	return bank
}

func testRecipes(t *testing.T, stations []models.StationType, deadline time.Duration) *orders.RecipeBook {
	t.Helper()
	book, err := orders.NewRecipeBook([]models.Recipe{{
		ID:            "stew",
		Name:          "Statistics Stew",
		Category:      "main",
		Stations:      stations,
		EstimatedTime: deadline,
	}})
	require.NoError(t, err)
	return book
}

func testConfig() config.GameConfig {
	cfg := config.DefaultGame()
	cfg.Seed = 7
	cfg.InitialOrders = 0
	return cfg
}

func newTestSession(t *testing.T, cfg config.GameConfig, recipes *orders.RecipeBook) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), "test", "chef", cfg, Deps{
		Layout:    models.DefaultLayout(),
		Recipes:   recipes,
		Questions: testQuestions(t),
	})
	require.NoError(t, err)
	return s
}

// runUntil advances frames until cond holds or limit of simulated time passes
func runUntil(t *testing.T, s *Session, limit time.Duration, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	for elapsed := time.Duration(0); elapsed < limit; elapsed += frame {
		s.Frame(frame)
		if snap := s.Snapshot(); cond(snap) {
			return snap
		}
	}
	t.Fatalf("condition not reached within %v", limit)
	return Snapshot{}
}

func questionOpen(snap Snapshot) bool { return snap.Question != nil }

// placePlayer drops the player at p with no route
func placePlayer(s *Session, p models.Point) {
	s.player.Position = p
	s.player.ClearPath()
}

// walkTo starts the player on a clear run at a station: straight up the floor
// for the hot line, along the front corridor for the front row. Walking past
// other stations on the way would trigger them.
func walkTo(t *testing.T, s *Session, stationID string) {
	t.Helper()
	st, ok := s.layout.Station(stationID)
	require.True(t, ok, stationID)
	approach := st.ApproachPoint()
	switch {
	case st.Position.Y > 300:
		placePlayer(s, models.Point{X: approach.X, Y: 560})
	case approach.X < 640:
		placePlayer(s, models.Point{X: approach.X + 176, Y: 272})
	default:
		placePlayer(s, models.Point{X: approach.X - 208, Y: 272})
	}
	require.NoError(t, s.MoveToStation(stationID))
}

// visit walks to a station and waits for the question it opens
func visit(t *testing.T, s *Session, stationID string) Snapshot {
	t.Helper()
	walkTo(t, s, stationID)
	return runUntil(t, s, 30*time.Second, questionOpen)
}

func TestClickFridgeOpensMechanicOnce(t *testing.T) {
	s := newTestSession(t, testConfig(), testRecipes(t, []models.StationType{models.StationFridge}, time.Minute))
	fridge, ok := s.layout.Station("fridge")
	require.True(t, ok)
	zone := fridge.InteractionZone.Center()

	// from spawn the route ends exactly at the clicked zone center
	require.NoError(t, s.ClickAt(zone))
	path := append([]models.Point{*s.player.Target}, s.player.Path...)
	assert.Equal(t, zone, path[len(path)-1], "path must end exactly at the clicked point")

	// walk straight up to the fridge so no other station is passed on the way
	placePlayer(s, models.Point{X: 112, Y: 560})
	goal := models.Point{X: 112, Y: 420}
	require.NoError(t, s.ClickAt(goal))
	path = append([]models.Point{*s.player.Target}, s.player.Path...)
	assert.Equal(t, goal, path[len(path)-1])

	opened := 0
	wasOpen := false
	for i := 0; i < 60*40; i++ {
		s.Frame(frame)
		snap := s.Snapshot()
		isOpen := snap.Mechanic != nil
		if isOpen && !wasOpen {
			opened++
			assert.Equal(t, models.StationFridge, snap.Mechanic.Station)
			assert.Equal(t, "fridge", snap.ActiveStation)
		}
		wasOpen = isOpen
	}
	assert.Equal(t, 1, opened)
}

func TestFourStepOrderAllCorrect(t *testing.T) {
	cfg := testConfig()
	cfg.MechanicsEnabled = false
	cfg.InitialOrders = 1
	stations := []models.StationType{models.StationFridge, models.StationPrep, models.StationStove, models.StationPlating}
	s := newTestSession(t, cfg, testRecipes(t, stations, 10*time.Minute))

	snap := s.Snapshot()
	require.Len(t, snap.Orders, 1)
	order := snap.Orders[0]
	assert.Equal(t, models.OrderStatusPending, order.Status)

	route := []string{"fridge", "prep-station", "stove", "plating-station"}
	for i, id := range route {
		snap = visit(t, s, id)
		assert.Equal(t, stations[i], snap.Question.StationType)

		res, err := s.Answer("a")
		require.NoError(t, err)
		assert.True(t, res.Correct)
		require.NotNil(t, res.Order)
		require.NoError(t, res.Order.CheckSteps())

		if i < len(route)-1 {
			assert.Equal(t, 100, res.Points)
			assert.Equal(t, models.OrderStatusInProgress, res.Order.Status)
		} else {
			assert.Equal(t, 350, res.Points)
			assert.Equal(t, models.OrderStatusCompleted, res.Order.Status)
		}
	}

	assert.Equal(t, 4*100+250, s.Score())
	snap = s.Snapshot()
	assert.Empty(t, snap.Orders)
	assert.Equal(t, 1, snap.OrdersCompleted)

	stats := s.Stats()
	assert.Equal(t, 4, stats.QuestionsCorrect)
	assert.Equal(t, "A", stats.Grade)
	assert.Equal(t, []string{"Statistics Stew"}, stats.DishesServed)
}

func TestMechanicThenServe(t *testing.T) {
	cfg := testConfig()
	cfg.InitialOrders = 1
	s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge, models.StationServing}, 10*time.Minute))

	walkTo(t, s, "fridge")
	runUntil(t, s, 30*time.Second, func(snap Snapshot) bool { return snap.Mechanic != nil })

	_, err := s.Answer("a")
	assert.ErrorIs(t, err, ErrNoActiveQuestion)

	for i := 0; i < 3; i++ {
		_, err := s.MechanicAction()
		require.NoError(t, err)
	}
	snap := s.Snapshot()
	require.Nil(t, snap.Mechanic)
	require.NotNil(t, snap.Question, "a successful mechanic opens the station question")
	require.Len(t, snap.Inventory, 1)
	assert.Equal(t, models.StationFridge, snap.Inventory[0].Station)
	assert.Equal(t, snap.Orders[0].ID, snap.Inventory[0].OrderID)

	_, err = s.Answer("a")
	require.NoError(t, err)

	walkTo(t, s, "serving-window")
	snap = runUntil(t, s, 30*time.Second, func(snap Snapshot) bool { return snap.OrdersCompleted == 1 })
	assert.Equal(t, 100+250, snap.Score)
	assert.Empty(t, snap.Inventory)
	assert.Empty(t, snap.Orders)
}

func TestMechanicWithoutOrderLeavesInventoryEmpty(t *testing.T) {
	s := newTestSession(t, testConfig(), testRecipes(t, []models.StationType{models.StationFridge}, time.Minute))

	walkTo(t, s, "fridge")
	runUntil(t, s, 30*time.Second, func(snap Snapshot) bool { return snap.Mechanic != nil })
	for i := 0; i < 3; i++ {
		_, err := s.MechanicAction()
		require.NoError(t, err)
	}

	snap := s.Snapshot()
	require.NotNil(t, snap.Question)
	assert.Empty(t, snap.Orders)
	assert.Empty(t, snap.Inventory)
}

func TestFailedMechanicCountsAsWrongAttempt(t *testing.T) {
	cfg := testConfig()
	cfg.InitialOrders = 1
	s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge, models.StationServing}, 10*time.Minute))

	walkTo(t, s, "fridge")
	runUntil(t, s, 30*time.Second, func(snap Snapshot) bool { return snap.Mechanic != nil })

	// nobody taps; the fridge mechanic runs out
	snap := runUntil(t, s, 30*time.Second, func(snap Snapshot) bool { return snap.Mechanic == nil })
	assert.Nil(t, snap.Question)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, 90, snap.Orders[0].QualityScore)
	assert.Equal(t, models.StepStatusActive, snap.Orders[0].Steps[0].Status)
}

func TestAbandonMechanicHasNoPenalty(t *testing.T) {
	cfg := testConfig()
	cfg.InitialOrders = 1
	s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge}, 10*time.Minute))

	walkTo(t, s, "fridge")
	runUntil(t, s, 30*time.Second, func(snap Snapshot) bool { return snap.Mechanic != nil })

	require.NoError(t, s.AbandonMechanic())
	assert.ErrorIs(t, s.AbandonMechanic(), ErrNoActiveMechanic)

	snap := s.Snapshot()
	assert.False(t, snap.Paused)
	assert.Equal(t, models.InitialQuality, snap.Orders[0].QualityScore)
}

func TestWrongAnswersFailOrder(t *testing.T) {
	cfg := testConfig()
	cfg.MechanicsEnabled = false
	cfg.InitialOrders = 1
	s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge, models.StationPrep}, 10*time.Minute))

	visit(t, s, "fridge")
	for attempt := 1; attempt <= 3; attempt++ {
		res, err := s.Answer("b")
		require.NoError(t, err)
		assert.False(t, res.Correct)
		assert.Zero(t, res.Points)
		assert.Equal(t, "a", res.CorrectChoiceID)
		require.NotNil(t, res.Order)

		if attempt < 3 {
			assert.Equal(t, models.OrderStatusInProgress, res.Order.Status)
			assert.Equal(t, models.StepStatusActive, res.Order.Steps[0].Status)
			require.NoError(t, s.Interact())
			runUntil(t, s, 5*time.Second, questionOpen)
		} else {
			assert.Equal(t, models.OrderStatusFailed, res.Order.Status)
			assert.Equal(t, 70, res.Order.QualityScore)
		}
	}

	snap := s.Snapshot()
	assert.Empty(t, snap.Orders)
	assert.Equal(t, 1, snap.OrdersFailed)
	assert.Zero(t, snap.Score)

	stats := s.Stats()
	assert.Equal(t, 3, stats.QuestionsAttempted)
	assert.Len(t, stats.Review, 3)
}

func TestInvalidChoiceKeepsQuestionOpen(t *testing.T) {
	cfg := testConfig()
	cfg.MechanicsEnabled = false
	s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge}, time.Minute))

	visit(t, s, "fridge")
	_, err := s.Answer("z")
	assert.ErrorIs(t, err, ErrInvalidChoice)
	assert.NotNil(t, s.Snapshot().Question)

	// answering with no order waiting still scores the question
	res, err := s.Answer("a")
	require.NoError(t, err)
	assert.Nil(t, res.Order)
	assert.Equal(t, 100, res.Score)
}

func TestOrderTimeoutIndependentOfFrameSize(t *testing.T) {
	run := func(step time.Duration, frames int) *models.Order {
		cfg := testConfig()
		cfg.InitialOrders = 1
		s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge, models.StationServing}, 180*time.Second))
		for i := 0; i < frames; i++ {
			s.Frame(step)
		}
		retired := s.board.Retired()
		require.Len(t, retired, 1)
		return retired[0]
	}

	coarse := run(3*time.Second, 60)
	fine := run(time.Second, 180)

	for _, o := range []*models.Order{coarse, fine} {
		assert.Equal(t, models.OrderStatusFailed, o.Status)
		assert.Zero(t, o.TimeRemaining)
		require.NoError(t, o.CheckSteps())
	}
	assert.Equal(t, coarse.Steps, fine.Steps)
	assert.Equal(t, coarse.QualityScore, fine.QualityScore)
}

func TestOrderSurvivesJustBeforeDeadline(t *testing.T) {
	cfg := testConfig()
	cfg.InitialOrders = 1
	s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge}, 180*time.Second))

	for i := 0; i < 179; i++ {
		s.Frame(time.Second)
	}
	snap := s.Snapshot()
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, time.Second, snap.Orders[0].TimeRemaining)
}

func TestSessionEndsWhenClockRunsOut(t *testing.T) {
	cfg := testConfig()
	cfg.InitialOrders = 1
	cfg.SessionDuration = 5 * time.Second
	s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge}, time.Minute))

	events, cancel := s.Subscribe(16)
	defer cancel()

	for i := 0; i < 5; i++ {
		s.Frame(time.Second)
	}
	assert.Equal(t, StatusEnded, s.Status())
	assert.Equal(t, StatusEnded, s.Frame(time.Second))

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after the session ended")
	}

	report := s.End()
	assert.Equal(t, 1, report.OrdersFailed)
	assert.Same(t, report, s.Stats())

	_, err := s.Answer("a")
	assert.ErrorIs(t, err, ErrSessionEnded)
	assert.ErrorIs(t, s.ClickAt(models.Point{X: 100, Y: 500}), ErrSessionEnded)

	var types []EventType
	for len(events) > 0 {
		types = append(types, (<-events).Type)
	}
	assert.Equal(t, []EventType{EventOrderFailed, EventSessionEnded}, types)
}

func TestTicketPickupShowsRecipe(t *testing.T) {
	cfg := testConfig()
	cfg.MechanicsEnabled = false
	s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge, models.StationServing}, time.Minute))

	walkTo(t, s, "ticket-board")
	snap := runUntil(t, s, 30*time.Second, func(snap Snapshot) bool { return snap.Recipe != nil })

	assert.True(t, snap.Paused)
	assert.Equal(t, snap.Recipe.ID, snap.CarriedOrderID)
	assert.Equal(t, models.OrderStatusInProgress, snap.Recipe.Status)
	assert.Equal(t, 1, snap.OrdersGenerated)
	assert.ErrorIs(t, s.ClickAt(models.Point{X: 640, Y: 450}), ErrPaused)

	require.NoError(t, s.DismissRecipe())
	assert.ErrorIs(t, s.DismissRecipe(), ErrNoActiveRecipe)

	// lingering at the ticket board does not take another order
	for i := 0; i < 60; i++ {
		s.Frame(frame)
	}
	assert.Equal(t, 1, s.Snapshot().OrdersGenerated)
}

func TestTicketRefusedAtLastCall(t *testing.T) {
	cfg := testConfig()
	cfg.SessionDuration = 61 * time.Second
	s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge}, time.Minute))

	walkTo(t, s, "ticket-board")
	runUntil(t, s, 30*time.Second, func(snap Snapshot) bool { return snap.Highlight == "ticket-board" && snap.DwellRemaining == 0 })

	snap := s.Snapshot()
	assert.Nil(t, snap.Recipe)
	assert.Zero(t, snap.OrdersGenerated)
}

func TestMoveToUnknownStation(t *testing.T) {
	s := newTestSession(t, testConfig(), testRecipes(t, []models.StationType{models.StationFridge}, time.Minute))

	err := s.MoveToStation("walk-in-freezer")
	assert.True(t, errors.Is(err, ErrUnknownStation))
	assert.False(t, s.Snapshot().Player.Moving)
}

func TestInteractNeedsStationInRange(t *testing.T) {
	s := newTestSession(t, testConfig(), testRecipes(t, []models.StationType{models.StationFridge}, time.Minute))

	assert.ErrorIs(t, s.Interact(), ErrNoStationInRange)
}

func TestKeyboardMovement(t *testing.T) {
	s := newTestSession(t, testConfig(), testRecipes(t, []models.StationType{models.StationFridge}, time.Minute))

	require.NoError(t, s.SetKeys(1, 0))
	for i := 0; i < 60; i++ {
		s.Frame(frame)
	}
	snap := s.Snapshot()
	assert.InDelta(t, 640+150, snap.Player.Position.X, 1)
	assert.Equal(t, 450.0, snap.Player.Position.Y)

	require.NoError(t, s.SetKeys(0, 0))
	s.Frame(frame)
	assert.False(t, s.Snapshot().Player.Moving)
}

func TestWalkingPastStationTriggersIt(t *testing.T) {
	s := newTestSession(t, testConfig(), testRecipes(t, []models.StationType{models.StationFridge}, time.Minute))
	events, cancel := s.Subscribe(16)
	defer cancel()

	// starts inside the stove's range and keeps walking right for a second
	placePlayer(s, models.Point{X: 580, Y: 410})
	require.NoError(t, s.SetKeys(1, 0))
	for i := 0; i < 60; i++ {
		s.Frame(frame)
	}

	var triggered []string
	for len(events) > 0 {
		if ev := <-events; ev.Type == EventStationTriggered {
			triggered = append(triggered, ev.Message)
		}
	}
	assert.Equal(t, []string{"stove"}, triggered)

	snap := s.Snapshot()
	assert.Equal(t, "stove", snap.ActiveStation)
	assert.True(t, snap.Mechanic != nil || snap.Question != nil)
	assert.True(t, snap.Paused)
}

func TestZeroFrameChangesNothing(t *testing.T) {
	cfg := testConfig()
	cfg.InitialOrders = 1
	s := newTestSession(t, cfg, testRecipes(t, []models.StationType{models.StationFridge}, time.Minute))
	require.NoError(t, s.ClickAt(models.Point{X: 900, Y: 500}))

	before := s.Snapshot()
	s.Frame(0)
	after := s.Snapshot()
	assert.Equal(t, before.Player.Position, after.Player.Position)
	assert.Equal(t, before.TimeLeft, after.TimeLeft)
}

func TestHandlerTableCoversEveryStation(t *testing.T) {
	handlers := defaultHandlers()
	for _, st := range models.AllStationTypes {
		assert.NotNil(t, handlers[st], "missing handler for %s", st)
	}
	assert.Len(t, handlers, len(models.AllStationTypes))
}

func TestNewSessionRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Pathfinding = "teleport"
	_, err := NewSession(context.Background(), "", "chef", cfg, Deps{
		Layout:    models.DefaultLayout(),
		Recipes:   testRecipes(t, []models.StationType{models.StationFridge}, time.Minute),
		Questions: testQuestions(t),
	})
	assert.Error(t, err)

	_, err = NewSession(context.Background(), "", "chef", testConfig(), Deps{})
	assert.Error(t, err)
}
