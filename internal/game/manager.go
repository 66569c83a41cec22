package game

import (
	"context"
	"log"
	"sync"
	"time"

	"kitchenrush/internal/config"
	"kitchenrush/internal/evaluation"
	"kitchenrush/internal/models"
	"kitchenrush/internal/monitoring"
)

// maxFrameStep caps the time a single frame may simulate after a stall
const maxFrameStep = 250 * time.Millisecond

// SessionSaver persists finished sessions
type SessionSaver interface {
	SaveSession(rec *models.SessionRecord) (*models.UserProfile, error)
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithStore persists every finished session
func WithStore(store SessionSaver) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// WithCollector exports session metrics to Prometheus
func WithCollector(c *monitoring.Collector) ManagerOption {
	return func(m *Manager) { m.collector = c }
}

// WithMonitor records session results in the in-process monitor
func WithMonitor(mon *monitoring.Monitor) ManagerOption {
	return func(m *Manager) { m.monitor = mon }
}

// WithRetention keeps ended sessions readable for d before they are dropped
func WithRetention(d time.Duration) ManagerOption {
	return func(m *Manager) { m.retention = d }
}

// Manager owns the running sessions and the goroutine that drives each one
type Manager struct {
	cfg       config.GameConfig
	deps      Deps
	store     SessionSaver
	collector *monitoring.Collector
	monitor   *monitoring.Monitor
	retention time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager; sessions share deps but get their own bus
func NewManager(cfg config.GameConfig, deps Deps, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:       cfg,
		deps:      deps,
		retention: 10 * time.Minute,
		sessions:  make(map[string]*Session),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates a session for userID and starts its frame loop
func (m *Manager) Start(userID string) (*Session, error) {
	deps := m.deps
	deps.Bus = NewBus()

	s, err := NewSession(m.ctx, "", userID, m.cfg, deps)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if m.collector != nil {
		m.collector.SessionStarted()
	}
	if m.monitor != nil {
		m.monitor.SessionStarted()
	}

	events, _ := s.Subscribe(256)
	m.wg.Add(2)
	go m.observe(events)
	go m.run(s)

	log.Printf("session %s started for %s", s.ID, userID)
	return s, nil
}

// Get returns a session by id
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End stops a session early and returns its recap
func (m *Manager) End(id string) (*evaluation.Report, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return s.End(), nil
}

// Active returns how many sessions are still running
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if s.Status() == StatusActive {
			n++
		}
	}
	return n
}

// Shutdown ends every session and waits for their loops to finish
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run(s *Session) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.FrameInterval())
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-s.Done():
			m.finish(s)
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if dt > maxFrameStep {
				dt = maxFrameStep
			}

			start := time.Now()
			s.Frame(dt)
			if m.collector != nil {
				m.collector.ObserveFrame(time.Since(start))
			}
		}
	}
}

// finish records and persists an ended session, then schedules its removal
func (m *Manager) finish(s *Session) {
	report := s.End()
	s.bus.Close()

	if m.collector != nil {
		accuracy := make(map[models.StationType]float64, len(report.Stations))
		for station, b := range report.Stations {
			accuracy[station] = b.Accuracy()
		}
		m.collector.SessionEnded(report.Score, accuracy)
	}
	if m.monitor != nil {
		m.monitor.RecordSession(monitoring.SessionResult{
			SessionID:       s.ID,
			UserID:          s.UserID,
			Score:           report.Score,
			Grade:           report.Grade,
			Accuracy:        report.Accuracy,
			OrdersCompleted: report.OrdersCompleted,
			OrdersFailed:    report.OrdersFailed,
			EndedAt:         report.EndedAt,
		})
	}
	if m.store != nil {
		if _, err := m.store.SaveSession(report.Record()); err != nil {
			log.Printf("failed to save session %s: %v", s.ID, err)
		}
	}
	log.Printf("session %s ended: score %d, grade %s", s.ID, report.Score, report.Grade)

	time.AfterFunc(m.retention, func() {
		m.mu.Lock()
		delete(m.sessions, s.ID)
		m.mu.Unlock()
	})
}

func (m *Manager) observe(events <-chan Event) {
	defer m.wg.Done()
	for e := range events {
		if m.collector == nil {
			continue
		}
		switch e.Type {
		case EventOrderCompleted:
			m.collector.RecordOrder(e.Recipe, models.OrderStatusCompleted, e.Elapsed)
		case EventOrderFailed:
			m.collector.RecordOrder(e.Recipe, models.OrderStatusFailed, e.Elapsed)
		case EventQuestionAnswered:
			m.collector.RecordAnswer(e.Station, e.Success)
		case EventMechanicFinished:
			if e.Message != "abandoned" {
				m.collector.RecordMechanic(e.Station, e.Success)
			}
		}
	}
}
