package monitoring

import (
	"sync"
	"time"
)

// DefaultRecentSessions is how many finished sessions a monitor remembers
const DefaultRecentSessions = 20

// SessionResult is the headline of one finished session
type SessionResult struct {
	SessionID       string    `json:"session_id"`
	UserID          string    `json:"user_id"`
	Score           int       `json:"score"`
	Grade           string    `json:"grade"`
	Accuracy        float64   `json:"accuracy"`
	OrdersCompleted int       `json:"orders_completed"`
	OrdersFailed    int       `json:"orders_failed"`
	EndedAt         time.Time `json:"ended_at"`
}

// Stats is the snapshot served by the health endpoint
type Stats struct {
	UptimeSeconds   float64         `json:"uptime_seconds"`
	SessionsStarted int64           `json:"sessions_started"`
	SessionsEnded   int64           `json:"sessions_ended"`
	OrdersCompleted int64           `json:"orders_completed"`
	OrdersFailed    int64           `json:"orders_failed"`
	BestScore       int             `json:"best_score"`
	RecentSessions  []SessionResult `json:"recent_sessions"`
}

// Monitor keeps running totals and a fixed-size ring of recent session
// results, so its memory does not grow with the number of sessions served
type Monitor struct {
	mu        sync.RWMutex
	startTime time.Time

	started   int64
	ended     int64
	completed int64
	failed    int64
	best      int

	recent []SessionResult
	next   int
	size   int
}

// NewMonitor creates a monitor that remembers DefaultRecentSessions results
func NewMonitor() *Monitor {
	return NewMonitorSize(DefaultRecentSessions)
}

// NewMonitorSize creates a monitor that remembers the last n session results
func NewMonitorSize(n int) *Monitor {
	if n < 1 {
		n = 1
	}
	return &Monitor{
		startTime: time.Now(),
		recent:    make([]SessionResult, 0, n),
		size:      n,
	}
}

// SessionStarted counts a new session
func (m *Monitor) SessionStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

// RecordSession folds a finished session into the totals and the ring
func (m *Monitor) RecordSession(r SessionResult) {
	if r.EndedAt.IsZero() {
		r.EndedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ended++
	m.completed += int64(r.OrdersCompleted)
	m.failed += int64(r.OrdersFailed)
	if r.Score > m.best {
		m.best = r.Score
	}

	if len(m.recent) < m.size {
		m.recent = append(m.recent, r)
	} else {
		m.recent[m.next] = r
	}
	m.next = (m.next + 1) % m.size
}

// Recent returns the remembered results, newest first
func (m *Monitor) Recent() []SessionResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recentLocked()
}

func (m *Monitor) recentLocked() []SessionResult {
	n := len(m.recent)
	out := make([]SessionResult, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, m.recent[(m.next-1-i+2*n)%n])
	}
	return out
}

// Last returns the most recently finished session
func (m *Monitor) Last() (SessionResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.recent) == 0 {
		return SessionResult{}, false
	}
	return m.recent[(m.next-1+len(m.recent))%len(m.recent)], true
}

// Snapshot returns the totals, uptime and recent results
func (m *Monitor) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		UptimeSeconds:   time.Since(m.startTime).Seconds(),
		SessionsStarted: m.started,
		SessionsEnded:   m.ended,
		OrdersCompleted: m.completed,
		OrdersFailed:    m.failed,
		BestScore:       m.best,
		RecentSessions:  m.recentLocked(),
	}
}
