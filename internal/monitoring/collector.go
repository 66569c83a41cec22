package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kitchenrush/internal/models"
)

// Collector exports kitchen session metrics on its own registry
type Collector struct {
	registry *prometheus.Registry
	metrics  map[string]prometheus.Collector
}

// NewCollector creates a collector with every kitchen metric registered
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	orderCompletionTime := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kitchen_order_completion_seconds",
			Help:    "Time from admission to serving for completed orders",
			Buckets: prometheus.LinearBuckets(0, 30, 12),
		},
		[]string{"recipe"},
	)

	ordersFinished := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_orders_total",
			Help: "Orders retired from the board",
		},
		[]string{"recipe", "status"},
	)

	questionsAnswered := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_questions_answered_total",
			Help: "Questions answered at stations",
		},
		[]string{"station", "correct"},
	)

	mechanicsFinished := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitchen_mechanics_total",
			Help: "Station mechanics finished",
		},
		[]string{"station", "success"},
	)

	activeSessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kitchen_sessions_active",
			Help: "Sessions currently running",
		},
	)

	sessionScore := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kitchen_session_score",
			Help:    "Final score of ended sessions",
			Buckets: prometheus.LinearBuckets(0, 250, 12),
		},
	)

	frameDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kitchen_frame_duration_seconds",
			Help:    "Wall time spent advancing one session frame",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)

	accuracyGauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kitchen_station_accuracy_percent",
			Help: "Answer accuracy of the last ended session per station",
		},
		[]string{"station"},
	)

	metrics := map[string]prometheus.Collector{
		"order_completion": orderCompletionTime,
		"orders":           ordersFinished,
		"questions":        questionsAnswered,
		"mechanics":        mechanicsFinished,
		"sessions_active":  activeSessions,
		"session_score":    sessionScore,
		"frame_duration":   frameDuration,
		"accuracy":         accuracyGauge,
	}

	for _, metric := range metrics {
		registry.MustRegister(metric)
	}

	return &Collector{
		registry: registry,
		metrics:  metrics,
	}
}

// Registry returns the registry to serve with promhttp
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordOrder records a retired order; completion time is only observed for served orders
func (c *Collector) RecordOrder(recipe string, status models.OrderStatus, elapsed time.Duration) {
	c.metrics["orders"].(*prometheus.CounterVec).WithLabelValues(recipe, string(status)).Inc()
	if status == models.OrderStatusCompleted {
		c.metrics["order_completion"].(*prometheus.HistogramVec).WithLabelValues(recipe).Observe(elapsed.Seconds())
	}
}

// RecordAnswer records one answered question
func (c *Collector) RecordAnswer(station models.StationType, correct bool) {
	c.metrics["questions"].(*prometheus.CounterVec).WithLabelValues(string(station), strconv.FormatBool(correct)).Inc()
}

// RecordMechanic records a finished mechanic
func (c *Collector) RecordMechanic(station models.StationType, success bool) {
	c.metrics["mechanics"].(*prometheus.CounterVec).WithLabelValues(string(station), strconv.FormatBool(success)).Inc()
}

// SessionStarted increments the active session gauge
func (c *Collector) SessionStarted() {
	c.metrics["sessions_active"].(prometheus.Gauge).Inc()
}

// SessionEnded decrements the active session gauge and records the final score
func (c *Collector) SessionEnded(score int, accuracy map[models.StationType]float64) {
	c.metrics["sessions_active"].(prometheus.Gauge).Dec()
	c.metrics["session_score"].(prometheus.Histogram).Observe(float64(score))
	gauge := c.metrics["accuracy"].(*prometheus.GaugeVec)
	for station, pct := range accuracy {
		gauge.WithLabelValues(string(station)).Set(pct)
	}
}

// ObserveFrame records how long a frame took to compute
func (c *Collector) ObserveFrame(d time.Duration) {
	c.metrics["frame_duration"].(prometheus.Histogram).Observe(d.Seconds())
}
