// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"intraday-level-lab/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	BarsIngested  prometheus.Counter
	BarsReplayed  prometheus.Counter
	BarsSkipped   prometheus.Counter
	BarsRejected  *prometheus.CounterVec
	WSReconnects  prometheus.Counter
	FeedLastBarTs prometheus.Gauge

	// Simulation metrics
	OrdersPlaced  prometheus.Counter
	OrdersFilled  prometheus.Counter
	OrdersExpired prometheus.Counter
	TradesClosed  *prometheus.CounterVec
	DaysClosed    *prometheus.CounterVec
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "intraday_level_lab"
	}

	return &Metrics{
		// Feed metrics
		BarsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "bars_ingested_total",
			Help:      "Total number of bars ingested into storage",
		}),
		BarsReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "bars_replayed_total",
			Help:      "Total number of primary-contract bars replayed",
		}),
		BarsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "bars_skipped_total",
			Help:      "Total number of non-primary bars skipped",
		}),
		BarsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "bars_rejected_total",
			Help:      "Total number of bars rejected by reason",
		}, []string{"reason"}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "ws_reconnects_total",
			Help:      "Total number of websocket reconnections",
		}),
		FeedLastBarTs: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "last_bar_timestamp_ms",
			Help:      "Timestamp of the last bar received",
		}),

		// Simulation metrics
		OrdersPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "orders_placed_total",
			Help:      "Total number of pending orders placed",
		}),
		OrdersFilled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "orders_filled_total",
			Help:      "Total number of pending orders filled",
		}),
		OrdersExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "orders_expired_total",
			Help:      "Total number of pending orders expired unfilled",
		}),
		TradesClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_closed_total",
			Help:      "Total number of trades closed by exit reason",
		}, []string{"exit_reason"}),
		DaysClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "days_closed_total",
			Help:      "Total number of trading days closed by outcome",
		}, []string{"outcome"}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful simulation run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RunOutcome is the recordable outcome of one completed simulation run.
type RunOutcome struct {
	Trades        []domain.Trade
	Days          []domain.DaySummary
	BarsReplayed  int
	BarsSkipped   int
	OrdersPlaced  int
	OrdersFilled  int
	OrdersExpired int
}

// RecordRunOutcome feeds one run's replay, order and outcome counts into
// the simulation metrics.
func (m *Metrics) RecordRunOutcome(o RunOutcome) {
	m.BarsReplayed.Add(float64(o.BarsReplayed))
	m.BarsSkipped.Add(float64(o.BarsSkipped))
	m.OrdersPlaced.Add(float64(o.OrdersPlaced))
	m.OrdersFilled.Add(float64(o.OrdersFilled))
	m.OrdersExpired.Add(float64(o.OrdersExpired))
	for _, t := range o.Trades {
		m.TradesClosed.WithLabelValues(t.ExitReason).Inc()
	}
	for _, d := range o.Days {
		m.DaysClosed.WithLabelValues(dayOutcome(d)).Inc()
	}
}

// dayOutcome classifies a closed trading day for the days_closed_total label.
func dayOutcome(d domain.DaySummary) string {
	switch {
	case d.Holiday:
		return "holiday"
	case d.TargetHit:
		return "target"
	case d.PnL > 0:
		return "win"
	case d.PnL < 0:
		return "loss"
	default:
		return "flat"
	}
}

// RecordDBQuery records one query's duration and, when err is non-nil, an
// error against the (database, operation) pair.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordBarIngested increments the bars ingested counter.
func RecordBarIngested() {
	DefaultMetrics.BarsIngested.Inc()
}

// RecordWSReconnect increments the websocket reconnect counter.
func RecordWSReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}

// RecordBarRejected records a rejected bar with its reason.
func RecordBarRejected(reason string) {
	DefaultMetrics.BarsRejected.WithLabelValues(reason).Inc()
}

// RecordTradeClosed increments the trades closed counter for a reason.
func RecordTradeClosed(exitReason string) {
	DefaultMetrics.TradesClosed.WithLabelValues(exitReason).Inc()
}

// RecordRun records a simulation run outcome.
func RecordRun(status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.Observe(durationSeconds)
}

// RecordRunOutcome records one run's outcome on the default metrics.
func RecordRunOutcome(o RunOutcome) {
	DefaultMetrics.RecordRunOutcome(o)
}

// RecordDBQuery records database query metrics on the default metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, seconds, err)
}
