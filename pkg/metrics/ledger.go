package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records outcomes of stock movements and corrections.
type LedgerMetrics struct {
	duration    *prometheus.HistogramVec
	movements   *prometheus.CounterVec
	corrections prometheus.Counter
	overdraws   prometheus.Counter
	conflicts   prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_movements_total",
		Help: "Successful stock movements by type.",
	}, []string{"type"})
	corrections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_corrections_total",
		Help: "Successful stock corrections.",
	})
	overdraws := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_overdraws_total",
		Help: "Movements rejected for exceeding current stock.",
	})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_conflicts_total",
		Help: "Lot mutations that lost a concurrency race after retries.",
	})
	reg.MustRegister(duration, movements, corrections, overdraws, conflicts)
	return &LedgerMetrics{
		duration:    duration,
		movements:   movements,
		corrections: corrections,
		overdraws:   overdraws,
		conflicts:   conflicts,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *LedgerMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncMovement increments the movement counter for the given type.
func (m *LedgerMetrics) IncMovement(movementType string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// IncCorrection increments the correction counter.
func (m *LedgerMetrics) IncCorrection() {
	if m == nil || m.corrections == nil {
		return
	}
	m.corrections.Inc()
}

// IncOverdraw increments the rejected-overdraw counter.
func (m *LedgerMetrics) IncOverdraw() {
	if m == nil || m.overdraws == nil {
		return
	}
	m.overdraws.Inc()
}

// IncConflict increments the lost-race counter.
func (m *LedgerMetrics) IncConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
