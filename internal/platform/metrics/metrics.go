package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "escrow_ledger"

// Metrics groups the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	entriesPosted     *prometheus.CounterVec
	entryAmount       *prometheus.CounterVec
	escrowTransitions *prometheus.CounterVec
	auditRecords      *prometheus.CounterVec
	securityEvents    prometheus.Counter
	monitorDropped    prometheus.Counter
	monitorFlagged    prometheus.Counter
	sweepReleased     prometheus.Counter
	integrityIssues   *prometheus.GaugeVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		entriesPosted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_entries_total",
			Help:      "Ledger entries appended to the chain, by initial status.",
		}, []string{"status", "category"}),
		entryAmount: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_entry_amount_minor_units_total",
			Help:      "Sum of amounts appended to the chain in minor units.",
		}, []string{"currency"}),
		escrowTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escrow_transitions_total",
			Help:      "Escrow state transitions by action.",
		}, []string{"action"}),
		auditRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_records_total",
			Help:      "Audit records appended, by action.",
		}, []string{"action"}),
		securityEvents: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_events_total",
			Help:      "High risk security events raised by the audit trail.",
		}),
		monitorDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_events_dropped_total",
			Help:      "Monitor notifications dropped because the buffer was full.",
		}),
		monitorFlagged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_events_flagged_total",
			Help:      "Monitor notifications flagged by the velocity rule.",
		}),
		sweepReleased: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escrow_sweep_released_total",
			Help:      "Escrows released automatically by the sweeper.",
		}),
		integrityIssues: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_integrity_issues",
			Help:      "Issues found by the last verification of each chain.",
		}, []string{"chain"}),
	}
}

func (m *Metrics) EntryPosted(status, category, currency string, amount int64) {
	if m == nil {
		return
	}
	m.entriesPosted.WithLabelValues(status, category).Inc()
	m.entryAmount.WithLabelValues(currency).Add(float64(amount))
}

func (m *Metrics) EscrowTransition(action string) {
	if m == nil {
		return
	}
	m.escrowTransitions.WithLabelValues(action).Inc()
}

func (m *Metrics) AuditRecorded(action string, securityEvent bool) {
	if m == nil {
		return
	}
	m.auditRecords.WithLabelValues(action).Inc()
	if securityEvent {
		m.securityEvents.Inc()
	}
}

func (m *Metrics) MonitorDropped() {
	if m == nil {
		return
	}
	m.monitorDropped.Inc()
}

func (m *Metrics) MonitorFlagged() {
	if m == nil {
		return
	}
	m.monitorFlagged.Inc()
}

func (m *Metrics) SweepReleased(n int) {
	if m == nil {
		return
	}
	m.sweepReleased.Add(float64(n))
}

func (m *Metrics) IntegrityChecked(chain string, issues int) {
	if m == nil {
		return
	}
	m.integrityIssues.WithLabelValues(chain).Set(float64(issues))
}
