package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records per-vendor checkout outcomes and wallet contention.
type CheckoutMetrics struct {
	duration       *prometheus.HistogramVec
	sent           *prometheus.CounterVec
	failed         *prometheus.CounterVec
	replayed       prometheus.Counter
	spendConflicts prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of per-vendor checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sent_total",
		Help: "Checkouts that reached the Sent state.",
	}, []string{"redeemed"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Checkouts that reached the Failed state.",
	}, []string{"reason"})
	replayed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_replayed_total",
		Help: "Checkout submissions ignored because the vendor was already Sent.",
	})
	spendConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_spend_conflicts_total",
		Help: "Guarded wallet debits rejected by the non-negative balance guard.",
	})
	reg.MustRegister(duration, sent, failed, replayed, spendConflicts)
	return &CheckoutMetrics{
		duration:       duration,
		sent:           sent,
		failed:         failed,
		replayed:       replayed,
		spendConflicts: spendConflicts,
	}
}

// ObserveDuration records the elapsed time for a checkout attempt.
func (m *CheckoutMetrics) ObserveDuration(outcome string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(elapsed.Seconds())
}

// IncSent counts a checkout that reached Sent.
func (m *CheckoutMetrics) IncSent(redeemed bool) {
	if m == nil || m.sent == nil {
		return
	}
	label := "no"
	if redeemed {
		label = "yes"
	}
	m.sent.WithLabelValues(label).Inc()
}

// IncFailed counts a checkout that reached Failed.
func (m *CheckoutMetrics) IncFailed(reason string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncReplayed counts a repeat submission for an already-Sent vendor.
func (m *CheckoutMetrics) IncReplayed() {
	if m == nil || m.replayed == nil {
		return
	}
	m.replayed.Inc()
}

// IncSpendConflict counts a guarded debit rejected by the balance guard.
func (m *CheckoutMetrics) IncSpendConflict() {
	if m == nil || m.spendConflicts == nil {
		return
	}
	m.spendConflicts.Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
