package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service counters. A nil *Metrics is a valid no-op.
type Metrics struct {
	AccessDenials  *prometheus.CounterVec
	AuditEntries   *prometheus.CounterVec
	AidTransitions *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AccessDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "victim_aid_access_denials_total",
			Help: "Operations refused by the access policy",
		}, []string{"operation", "role"}),

		AuditEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "victim_aid_audit_entries_total",
			Help: "Action log entries written by action",
		}, []string{"action"}),

		AidTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "victim_aid_aid_transitions_total",
			Help: "Aid request status transitions by transition and outcome",
		}, []string{"transition", "outcome"}), // outcome: "applied", "conflict"

		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "victim_aid_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "victim_aid_http_request_duration_seconds",
			Help:    "HTTP request duration by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) AccessDenied(operation, role string) {
	if m != nil {
		m.AccessDenials.WithLabelValues(operation, role).Inc()
	}
}

// AuditEntryRecorded satisfies audit.Observer.
func (m *Metrics) AuditEntryRecorded(action string) {
	if m != nil {
		m.AuditEntries.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) AidTransition(transition, outcome string) {
	if m != nil {
		m.AidTransitions.WithLabelValues(transition, outcome).Inc()
	}
}

// LoginAttempt satisfies auth.LoginObserver.
func (m *Metrics) LoginAttempt(result string) {
	if m != nil {
		m.Logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
	}
}
