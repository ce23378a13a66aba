// Package metrics содержит счётчики Prometheus для решений guard и попыток входа.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Решения guard.
const (
	DecisionAllow    = "allow"
	DecisionRedirect = "redirect"
	DecisionReject   = "reject"
)

// Результаты попытки входа.
const (
	LoginSuccess   = "success"
	LoginInvalid   = "invalid"
	LoginThrottled = "throttled"
	LoginError     = "error"
)

// Metrics хранит зарегистрированные счётчики. Nil-указатель допустим: методы ничего не делают.
type Metrics struct {
	GuardDecisions *prometheus.CounterVec
	LoginAttempts  *prometheus.CounterVec
}

// New создаёт счётчики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "guard_decisions_total",
			Help:      "Decisions made by the role guard, by family and outcome.",
		}, []string{"family", "decision"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "login_attempts_total",
			Help:      "Login attempts by family and result.",
		}, []string{"family", "result"}),
	}
	reg.MustRegister(m.GuardDecisions, m.LoginAttempts)
	return m
}

// GuardDecision увеличивает счётчик решений guard.
func (m *Metrics) GuardDecision(family, decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(family, decision).Inc()
}

// LoginAttempt увеличивает счётчик попыток входа.
func (m *Metrics) LoginAttempt(family, result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(family, result).Inc()
}
