// internal/login/metrics.go
package login

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mamportal_login_attempts_total",
		Help: "Completed top-level login calls by result.",
	}, []string{"result"})

	verifyCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mamportal_verify_calls_total",
		Help: "Outbound credential verification calls by tenant and outcome.",
	}, []string{"tenant", "outcome"})
)
