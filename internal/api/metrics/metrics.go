// Package metrics defines and registers the custom Prometheus metrics for the
// pizza service auth endpoints. HTTP request metrics come from echoprometheus;
// this package only covers what the request counters cannot see.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pizza"

// Result label values shared by the auth counters.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultThrottled = "throttled"
)

// AuthAttemptsTotal counts register and login attempts.
// Labels:
//   - operation: "register" or "login"
//   - result: "success", "failure" or "throttled"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// AuthorizationsTotal counts bearer token checks done by the authentication
// middleware.
// Label:
//   - result: "authenticated", "anonymous", "invalid", "revoked" or "error"
var AuthorizationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorizations_total",
		Help:      "Total number of request authorizations, by outcome.",
	},
	[]string{"result"},
)

// AuthorizationDuration measures token decode plus session lookup.
var AuthorizationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "authorization_duration_seconds",
		Help:      "Duration of bearer token authorization including the session lookup.",
		Buckets:   prometheus.DefBuckets,
	},
)

// SessionsOpenedTotal counts tokens issued by register or login.
var SessionsOpenedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_opened_total",
		Help:      "Total number of sessions opened.",
	},
)

// SessionsClosedTotal counts logouts.
var SessionsClosedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_closed_total",
		Help:      "Total number of logout requests served.",
	},
)
