package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK             = "ok"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeUnauthorized   = "unauthorized"
	OutcomeRefreshFailed  = "refresh_failed"

	RefreshSuccess = "success"
	RefreshFailure = "failure"
	RefreshShared  = "shared"
)

type metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// newMetrics registers the gateway counters with reg. A nil reg gives
// working but unregistered counters.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "API calls made through the gateway, by final outcome.",
		}, []string{"outcome"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Subsystem: "gateway",
			Name:      "refreshes_total",
			Help:      "Access token refreshes, by result. shared counts callers that joined an in-flight refresh.",
		}, []string{"result"}),
	}
}

func (m *metrics) request(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *metrics) refresh(result string) {
	m.refreshes.WithLabelValues(result).Inc()
}
