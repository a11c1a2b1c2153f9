package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type serverMetrics struct {
	requests  *prometheus.CounterVec
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// newRegistry gives each server its own registry so several can run in one process
func newRegistry() (*prometheus.Registry, *serverMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return reg, &serverMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Subsystem: "mockapi",
			Name:      "http_requests_total",
			Help:      "Requests served, by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Subsystem: "mockapi",
			Name:      "logins_total",
			Help:      "Login attempts, by result.",
		}, []string{"result"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Subsystem: "mockapi",
			Name:      "token_refreshes_total",
			Help:      "Access token refreshes, by result.",
		}, []string{"result"}),
	}
}
