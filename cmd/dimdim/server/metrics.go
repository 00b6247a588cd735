package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics is per server so tests can run several servers in one process.
type metrics struct {
	registry    *prometheus.Registry
	conversions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	requests    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dimdim",
			Name:      "conversions_total",
			Help:      "Successful conversions by currency pair and surface (page or api).",
		}, []string{"from", "to", "surface"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dimdim",
			Name:      "conversions_rejected_total",
			Help:      "Conversion requests rejected for bad input.",
		}, []string{"reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dimdim",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.conversions,
		m.rejected,
		m.requests,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
