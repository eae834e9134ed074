package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(consoleRequestsTotal, consoleRequestDuration)
}

var (
	consoleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_console_requests_total",
			Help: "Console API requests by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	consoleRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_console_request_duration_seconds",
			Help:    "Console API request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func ObserveConsoleRequest(method, route string, code int, took time.Duration) {
	consoleRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	consoleRequestDuration.WithLabelValues(route).Observe(took.Seconds())
}
