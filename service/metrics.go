package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the RPC surface, grounded in the teacher's
// promauto-registered gauge/counter style (master/metrics.go), supplemented
// per spec §6's RPC procedures.
var (
	inferRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nice2predict",
		Name:      "infer_requests_total",
		Help:      "Total number of requests served per RPC procedure and status.",
	}, []string{"procedure", "status"})

	inferDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nice2predict",
		Name:      "infer_duration_seconds",
		Help:      "Latency of served requests per RPC procedure.",
	}, []string{"procedure"})
)
