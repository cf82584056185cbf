// Package metrics provides Prometheus instrumentation for the SDK.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query lifecycle metrics.
var (
	QueriesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claudesdk_queries_started_total",
		Help: "Total number of queries launched.",
	})

	ActiveQueries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "claudesdk_active_queries",
		Help: "Number of queries currently streaming.",
	})

	ProcessExits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claudesdk_process_exits_total",
		Help: "Total number of CLI process exits.",
	}, []string{"outcome"})
)

// Stream metrics.
var (
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claudesdk_messages_total",
		Help: "Total number of messages parsed from CLI output.",
	}, []string{"type"})

	DecodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claudesdk_decode_errors_total",
		Help: "Total number of CLI output lines that failed to decode.",
	})

	StdoutBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claudesdk_stdout_bytes_total",
		Help: "Total bytes of CLI stdout consumed.",
	})
)

// Process exit outcomes.
const (
	OutcomeClean  = "clean"
	OutcomeFailed = "failed"
	OutcomeKilled = "killed"
)
