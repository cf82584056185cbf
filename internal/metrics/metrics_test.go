package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"

	"github.com/ReOpsIL/claude-code-sdk-go/internal/metrics"
)

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	_ = counter.Write(m)
	return m.GetCounter().GetValue()
}

func counterVecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	c, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	m := &dto.Metric{}
	_ = c.Write(m)
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	_ = gauge.(prometheus.Metric).Write(m)
	return m.GetGauge().GetValue()
}

func TestMessageCounters(t *testing.T) {
	before := counterVecValue(t, metrics.MessagesTotal, "assistant")
	metrics.MessagesTotal.WithLabelValues("assistant").Inc()
	assert.Equal(t, before+1, counterVecValue(t, metrics.MessagesTotal, "assistant"))
}

func TestProcessExitOutcomes(t *testing.T) {
	for _, outcome := range []string{metrics.OutcomeClean, metrics.OutcomeFailed, metrics.OutcomeKilled} {
		before := counterVecValue(t, metrics.ProcessExits, outcome)
		metrics.ProcessExits.WithLabelValues(outcome).Inc()
		assert.Equal(t, before+1, counterVecValue(t, metrics.ProcessExits, outcome), outcome)
	}
}

func TestActiveQueriesGauge(t *testing.T) {
	before := gaugeValue(t, metrics.ActiveQueries)
	metrics.ActiveQueries.Inc()
	metrics.ActiveQueries.Dec()
	assert.Equal(t, before, gaugeValue(t, metrics.ActiveQueries))
}

func TestDecodeErrorCounter(t *testing.T) {
	before := counterValue(t, metrics.DecodeErrorsTotal)
	metrics.DecodeErrorsTotal.Inc()
	assert.Equal(t, before+1, counterValue(t, metrics.DecodeErrorsTotal))
}
