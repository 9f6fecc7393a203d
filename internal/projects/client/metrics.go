package client

import (
	"sync/atomic"
	"time"
)

// Metrics is a snapshot of Project Service call counters.
type Metrics struct {
	Calls     int64
	Errors    int64
	latencyNs int64
}

var globalMetrics struct {
	calls     atomic.Int64
	errors    atomic.Int64
	latencyNs atomic.Int64
}

// GetMetrics returns the current counters.
func GetMetrics() Metrics {
	return Metrics{
		Calls:     globalMetrics.calls.Load(),
		Errors:    globalMetrics.errors.Load(),
		latencyNs: globalMetrics.latencyNs.Load(),
	}
}

// ResetMetrics zeroes the counters (useful for testing).
func ResetMetrics() {
	globalMetrics.calls.Store(0)
	globalMetrics.errors.Store(0)
	globalMetrics.latencyNs.Store(0)
}

func recordCall(d time.Duration, err error) {
	globalMetrics.calls.Add(1)
	globalMetrics.latencyNs.Add(d.Nanoseconds())
	if err != nil {
		globalMetrics.errors.Add(1)
	}
}

// AverageLatencyMs returns the mean call latency in milliseconds.
func (m Metrics) AverageLatencyMs() float64 {
	if m.Calls == 0 {
		return 0
	}
	return float64(m.latencyNs) / float64(m.Calls) / 1e6
}

// ErrorRate returns failed calls as a percentage.
func (m Metrics) ErrorRate() float64 {
	if m.Calls == 0 {
		return 0
	}
	return float64(m.Errors) / float64(m.Calls) * 100
}
