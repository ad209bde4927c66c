package goOIDC

import (
	"sync/atomic"
)

// MetricID names one engine counter.
type MetricID uint16

const (
	// MetricFlowStarted counts Start calls that registered a flow.
	MetricFlowStarted MetricID = iota
	// MetricFlowCompleted counts flows reaching COMPLETE.
	MetricFlowCompleted
	// MetricFlowFailed counts flows reaching FAILED.
	MetricFlowFailed
	// MetricFlowCanceled counts caller cancellations.
	MetricFlowCanceled
	// MetricExchangeSuccess counts accepted code exchanges.
	MetricExchangeSuccess
	// MetricExchangeFailure counts provider-rejected exchanges.
	MetricExchangeFailure
	// MetricStateMismatch counts callbacks dropped for a bad state.
	MetricStateMismatch
	// MetricTokenRejected counts ID tokens that failed validation.
	MetricTokenRejected
	// MetricRefreshSuccess counts successful refresh grants.
	MetricRefreshSuccess
	// MetricRefreshRetired counts refresh tokens retired on invalid_grant.
	MetricRefreshRetired
	// MetricPollAttempt counts token-endpoint polls.
	MetricPollAttempt
	// MetricPollSlowDown counts slow_down responses.
	MetricPollSlowDown
	// MetricPollDenied counts user denials.
	MetricPollDenied
	// MetricPollExpired counts lapsed device/CIBA sessions.
	MetricPollExpired
	// MetricCallbackTimeout counts AwaitCallback waits that lapsed.
	MetricCallbackTimeout
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of atomic counters. A nil or disabled Metrics is
// safe to use and records nothing.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
