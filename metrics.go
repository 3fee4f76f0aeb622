package onboard

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricOnboardingCreated counts successfully created sessions.
	MetricOnboardingCreated MetricID = iota
	// MetricOnboardingRejected counts intake payloads failing validation.
	MetricOnboardingRejected
	// MetricOnboardingRead counts session reads.
	MetricOnboardingRead
	// MetricOTPRequested counts OTP issuances persisted to a session.
	MetricOTPRequested
	// MetricOTPVerifySuccess counts passcodes accepted within their step.
	MetricOTPVerifySuccess
	// MetricOTPVerifyFailure counts wrong, stale, or premature passcodes.
	MetricOTPVerifyFailure
	// MetricSMSDispatchFailed counts SMS deliveries that failed after the
	// secret was persisted.
	MetricSMSDispatchFailed
	// MetricTokenNotFound counts operations against absent or expired tokens.
	MetricTokenNotFound
	// MetricSweepRuns counts sweep invocations.
	MetricSweepRuns
	// MetricLeadsCaptured counts abandoned leads persisted.
	MetricLeadsCaptured
	// MetricLeadNotifyFailed counts abandoned-lead notification failures.
	MetricLeadNotifyFailed

	metricCount
)

// Metrics is a fixed-size atomic counter registry; Inc and Snapshot are safe
// for concurrent use and allocation-free on the increment path.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{}
}

// Inc bumps one counter. A nil receiver (metrics disabled) is a no-op.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
