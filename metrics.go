package authkit

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one controller counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that reached an authenticated
	// session without a second factor.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected or failed password steps.
	MetricLoginFailure
	// MetricSecondFactorRequired counts logins that entered the
	// challenge phase.
	MetricSecondFactorRequired
	// MetricSecondFactorSuccess counts confirmed challenges.
	MetricSecondFactorSuccess
	// MetricSecondFactorFailure counts rejected codes; the challenge
	// stays retryable.
	MetricSecondFactorFailure
	// MetricRefreshSuccess counts silent refreshes that kept the session.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refreshes the backend rejected; each
	// one forced the session anonymous.
	MetricRefreshFailure
	// MetricLogout counts logout requests, successful or not.
	MetricLogout
	// MetricSessionResumed counts snapshots revalidated at startup.
	MetricSessionResumed
	// MetricForcedAnonymous counts resets caused by unauthorized signals
	// outside the refresh path.
	MetricForcedAnonymous
	// MetricResultDiscarded counts in-flight results dropped by the
	// staleness check.
	MetricResultDiscarded
	// MetricRegisterSuccess counts accepted registrations.
	MetricRegisterSuccess
	// MetricRegisterFailure counts rejected registrations, local or
	// backend.
	MetricRegisterFailure
	// MetricInviteSent counts accepted invites.
	MetricInviteSent
	// MetricInviteFailure counts rejected invites.
	MetricInviteFailure
	// MetricPasswordChangeSuccess counts completed password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeFailure counts backend-rejected changes.
	MetricPasswordChangeFailure
	// MetricPasswordChangeReuseRejected counts changes stopped locally
	// because the new password equaled the current one.
	MetricPasswordChangeReuseRejected
	// MetricProfileFetch counts successful profile fetches.
	MetricProfileFetch
	// MetricProfileFailure counts failed profile fetches.
	MetricProfileFailure
	// MetricRequestLatency is the transport round-trip histogram.
	MetricRequestLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps each counter on its own cache line so concurrent
// increments do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the controller's in-process counters.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to a counter. No-op when metrics are disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a transport round-trip duration.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricRequestLatency {
		return
	}
	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
