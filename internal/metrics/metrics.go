package metrics

import "sync/atomic"

// MetricID indexes one counter slot.
type MetricID int

const (
	LoginSuccess MetricID = iota
	LoginFailure
	LoginLocked
	RefreshSuccess
	RefreshFailure
	ReplayDetected
	VerifyDenied
	VerifyRejected
	Revocations
	Logout
	LogoutAll
	PasswordChange
	SessionCreated
	SessionInvalidated

	metricCount
)

var metricNames = [metricCount]string{
	LoginSuccess:       "login_success",
	LoginFailure:       "login_failure",
	LoginLocked:        "login_locked",
	RefreshSuccess:     "refresh_success",
	RefreshFailure:     "refresh_failure",
	ReplayDetected:     "replay_detected",
	VerifyDenied:       "verify_denied",
	VerifyRejected:     "verify_rejected",
	Revocations:        "revocations",
	Logout:             "logout",
	LogoutAll:          "logout_all",
	PasswordChange:     "password_change",
	SessionCreated:     "session_created",
	SessionInvalidated: "session_invalidated",
}

// Name returns the stable snapshot key for a metric.
func (id MetricID) Name() string {
	if id < 0 || id >= metricCount {
		return "unknown"
	}
	return metricNames[id]
}

// Metrics is a fixed set of atomic counters. A nil *Metrics is valid and
// counts nothing.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// New returns a Metrics instance, or nil when disabled.
func New(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	return &Metrics{}
}

// Inc adds one to a counter. Allocation-free.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id < 0 || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies all counters into a map keyed by metric name.
func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return nil
	}
	out := make(map[string]uint64, metricCount)
	for id := MetricID(0); id < metricCount; id++ {
		out[metricNames[id]] = m.counters[id].Load()
	}
	return out
}
