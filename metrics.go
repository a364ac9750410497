package authkit

import (
	"sync/atomic"
	"time"
)

// MetricID identifies an in-process counter.
type MetricID uint16

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterDuplicate
	MetricLoginSuccess
	MetricLoginFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshVersionMismatch
	MetricSessionsRevoked
	MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld
	MetricPasswordResetRequest
	MetricPasswordResetSuccess
	MetricPasswordResetFailure
	MetricEmailVerificationRequest
	MetricEmailVerificationSuccess
	MetricEmailVerificationFailure
	MetricEmailSendFailure
	MetricAccessRejected
	metricIDCount
)

// MetricDef names a counter for exporters.
type MetricDef struct {
	ID   MetricID
	Name string
	Help string
}

var counterDefs = [...]MetricDef{
	{MetricRegisterSuccess, "authkit_register_success_total", "Successful registrations."},
	{MetricRegisterDuplicate, "authkit_register_duplicate_total", "Registrations rejected for a taken username or email."},
	{MetricLoginSuccess, "authkit_login_success_total", "Successful logins."},
	{MetricLoginFailure, "authkit_login_failure_total", "Failed logins."},
	{MetricRefreshSuccess, "authkit_refresh_success_total", "Successful refresh token rotations."},
	{MetricRefreshFailure, "authkit_refresh_failure_total", "Rejected refresh attempts."},
	{MetricRefreshVersionMismatch, "authkit_refresh_version_mismatch_total", "Refresh tokens rejected because the user revoked sessions."},
	{MetricSessionsRevoked, "authkit_sessions_revoked_total", "Token version bumps."},
	{MetricPasswordChangeSuccess, "authkit_password_change_success_total", "Successful password changes."},
	{MetricPasswordChangeInvalidOld, "authkit_password_change_invalid_old_total", "Password changes rejected for a wrong current password."},
	{MetricPasswordResetRequest, "authkit_password_reset_request_total", "Forgot-password requests."},
	{MetricPasswordResetSuccess, "authkit_password_reset_success_total", "Completed password resets."},
	{MetricPasswordResetFailure, "authkit_password_reset_failure_total", "Rejected password reset codes."},
	{MetricEmailVerificationRequest, "authkit_email_verification_request_total", "Verification codes issued."},
	{MetricEmailVerificationSuccess, "authkit_email_verification_success_total", "Verified email addresses."},
	{MetricEmailVerificationFailure, "authkit_email_verification_failure_total", "Rejected verification codes."},
	{MetricEmailSendFailure, "authkit_email_send_failure_total", "Outgoing email that could not be delivered."},
	{MetricAccessRejected, "authkit_access_rejected_total", "Access tokens rejected by the auth gate."},
}

// CounterDefs lists every exported counter in a stable order.
func CounterDefs() []MetricDef {
	out := make([]MetricDef, len(counterDefs))
	copy(out, counterDefs[:])
	return out
}

// LatencyBucketBounds are the upper bounds, in seconds, of the access
// validation latency histogram. The final implicit bucket is +Inf.
var LatencyBucketBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
	sum     uint64 // nanoseconds
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters. A nil or disabled *Metrics is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	latency       metricHistogram
}

// MetricsSnapshot is a point-in-time copy. LatencyBuckets are non-cumulative.
type MetricsSnapshot struct {
	Counters          map[MetricID]uint64
	LatencyBuckets    []uint64
	LatencySumSeconds float64
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

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// ObserveValidate records one access-token validation.
func (m *Metrics) ObserveValidate(d time.Duration) {
	if m == nil || !m.enableLatency {
		return
	}
	atomic.AddUint64(&m.latency.buckets[bucketIndex(d)], 1)
	atomic.AddUint64(&m.latency.sum, uint64(d))
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{Counters: map[MetricID]uint64{}}
	if m == nil || !m.enabled {
		return s
	}

	for _, def := range counterDefs {
		s.Counters[def.ID] = atomic.LoadUint64(&m.counters[def.ID].value)
	}

	if m.enableLatency {
		s.LatencyBuckets = make([]uint64, histBucketCount)
		for i := range s.LatencyBuckets {
			s.LatencyBuckets[i] = atomic.LoadUint64(&m.latency.buckets[i])
		}
		s.LatencySumSeconds = time.Duration(atomic.LoadUint64(&m.latency.sum)).Seconds()
	}

	return s
}

func bucketIndex(d time.Duration) int {
	secs := d.Seconds()
	for i, bound := range LatencyBucketBounds {
		if secs <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
