package courseauth

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected logins (not found, disabled, bad
	// password).
	MetricLoginFailure
	// MetricRegisterSuccess counts created accounts.
	MetricRegisterSuccess
	// MetricRegisterDuplicate counts registrations rejected for a taken
	// username or email.
	MetricRegisterDuplicate
	// MetricRefreshSuccess counts access tokens minted on the refresh path.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refresh attempts.
	MetricRefreshFailure
	// MetricRefreshRevoked counts refresh attempts with a rotated-out or
	// revoked token.
	MetricRefreshRevoked
	// MetricLogout counts sessions revoked by logout.
	MetricLogout
	// MetricValidateRejected counts access tokens rejected by Validate.
	MetricValidateRejected
	// MetricBlacklistHit counts validations rejected by the blacklist
	// specifically.
	MetricBlacklistHit
	// MetricPasswordChange counts successful password changes.
	MetricPasswordChange
	// MetricVerificationRequest counts issued email-verification challenges.
	MetricVerificationRequest
	// MetricVerificationSuccess counts confirmed challenges.
	MetricVerificationSuccess
	// MetricVerificationFailure counts rejected challenges.
	MetricVerificationFailure

	metricCount
)

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Metrics holds the service's atomic counters. The zero value is unusable;
// the Builder constructs it when metrics are enabled.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Inc increments a counter. Unknown IDs are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
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

// MetricName returns the stable export name for a counter.
func MetricName(id MetricID) string {
	switch id {
	case MetricLoginSuccess:
		return "courseauth_login_success_total"
	case MetricLoginFailure:
		return "courseauth_login_failure_total"
	case MetricRegisterSuccess:
		return "courseauth_register_success_total"
	case MetricRegisterDuplicate:
		return "courseauth_register_duplicate_total"
	case MetricRefreshSuccess:
		return "courseauth_refresh_success_total"
	case MetricRefreshFailure:
		return "courseauth_refresh_failure_total"
	case MetricRefreshRevoked:
		return "courseauth_refresh_revoked_total"
	case MetricLogout:
		return "courseauth_logout_total"
	case MetricValidateRejected:
		return "courseauth_validate_rejected_total"
	case MetricBlacklistHit:
		return "courseauth_blacklist_hit_total"
	case MetricPasswordChange:
		return "courseauth_password_change_total"
	case MetricVerificationRequest:
		return "courseauth_verification_request_total"
	case MetricVerificationSuccess:
		return "courseauth_verification_success_total"
	case MetricVerificationFailure:
		return "courseauth_verification_failure_total"
	}
	return "courseauth_unknown_metric"
}

// MetricIDs lists every counter in export order.
func MetricIDs() []MetricID {
	ids := make([]MetricID, 0, metricCount)
	for id := MetricID(0); id < metricCount; id++ {
		ids = append(ids, id)
	}
	return ids
}
