package internaldefs

import (
	authkit "github.com/greenledger/authkit"
)

// CounterDef binds a controller counter to its exported name.
type CounterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// HistogramDef binds a controller histogram to its exported name.
type HistogramDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: authkit.MetricLoginSuccess, Name: "authkit_login_success_total", Help: "Logins that authenticated without a second factor."},
	{ID: authkit.MetricLoginFailure, Name: "authkit_login_failure_total", Help: "Failed login attempts."},
	{ID: authkit.MetricSecondFactorRequired, Name: "authkit_second_factor_required_total", Help: "Logins that entered the second-factor challenge phase."},
	{ID: authkit.MetricSecondFactorSuccess, Name: "authkit_second_factor_success_total", Help: "Confirmed second-factor challenges."},
	{ID: authkit.MetricSecondFactorFailure, Name: "authkit_second_factor_failure_total", Help: "Rejected second-factor codes."},
	{ID: authkit.MetricRefreshSuccess, Name: "authkit_refresh_success_total", Help: "Silent refreshes that kept the session."},
	{ID: authkit.MetricRefreshFailure, Name: "authkit_refresh_failure_total", Help: "Refreshes the backend rejected."},
	{ID: authkit.MetricLogout, Name: "authkit_logout_total", Help: "Logout operations."},
	{ID: authkit.MetricSessionResumed, Name: "authkit_session_resumed_total", Help: "Persisted snapshots revalidated at startup."},
	{ID: authkit.MetricForcedAnonymous, Name: "authkit_forced_anonymous_total", Help: "Session resets caused by unauthorized responses."},
	{ID: authkit.MetricResultDiscarded, Name: "authkit_result_discarded_total", Help: "In-flight results discarded by the staleness check."},
	{ID: authkit.MetricRegisterSuccess, Name: "authkit_register_success_total", Help: "Accepted registrations."},
	{ID: authkit.MetricRegisterFailure, Name: "authkit_register_failure_total", Help: "Rejected registrations."},
	{ID: authkit.MetricInviteSent, Name: "authkit_invite_sent_total", Help: "Accepted admin invites."},
	{ID: authkit.MetricInviteFailure, Name: "authkit_invite_failure_total", Help: "Rejected admin invites."},
	{ID: authkit.MetricPasswordChangeSuccess, Name: "authkit_password_change_success_total", Help: "Completed password changes."},
	{ID: authkit.MetricPasswordChangeFailure, Name: "authkit_password_change_failure_total", Help: "Backend-rejected password changes."},
	{ID: authkit.MetricPasswordChangeReuseRejected, Name: "authkit_password_change_reuse_rejected_total", Help: "Password changes rejected locally for reusing the current password."},
	{ID: authkit.MetricProfileFetch, Name: "authkit_profile_fetch_total", Help: "Successful profile fetches."},
	{ID: authkit.MetricProfileFailure, Name: "authkit_profile_failure_total", Help: "Failed profile fetches."},
}

// LatencyHistogram is the controller's request latency histogram, the only
// histogram it keeps.
var LatencyHistogram = HistogramDef{
	ID:   authkit.MetricRequestLatency,
	Name: "authkit_request_latency_seconds",
	Help: "Transport round-trip latency histogram.",
}

// HistogramDefs lists every exported histogram in a stable order.
var HistogramDefs = []HistogramDef{LatencyHistogram}

// HistogramBounds are the upper bounds of the latency buckets, in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters valid in
// OTel instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets widens a snapshot slice to the fixed bucket array,
// tolerating short or missing slices.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form both
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
