package internaldefs

import (
	"github.com/eventrahq/eventra"
)

// CounterDef binds a core counter ID to its exposition name and help text.
// Instances are configured at package init and treated as immutable.
type CounterDef struct {
	ID   eventra.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram ID to its exposition name and help text.
// Instances are configured at package init and treated as immutable.
type HistogramDef struct {
	ID   eventra.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter the core emits, in exposition order.
var CounterDefs = []CounterDef{
	{ID: eventra.MetricSignupSuccess, Name: "eventra_signup_success_total", Help: "Successful signups."},
	{ID: eventra.MetricSignupDuplicate, Name: "eventra_signup_duplicate_total", Help: "Signups rejected because the email already holds an account."},
	{ID: eventra.MetricLoginSuccess, Name: "eventra_login_success_total", Help: "Successful login attempts."},
	{ID: eventra.MetricLoginFailure, Name: "eventra_login_failure_total", Help: "Failed login attempts."},
	{ID: eventra.MetricLoginRateLimited, Name: "eventra_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: eventra.MetricRefreshSuccess, Name: "eventra_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: eventra.MetricRefreshFailure, Name: "eventra_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: eventra.MetricRefreshReuseDetected, Name: "eventra_refresh_reuse_detected_total", Help: "Refresh tokens presented after rotation or revocation."},
	{ID: eventra.MetricRefreshRateLimited, Name: "eventra_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: eventra.MetricLogout, Name: "eventra_logout_total", Help: "Single-session logout operations."},
	{ID: eventra.MetricLogoutAll, Name: "eventra_logout_all_total", Help: "Logout-all operations."},
	{ID: eventra.MetricOTPIssued, Name: "eventra_otp_issued_total", Help: "Issued one-time codes across all purposes."},
	{ID: eventra.MetricOTPRateLimited, Name: "eventra_otp_rate_limited_total", Help: "Rate-limited one-time code requests."},
	{ID: eventra.MetricEmailVerifySuccess, Name: "eventra_email_verify_success_total", Help: "Successful email verifications."},
	{ID: eventra.MetricEmailVerifyFailure, Name: "eventra_email_verify_failure_total", Help: "Failed email verifications."},
	{ID: eventra.MetricPasswordChangeSuccess, Name: "eventra_password_change_success_total", Help: "Successful password changes."},
	{ID: eventra.MetricPasswordChangeInvalidOld, Name: "eventra_password_change_invalid_old_total", Help: "Password change attempts with a wrong current password."},
	{ID: eventra.MetricPasswordChangeReuseRejected, Name: "eventra_password_change_reuse_rejected_total", Help: "Password change attempts rejected for reusing the current password."},
	{ID: eventra.MetricPasswordResetRequest, Name: "eventra_password_reset_request_total", Help: "Password reset requests."},
	{ID: eventra.MetricPasswordResetSuccess, Name: "eventra_password_reset_success_total", Help: "Successful password resets."},
	{ID: eventra.MetricPasswordResetFailure, Name: "eventra_password_reset_failure_total", Help: "Failed password resets."},
}

// HistogramDefs lists every histogram the core emits.
var HistogramDefs = []HistogramDef{
	{ID: eventra.MetricAuthenticateLatency, Name: "eventra_authenticate_latency_seconds", Help: "Access token authentication latency."},
}

// HistogramBounds are the upper bounds of the core latency buckets, in
// seconds, formatted for Prometheus le labels.
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

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// instrument names, for exporters that cannot label buckets.
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

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count so exporters never index past the data they were handed.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the running totals
// Prometheus histogram exposition requires.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
