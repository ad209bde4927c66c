package internaldefs

import (
	goOIDC "github.com/MrEthical07/goOIDC"
)

// CounterDef names one engine counter for exposition.
type CounterDef struct {
	ID   goOIDC.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported engine counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: goOIDC.MetricFlowStarted, Name: "gooidc_flow_started_total", Help: "Flows opened by Start."},
	{ID: goOIDC.MetricFlowCompleted, Name: "gooidc_flow_completed_total", Help: "Flows that reached COMPLETE."},
	{ID: goOIDC.MetricFlowFailed, Name: "gooidc_flow_failed_total", Help: "Flows that reached FAILED."},
	{ID: goOIDC.MetricFlowCanceled, Name: "gooidc_flow_canceled_total", Help: "Flows canceled by the caller."},
	{ID: goOIDC.MetricExchangeSuccess, Name: "gooidc_exchange_success_total", Help: "Accepted authorization code exchanges."},
	{ID: goOIDC.MetricExchangeFailure, Name: "gooidc_exchange_failure_total", Help: "Provider-rejected code exchanges."},
	{ID: goOIDC.MetricStateMismatch, Name: "gooidc_state_mismatch_total", Help: "Callbacks dropped for a state mismatch."},
	{ID: goOIDC.MetricTokenRejected, Name: "gooidc_token_rejected_total", Help: "ID tokens that failed validation."},
	{ID: goOIDC.MetricRefreshSuccess, Name: "gooidc_refresh_success_total", Help: "Successful refresh grants."},
	{ID: goOIDC.MetricRefreshRetired, Name: "gooidc_refresh_retired_total", Help: "Refresh tokens retired on invalid_grant."},
	{ID: goOIDC.MetricPollAttempt, Name: "gooidc_poll_attempt_total", Help: "Token endpoint polls for device/CIBA flows."},
	{ID: goOIDC.MetricPollSlowDown, Name: "gooidc_poll_slow_down_total", Help: "slow_down responses received while polling."},
	{ID: goOIDC.MetricPollDenied, Name: "gooidc_poll_denied_total", Help: "Device/CIBA sessions denied by the user."},
	{ID: goOIDC.MetricPollExpired, Name: "gooidc_poll_expired_total", Help: "Device/CIBA sessions that lapsed before approval."},
	{ID: goOIDC.MetricCallbackTimeout, Name: "gooidc_callback_timeout_total", Help: "Callback waits that timed out."},
}
