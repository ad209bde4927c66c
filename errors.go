package goOIDC

import "errors"

var (
	// ErrConfiguration reports a missing or contradictory engine setting.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrEngineNotReady means the engine was not built through the Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrEngineClosed is returned after Close.
	ErrEngineClosed = errors.New("engine closed")
	// ErrFlowNotFound means the flow ID is unknown to this engine instance.
	// A redirect landing on a different device or after a restart surfaces
	// this; the caller must start a new flow.
	ErrFlowNotFound = errors.New("flow not found")
	// ErrFlowCompleted means the flow already reached a terminal state.
	ErrFlowCompleted = errors.New("flow already completed")
	// ErrFlowCanceled means the flow was canceled by the caller.
	ErrFlowCanceled = errors.New("flow canceled")
	// ErrStateMismatch means the callback state did not match the value
	// issued for this flow. Fatal; the authorization code is never sent
	// to the token endpoint.
	ErrStateMismatch = errors.New("state parameter mismatch")
	// ErrCallbackTimeout means no callback arrived within the configured
	// wait, or the delivering context went away.
	ErrCallbackTimeout = errors.New("callback wait timed out")
	// ErrTokenValidation wraps an ID-token claim or signature failure.
	ErrTokenValidation = errors.New("token validation failed")
	// ErrExchangeFailed wraps a provider rejection of the code exchange.
	ErrExchangeFailed = errors.New("token exchange rejected")
	// ErrReauthRequired means no usable refresh token remains and the user
	// must go through an interactive flow again.
	ErrReauthRequired = errors.New("reauthentication required")
	// ErrAccessDenied means the end user rejected the authorization.
	ErrAccessDenied = errors.New("authorization denied by user")
	// ErrSessionExpired means the device or backchannel session lapsed
	// before approval.
	ErrSessionExpired = errors.New("authorization session expired")
	// ErrPollingExhausted means transient failures consumed the retry
	// budget before the provider answered.
	ErrPollingExhausted = errors.New("polling retry budget exhausted")
	// ErrFeatureUnavailable means the provider metadata does not advertise
	// the endpoint this operation needs.
	ErrFeatureUnavailable = errors.New("provider does not support this feature")
	// ErrProviderUnavailable wraps transport and 5xx failures talking to
	// the provider.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrStoreBackend wraps durable-store failures.
	ErrStoreBackend = errors.New("credential store backend unavailable")
)
