package goOIDC

import (
	"time"

	"github.com/MrEthical07/goOIDC/jwt"
)

// GrantType selects which flow Start orchestrates.
type GrantType string

const (
	// GrantAuthorizationCode is the redirect-based code flow with PKCE.
	GrantAuthorizationCode GrantType = "authorization_code"
	// GrantHybrid is the code flow combined with front-channel tokens
	// (response types like "code id_token"), delivered in the fragment.
	GrantHybrid GrantType = "hybrid"
	// GrantDevice is the device authorization flow (RFC 8628).
	GrantDevice GrantType = "device_code"
	// GrantCIBA is client-initiated backchannel authentication.
	GrantCIBA GrantType = "ciba"
)

// FlowStatus is the lifecycle position of one flow.
type FlowStatus uint8

const (
	// FlowCreated — registered, nothing sent yet.
	FlowCreated FlowStatus = iota
	// FlowRequestBuilt — authorization request assembled, secrets stored.
	FlowRequestBuilt
	// FlowAwaitingCallback — redirect or child-context return pending.
	FlowAwaitingCallback
	// FlowAwaitingApproval — device/CIBA session open, polling allowed.
	FlowAwaitingApproval
	// FlowExchanging — authorization code is at the token endpoint.
	FlowExchanging
	// FlowValidating — token response received, ID token being checked.
	FlowValidating
	// FlowComplete — tokens issued and validated. Terminal.
	FlowComplete
	// FlowFailed — a fatal error ended the flow. Terminal.
	FlowFailed
	// FlowCanceled — the caller canceled the flow. Terminal.
	FlowCanceled
)

// Terminal reports whether the status admits no further transitions.
func (s FlowStatus) Terminal() bool {
	return s == FlowComplete || s == FlowFailed || s == FlowCanceled
}

func (s FlowStatus) String() string {
	switch s {
	case FlowCreated:
		return "created"
	case FlowRequestBuilt:
		return "request_built"
	case FlowAwaitingCallback:
		return "awaiting_callback"
	case FlowAwaitingApproval:
		return "awaiting_approval"
	case FlowExchanging:
		return "exchanging"
	case FlowValidating:
		return "validating"
	case FlowComplete:
		return "complete"
	case FlowFailed:
		return "failed"
	case FlowCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// TokenSet is the outcome of a completed flow or refresh. It lives only in
// process memory; the engine never writes tokens to durable storage.
type TokenSet struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	IDToken      string
	Scope        string

	// ExpiresAt is derived from the provider's expires_in at receipt time.
	// Zero when the provider did not say.
	ExpiresAt time.Time

	// IDClaims holds the validated ID-token claims when an ID token was
	// issued and a verifier is configured.
	IDClaims *jwt.IDClaims
}

// Expired reports whether the access token's lifetime has passed, with the
// given skew subtracted from the deadline.
func (t *TokenSet) Expired(skew time.Duration) bool {
	if t == nil || t.AccessToken == "" {
		return true
	}
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt.Add(-skew))
}

// StartOptions refines a single Start call beyond the engine-wide client
// configuration. The zero value is valid for every grant.
type StartOptions struct {
	// Scopes overrides Config.Client.Scopes for this flow when non-nil.
	Scopes []string

	// ResponseType picks a hybrid combination ("code id_token",
	// "code token", "code id_token token"). Ignored unless the grant is
	// GrantHybrid; empty selects "code id_token".
	ResponseType string

	// ResponseMode overrides the delivery mode of the authorization
	// response.
	ResponseMode string

	Prompt    string
	MaxAge    int
	ACRValues string
	Audience  string
	Claims    string
	LoginHint string

	// BindingMessage is shown on the authentication device during a CIBA
	// flow.
	BindingMessage string
}

// StartResult is the handle returned by Start. Which fields are populated
// depends on the grant.
type StartResult struct {
	FlowID string
	Grant  GrantType

	// Code and hybrid flows.
	AuthorizationURL string
	State            string

	// Device flow.
	UserCode                string
	VerificationURI         string
	VerificationURIComplete string

	// Device and CIBA flows.
	ExpiresAt time.Time
	Interval  time.Duration
}

// CallbackResult carries an authorization response delivered from another
// context (a popup, another handler, a message channel) into Deliver.
type CallbackResult struct {
	Code  string
	State string

	// Hybrid front-channel fields.
	IDToken     string
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	Scope       string

	// Provider error response, if the authorization failed upstream.
	Err            string
	ErrDescription string
}
