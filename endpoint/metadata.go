package endpoint

import (
	"errors"
	"fmt"
)

// Validation errors for provider metadata.
var (
	// ErrMissingIssuer indicates the issuer field is missing from the metadata record.
	ErrMissingIssuer = errors.New("missing issuer")

	// ErrMissingTokenEndpoint indicates the token_endpoint field is missing.
	ErrMissingTokenEndpoint = errors.New("missing token_endpoint")

	// ErrEndpointUnavailable indicates an optional endpoint required by the
	// requested operation is absent from the metadata record. The feature is
	// unavailable against this provider; this is not a transport failure.
	ErrEndpointUnavailable = errors.New("provider endpoint unavailable")
)

// Metadata is the provider discovery record consumed by goOIDC, a plain and
// possibly-partial set of named endpoint URLs per RFC 8414 / OIDC Discovery.
// It is supplied by the caller — from a discovery document or static
// configuration — and never derived or hardcoded here.
type Metadata struct {
	// Issuer is the authorization server's issuer identifier (REQUIRED).
	Issuer string `json:"issuer"`

	// AuthorizationEndpoint is required for the authorization code and
	// hybrid flows only.
	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty"`

	// TokenEndpoint serves code exchange, refresh, device and CIBA polling.
	TokenEndpoint string `json:"token_endpoint,omitempty"`

	// DeviceAuthorizationEndpoint starts the device flow (RFC 8628, OPTIONAL).
	DeviceAuthorizationEndpoint string `json:"device_authorization_endpoint,omitempty"`

	// BackchannelAuthenticationEndpoint starts a CIBA flow (OPTIONAL).
	BackchannelAuthenticationEndpoint string `json:"backchannel_authentication_endpoint,omitempty"`

	// IntrospectionEndpoint is the RFC 7662 introspection endpoint (OPTIONAL).
	IntrospectionEndpoint string `json:"introspection_endpoint,omitempty"`

	// RevocationEndpoint is the RFC 7009 revocation endpoint (OPTIONAL).
	RevocationEndpoint string `json:"revocation_endpoint,omitempty"`

	// JWKSURI is the JSON Web Key Set document URL (OPTIONAL; ID token
	// verification keys are configured on the jwt manager directly).
	JWKSURI string `json:"jwks_uri,omitempty"`

	// GrantTypesSupported lists the grant types the provider advertises
	// (OPTIONAL; empty means the provider did not say).
	GrantTypesSupported []string `json:"grant_types_supported,omitempty"`
}

// SupportsGrantType reports whether the provider advertises the given grant
// type. An empty advertisement means unknown, which is treated as supported;
// only an explicit list that omits the grant reports false.
func (m *Metadata) SupportsGrantType(grantType string) bool {
	if len(m.GrantTypesSupported) == 0 {
		return true
	}
	for _, g := range m.GrantTypesSupported {
		if g == grantType {
			return true
		}
	}
	return false
}

// Validate checks the fields every flow depends on. Optional endpoints are
// deliberately not validated here; their absence surfaces as
// [ErrEndpointUnavailable] only when an operation needs them.
func (m *Metadata) Validate() error {
	if m.Issuer == "" {
		return ErrMissingIssuer
	}
	if m.TokenEndpoint == "" {
		return ErrMissingTokenEndpoint
	}
	return nil
}

func (m *Metadata) require(name, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrEndpointUnavailable, name)
	}
	return value, nil
}

// RequireAuthorization returns the authorization endpoint or ErrEndpointUnavailable.
func (m *Metadata) RequireAuthorization() (string, error) {
	return m.require("authorization_endpoint", m.AuthorizationEndpoint)
}

// RequireDeviceAuthorization returns the device authorization endpoint or ErrEndpointUnavailable.
func (m *Metadata) RequireDeviceAuthorization() (string, error) {
	return m.require("device_authorization_endpoint", m.DeviceAuthorizationEndpoint)
}

// RequireBackchannelAuthentication returns the CIBA endpoint or ErrEndpointUnavailable.
func (m *Metadata) RequireBackchannelAuthentication() (string, error) {
	return m.require("backchannel_authentication_endpoint", m.BackchannelAuthenticationEndpoint)
}

// RequireIntrospection returns the introspection endpoint or ErrEndpointUnavailable.
func (m *Metadata) RequireIntrospection() (string, error) {
	return m.require("introspection_endpoint", m.IntrospectionEndpoint)
}

// RequireRevocation returns the revocation endpoint or ErrEndpointUnavailable.
func (m *Metadata) RequireRevocation() (string, error) {
	return m.require("revocation_endpoint", m.RevocationEndpoint)
}
