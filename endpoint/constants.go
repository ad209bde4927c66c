package endpoint

// Grant types as defined by RFC 6749, RFC 8628, and OpenID CIBA Core 1.0.
const (
	// GrantAuthorizationCode is the authorization code grant type (RFC 6749 Section 4.1).
	GrantAuthorizationCode = "authorization_code"

	// GrantRefreshToken is the refresh token grant type (RFC 6749 Section 6).
	GrantRefreshToken = "refresh_token"

	// GrantDeviceCode is the device authorization grant type (RFC 8628).
	GrantDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"

	// GrantCIBA is the client-initiated backchannel authentication grant type.
	GrantCIBA = "urn:ietf:params:oauth:grant-type:ciba"
)

// Response types used by the authorization code and hybrid flows.
const (
	// ResponseTypeCode is the authorization code response type (RFC 6749 Section 4.1.1).
	ResponseTypeCode = "code"

	// ResponseTypeCodeIDToken requests a code plus ID token (hybrid flow).
	ResponseTypeCodeIDToken = "code id_token"

	// ResponseTypeCodeToken requests a code plus access token (hybrid flow).
	ResponseTypeCodeToken = "code token"

	// ResponseTypeCodeIDTokenToken requests code, ID token, and access token.
	ResponseTypeCodeIDTokenToken = "code id_token token"
)

// PKCE (Proof Key for Code Exchange) methods as defined by RFC 7636.
const (
	// PKCEMethodS256 uses the SHA-256 hash of the code verifier. goOIDC
	// never emits any other method.
	PKCEMethodS256 = "S256"
)

// Token endpoint client authentication methods as defined by RFC 7591.
const (
	// AuthMethodNone indicates no client authentication (public clients with PKCE).
	AuthMethodNone = "none"

	// AuthMethodClientSecretPost sends the client secret in the request body.
	AuthMethodClientSecretPost = "client_secret_post"

	// AuthMethodClientSecretBasic sends the client secret as an HTTP Basic header.
	AuthMethodClientSecretBasic = "client_secret_basic"

	// AuthMethodPrivateKeyJWT sends a signed client assertion (RFC 7523).
	AuthMethodPrivateKeyJWT = "private_key_jwt"
)

// clientAssertionTypeJWT is the assertion type for private_key_jwt (RFC 7523).
const clientAssertionTypeJWT = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// Provider error codes this package interprets (RFC 6749 Section 5.2,
// RFC 8628 Section 3.5, CIBA Core Section 11).
const (
	// ErrorAuthorizationPending means the end user has not yet approved.
	ErrorAuthorizationPending = "authorization_pending"

	// ErrorSlowDown means the client is polling too fast.
	ErrorSlowDown = "slow_down"

	// ErrorAccessDenied means the end user rejected the request.
	ErrorAccessDenied = "access_denied"

	// ErrorExpiredToken means the device_code or auth_req_id has expired.
	ErrorExpiredToken = "expired_token"

	// ErrorInvalidGrant means the code or refresh token was rejected.
	ErrorInvalidGrant = "invalid_grant"

	// ErrorInvalidToken is returned by some revocation endpoints for tokens
	// that are already inactive.
	ErrorInvalidToken = "invalid_token"
)
