package flows

import (
	"context"
	"net/url"

	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/jwt"
)

// Session-scoped secret keys, namespaced per flow by the store.
const (
	KeyCodeVerifier  = "code_verifier"
	KeyState         = "state"
	KeyNonce         = "nonce"
	KeyDeviceSession = "device_session"
)

// Durable store keys shared across flows.
const (
	KeyLastClientID    = "last_client_id"
	KeyLastRedirectURI = "last_redirect_uri"
)

// SecretWriter persists ephemeral flow secrets and durable client hints.
type SecretWriter interface {
	PutSession(ctx context.Context, flowID, key, value string) error
	PutDurable(ctx context.Context, key, value string) error
}

// SecretReader reads session-scoped secrets for one flow. The boolean
// reports presence; absence is not an error at this layer.
type SecretReader interface {
	GetSession(ctx context.Context, flowID, key string) (string, bool, error)
}

// SecretRemover removes individual session-scoped secrets.
type SecretRemover interface {
	DeleteSession(ctx context.Context, flowID, key string) error
}

// TokenEndpoint is the slice of the endpoint client the exchange, refresh,
// and polling flows need.
type TokenEndpoint interface {
	Token(ctx context.Context, form url.Values, auth endpoint.ClientAuth) (*endpoint.TokenResponse, error)
}

// IDTokenVerifier checks a compact signed ID token against the expected
// nonce. A nil verifier means ID tokens cannot be validated and any flow
// that requires validation must fail.
type IDTokenVerifier interface {
	VerifyIDToken(token, expectedNonce string) (*jwt.IDClaims, error)
}
