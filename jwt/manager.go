package jwt

import (
	"crypto"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimError reports a signature or claim verification failure. Claim names
// follow the wire claim ("iss", "aud", "exp", "iat", "nonce", "signature").
type ClaimError struct {
	Claim  string
	Reason string
}

func (e *ClaimError) Error() string {
	return "token validation failed: " + e.Claim + ": " + e.Reason
}

// Config holds ID-token verification parameters.
type Config struct {
	// Issuer is the expected iss claim (required).
	Issuer string

	// Audience is the expected aud claim, normally the client_id (required).
	Audience string

	// Leeway is the clock-skew tolerance applied to exp/iat/nbf.
	// Must be within [0, 2m].
	Leeway time.Duration

	// Keys maps kid header values to verification keys. A token carrying an
	// unknown kid is rejected.
	Keys map[string]crypto.PublicKey

	// Key is the fallback verification key for tokens without a kid header.
	Key crypto.PublicKey

	// AllowedAlgs restricts acceptable signing algorithms. Empty selects
	// RS256, ES256, and EdDSA.
	AllowedAlgs []string
}

// Manager verifies ID tokens. Construct with [NewManager]; safe for
// concurrent use.
type Manager struct {
	config Config
}

// IDClaims are the ID-token claims goOIDC consumes.
type IDClaims struct {
	Nonce    string   `json:"nonce,omitempty"`
	AuthTime int64    `json:"auth_time,omitempty"`
	ACR      string   `json:"acr,omitempty"`
	AMR      []string `json:"amr,omitempty"`
	AZP      string   `json:"azp,omitempty"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a verification manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if len(cfg.Keys) == 0 && cfg.Key == nil {
		return nil, errors.New("verification key or key set required")
	}
	for kid := range cfg.Keys {
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("key set contains empty kid")
		}
	}
	if len(cfg.AllowedAlgs) == 0 {
		cfg.AllowedAlgs = []string{"RS256", "ES256", "EdDSA"}
	}
	return &Manager{config: cfg}, nil
}

// VerifyIDToken parses and verifies a compact signed ID token: signature,
// iss, aud, exp, iat (with leeway), and — when expectedNonce is non-empty —
// the nonce claim. Failures are *ClaimError values.
func (m *Manager) VerifyIDToken(tokenStr, expectedNonce string) (*IDClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods(m.config.AllowedAlgs),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &IDClaims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid != "" && len(m.config.Keys) > 0 {
			key, ok := m.config.Keys[kid]
			if !ok {
				return nil, fmt.Errorf("unknown kid %q", kid)
			}
			return key, nil
		}
		if m.config.Key != nil {
			return m.config.Key, nil
		}
		return nil, errors.New("token has no kid and no fallback key is configured")
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*IDClaims)
	if !ok || !token.Valid {
		return nil, &ClaimError{Claim: "signature", Reason: "token rejected"}
	}

	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return nil, &ClaimError{Claim: "nonce", Reason: "nonce does not match the value issued for this flow"}
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &ClaimError{Claim: "exp", Reason: "token expired"}
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued), errors.Is(err, jwt.ErrTokenNotValidYet):
		return &ClaimError{Claim: "iat", Reason: "token not yet valid"}
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return &ClaimError{Claim: "iss", Reason: "issuer mismatch"}
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return &ClaimError{Claim: "aud", Reason: "audience mismatch"}
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return &ClaimError{Claim: "exp", Reason: "required claim missing"}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &ClaimError{Claim: "signature", Reason: "signature verification failed"}
	default:
		return &ClaimError{Claim: "signature", Reason: err.Error()}
	}
}
