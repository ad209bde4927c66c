package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultAssertionTTL = time.Minute

// AssertionSigner produces RFC 7523 client assertions for private_key_jwt
// token endpoint authentication. The signing algorithm is selected from the
// key type: RS256 for RSA, ES256 for ECDSA P-256, EdDSA for Ed25519.
type AssertionSigner struct {
	clientID string
	keyID    string
	key      crypto.PrivateKey
	method   jwt.SigningMethod
	ttl      time.Duration
}

// NewAssertionSigner validates the key and returns a signer. keyID may be
// empty when the provider does not require a kid header.
func NewAssertionSigner(clientID string, key crypto.PrivateKey, keyID string) (*AssertionSigner, error) {
	if clientID == "" {
		return nil, errors.New("client id required")
	}

	var method jwt.SigningMethod
	switch k := key.(type) {
	case *rsa.PrivateKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PrivateKey:
		if k.Curve.Params().Name != "P-256" {
			return nil, errors.New("ecdsa assertion keys must use P-256")
		}
		method = jwt.SigningMethodES256
	case ed25519.PrivateKey:
		method = jwt.SigningMethodEdDSA
	default:
		return nil, errors.New("unsupported client assertion key type")
	}

	return &AssertionSigner{
		clientID: clientID,
		keyID:    keyID,
		key:      key,
		method:   method,
		ttl:      defaultAssertionTTL,
	}, nil
}

// Sign returns a fresh assertion addressed to the given endpoint URL.
// Each assertion carries a unique jti and a short expiry.
func (s *AssertionSigner) Sign(audience string) (string, error) {
	if audience == "" {
		return "", errors.New("assertion audience required")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.clientID,
		Subject:   s.clientID,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(s.method, claims)
	if s.keyID != "" {
		token.Header["kid"] = s.keyID
	}
	return token.SignedString(s.key)
}
