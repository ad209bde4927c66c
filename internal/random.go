package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"
)

const (
	// RFC 7636 section 4.1 bounds for the code verifier.
	MinVerifierLength     = 43
	MaxVerifierLength     = 128
	DefaultVerifierLength = 64

	minOpaqueBytes = 16
)

// verifierCharset is the unreserved character set permitted by RFC 7636.
const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

var (
	ErrOpaqueTokenTooShort    = errors.New("opaque token byte length below minimum")
	ErrVerifierLengthInvalid  = errors.New("code verifier length out of range")
)

// NewOpaqueToken returns a URL-safe random string carrying byteLength bytes
// of entropy. Used for state, nonce, and correlation tokens.
func NewOpaqueToken(byteLength int) (string, error) {
	if byteLength < minOpaqueBytes {
		return "", ErrOpaqueTokenTooShort
	}
	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// NewCodeVerifier draws length characters from the RFC 7636 unreserved set
// using crypto/rand. Length must be within [43, 128].
func NewCodeVerifier(length int) (string, error) {
	if length < MinVerifierLength || length > MaxVerifierLength {
		return "", ErrVerifierLengthInvalid
	}

	charsetLen := big.NewInt(int64(len(verifierCharset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		out[i] = verifierCharset[n.Int64()]
	}
	return string(out), nil
}

// ChallengeS256 computes the S256 code challenge for a verifier:
// base64url(SHA-256(verifier)), no padding.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewPKCEPair generates a verifier of the given length (0 selects the
// default) together with its S256 challenge.
func NewPKCEPair(length int) (verifier, challenge string, err error) {
	if length == 0 {
		length = DefaultVerifierLength
	}
	verifier, err = NewCodeVerifier(length)
	if err != nil {
		return "", "", err
	}
	return verifier, ChallengeS256(verifier), nil
}

// HashToken returns the SHA-256 fingerprint of a bearer token. Fingerprints
// are used to retire dead refresh tokens without retaining the token itself.
func HashToken(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}
