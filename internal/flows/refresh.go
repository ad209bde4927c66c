package flows

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrEthical07/goOIDC/endpoint"
)

// RefreshDeps wires the refresh grant.
type RefreshDeps struct {
	Endpoint TokenEndpoint
	Auth     endpoint.ClientAuth

	// IsRetired reports whether this refresh token was previously rejected
	// with invalid_grant. Retire records such a rejection. Both operate on
	// SHA-256 fingerprints so the token itself is never retained.
	IsRetired func(fingerprint [32]byte) bool
	Retire    func(fingerprint [32]byte)
	Hash      func(token string) [32]byte

	ReauthRequiredErr error
}

// RunRefresh redeems a refresh token for a fresh token set. A provider
// invalid_grant response permanently retires the token: every later attempt
// with the same token short-circuits to ReauthRequiredErr without a network
// call.
func RunRefresh(ctx context.Context, refreshToken string, scopes []string, deps RefreshDeps) (*endpoint.TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token held", deps.ReauthRequiredErr)
	}

	fp := deps.Hash(refreshToken)
	if deps.IsRetired(fp) {
		return nil, fmt.Errorf("%w: refresh token previously rejected", deps.ReauthRequiredErr)
	}

	form := url.Values{}
	form.Set("grant_type", endpoint.GrantRefreshToken)
	form.Set("refresh_token", refreshToken)
	if len(scopes) > 0 {
		form.Set("scope", strings.Join(scopes, " "))
	}

	resp, err := deps.Endpoint.Token(ctx, form, deps.Auth)
	if err != nil {
		var pe *endpoint.ProtocolError
		if errors.As(err, &pe) && pe.Code == endpoint.ErrorInvalidGrant {
			deps.Retire(fp)
			return nil, fmt.Errorf("%w: %s", deps.ReauthRequiredErr, pe.Error())
		}
		return nil, err
	}

	return resp, nil
}
