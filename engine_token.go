package goOIDC

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/internal"
	"github.com/MrEthical07/goOIDC/internal/flows"
	"github.com/MrEthical07/goOIDC/jwt"
)

// Refresh redeems the set's refresh token for fresh tokens. A provider
// invalid_grant permanently retires the refresh token: every later Refresh
// with the same token short-circuits to ErrReauthRequired without a network
// call. Transport failures leave the token usable.
func (e *Engine) Refresh(ctx context.Context, tokens *TokenSet) (*TokenSet, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, fmt.Errorf("%w: no token set", ErrReauthRequired)
	}

	resp, err := flows.RunRefresh(ctx, tokens.RefreshToken, nil, flows.RefreshDeps{
		Endpoint:          e.client,
		Auth:              e.auth,
		IsRetired:         e.isRetired,
		Retire:            e.retireToken,
		Hash:              internal.HashToken,
		ReauthRequiredErr: ErrReauthRequired,
	})
	if err != nil {
		if errors.Is(err, ErrReauthRequired) {
			e.metrics.Inc(MetricRefreshRetired)
			e.emit(ctx, AuditEvent{
				EventType: AuditRefreshRetired,
				Error:     err.Error(),
			})
			return nil, err
		}
		if errors.Is(err, endpoint.ErrTransport) {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return nil, err
	}

	var claims *jwt.IDClaims
	if resp.IDToken != "" {
		if e.verifier == nil {
			return nil, fmt.Errorf("%w: no verification keys configured for id_token response", ErrTokenValidation)
		}
		claims, err = e.verifier.VerifyIDToken(resp.IDToken, "")
		if err != nil {
			return nil, e.mapExchangeError(err)
		}
	}

	next := tokenSetFromResponse(resp, claims)
	// Providers that do not rotate omit refresh_token; keep the old one.
	if next.RefreshToken == "" {
		next.RefreshToken = tokens.RefreshToken
	}
	if next.IDToken == "" {
		next.IDToken = tokens.IDToken
		next.IDClaims = tokens.IDClaims
	}

	e.metrics.Inc(MetricRefreshSuccess)
	e.emit(ctx, AuditEvent{
		EventType: AuditRefreshSuccess,
		Success:   true,
	})
	return next, nil
}

// Introspect asks the provider whether a token is active (RFC 7662).
// Single-shot: failures surface to the caller without retries.
func (e *Engine) Introspect(ctx context.Context, token, tokenTypeHint string) (*endpoint.Introspection, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	info, err := e.client.Introspect(ctx, token, tokenTypeHint, e.auth)
	if err != nil {
		return nil, e.mapEndpointError(err)
	}
	return info, nil
}

// Revoke invalidates a token at the provider (RFC 7009). Revoking a token
// the provider already considers inactive succeeds.
func (e *Engine) Revoke(ctx context.Context, token, tokenTypeHint string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if err := e.client.Revoke(ctx, token, tokenTypeHint, e.auth); err != nil {
		return e.mapEndpointError(err)
	}
	return nil
}

func tokenSetFromResponse(resp *endpoint.TokenResponse, claims *jwt.IDClaims) *TokenSet {
	set := &TokenSet{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
		IDToken:      resp.IDToken,
		Scope:        resp.Scope,
		IDClaims:     claims,
	}
	if resp.ExpiresIn > 0 {
		set.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return set
}
