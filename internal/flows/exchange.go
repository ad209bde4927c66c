package flows

import (
	"context"
	"fmt"
	"net/url"

	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/jwt"
)

// ExchangeInput identifies the code exchange for one flow.
type ExchangeInput struct {
	FlowID      string
	Code        string
	RedirectURI string

	// PKCEUsed reports whether a verifier was generated at build time. When
	// set, a missing stored verifier is a hard failure rather than a
	// verifier-less exchange.
	PKCEUsed bool

	// ExpectIDToken requires the response to carry a verifiable ID token.
	ExpectIDToken bool
}

// ExchangeResult carries the provider response and, when present, the
// verified ID-token claims.
type ExchangeResult struct {
	Response *endpoint.TokenResponse
	IDClaims *jwt.IDClaims
}

// ExchangeDeps wires the code exchange.
type ExchangeDeps struct {
	Secrets interface {
		SecretReader
		SecretRemover
	}
	Endpoint TokenEndpoint
	Auth     endpoint.ClientAuth
	Verifier IDTokenVerifier

	FlowNotFoundErr error
	ValidationErr   error
}

// RunExchangeCode redeems an authorization code. The PKCE verifier is read
// from the flow's session scope, sent only as code_verifier on this one
// request, and deleted as soon as the exchange succeeds.
func RunExchangeCode(ctx context.Context, in ExchangeInput, deps ExchangeDeps) (*ExchangeResult, error) {
	form := url.Values{}
	form.Set("grant_type", endpoint.GrantAuthorizationCode)
	form.Set("code", in.Code)
	form.Set("redirect_uri", in.RedirectURI)

	if in.PKCEUsed {
		verifier, ok, err := deps.Secrets.GetSession(ctx, in.FlowID, KeyCodeVerifier)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: code verifier missing", deps.FlowNotFoundErr)
		}
		form.Set("code_verifier", verifier)
	}

	resp, err := deps.Endpoint.Token(ctx, form, deps.Auth)
	if err != nil {
		return nil, err
	}

	if in.PKCEUsed {
		if err := deps.Secrets.DeleteSession(ctx, in.FlowID, KeyCodeVerifier); err != nil {
			return nil, err
		}
	}

	result := &ExchangeResult{Response: resp}

	if resp.IDToken != "" {
		if deps.Verifier == nil {
			return nil, fmt.Errorf("%w: no verification keys configured for id_token response", deps.ValidationErr)
		}
		nonce, _, err := deps.Secrets.GetSession(ctx, in.FlowID, KeyNonce)
		if err != nil {
			return nil, err
		}
		claims, err := deps.Verifier.VerifyIDToken(resp.IDToken, nonce)
		if err != nil {
			return nil, err
		}
		result.IDClaims = claims
	} else if in.ExpectIDToken {
		return nil, fmt.Errorf("%w: id_token absent from token response", deps.ValidationErr)
	}

	return result, nil
}
