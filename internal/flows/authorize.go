package flows

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/MrEthical07/goOIDC/endpoint"
)

// BuildInput carries everything needed to assemble an authorization request
// for the code or hybrid flow.
type BuildInput struct {
	FlowID                string
	AuthorizationEndpoint string
	ClientID              string
	RedirectURI           string
	Scopes                []string

	// ResponseType is "code" or one of the hybrid combinations. Empty
	// selects "code".
	ResponseType string

	// ResponseMode overrides the delivery mode. Empty keeps the provider
	// default for code and selects fragment for hybrid.
	ResponseMode string

	UsePKCE        bool
	VerifierLength int

	// WantIDToken controls nonce generation. Set when the openid scope is
	// requested or the response type includes id_token.
	WantIDToken bool

	// Optional request refinements.
	Prompt    string
	MaxAge    int
	ACRValues string
	Audience  string
	Claims    string
	LoginHint string
}

// BuiltRequest is the immutable assembled authorization request. Params is a
// snapshot; mutating it does not affect the URL.
type BuiltRequest struct {
	URL    string
	Params url.Values
	State  string
	Nonce  string
}

// BuildDeps wires the authorization request builder.
type BuildDeps struct {
	Secrets SecretWriter

	NewOpaqueToken func(byteLength int) (string, error)
	NewPKCEPair    func(verifierLength int) (verifier, challenge string, err error)

	StateByteLength int
	NonceByteLength int

	ConfigurationErr error
}

// RunBuildAuthorization generates the per-flow secrets (state always, nonce
// when an ID token is requested, PKCE unless disabled), persists them under
// the flow's session scope, records durable client hints, and assembles the
// authorization request.
func RunBuildAuthorization(ctx context.Context, in BuildInput, deps BuildDeps) (*BuiltRequest, error) {
	if in.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client id", deps.ConfigurationErr)
	}
	if in.AuthorizationEndpoint == "" {
		return nil, fmt.Errorf("%w: missing authorization endpoint", deps.ConfigurationErr)
	}
	if in.RedirectURI == "" {
		return nil, fmt.Errorf("%w: missing redirect uri", deps.ConfigurationErr)
	}

	responseType := in.ResponseType
	if responseType == "" {
		responseType = endpoint.ResponseTypeCode
	}
	switch responseType {
	case endpoint.ResponseTypeCode,
		endpoint.ResponseTypeCodeIDToken,
		endpoint.ResponseTypeCodeToken,
		endpoint.ResponseTypeCodeIDTokenToken:
	default:
		return nil, fmt.Errorf("%w: unsupported response type %q", deps.ConfigurationErr, responseType)
	}

	hybrid := responseType != endpoint.ResponseTypeCode

	state, err := deps.NewOpaqueToken(deps.StateByteLength)
	if err != nil {
		return nil, err
	}
	if err := deps.Secrets.PutSession(ctx, in.FlowID, KeyState, state); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("response_type", responseType)
	params.Set("client_id", in.ClientID)
	params.Set("redirect_uri", in.RedirectURI)
	params.Set("state", state)
	if len(in.Scopes) > 0 {
		params.Set("scope", strings.Join(in.Scopes, " "))
	}

	var nonce string
	if in.WantIDToken {
		nonce, err = deps.NewOpaqueToken(deps.NonceByteLength)
		if err != nil {
			return nil, err
		}
		if err := deps.Secrets.PutSession(ctx, in.FlowID, KeyNonce, nonce); err != nil {
			return nil, err
		}
		params.Set("nonce", nonce)
	}

	if in.UsePKCE {
		verifier, challenge, err := deps.NewPKCEPair(in.VerifierLength)
		if err != nil {
			return nil, err
		}
		if err := deps.Secrets.PutSession(ctx, in.FlowID, KeyCodeVerifier, verifier); err != nil {
			return nil, err
		}
		params.Set("code_challenge", challenge)
		params.Set("code_challenge_method", endpoint.PKCEMethodS256)
	}

	switch {
	case in.ResponseMode != "":
		params.Set("response_mode", in.ResponseMode)
	case hybrid:
		// Hybrid defaults to fragment delivery.
		params.Set("response_mode", "fragment")
	}

	if in.Prompt != "" {
		params.Set("prompt", in.Prompt)
	}
	if in.MaxAge > 0 {
		params.Set("max_age", strconv.Itoa(in.MaxAge))
	}
	if in.ACRValues != "" {
		params.Set("acr_values", in.ACRValues)
	}
	if in.Audience != "" {
		params.Set("audience", in.Audience)
	}
	if in.Claims != "" {
		params.Set("claims", in.Claims)
	}
	if in.LoginHint != "" {
		params.Set("login_hint", in.LoginHint)
	}

	if err := deps.Secrets.PutDurable(ctx, KeyLastClientID, in.ClientID); err != nil {
		return nil, err
	}
	if err := deps.Secrets.PutDurable(ctx, KeyLastRedirectURI, in.RedirectURI); err != nil {
		return nil, err
	}

	return &BuiltRequest{
		URL:    in.AuthorizationEndpoint + "?" + params.Encode(),
		Params: params,
		State:  state,
		Nonce:  nonce,
	}, nil
}
