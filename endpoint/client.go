package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 1 << 20

// ErrTransport wraps network-level failures and provider 5xx responses.
// Callers treat it as transient.
var ErrTransport = errors.New("provider transport failure")

// ClientAuth selects how the client authenticates to the token endpoint.
// Assertion is consulted only for AuthMethodPrivateKeyJWT and must return a
// signed client assertion whose audience is the endpoint URL it is sent to.
type ClientAuth struct {
	Method       string
	ClientID     string
	ClientSecret string
	Assertion    func(audience string) (string, error)
}

// TokenResponse is the successful token endpoint payload (RFC 6749 Section 5.1).
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// DeviceAuthorization is the device authorization response (RFC 8628 Section 3.2).
type DeviceAuthorization struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int64  `json:"expires_in"`
	Interval                int64  `json:"interval"`
}

// BackchannelAuthorization is the CIBA authentication response.
type BackchannelAuthorization struct {
	AuthReqID string `json:"auth_req_id"`
	ExpiresIn int64  `json:"expires_in"`
	Interval  int64  `json:"interval"`
}

// Introspection is the RFC 7662 introspection response.
type Introspection struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	Sub       string `json:"sub,omitempty"`
	Iss       string `json:"iss,omitempty"`
}

// ProtocolError is a structured provider rejection (RFC 6749 Section 5.2).
type ProtocolError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Status      int    `json:"-"`
}

func (e *ProtocolError) Error() string {
	if e.Description == "" {
		return "provider error: " + e.Code
	}
	return "provider error: " + e.Code + ": " + e.Description
}

// Client performs provider endpoint calls using a caller-supplied Metadata
// record. It is stateless and safe for concurrent use.
type Client struct {
	http     *http.Client
	metadata Metadata
}

// NewClient builds a Client for the given metadata. A nil httpClient selects
// a default with a 30s overall timeout.
func NewClient(metadata Metadata, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{http: httpClient, metadata: metadata}
}

// Metadata returns the provider record the client was built with.
func (c *Client) Metadata() Metadata {
	return c.metadata
}

// Token posts a form to the token endpoint with client authentication
// applied. Provider rejections come back as *ProtocolError; network and 5xx
// failures are wrapped in ErrTransport.
func (c *Client) Token(ctx context.Context, form url.Values, auth ClientAuth) (*TokenResponse, error) {
	endpoint := c.metadata.TokenEndpoint
	if endpoint == "" {
		return nil, ErrMissingTokenEndpoint
	}

	var out TokenResponse
	if err := c.postForm(ctx, endpoint, form, auth, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", ErrTransport)
	}
	return &out, nil
}

// DeviceAuthorize starts a device flow against the device authorization endpoint.
func (c *Client) DeviceAuthorize(ctx context.Context, form url.Values, auth ClientAuth) (*DeviceAuthorization, error) {
	endpoint, err := c.metadata.RequireDeviceAuthorization()
	if err != nil {
		return nil, err
	}

	var out DeviceAuthorization
	if err := c.postForm(ctx, endpoint, form, auth, &out); err != nil {
		return nil, err
	}
	if out.DeviceCode == "" || out.UserCode == "" {
		return nil, fmt.Errorf("%w: device authorization response incomplete", ErrTransport)
	}
	return &out, nil
}

// BackchannelAuthenticate starts a CIBA flow against the backchannel endpoint.
func (c *Client) BackchannelAuthenticate(ctx context.Context, form url.Values, auth ClientAuth) (*BackchannelAuthorization, error) {
	endpoint, err := c.metadata.RequireBackchannelAuthentication()
	if err != nil {
		return nil, err
	}

	var out BackchannelAuthorization
	if err := c.postForm(ctx, endpoint, form, auth, &out); err != nil {
		return nil, err
	}
	if out.AuthReqID == "" {
		return nil, fmt.Errorf("%w: backchannel response missing auth_req_id", ErrTransport)
	}
	return &out, nil
}

// Introspect performs a single-shot RFC 7662 introspection call.
func (c *Client) Introspect(ctx context.Context, token, tokenTypeHint string, auth ClientAuth) (*Introspection, error) {
	endpoint, err := c.metadata.RequireIntrospection()
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("token", token)
	if tokenTypeHint != "" {
		form.Set("token_type_hint", tokenTypeHint)
	}

	var out Introspection
	if err := c.postForm(ctx, endpoint, form, auth, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Revoke performs a single-shot RFC 7009 revocation call. Revoking a token
// the provider already considers inactive is a success, so an invalid_token
// rejection is swallowed.
func (c *Client) Revoke(ctx context.Context, token, tokenTypeHint string, auth ClientAuth) error {
	endpoint, err := c.metadata.RequireRevocation()
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("token", token)
	if tokenTypeHint != "" {
		form.Set("token_type_hint", tokenTypeHint)
	}

	err = c.postForm(ctx, endpoint, form, auth, nil)
	var pe *ProtocolError
	if errors.As(err, &pe) && pe.Code == ErrorInvalidToken {
		return nil
	}
	return err
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, auth ClientAuth, out any) error {
	body := url.Values{}
	for k, vs := range form {
		body[k] = vs
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	switch auth.Method {
	case AuthMethodClientSecretBasic:
		req.SetBasicAuth(url.QueryEscape(auth.ClientID), url.QueryEscape(auth.ClientSecret))
		body.Set("client_id", auth.ClientID)
	case AuthMethodClientSecretPost:
		body.Set("client_id", auth.ClientID)
		body.Set("client_secret", auth.ClientSecret)
	case AuthMethodPrivateKeyJWT:
		if auth.Assertion == nil {
			return fmt.Errorf("%w: private_key_jwt auth without assertion signer", ErrTransport)
		}
		assertion, err := auth.Assertion(endpoint)
		if err != nil {
			return fmt.Errorf("client assertion: %w", err)
		}
		body.Set("client_id", auth.ClientID)
		body.Set("client_assertion_type", clientAssertionTypeJWT)
		body.Set("client_assertion", assertion)
	default: // AuthMethodNone
		body.Set("client_id", auth.ClientID)
	}

	encoded := body.Encode()
	req.Body = io.NopCloser(strings.NewReader(encoded))
	req.ContentLength = int64(len(encoded))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		pe := &ProtocolError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, pe); err != nil || pe.Code == "" {
			return fmt.Errorf("%w: status %d with unparseable error body", ErrTransport, resp.StatusCode)
		}
		return pe
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: invalid response body: %v", ErrTransport, err)
	}
	return nil
}
