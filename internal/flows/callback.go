package flows

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"

	"github.com/MrEthical07/goOIDC/jwt"
)

// CallbackData is the parameter set delivered by the authorization response,
// whether it arrived via query, fragment, or a cross-context message.
type CallbackData struct {
	Code        string
	State       string
	IDToken     string
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	Scope       string

	Err            string
	ErrDescription string
}

// ParseReturnURL extracts callback parameters from a redirect return URL.
// Fragment parameters take precedence over query parameters because hybrid
// responses deliver via fragment.
func ParseReturnURL(raw string) (CallbackData, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return CallbackData{}, fmt.Errorf("invalid return url: %w", err)
	}

	values := u.Query()
	if u.Fragment != "" {
		if frag, err := url.ParseQuery(u.Fragment); err == nil && len(frag) > 0 {
			for k, vs := range frag {
				values[k] = vs
			}
		}
	}

	data := CallbackData{
		Code:           values.Get("code"),
		State:          values.Get("state"),
		IDToken:        values.Get("id_token"),
		AccessToken:    values.Get("access_token"),
		TokenType:      values.Get("token_type"),
		Scope:          values.Get("scope"),
		Err:            values.Get("error"),
		ErrDescription: values.Get("error_description"),
	}
	if raw := values.Get("expires_in"); raw != "" {
		_, _ = fmt.Sscanf(raw, "%d", &data.ExpiresIn)
	}
	return data, nil
}

// AcceptedCallback is the verified outcome of an authorization response.
// IDClaims is non-nil only when the response carried an ID token and it
// passed verification.
type AcceptedCallback struct {
	Code     string
	Data     CallbackData
	IDClaims *jwt.IDClaims
}

// CallbackDeps wires callback acceptance.
type CallbackDeps struct {
	Secrets  SecretReader
	Verifier IDTokenVerifier

	StateMismatchErr error
	FlowNotFoundErr  error
	ValidationErr    error

	// MapProviderError converts an error-carrying callback into the public
	// taxonomy.
	MapProviderError func(code, description string) error
}

// RunAcceptCallback correlates an authorization response to its flow. The
// received state must match the persisted state for the flow in constant
// time; on mismatch no token request may ever be issued. For hybrid
// responses carrying an ID token, the token's nonce is verified against the
// persisted nonce before the caller is allowed to exchange the code.
func RunAcceptCallback(ctx context.Context, flowID string, data CallbackData, deps CallbackDeps) (*AcceptedCallback, error) {
	storedState, ok, err := deps.Secrets.GetSession(ctx, flowID, KeyState)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, deps.FlowNotFoundErr
	}

	if data.Err != "" {
		return nil, deps.MapProviderError(data.Err, data.ErrDescription)
	}

	if subtle.ConstantTimeCompare([]byte(storedState), []byte(data.State)) != 1 {
		return nil, deps.StateMismatchErr
	}

	accepted := &AcceptedCallback{Code: data.Code, Data: data}

	if data.IDToken != "" {
		if deps.Verifier == nil {
			return nil, fmt.Errorf("%w: no verification keys configured for id_token response", deps.ValidationErr)
		}
		nonce, _, err := deps.Secrets.GetSession(ctx, flowID, KeyNonce)
		if err != nil {
			return nil, err
		}
		claims, err := deps.Verifier.VerifyIDToken(data.IDToken, nonce)
		if err != nil {
			return nil, err
		}
		accepted.IDClaims = claims
	}

	return accepted, nil
}
