package flows

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/internal"
	"github.com/MrEthical07/goOIDC/jwt"
)

var (
	errConfigTest        = errors.New("configuration error")
	errStateMismatchTest = errors.New("state mismatch")
	errFlowNotFoundTest  = errors.New("flow not found")
	errValidationTest    = errors.New("token validation error")
	errReauthTest        = errors.New("reauth required")
	errDeniedTest        = errors.New("access denied")
	errExpiredTest       = errors.New("session expired")
	errExhaustedTest     = errors.New("polling exhausted")
)

// fakeSecrets is an in-memory secret store keyed by flow.
type fakeSecrets struct {
	mu      sync.Mutex
	session map[string]map[string]string
	durable map[string]string
}

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{
		session: map[string]map[string]string{},
		durable: map[string]string{},
	}
}

func (s *fakeSecrets) PutSession(_ context.Context, flowID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session[flowID] == nil {
		s.session[flowID] = map[string]string{}
	}
	s.session[flowID][key] = value
	return nil
}

func (s *fakeSecrets) GetSession(_ context.Context, flowID, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.session[flowID][key]
	return v, ok, nil
}

func (s *fakeSecrets) DeleteSession(_ context.Context, flowID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.session[flowID], key)
	return nil
}

func (s *fakeSecrets) PutDurable(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durable[key] = value
	return nil
}

// scriptedEndpoint returns canned outcomes in order and records every form
// it was sent.
type scriptedEndpoint struct {
	mu      sync.Mutex
	script  []scriptedReply
	calls   []url.Values
	overrun bool
}

type scriptedReply struct {
	resp *endpoint.TokenResponse
	err  error
}

func (e *scriptedEndpoint) Token(_ context.Context, form url.Values, _ endpoint.ClientAuth) (*endpoint.TokenResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := url.Values{}
	for k, vs := range form {
		snapshot[k] = append([]string(nil), vs...)
	}
	e.calls = append(e.calls, snapshot)

	if len(e.script) == 0 {
		e.overrun = true
		return nil, endpoint.ErrTransport
	}
	next := e.script[0]
	e.script = e.script[1:]
	return next.resp, next.err
}

func (e *scriptedEndpoint) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// fakeVerifier accepts any token whose expected nonce matches wantNonce.
type fakeVerifier struct {
	wantNonce string
	calls     int
}

func (v *fakeVerifier) VerifyIDToken(_, expectedNonce string) (*jwt.IDClaims, error) {
	v.calls++
	if v.wantNonce != expectedNonce {
		return nil, &jwt.ClaimError{Claim: "nonce", Reason: "nonce does not match"}
	}
	return &jwt.IDClaims{Nonce: expectedNonce}, nil
}

func testBuildDeps(secrets *fakeSecrets) BuildDeps {
	return BuildDeps{
		Secrets:          secrets,
		NewOpaqueToken:   internal.NewOpaqueToken,
		NewPKCEPair:      internal.NewPKCEPair,
		StateByteLength:  32,
		NonceByteLength:  32,
		ConfigurationErr: errConfigTest,
	}
}
