package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goOIDC/endpoint"
)

func testExchangeDeps(secrets *fakeSecrets, ep *scriptedEndpoint, verifier IDTokenVerifier) ExchangeDeps {
	return ExchangeDeps{
		Secrets:         secrets,
		Endpoint:        ep,
		Auth:            endpoint.ClientAuth{Method: endpoint.AuthMethodNone, ClientID: "cid1"},
		Verifier:        verifier,
		FlowNotFoundErr: errFlowNotFoundTest,
		ValidationErr:   errValidationTest,
	}
}

func TestRunExchangeCodeSendsVerifierOnce(t *testing.T) {
	t.Parallel()

	secrets := newFakeSecrets()
	_ = secrets.PutSession(context.Background(), "flow-1", KeyCodeVerifier, "the-verifier-value")

	ep := &scriptedEndpoint{script: []scriptedReply{
		{resp: &endpoint.TokenResponse{AccessToken: "at-1", TokenType: "Bearer", ExpiresIn: 3600}},
	}}

	result, err := RunExchangeCode(context.Background(), ExchangeInput{
		FlowID:      "flow-1",
		Code:        "abc123",
		RedirectURI: "https://app/cb",
		PKCEUsed:    true,
	}, testExchangeDeps(secrets, ep, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Response.AccessToken != "at-1" {
		t.Fatalf("access token = %q", result.Response.AccessToken)
	}

	form := ep.calls[0]
	if form.Get("grant_type") != endpoint.GrantAuthorizationCode {
		t.Errorf("grant_type = %q", form.Get("grant_type"))
	}
	if form.Get("code") != "abc123" || form.Get("redirect_uri") != "https://app/cb" {
		t.Errorf("exchange body incomplete: %v", form)
	}
	if form.Get("code_verifier") != "the-verifier-value" {
		t.Errorf("code_verifier = %q, want the original verifier", form.Get("code_verifier"))
	}

	// Verifier purged after a successful exchange.
	if _, ok, _ := secrets.GetSession(context.Background(), "flow-1", KeyCodeVerifier); ok {
		t.Error("verifier retained after exchange")
	}
}

func TestRunExchangeCodeMissingVerifier(t *testing.T) {
	t.Parallel()

	ep := &scriptedEndpoint{}
	_, err := RunExchangeCode(context.Background(), ExchangeInput{
		FlowID:   "flow-1",
		Code:     "abc",
		PKCEUsed: true,
	}, testExchangeDeps(newFakeSecrets(), ep, nil))
	if !errors.Is(err, errFlowNotFoundTest) {
		t.Fatalf("expected flow not found, got %v", err)
	}
	if ep.callCount() != 0 {
		t.Fatal("no exchange call may be made without the verifier")
	}
}

func TestRunExchangeCodeKeepsVerifierOnFailure(t *testing.T) {
	t.Parallel()

	secrets := newFakeSecrets()
	_ = secrets.PutSession(context.Background(), "flow-1", KeyCodeVerifier, "v")

	ep := &scriptedEndpoint{script: []scriptedReply{
		{err: &endpoint.ProtocolError{Code: endpoint.ErrorInvalidGrant, Status: 400}},
	}}

	_, err := RunExchangeCode(context.Background(), ExchangeInput{
		FlowID:   "flow-1",
		Code:     "abc",
		PKCEUsed: true,
	}, testExchangeDeps(secrets, ep, nil))

	var pe *endpoint.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	// Terminal purge is the lifecycle manager's job, not the exchange's.
	if _, ok, _ := secrets.GetSession(context.Background(), "flow-1", KeyCodeVerifier); !ok {
		t.Error("verifier must survive until the flow reaches a terminal state")
	}
}

func TestRunExchangeCodeValidatesIDToken(t *testing.T) {
	t.Parallel()

	secrets := newFakeSecrets()
	_ = secrets.PutSession(context.Background(), "flow-1", KeyCodeVerifier, "v")
	_ = secrets.PutSession(context.Background(), "flow-1", KeyNonce, "n-issued")

	ep := &scriptedEndpoint{script: []scriptedReply{
		{resp: &endpoint.TokenResponse{AccessToken: "at", TokenType: "Bearer", IDToken: "idt"}},
	}}

	result, err := RunExchangeCode(context.Background(), ExchangeInput{
		FlowID:        "flow-1",
		Code:          "abc",
		PKCEUsed:      true,
		ExpectIDToken: true,
	}, testExchangeDeps(secrets, ep, &fakeVerifier{wantNonce: "n-issued"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IDClaims == nil {
		t.Fatal("verified claims missing")
	}
}

func TestRunExchangeCodeExpectedIDTokenAbsent(t *testing.T) {
	t.Parallel()

	secrets := newFakeSecrets()
	_ = secrets.PutSession(context.Background(), "flow-1", KeyCodeVerifier, "v")

	ep := &scriptedEndpoint{script: []scriptedReply{
		{resp: &endpoint.TokenResponse{AccessToken: "at", TokenType: "Bearer"}},
	}}

	_, err := RunExchangeCode(context.Background(), ExchangeInput{
		FlowID:        "flow-1",
		Code:          "abc",
		PKCEUsed:      true,
		ExpectIDToken: true,
	}, testExchangeDeps(secrets, ep, &fakeVerifier{}))
	if !errors.Is(err, errValidationTest) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
