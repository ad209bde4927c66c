package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goOIDC/jwt"
)

func testCallbackDeps(secrets *fakeSecrets, verifier IDTokenVerifier) CallbackDeps {
	return CallbackDeps{
		Secrets:          secrets,
		Verifier:         verifier,
		StateMismatchErr: errStateMismatchTest,
		FlowNotFoundErr:  errFlowNotFoundTest,
		ValidationErr:    errValidationTest,
		MapProviderError: func(code, description string) error {
			return errors.New("provider: " + code)
		},
	}
}

func TestParseReturnURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want CallbackData
	}{
		{
			name: "query delivery",
			raw:  "https://app/cb?code=abc123&state=st-1",
			want: CallbackData{Code: "abc123", State: "st-1"},
		},
		{
			name: "fragment delivery",
			raw:  "https://app/cb#code=abc123&state=st-1&id_token=idt",
			want: CallbackData{Code: "abc123", State: "st-1", IDToken: "idt"},
		},
		{
			name: "fragment wins over query",
			raw:  "https://app/cb?state=stale#code=abc&state=fresh",
			want: CallbackData{Code: "abc", State: "fresh"},
		},
		{
			name: "error response",
			raw:  "https://app/cb?error=access_denied&error_description=user+said+no&state=st-1",
			want: CallbackData{State: "st-1", Err: "access_denied", ErrDescription: "user said no"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseReturnURL(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseReturnURL() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRunAcceptCallbackStateMatch(t *testing.T) {
	t.Parallel()

	secrets := newFakeSecrets()
	_ = secrets.PutSession(context.Background(), "flow-1", KeyState, "st-issued")

	accepted, err := RunAcceptCallback(context.Background(), "flow-1",
		CallbackData{Code: "abc123", State: "st-issued"},
		testCallbackDeps(secrets, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted.Code != "abc123" {
		t.Fatalf("code = %q", accepted.Code)
	}
}

func TestRunAcceptCallbackStateMismatchIsFatal(t *testing.T) {
	t.Parallel()

	secrets := newFakeSecrets()
	_ = secrets.PutSession(context.Background(), "flow-1", KeyState, "st-issued")

	// One altered character must be fatal.
	if _, err := RunAcceptCallback(context.Background(), "flow-1",
		CallbackData{Code: "abc123", State: "st-issueX"},
		testCallbackDeps(secrets, nil)); !errors.Is(err, errStateMismatchTest) {
		t.Fatalf("expected state mismatch, got %v", err)
	}

	// Empty state is equally fatal.
	if _, err := RunAcceptCallback(context.Background(), "flow-1",
		CallbackData{Code: "abc123"},
		testCallbackDeps(secrets, nil)); !errors.Is(err, errStateMismatchTest) {
		t.Fatalf("expected state mismatch, got %v", err)
	}
}

func TestRunAcceptCallbackUnknownFlow(t *testing.T) {
	t.Parallel()

	if _, err := RunAcceptCallback(context.Background(), "ghost",
		CallbackData{Code: "abc", State: "st"},
		testCallbackDeps(newFakeSecrets(), nil)); !errors.Is(err, errFlowNotFoundTest) {
		t.Fatalf("expected flow not found, got %v", err)
	}
}

func TestRunAcceptCallbackProviderError(t *testing.T) {
	t.Parallel()

	secrets := newFakeSecrets()
	_ = secrets.PutSession(context.Background(), "flow-1", KeyState, "st-issued")

	_, err := RunAcceptCallback(context.Background(), "flow-1",
		CallbackData{Err: "access_denied", ErrDescription: "user said no", State: "st-issued"},
		testCallbackDeps(secrets, nil))
	if err == nil || err.Error() != "provider: access_denied" {
		t.Fatalf("provider error not mapped: %v", err)
	}
}

func TestRunAcceptCallbackHybridNonce(t *testing.T) {
	t.Parallel()

	secrets := newFakeSecrets()
	_ = secrets.PutSession(context.Background(), "flow-1", KeyState, "st-issued")
	_ = secrets.PutSession(context.Background(), "flow-1", KeyNonce, "n-issued")

	verifier := &fakeVerifier{wantNonce: "n-issued"}
	accepted, err := RunAcceptCallback(context.Background(), "flow-1",
		CallbackData{Code: "abc", State: "st-issued", IDToken: "idt"},
		testCallbackDeps(secrets, verifier))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted.IDClaims == nil {
		t.Fatal("verified claims missing")
	}
	if verifier.calls != 1 {
		t.Fatalf("verifier calls = %d", verifier.calls)
	}
}

func TestRunAcceptCallbackHybridNonceMismatch(t *testing.T) {
	t.Parallel()

	secrets := newFakeSecrets()
	_ = secrets.PutSession(context.Background(), "flow-1", KeyState, "st-issued")
	_ = secrets.PutSession(context.Background(), "flow-1", KeyNonce, "n-other")

	verifier := &fakeVerifier{wantNonce: "n-issued"}
	_, err := RunAcceptCallback(context.Background(), "flow-1",
		CallbackData{Code: "abc", State: "st-issued", IDToken: "idt"},
		testCallbackDeps(secrets, verifier))

	var ce *jwt.ClaimError
	if !errors.As(err, &ce) || ce.Claim != "nonce" {
		t.Fatalf("expected nonce claim error, got %v", err)
	}
}

func TestRunAcceptCallbackIDTokenWithoutVerifier(t *testing.T) {
	t.Parallel()

	secrets := newFakeSecrets()
	_ = secrets.PutSession(context.Background(), "flow-1", KeyState, "st-issued")

	if _, err := RunAcceptCallback(context.Background(), "flow-1",
		CallbackData{Code: "abc", State: "st-issued", IDToken: "idt"},
		testCallbackDeps(secrets, nil)); !errors.Is(err, errValidationTest) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
