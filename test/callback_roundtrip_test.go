package test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	goOIDC "github.com/MrEthical07/goOIDC"
	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/middleware"
)

// newProvider stands up a minimal token endpoint and returns metadata
// pointing at it.
func newProvider(t *testing.T) (endpoint.Metadata, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code_verifier") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_request"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return endpoint.Metadata{
		Issuer:                srv.URL,
		AuthorizationEndpoint: srv.URL + "/authorize",
		TokenEndpoint:         srv.URL + "/token",
	}, srv
}

func newEngine(t *testing.T, metadata endpoint.Metadata) *goOIDC.Engine {
	t.Helper()

	cfg := goOIDC.DefaultConfig()
	cfg.Provider.Metadata = metadata
	cfg.Client.ClientID = "client-1"
	cfg.Client.RedirectURI = "https://app.example.com/callback"
	cfg.Client.Scopes = []string{"profile"}

	engine, err := goOIDC.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

// The full redirect round trip through the HTTP callback handler: start a
// flow, replay the provider redirect against the handler, read tokens from
// the completion hook.
func TestCallbackHandlerRoundTrip(t *testing.T) {
	metadata, _ := newProvider(t)
	engine := newEngine(t, metadata)

	res, err := engine.Start(context.Background(), goOIDC.GrantAuthorizationCode, goOIDC.StartOptions{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	tokenCh := make(chan *goOIDC.TokenSet, 1)
	handler := middleware.CallbackHandler(engine, nil, func(w http.ResponseWriter, r *http.Request, tokens *goOIDC.TokenSet, err error) {
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		tokenCh <- tokens
		w.WriteHeader(http.StatusOK)
	})

	app := httptest.NewServer(handler)
	t.Cleanup(app.Close)

	callback := app.URL + "/callback?flow=" + url.QueryEscape(res.FlowID) +
		"&code=code-1&state=" + url.QueryEscape(res.State)
	resp, err := http.Get(callback)
	if err != nil {
		t.Fatalf("callback request: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("callback status = %d", resp.StatusCode)
	}
	gotTokens := <-tokenCh
	if gotTokens == nil || gotTokens.AccessToken != "at-1" {
		t.Fatalf("tokens = %+v", gotTokens)
	}

	status, err := engine.FlowStatus(res.FlowID)
	if err != nil || status != goOIDC.FlowComplete {
		t.Fatalf("status = %v, %v", status, err)
	}
}

func TestCallbackHandlerUnknownFlow(t *testing.T) {
	metadata, _ := newProvider(t)
	engine := newEngine(t, metadata)

	app := httptest.NewServer(middleware.CallbackHandler(engine, nil, nil))
	t.Cleanup(app.Close)

	resp, err := http.Get(app.URL + "/callback?flow=missing&code=c&state=s")
	if err != nil {
		t.Fatalf("callback request: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

// DeliverHandler feeds a relayed authorization response to the goroutine
// blocked in AwaitCallback.
func TestDeliverHandlerCompletesAwaitingFlow(t *testing.T) {
	metadata, _ := newProvider(t)
	engine := newEngine(t, metadata)

	res, err := engine.Start(context.Background(), goOIDC.GrantAuthorizationCode, goOIDC.StartOptions{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	type outcome struct {
		tokens *goOIDC.TokenSet
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		tokens, err := engine.AwaitCallback(context.Background(), res.FlowID)
		done <- outcome{tokens, err}
	}()

	app := httptest.NewServer(middleware.DeliverHandler(engine, nil))
	t.Cleanup(app.Close)

	form := url.Values{}
	form.Set("flow", res.FlowID)
	form.Set("code", "code-1")
	form.Set("state", res.State)
	resp, err := http.Post(app.URL+"/deliver", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("deliver request: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("deliver status = %d, want 202", resp.StatusCode)
	}

	got := <-done
	if got.err != nil {
		t.Fatalf("await: %v", got.err)
	}
	if got.tokens.AccessToken != "at-1" {
		t.Fatalf("tokens = %+v", got.tokens)
	}
}
