// Command goidc-login performs an authorization code + PKCE login from the
// terminal. It hosts the redirect endpoint on a loopback port, prints the
// authorization URL for the user to open, and waits for the provider to
// redirect back.
//
// Usage:
//
//	goidc-login -issuer https://idp.example.com -client-id my-client \
//	  -scopes "openid profile" -listen 127.0.0.1:8910
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	goOIDC "github.com/MrEthical07/goOIDC"
	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/middleware"
)

type outcome struct {
	tokens *goOIDC.TokenSet
	err    error
}

func main() {
	var (
		issuer   = flag.String("issuer", "", "provider issuer URL (discovery is fetched from it)")
		clientID = flag.String("client-id", "", "OAuth client identifier")
		secret   = flag.String("client-secret", "", "client secret (omit for public clients)")
		scopes   = flag.String("scopes", "openid", "space-separated scopes")
		listen   = flag.String("listen", "127.0.0.1:8910", "loopback address for the redirect endpoint")
		timeout  = flag.Duration("timeout", 2*time.Minute, "how long to wait for the redirect")
	)
	flag.Parse()

	if *issuer == "" || *clientID == "" {
		fmt.Fprintln(os.Stderr, "issuer and client-id are required")
		os.Exit(2)
	}

	metadata, err := discover(*issuer)
	if err != nil {
		log.Fatal("discovery: ", err)
	}

	cfg := goOIDC.DefaultConfig()
	cfg.Provider.Metadata = metadata
	cfg.Client.ClientID = *clientID
	cfg.Client.ClientSecret = *secret
	cfg.Client.RedirectURI = "http://" + *listen + "/callback"
	cfg.Client.Scopes = strings.Fields(*scopes)
	cfg.Callback.Timeout = *timeout

	engine, err := goOIDC.New().WithConfig(cfg).Build()
	if err != nil {
		log.Fatal("engine: ", err)
	}
	defer func() { _ = engine.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := engine.Start(ctx, goOIDC.GrantAuthorizationCode, goOIDC.StartOptions{})
	if err != nil {
		log.Fatal("start flow: ", err)
	}

	done := make(chan outcome, 1)
	resolve := func(r *http.Request) (string, bool) { return res.FlowID, true }
	handler := middleware.CallbackHandler(engine, resolve, func(w http.ResponseWriter, r *http.Request, tokens *goOIDC.TokenSet, err error) {
		if err != nil {
			http.Error(w, "login failed: "+err.Error(), http.StatusBadRequest)
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintln(w, "login complete, you can close this tab")
		}
		done <- outcome{tokens, err}
	})

	mux := http.NewServeMux()
	mux.Handle("/callback", handler)
	srv := &http.Server{Addr: *listen, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			done <- outcome{err: err}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Println("open the following URL to sign in:")
	fmt.Println()
	fmt.Println("  " + res.AuthorizationURL)
	fmt.Println()

	select {
	case got := <-done:
		if got.err != nil {
			log.Fatal("login: ", got.err)
		}
		fmt.Println("login complete")
		fmt.Printf("access token: %s...\n", head(got.tokens.AccessToken, 16))
		if got.tokens.RefreshToken != "" {
			fmt.Println("refresh token received")
		}
		if got.tokens.IDClaims != nil {
			fmt.Printf("subject:      %s\n", got.tokens.IDClaims.Subject)
		}
	case <-time.After(*timeout):
		_ = engine.Cancel(context.Background(), res.FlowID)
		log.Fatal("timed out waiting for the redirect")
	case <-ctx.Done():
		_ = engine.Cancel(context.Background(), res.FlowID)
		log.Fatal("interrupted")
	}
}

// discover fetches the provider's RFC 8414 discovery document.
func discover(issuer string) (endpoint.Metadata, error) {
	var metadata endpoint.Metadata

	url := strings.TrimRight(issuer, "/") + "/.well-known/openid-configuration"
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return metadata, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return metadata, fmt.Errorf("discovery returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return metadata, err
	}
	return metadata, metadata.Validate()
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
