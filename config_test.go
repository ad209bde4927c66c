package goOIDC

import (
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goOIDC/endpoint"
)

func validTestConfig() Config {
	cfg := defaultConfig()
	cfg.Provider.Metadata = endpoint.Metadata{
		Issuer:                "https://idp.example.com",
		AuthorizationEndpoint: "https://idp.example.com/authorize",
		TokenEndpoint:         "https://idp.example.com/token",
	}
	cfg.Client.ClientID = "client-1"
	cfg.Client.RedirectURI = "https://app.example.com/callback"
	return cfg
}

func TestConfigValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing issuer",
			mutate:  func(c *Config) { c.Provider.Metadata.Issuer = "" },
			wantSub: "issuer",
		},
		{
			name:    "missing token endpoint",
			mutate:  func(c *Config) { c.Provider.Metadata.TokenEndpoint = "" },
			wantSub: "token_endpoint",
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.Client.ClientID = "" },
			wantSub: "ClientID",
		},
		{
			name: "secret method without secret",
			mutate: func(c *Config) {
				c.Client.AuthMethod = endpoint.AuthMethodClientSecretBasic
			},
			wantSub: "ClientSecret",
		},
		{
			name: "private_key_jwt without key",
			mutate: func(c *Config) {
				c.Client.AuthMethod = endpoint.AuthMethodPrivateKeyJWT
			},
			wantSub: "AssertionKey",
		},
		{
			name:    "unknown auth method",
			mutate:  func(c *Config) { c.Client.AuthMethod = "client_secret_jwt" },
			wantSub: "auth method",
		},
		{
			name:    "verifier too short",
			mutate:  func(c *Config) { c.PKCE.VerifierLength = 16 },
			wantSub: "VerifierLength",
		},
		{
			name:    "verifier too long",
			mutate:  func(c *Config) { c.PKCE.VerifierLength = 200 },
			wantSub: "VerifierLength",
		},
		{
			name:    "zero callback timeout",
			mutate:  func(c *Config) { c.Callback.Timeout = 0 },
			wantSub: "Timeout",
		},
		{
			name: "liveness above timeout",
			mutate: func(c *Config) {
				c.Callback.Timeout = time.Second
				c.Callback.LivenessInterval = 2 * time.Second
			},
			wantSub: "LivenessInterval",
		},
		{
			name:    "zero slow down increment",
			mutate:  func(c *Config) { c.Polling.SlowDownIncrement = 0 },
			wantSub: "SlowDownIncrement",
		},
		{
			name: "ceiling below initial interval",
			mutate: func(c *Config) {
				c.Polling.InitialInterval = 30 * time.Second
				c.Polling.IntervalCeiling = 10 * time.Second
			},
			wantSub: "IntervalCeiling",
		},
		{
			name:    "excessive leeway",
			mutate:  func(c *Config) { c.Tokens.Leeway = 10 * time.Minute },
			wantSub: "Leeway",
		},
		{
			name: "audit enabled with no buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantSub: "BufferSize",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validTestConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestBuilderResolvesDefaultAuthMethod(t *testing.T) {
	t.Parallel()

	public := validTestConfig()
	eng, err := New().WithConfig(public).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer func() { _ = eng.Close() }()
	if eng.auth.Method != endpoint.AuthMethodNone {
		t.Fatalf("public client auth method = %q, want none", eng.auth.Method)
	}

	confidential := validTestConfig()
	confidential.Client.ClientSecret = "s3cret"
	eng2, err := New().WithConfig(confidential).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer func() { _ = eng2.Close() }()
	if eng2.auth.Method != endpoint.AuthMethodClientSecretBasic {
		t.Fatalf("confidential client auth method = %q, want basic", eng2.auth.Method)
	}
}

func TestBuilderRejectsReuse(t *testing.T) {
	t.Parallel()

	b := New().WithConfig(validTestConfig())
	eng, err := b.Build()
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	defer func() { _ = eng.Close() }()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}
