package goOIDC

import (
	"crypto"
	"errors"
	"time"

	"github.com/MrEthical07/goOIDC/endpoint"
)

// Config carries all engine settings. Populate it before Build; the engine
// clones it and treats it as immutable afterwards.
type Config struct {
	Provider ProviderConfig
	Client   ClientConfig
	PKCE     PKCEConfig
	Callback CallbackConfig
	Polling  PollingConfig
	Tokens   TokenConfig
	Store    StoreConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig is the discovery record of the identity provider. Only the
// issuer and token endpoint are required; operations that need an absent
// optional endpoint fail with ErrFeatureUnavailable.
type ProviderConfig struct {
	Metadata endpoint.Metadata
}

/*
====================================
CLIENT CONFIG
====================================
*/

// ClientConfig identifies this relying party at the provider.
type ClientConfig struct {
	ClientID     string
	ClientSecret string

	// AuthMethod is one of the endpoint.AuthMethod* constants. Empty
	// selects "none" for public clients and client_secret_basic when a
	// secret is set.
	AuthMethod string

	// AssertionKey signs private_key_jwt client assertions. Required when
	// AuthMethod is endpoint.AuthMethodPrivateKeyJWT. Accepts
	// *rsa.PrivateKey, *ecdsa.PrivateKey (P-256), or ed25519.PrivateKey.
	AssertionKey crypto.PrivateKey

	RedirectURI string
	Scopes      []string
}

/*
====================================
PKCE CONFIG
====================================
*/

// PKCEConfig tunes proof-key generation. PKCE is on unless disabled; the
// method is always S256.
type PKCEConfig struct {
	Disabled       bool
	VerifierLength int
}

/*
====================================
CALLBACK CONFIG
====================================
*/

// CallbackConfig bounds AwaitCallback.
type CallbackConfig struct {
	// Timeout caps how long AwaitCallback blocks for a delivery.
	Timeout time.Duration

	// LivenessInterval is how often a registered waiter is probed so a
	// vanished delivering context is noticed before the full timeout.
	LivenessInterval time.Duration
}

/*
====================================
POLLING CONFIG
====================================
*/

// PollingConfig tunes the device/CIBA polling loop.
type PollingConfig struct {
	// InitialInterval applies when the provider does not issue one.
	InitialInterval time.Duration

	// SlowDownIncrement is added to the interval on every slow_down.
	SlowDownIncrement time.Duration

	// IntervalCeiling caps interval growth.
	IntervalCeiling time.Duration

	// TransientBudget is how many consecutive transport failures are
	// retried before the poll gives up.
	TransientBudget int
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig tunes token validation and expiry handling.
type TokenConfig struct {
	// Leeway absorbs clock skew during ID-token time-claim checks.
	// Capped at two minutes.
	Leeway time.Duration

	// ExpirySkew is subtracted from the access-token deadline when the
	// caller asks TokenSet.Expired.
	ExpirySkew time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig tunes the flow credential store.
type StoreConfig struct {
	// RedisPrefix namespaces the durable keys.
	RedisPrefix string

	// SessionTTL bounds how long session-scoped secrets may linger when a
	// flow is abandoned without reaching a terminal state.
	SessionTTL time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns the baseline configuration the Builder starts from.
// Callers fill in Provider and Client and hand the result to
// [Builder.WithConfig]; everything else carries sensible defaults.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		PKCE: PKCEConfig{
			VerifierLength: 64,
		},
		Callback: CallbackConfig{
			Timeout:          2 * time.Minute,
			LivenessInterval: 5 * time.Second,
		},
		Polling: PollingConfig{
			InitialInterval:   5 * time.Second,
			SlowDownIncrement: 5 * time.Second,
			IntervalCeiling:   60 * time.Second,
			TransientBudget:   5,
		},
		Tokens: TokenConfig{
			Leeway:     30 * time.Second,
			ExpirySkew: 10 * time.Second,
		},
		Store: StoreConfig{
			RedisPrefix: "oidc",
			SessionTTL:  15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Client.Scopes = append([]string(nil), cfg.Client.Scopes...)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for contradictions. Builder.Build calls
// it; direct callers may use it to fail fast.
func (c *Config) Validate() error {
	if err := c.Provider.Metadata.Validate(); err != nil {
		return err
	}

	if c.Client.ClientID == "" {
		return errors.New("Client ClientID is required")
	}

	switch c.Client.AuthMethod {
	case "", endpoint.AuthMethodNone:
	case endpoint.AuthMethodClientSecretPost, endpoint.AuthMethodClientSecretBasic:
		if c.Client.ClientSecret == "" {
			return errors.New("client secret auth methods require ClientSecret")
		}
	case endpoint.AuthMethodPrivateKeyJWT:
		if c.Client.AssertionKey == nil {
			return errors.New("private_key_jwt requires AssertionKey")
		}
	default:
		return errors.New("unsupported client auth method")
	}

	if n := c.PKCE.VerifierLength; n != 0 && (n < 43 || n > 128) {
		return errors.New("PKCE VerifierLength must be between 43 and 128")
	}

	if c.Callback.Timeout <= 0 {
		return errors.New("Callback Timeout must be > 0")
	}
	if c.Callback.LivenessInterval <= 0 {
		return errors.New("Callback LivenessInterval must be > 0")
	}
	if c.Callback.LivenessInterval > c.Callback.Timeout {
		return errors.New("Callback LivenessInterval must not exceed Timeout")
	}

	if c.Polling.InitialInterval <= 0 {
		return errors.New("Polling InitialInterval must be > 0")
	}
	if c.Polling.SlowDownIncrement <= 0 {
		return errors.New("Polling SlowDownIncrement must be > 0")
	}
	if c.Polling.IntervalCeiling < c.Polling.InitialInterval {
		return errors.New("Polling IntervalCeiling must be >= InitialInterval")
	}
	if c.Polling.TransientBudget <= 0 {
		return errors.New("Polling TransientBudget must be > 0")
	}

	if c.Tokens.Leeway < 0 || c.Tokens.Leeway > 2*time.Minute {
		return errors.New("Tokens Leeway must be between 0 and 2m")
	}

	if c.Store.SessionTTL <= 0 {
		return errors.New("Store SessionTTL must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
