package goOIDC

import (
	"crypto"
	"errors"
	"net/http"

	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/jwt"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. Configure, then call Build exactly once.
type Builder struct {
	config Config
	redis  *redis.Client
	http   *http.Client

	verificationKeys map[string]crypto.PublicKey
	verificationKey  crypto.PublicKey
	assertionKeyID   string

	auditSink AuditSink

	built bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis enables durable client hints. Optional; without it the engine
// keeps hints in process memory only.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient overrides the transport used for provider calls.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.http = client
	return b
}

// WithVerificationKeys supplies the provider's ID-token keys by kid.
func (b *Builder) WithVerificationKeys(keys map[string]crypto.PublicKey) *Builder {
	b.verificationKeys = keys
	return b
}

// WithVerificationKey supplies a single fallback key for tokens without a
// kid header.
func (b *Builder) WithVerificationKey(key crypto.PublicKey) *Builder {
	b.verificationKey = key
	return b
}

// WithAssertionKeyID sets the kid header on private_key_jwt assertions.
func (b *Builder) WithAssertionKeyID(kid string) *Builder {
	b.assertionKeyID = kid
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine. Flows that need
// ID-token validation fail at runtime unless verification keys were given.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	// Resolve the effective client auth method before validation.
	if cfg.Client.AuthMethod == "" {
		if cfg.Client.ClientSecret != "" {
			cfg.Client.AuthMethod = endpoint.AuthMethodClientSecretBasic
		} else {
			cfg.Client.AuthMethod = endpoint.AuthMethodNone
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := endpoint.NewClient(cfg.Provider.Metadata, b.http)

	auth := endpoint.ClientAuth{
		Method:       cfg.Client.AuthMethod,
		ClientID:     cfg.Client.ClientID,
		ClientSecret: cfg.Client.ClientSecret,
	}

	if cfg.Client.AuthMethod == endpoint.AuthMethodPrivateKeyJWT {
		signer, err := jwt.NewAssertionSigner(cfg.Client.ClientID, cfg.Client.AssertionKey, b.assertionKeyID)
		if err != nil {
			return nil, err
		}
		auth.Assertion = signer.Sign
	}

	var verifier *jwt.Manager
	if len(b.verificationKeys) > 0 || b.verificationKey != nil {
		vm, err := jwt.NewManager(jwt.Config{
			Issuer:   cfg.Provider.Metadata.Issuer,
			Audience: cfg.Client.ClientID,
			Leeway:   cfg.Tokens.Leeway,
			Keys:     b.verificationKeys,
			Key:      b.verificationKey,
		})
		if err != nil {
			return nil, err
		}
		verifier = vm
	}

	engine := &Engine{
		config:     cfg,
		client:     client,
		auth:       auth,
		verifier:   verifier,
		store:      newFlowStore(b.redis, cfg.Store),
		correlator: newCorrelator(),
		flows:      map[string]*flowRecord{},
		deadTokens: map[[32]byte]struct{}{},
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:    NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}
