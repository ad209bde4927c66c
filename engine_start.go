package goOIDC

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/internal"
	"github.com/MrEthical07/goOIDC/internal/flows"
	"github.com/google/uuid"
)

// Start opens a new flow for the given grant and returns its handle. Code
// and hybrid grants produce an authorization URL to send the user to;
// device and CIBA grants contact the provider immediately and return the
// data needed to wait for approval.
func (e *Engine) Start(ctx context.Context, grant GrantType, opts StartOptions) (*StartResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	scopes := opts.Scopes
	if scopes == nil {
		scopes = e.config.Client.Scopes
	}

	rec := &flowRecord{
		id:      uuid.NewString(),
		grant:   grant,
		status:  FlowCreated,
		created: time.Now(),
	}
	e.mu.Lock()
	e.flows[rec.id] = rec
	e.mu.Unlock()

	e.metrics.Inc(MetricFlowStarted)
	e.emit(ctx, AuditEvent{
		EventType: AuditFlowStarted,
		FlowID:    rec.id,
		Grant:     grant,
		Success:   true,
	})

	var (
		result *StartResult
		err    error
	)
	switch grant {
	case GrantAuthorizationCode, GrantHybrid:
		result, err = e.startRedirect(ctx, rec, scopes, opts)
	case GrantDevice:
		result, err = e.startDevice(ctx, rec, scopes)
	case GrantCIBA:
		result, err = e.startBackchannel(ctx, rec, scopes, opts)
	default:
		err = fmt.Errorf("%w: unsupported grant type %q", ErrConfiguration, grant)
	}
	if err != nil {
		e.fail(ctx, rec, err)
		return nil, err
	}
	return result, nil
}

func (e *Engine) startRedirect(ctx context.Context, rec *flowRecord, scopes []string, opts StartOptions) (*StartResult, error) {
	metadata := e.client.Metadata()
	authzEndpoint, err := metadata.RequireAuthorization()
	if err != nil {
		return nil, e.mapEndpointError(err)
	}

	responseType := endpoint.ResponseTypeCode
	if rec.grant == GrantHybrid {
		responseType = opts.ResponseType
		if responseType == "" {
			responseType = endpoint.ResponseTypeCodeIDToken
		}
	}

	// A nonce is only warranted when an identity token will be issued:
	// either the openid scope or a response type carrying id_token.
	wantIDToken := hasScope(scopes, "openid") || strings.Contains(responseType, "id_token")
	usePKCE := !e.config.PKCE.Disabled

	built, err := flows.RunBuildAuthorization(ctx, flows.BuildInput{
		FlowID:                rec.id,
		AuthorizationEndpoint: authzEndpoint,
		ClientID:              e.config.Client.ClientID,
		RedirectURI:           e.config.Client.RedirectURI,
		Scopes:                scopes,
		ResponseType:          responseType,
		ResponseMode:          opts.ResponseMode,
		UsePKCE:               usePKCE,
		VerifierLength:        e.config.PKCE.VerifierLength,
		WantIDToken:           wantIDToken,
		Prompt:                opts.Prompt,
		MaxAge:                opts.MaxAge,
		ACRValues:             opts.ACRValues,
		Audience:              opts.Audience,
		Claims:                opts.Claims,
		LoginHint:             opts.LoginHint,
	}, flows.BuildDeps{
		Secrets:          e.store,
		NewOpaqueToken:   internal.NewOpaqueToken,
		NewPKCEPair:      internal.NewPKCEPair,
		StateByteLength:  32,
		NonceByteLength:  32,
		ConfigurationErr: ErrConfiguration,
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	rec.status = FlowAwaitingCallback
	rec.redirectURI = e.config.Client.RedirectURI
	rec.usePKCE = usePKCE
	rec.expectIDToken = wantIDToken
	e.mu.Unlock()

	e.correlator.register(rec.id)
	e.emit(ctx, AuditEvent{
		EventType: AuditRequestBuilt,
		FlowID:    rec.id,
		Grant:     rec.grant,
		Success:   true,
	})

	return &StartResult{
		FlowID:           rec.id,
		Grant:            rec.grant,
		AuthorizationURL: built.URL,
		State:            built.State,
	}, nil
}

func (e *Engine) startDevice(ctx context.Context, rec *flowRecord, scopes []string) (*StartResult, error) {
	metadata := e.client.Metadata()
	if !metadata.SupportsGrantType(endpoint.GrantDeviceCode) {
		return nil, fmt.Errorf("%w: provider does not advertise the device_code grant", ErrFeatureUnavailable)
	}

	form := url.Values{}
	if len(scopes) > 0 {
		form.Set("scope", strings.Join(scopes, " "))
	}

	authz, err := e.client.DeviceAuthorize(ctx, form, e.auth)
	if err != nil {
		return nil, e.mapEndpointError(err)
	}

	sess := flows.PollSession{
		GrantType: endpoint.GrantDeviceCode,
		ID:        authz.DeviceCode,
		Interval:  intervalOrDefault(authz.Interval, e.config.Polling.InitialInterval),
	}
	if authz.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Add(time.Duration(authz.ExpiresIn) * time.Second)
	}
	if err := e.persistPollSession(ctx, rec.id, sess); err != nil {
		return nil, err
	}

	e.setStatus(rec, FlowAwaitingApproval)

	return &StartResult{
		FlowID:                  rec.id,
		Grant:                   rec.grant,
		UserCode:                authz.UserCode,
		VerificationURI:         authz.VerificationURI,
		VerificationURIComplete: authz.VerificationURIComplete,
		ExpiresAt:               sess.ExpiresAt,
		Interval:                sess.Interval,
	}, nil
}

func (e *Engine) startBackchannel(ctx context.Context, rec *flowRecord, scopes []string, opts StartOptions) (*StartResult, error) {
	metadata := e.client.Metadata()
	if !metadata.SupportsGrantType(endpoint.GrantCIBA) {
		return nil, fmt.Errorf("%w: provider does not advertise the ciba grant", ErrFeatureUnavailable)
	}

	form := url.Values{}
	if len(scopes) > 0 {
		form.Set("scope", strings.Join(scopes, " "))
	}
	if opts.LoginHint != "" {
		form.Set("login_hint", opts.LoginHint)
	}
	if opts.BindingMessage != "" {
		form.Set("binding_message", opts.BindingMessage)
	}

	authz, err := e.client.BackchannelAuthenticate(ctx, form, e.auth)
	if err != nil {
		return nil, e.mapEndpointError(err)
	}

	sess := flows.PollSession{
		GrantType: endpoint.GrantCIBA,
		ID:        authz.AuthReqID,
		Interval:  intervalOrDefault(authz.Interval, e.config.Polling.InitialInterval),
	}
	if authz.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Add(time.Duration(authz.ExpiresIn) * time.Second)
	}
	if err := e.persistPollSession(ctx, rec.id, sess); err != nil {
		return nil, err
	}

	e.setStatus(rec, FlowAwaitingApproval)

	return &StartResult{
		FlowID:    rec.id,
		Grant:     rec.grant,
		ExpiresAt: sess.ExpiresAt,
		Interval:  sess.Interval,
	}, nil
}

func (e *Engine) persistPollSession(ctx context.Context, flowID string, sess flows.PollSession) error {
	encoded, err := encodeDeviceSession(sess)
	if err != nil {
		return err
	}
	return e.store.PutSession(ctx, flowID, flows.KeyDeviceSession, encoded)
}

func (e *Engine) mapEndpointError(err error) error {
	switch {
	case errors.Is(err, endpoint.ErrEndpointUnavailable),
		errors.Is(err, endpoint.ErrMissingTokenEndpoint):
		return fmt.Errorf("%w: %v", ErrFeatureUnavailable, err)
	case errors.Is(err, endpoint.ErrTransport):
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return err
}

func hasScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}

func intervalOrDefault(seconds int64, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
