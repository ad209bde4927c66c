package goOIDC

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/internal/flows"
)

// WaitForApproval drives a device or CIBA flow to its terminal state,
// polling the token endpoint at the provider-governed interval. It blocks
// until the user approves, denies, the session expires, or the flow is
// canceled. Safe to call once per flow.
func (e *Engine) WaitForApproval(ctx context.Context, flowID string) (*TokenSet, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	rec, err := e.getFlow(flowID)
	if err != nil {
		return nil, err
	}
	if tokens, done, terminalErr := e.terminalOutcome(rec); done {
		return tokens, terminalErr
	}

	encoded, ok, err := e.store.GetSession(ctx, flowID, flows.KeyDeviceSession)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrFlowNotFound
	}
	sess, err := decodeDeviceSession(encoded)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	rec.cancelPoll = cancel
	e.mu.Unlock()

	resp, err := flows.RunPoll(pollCtx, sess, flows.PollDeps{
		Endpoint:          pollEndpoint{engine: e},
		Auth:              e.auth,
		SlowDownIncrement: e.config.Polling.SlowDownIncrement,
		IntervalCeiling:   e.config.Polling.IntervalCeiling,
		TransientBudget:   e.config.Polling.TransientBudget,
		OnState:           e.pollObserver(ctx, rec),
		DeniedErr:         ErrAccessDenied,
		ExpiredErr:        ErrSessionExpired,
		ExhaustedErr:      ErrPollingExhausted,
	})
	if err != nil {
		// A context error after Cancel means the caller ended the flow.
		if errors.Is(err, context.Canceled) {
			if status, serr := e.FlowStatus(flowID); serr == nil && status == FlowCanceled {
				return nil, ErrFlowCanceled
			}
			return nil, err
		}
		e.fail(ctx, rec, err)
		return nil, err
	}

	var tokens *TokenSet
	if resp.IDToken != "" {
		if e.verifier == nil {
			verr := fmt.Errorf("%w: no verification keys configured for id_token response", ErrTokenValidation)
			e.fail(ctx, rec, verr)
			return nil, verr
		}
		claims, verr := e.verifier.VerifyIDToken(resp.IDToken, "")
		if verr != nil {
			verr = e.mapExchangeError(verr)
			e.fail(ctx, rec, verr)
			return nil, verr
		}
		tokens = tokenSetFromResponse(resp, claims)
	} else {
		tokens = tokenSetFromResponse(resp, nil)
	}

	e.complete(ctx, rec, tokens)
	return tokens, nil
}

// pollEndpoint counts poll attempts on their way to the shared client.
type pollEndpoint struct {
	engine *Engine
}

func (p pollEndpoint) Token(ctx context.Context, form url.Values, auth endpoint.ClientAuth) (*endpoint.TokenResponse, error) {
	p.engine.metrics.Inc(MetricPollAttempt)
	return p.engine.client.Token(ctx, form, auth)
}

func (e *Engine) pollObserver(ctx context.Context, rec *flowRecord) func(flows.PollState) {
	return func(state flows.PollState) {
		switch state {
		case flows.PollSlowed:
			e.metrics.Inc(MetricPollSlowDown)
			e.emit(ctx, AuditEvent{
				EventType: AuditPollSlowDown,
				FlowID:    rec.id,
				Grant:     rec.grant,
				Success:   true,
			})
		case flows.PollApproved:
			e.emit(ctx, AuditEvent{
				EventType: AuditPollApproved,
				FlowID:    rec.id,
				Grant:     rec.grant,
				Success:   true,
			})
		case flows.PollDenied:
			e.metrics.Inc(MetricPollDenied)
			e.emit(ctx, AuditEvent{
				EventType: AuditPollDenied,
				FlowID:    rec.id,
				Grant:     rec.grant,
			})
		case flows.PollExpired:
			e.metrics.Inc(MetricPollExpired)
			e.emit(ctx, AuditEvent{
				EventType: AuditPollExpired,
				FlowID:    rec.id,
				Grant:     rec.grant,
			})
		}
	}
}
