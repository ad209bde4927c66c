package goOIDC

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/internal/flows"
	"github.com/MrEthical07/goOIDC/jwt"
)

// ResolveRedirect completes a code or hybrid flow from the return URL the
// provider redirected to: state check, hybrid nonce pre-validation, code
// exchange, ID-token validation. Resolving an already-completed flow
// returns the same token set without contacting the provider.
func (e *Engine) ResolveRedirect(ctx context.Context, flowID, returnURL string) (*TokenSet, error) {
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

	data, err := flows.ParseReturnURL(returnURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateMismatch, err)
	}

	return e.resolveCallback(ctx, rec, data)
}

// Deliver hands an authorization response captured in another context (a
// popup handler, a message listener) to the goroutine blocked in
// AwaitCallback for the same flow. The first delivery wins; replays after
// completion report ErrFlowCompleted and never trigger another exchange.
func (e *Engine) Deliver(flowID string, result CallbackResult) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.correlator.deliver(flowID, result)
}

// BindLiveness attaches a probe for the delivering context, letting
// AwaitCallback give up as soon as that context is observed gone rather
// than waiting out the full timeout.
func (e *Engine) BindLiveness(flowID string, alive func() bool) {
	if e == nil {
		return
	}
	e.correlator.bindLiveness(flowID, alive)
}

// AwaitCallback blocks until a callback is delivered for the flow, then
// completes it like ResolveRedirect. The wait is bounded by the configured
// callback timeout.
func (e *Engine) AwaitCallback(ctx context.Context, flowID string) (*TokenSet, error) {
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

	result, err := e.correlator.await(ctx, flowID, e.config.Callback.Timeout, e.config.Callback.LivenessInterval)
	if err != nil {
		switch {
		case errors.Is(err, ErrCallbackTimeout):
			e.metrics.Inc(MetricCallbackTimeout)
			e.fail(ctx, rec, ErrCallbackTimeout)
		case errors.Is(err, errWaiterDropped):
			// The slot was torn down by Cancel or a concurrent failure;
			// report the flow's terminal outcome instead of waiting out
			// the timeout.
			if tokens, done, terminalErr := e.terminalOutcome(rec); done {
				return tokens, terminalErr
			}
			err = ErrFlowNotFound
		}
		return nil, err
	}

	return e.resolveCallback(ctx, rec, flows.CallbackData{
		Code:           result.Code,
		State:          result.State,
		IDToken:        result.IDToken,
		AccessToken:    result.AccessToken,
		TokenType:      result.TokenType,
		ExpiresIn:      result.ExpiresIn,
		Scope:          result.Scope,
		Err:            result.Err,
		ErrDescription: result.ErrDescription,
	})
}

// terminalOutcome resolves calls against flows that already ended: a
// completed flow replays its token set, a failed or canceled one replays
// its error.
func (e *Engine) terminalOutcome(rec *flowRecord) (*TokenSet, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch rec.status {
	case FlowComplete:
		return rec.tokens, true, nil
	case FlowCanceled:
		return nil, true, ErrFlowCanceled
	case FlowFailed:
		failure := rec.failure
		if failure == nil {
			failure = ErrFlowCompleted
		}
		return nil, true, failure
	}
	return nil, false, nil
}

func (e *Engine) resolveCallback(ctx context.Context, rec *flowRecord, data flows.CallbackData) (*TokenSet, error) {
	accepted, err := flows.RunAcceptCallback(ctx, rec.id, data, flows.CallbackDeps{
		Secrets:          e.store,
		Verifier:         e.idVerifier(),
		StateMismatchErr: ErrStateMismatch,
		FlowNotFoundErr:  ErrFlowNotFound,
		ValidationErr:    ErrTokenValidation,
		MapProviderError: e.mapAuthorizationError,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrStateMismatch):
			e.metrics.Inc(MetricStateMismatch)
			e.emit(ctx, AuditEvent{
				EventType: AuditStateMismatch,
				FlowID:    rec.id,
				Grant:     rec.grant,
				Error:     err.Error(),
			})
		case isClaimError(err):
			e.metrics.Inc(MetricTokenRejected)
			e.emit(ctx, AuditEvent{
				EventType: AuditTokenRejected,
				FlowID:    rec.id,
				Grant:     rec.grant,
				Error:     err.Error(),
			})
			err = fmt.Errorf("%w: %v", ErrTokenValidation, err)
		}
		e.fail(ctx, rec, err)
		return nil, err
	}

	e.emit(ctx, AuditEvent{
		EventType: AuditCallbackAccepted,
		FlowID:    rec.id,
		Grant:     rec.grant,
		Success:   true,
	})

	if accepted.Code == "" {
		err := fmt.Errorf("%w: authorization response carried no code", ErrExchangeFailed)
		e.fail(ctx, rec, err)
		return nil, err
	}

	e.setStatus(rec, FlowExchanging)

	result, err := flows.RunExchangeCode(ctx, flows.ExchangeInput{
		FlowID:        rec.id,
		Code:          accepted.Code,
		RedirectURI:   rec.redirectURI,
		PKCEUsed:      rec.usePKCE,
		ExpectIDToken: rec.expectIDToken && accepted.IDClaims == nil,
	}, flows.ExchangeDeps{
		Secrets:         e.store,
		Endpoint:        e.client,
		Auth:            e.auth,
		Verifier:        e.idVerifier(),
		FlowNotFoundErr: ErrFlowNotFound,
		ValidationErr:   ErrTokenValidation,
	})
	if err != nil {
		err = e.mapExchangeError(err)
		e.metrics.Inc(MetricExchangeFailure)
		e.emit(ctx, AuditEvent{
			EventType: AuditExchangeFailure,
			FlowID:    rec.id,
			Grant:     rec.grant,
			Error:     err.Error(),
		})
		e.fail(ctx, rec, err)
		return nil, err
	}

	e.setStatus(rec, FlowValidating)
	e.metrics.Inc(MetricExchangeSuccess)
	e.emit(ctx, AuditEvent{
		EventType: AuditExchangeSuccess,
		FlowID:    rec.id,
		Grant:     rec.grant,
		Success:   true,
	})

	claims := result.IDClaims
	if claims == nil {
		claims = accepted.IDClaims
	}
	tokens := tokenSetFromResponse(result.Response, claims)

	e.complete(ctx, rec, tokens)
	return tokens, nil
}

func (e *Engine) mapAuthorizationError(code, description string) error {
	if code == endpoint.ErrorAccessDenied {
		return fmt.Errorf("%w: %s", ErrAccessDenied, description)
	}
	if description == "" {
		return fmt.Errorf("%w: %s", ErrExchangeFailed, code)
	}
	return fmt.Errorf("%w: %s: %s", ErrExchangeFailed, code, description)
}

func (e *Engine) mapExchangeError(err error) error {
	if isClaimError(err) {
		e.metrics.Inc(MetricTokenRejected)
		return fmt.Errorf("%w: %v", ErrTokenValidation, err)
	}
	var pe *endpoint.ProtocolError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %v", ErrExchangeFailed, pe)
	}
	if errors.Is(err, endpoint.ErrTransport) {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return err
}

func isClaimError(err error) bool {
	var ce *jwt.ClaimError
	return errors.As(err, &ce)
}
