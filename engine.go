package goOIDC

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goOIDC/endpoint"
	"github.com/MrEthical07/goOIDC/internal/flows"
	"github.com/MrEthical07/goOIDC/jwt"
)

// Engine orchestrates client-side OAuth 2.0 / OIDC flows against one
// provider. Every flow is isolated under its own flow ID; the engine is
// safe for concurrent use across flows. Construct through the Builder.
type Engine struct {
	config     Config
	client     *endpoint.Client
	auth       endpoint.ClientAuth
	verifier   *jwt.Manager
	store      *flowStore
	correlator *correlator
	audit      *auditDispatcher
	metrics    *Metrics

	mu    sync.Mutex
	flows map[string]*flowRecord

	// deadTokens holds sha256 fingerprints of refresh tokens the provider
	// rejected with invalid_grant. Tokens themselves are never retained.
	deadMu     sync.Mutex
	deadTokens map[[32]byte]struct{}

	closed atomic.Bool
}

// flowRecord is the in-memory registry entry for one flow. Guarded by
// Engine.mu.
type flowRecord struct {
	id      string
	grant   GrantType
	status  FlowStatus
	created time.Time

	redirectURI   string
	usePKCE       bool
	expectIDToken bool

	// cancelPoll interrupts a running WaitForApproval.
	cancelPoll context.CancelFunc

	// tokens is retained after COMPLETE so a replayed callback resolves
	// idempotently without touching the token endpoint.
	tokens  *TokenSet
	failure error
}

// FlowStatus reports the lifecycle position of a flow.
func (e *Engine) FlowStatus(flowID string) (FlowStatus, error) {
	if e == nil {
		return FlowFailed, ErrEngineNotReady
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.flows[flowID]
	if !ok {
		return FlowFailed, ErrFlowNotFound
	}
	return rec.status, nil
}

// Cancel moves the flow to CANCELED, purges its secrets, and suppresses any
// further network activity for it. Canceling a terminal flow reports
// ErrFlowCompleted.
func (e *Engine) Cancel(ctx context.Context, flowID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	e.mu.Lock()
	rec, ok := e.flows[flowID]
	if !ok {
		e.mu.Unlock()
		return ErrFlowNotFound
	}
	if rec.status.Terminal() {
		e.mu.Unlock()
		return ErrFlowCompleted
	}
	rec.status = FlowCanceled
	rec.failure = ErrFlowCanceled
	cancelPoll := rec.cancelPoll
	e.mu.Unlock()

	if cancelPoll != nil {
		cancelPoll()
	}

	_ = e.store.PurgeFlow(ctx, flowID)
	e.correlator.drop(flowID)

	e.metrics.Inc(MetricFlowCanceled)
	e.emit(ctx, AuditEvent{
		EventType: AuditFlowCanceled,
		FlowID:    flowID,
		Grant:     rec.grant,
		Success:   true,
	})
	return nil
}

// Close stops the audit dispatcher and rejects further operations. Running
// polls are interrupted.
func (e *Engine) Close() error {
	if e == nil {
		return ErrEngineNotReady
	}
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	e.mu.Lock()
	for _, rec := range e.flows {
		if rec.cancelPoll != nil {
			rec.cancelPoll()
		}
	}
	e.mu.Unlock()

	e.audit.Close()
	return nil
}

// MetricsSnapshot exposes the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports audit events discarded under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// LastClientHints returns the durable client_id and redirect_uri recorded by
// the most recent Start, surviving restarts when Redis is configured.
func (e *Engine) LastClientHints(ctx context.Context) (clientID, redirectURI string, err error) {
	if e == nil {
		return "", "", ErrEngineNotReady
	}
	clientID, _, err = e.store.GetDurable(ctx, flows.KeyLastClientID)
	if err != nil {
		return "", "", err
	}
	redirectURI, _, err = e.store.GetDurable(ctx, flows.KeyLastRedirectURI)
	if err != nil {
		return "", "", err
	}
	return clientID, redirectURI, nil
}

/*
====================================
INTERNAL HELPERS
====================================
*/

func (e *Engine) ready() error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return nil
}

func (e *Engine) getFlow(flowID string) (*flowRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.flows[flowID]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return rec, nil
}

func (e *Engine) setStatus(rec *flowRecord, status FlowStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !rec.status.Terminal() {
		rec.status = status
	}
}

// complete is the single path to COMPLETE: records the tokens, purges the
// flow's secrets, and closes the delivery slot.
func (e *Engine) complete(ctx context.Context, rec *flowRecord, tokens *TokenSet) {
	e.mu.Lock()
	rec.status = FlowComplete
	rec.tokens = tokens
	e.mu.Unlock()

	_ = e.store.PurgeFlow(ctx, rec.id)

	e.metrics.Inc(MetricFlowCompleted)
	e.emit(ctx, AuditEvent{
		EventType: AuditFlowCompleted,
		FlowID:    rec.id,
		Grant:     rec.grant,
		Success:   true,
	})
}

// fail is the single path to FAILED. Idempotent for already-terminal flows.
func (e *Engine) fail(ctx context.Context, rec *flowRecord, cause error) {
	e.mu.Lock()
	if rec.status.Terminal() {
		e.mu.Unlock()
		return
	}
	rec.status = FlowFailed
	rec.failure = cause
	e.mu.Unlock()

	_ = e.store.PurgeFlow(ctx, rec.id)
	e.correlator.drop(rec.id)

	e.metrics.Inc(MetricFlowFailed)
	e.emit(ctx, AuditEvent{
		EventType: AuditFlowFailed,
		FlowID:    rec.id,
		Grant:     rec.grant,
		Error:     cause.Error(),
	})
}

func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	e.audit.Emit(ctx, event)
}

// idVerifier adapts the optional manager to the flows interface without
// producing a typed-nil interface value.
func (e *Engine) idVerifier() flows.IDTokenVerifier {
	if e.verifier == nil {
		return nil
	}
	return e.verifier
}

func (e *Engine) retireToken(fp [32]byte) {
	e.deadMu.Lock()
	e.deadTokens[fp] = struct{}{}
	e.deadMu.Unlock()
}

func (e *Engine) isRetired(fp [32]byte) bool {
	e.deadMu.Lock()
	_, ok := e.deadTokens[fp]
	e.deadMu.Unlock()
	return ok
}
