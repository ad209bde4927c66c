package goOIDC

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEvent records one observable step of a flow. Events never carry
// token material, verifiers, or nonces.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	FlowID    string            `json:"flow_id,omitempty"`
	Grant     GrantType         `json:"grant,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Event types emitted by the engine.
const (
	AuditFlowStarted      = "flow_started"
	AuditRequestBuilt     = "request_built"
	AuditCallbackAccepted = "callback_accepted"
	AuditStateMismatch    = "state_mismatch"
	AuditExchangeSuccess  = "exchange_success"
	AuditExchangeFailure  = "exchange_failure"
	AuditTokenRejected    = "token_rejected"
	AuditPollSlowDown     = "poll_slow_down"
	AuditPollApproved     = "poll_approved"
	AuditPollDenied       = "poll_denied"
	AuditPollExpired      = "poll_expired"
	AuditRefreshSuccess   = "refresh_success"
	AuditRefreshRetired   = "refresh_retired"
	AuditFlowCanceled     = "flow_canceled"
	AuditFlowCompleted    = "flow_completed"
	AuditFlowFailed       = "flow_failed"
)

type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink hands events to a consumer channel.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
