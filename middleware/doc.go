// Package middleware exposes net/http adapters that feed authorization
// responses into a goOIDC.Engine.
//
//   - [CallbackHandler] — terminates the provider redirect, resolves the
//     flow, and hands the outcome to a caller-supplied completion function.
//   - [DeliverHandler] — accepts a response captured in another context
//     (popup, message relay) and delivers it to the waiting flow.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement protocol logic itself — state checks, exchanges, and token
// validation are delegated to the Engine.
//
// # What this package must NOT do
//
//   - Inspect or log callback parameters beyond routing them to the Engine.
//   - Render token material into HTTP responses.
//   - Talk to the provider directly.
package middleware
