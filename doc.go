// Package goOIDC orchestrates client-side OAuth 2.0 / OIDC flows:
// authorization code with PKCE, hybrid, device authorization, and CIBA,
// plus the token lifecycle around them (refresh, introspection, revocation).
//
// The package is designed for concurrent callers: Engine methods are safe
// from multiple goroutines after initialization through [Builder.Build],
// and every flow is isolated under its own flow ID.
//
// # Architecture boundaries
//
// goOIDC is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (TokenSet, StartResult, AuditEvent, MetricsSnapshot).
// All internal coordination — flow orchestration, secret storage, poll
// pacing, audit dispatch — lives under internal/ and is never exported.
// Provider wire calls sit in the endpoint subpackage; ID-token
// verification and client assertions in jwt.
//
// # What this package must NOT do
//
//   - Write access, refresh, or ID tokens to durable storage. Tokens live
//     only in process memory; the flow store persists nothing but the
//     non-secret last-client hints.
//   - Log or re-expose PKCE verifiers, state, or nonce values. They stay
//     inside the flow store and are purged on every terminal transition.
//   - Send an authorization code to the token endpoint after a state
//     mismatch, a cancellation, or flow completion.
//   - Implement any provider-side behavior. This is strictly the relying
//     party half of each flow.
package goOIDC
