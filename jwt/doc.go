// Package jwt verifies compact signed tokens issued by the identity provider
// (ID tokens) and signs client assertions for private_key_jwt authentication.
//
// Verification is pure: a [Manager] holds only configuration (expected
// issuer, audience, verification keys, leeway) and performs no I/O. Claim
// failures are reported as [*ClaimError] naming the failing claim so callers
// can distinguish a nonce replay from an expiry.
//
// # What this package must NOT do
//
//   - Fetch JWKS documents — verification keys are injected by the caller.
//   - Accept tokens signed with "none" or with an algorithm outside the
//     configured allow list.
//   - Import goOIDC (root package maps ClaimError into its taxonomy).
package jwt
