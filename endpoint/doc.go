// Package endpoint speaks the provider-facing wire protocol: token endpoint
// calls for every grant, device-authorization and backchannel-authentication
// requests, and single-shot introspection/revocation.
//
// Endpoints are always taken from a [Metadata] record supplied by the caller
// (discovery output or static configuration) and never hardcoded. A Metadata
// record may be partially populated; requesting an operation whose endpoint
// is absent fails with [ErrEndpointUnavailable].
//
// # What this package must NOT do
//
//   - Hold flow state. One call in, one response or typed error out.
//   - Follow redirects from the token endpoint or retry on its own.
//   - Import goOIDC (root package wires endpoint into flows).
package endpoint
