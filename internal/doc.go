// Package internal contains helper utilities that are intentionally private to goOIDC,
// including secure random generation and PKCE material construction.
//
// # Sub-packages
//
//   - flows — pure-function flow orchestrators for every Engine operation
//   - rate — polling interval governance (slow-down growth, transient backoff)
//
// # What this package must NOT do
//
//   - Export types that appear in the public goOIDC API.
//   - Be imported by any package outside the goOIDC module.
package internal
