// Package flows contains pure-function orchestrators for every Engine
// operation: authorization request building, callback acceptance, code
// exchange, refresh, and device/backchannel polling.
//
// Each flow function accepts a typed dependency struct and returns results
// without side effects beyond those dependencies. Sentinel errors are
// injected through the dependency structs so this package stays decoupled
// from the public goOIDC error taxonomy.
//
// # Architecture boundaries
//
// Flow functions coordinate the secret store, the endpoint client, and the
// ID-token verifier. They do NOT own any of these resources — ownership
// stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goOIDC (to avoid import cycles).
//   - Log or otherwise emit the code verifier, state, or nonce values.
package flows
