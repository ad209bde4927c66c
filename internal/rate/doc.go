// Package rate governs the pacing of device and backchannel polling loops:
// the provider-directed interval (slow_down growth against a ceiling) and
// the transient-failure backoff budget.
//
// # Interval semantics
//
// The effective interval only ever grows. A slow_down response adds a fixed
// increment, capped at the configured ceiling. Transient failures do not
// change the interval; they consume a separate bounded retry budget with
// exponential backoff.
//
// # What this package must NOT do
//
//   - Perform network calls or sleeps — it only computes durations.
//   - Be imported outside the goOIDC module.
package rate
