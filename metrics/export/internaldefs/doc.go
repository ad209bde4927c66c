// Package internaldefs holds the shared metric name/help definitions used by
// the otel and prometheus exporters. It exists so both exporters render the
// same series without importing each other.
package internaldefs
