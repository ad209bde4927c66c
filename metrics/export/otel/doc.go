// Package otel exports engine counters through an OpenTelemetry meter as
// observable instruments. Collection pulls a fresh MetricsSnapshot on every
// reader cycle; the engine's hot paths are never touched.
package otel
