// Package metrics exposes daemon counters to Prometheus.
//
// Callers depend on the Recorder interface; NoopRecorder is used when
// metrics.enabled is false so call sites never branch on configuration.
package metrics
