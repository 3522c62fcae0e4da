// Package metrics exposes the server's Prometheus instrumentation.
//
// A Metrics value owns its own registry, so tests and multiple servers in one
// process never collide on the global default registry. All observation
// methods are safe to call on a nil *Metrics, which is how instrumentation is
// switched off when metrics.enabled is false.
package metrics
