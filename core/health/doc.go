// Package health provides HTTP handlers for service health monitoring.
//
// Handlers:
//   - Liveness: process is running (no dependency checks)
//   - Readiness: all dependencies are available
//   - NoContent: returns 204 for minimal overhead
//
// Usage:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/health/live", health.Liveness())
//	mux.HandleFunc("/health/ready", health.Readiness(logger,
//		bus.Healthcheck,
//		processor.Healthcheck,
//	))
//	mux.HandleFunc("/ping", health.NoContent())
//
// Dependency checks follow the func(context.Context) error signature used by
// every Healthcheck method and factory in this module, so buses, processors,
// and broker connections plug in without adapters.
package health
