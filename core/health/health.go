package health

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// Liveness indicates the service process is running.
// Always returns "ALIVE" with 200 OK. No dependency checks.
//
// Example:
//
//	mux.HandleFunc("/health/live", health.Liveness())
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// NoContent returns HTTP 204 without body. Ideal for high-frequency checks.
func NoContent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// Readiness verifies all service dependencies are functioning.
// Returns "READY" if every check passes and 503 Service Unavailable as soon
// as one fails. Checks run sequentially with the request context.
//
// Healthcheck methods and factories across the toolkit share the
// func(context.Context) error signature, so they compose directly:
//
//	mux.HandleFunc("/health/ready", health.Readiness(logger,
//		bus.Healthcheck,
//		processor.Healthcheck,
//		pg.Healthcheck(pool),
//	))
func Readiness(log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed",
					slog.String("error", err.Error()))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("READY"))
	}
}
