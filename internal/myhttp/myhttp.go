// Package myhttp wraps http.ServeMux with request scoped logging, tracing
// and latency metrics.
package myhttp

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/metric"
)

// NewServerMux returns a mux whose *WithMiddleware handlers find a
// logr.Logger stamped with the trace and span ids in their context.
func NewServerMux(logger *slog.Logger, httpRequestsDurationMicroSeconds metric.Int64Histogram) *myRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &myRouter{
		ServeMux:                         http.NewServeMux(),
		logger:                           logger,
		httpRequestsDurationMicroSeconds: httpRequestsDurationMicroSeconds,
	}
}
