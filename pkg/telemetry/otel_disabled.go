//go:build !otel
// +build !otel

package telemetry

import "context"

// OTelTracer is a stub used when this binary is built without the "otel"
// tag, so callers can reference the type regardless of build configuration.
type OTelTracer struct{}

// NewOTelTracer returns a no-op tracer.
func NewOTelTracer(serviceName string) *OTelTracer {
	return &OTelTracer{}
}

// StartSpan returns ctx unchanged and a no-op ender.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(error) {}
}

// OTelEnabled reports whether this binary was built with OpenTelemetry
// support.
func OTelEnabled() bool { return false }
