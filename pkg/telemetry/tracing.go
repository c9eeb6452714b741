package telemetry

import (
	"context"
	"sync"
)

// Tracer abstracts span creation so the rest of this module can depend on
// an interface instead of a concrete tracing backend.
type Tracer interface {
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder)
}

// SpanEnder ends a span. A non-nil err marks the span as failed.
type SpanEnder func(err error)

// SpanOption configures span behavior.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind       SpanKind
	attributes map[string]interface{}
}

// SpanKind identifies the role this span plays.
type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	SpanKindClient
)

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) SpanOption {
	return func(c *spanConfig) { c.kind = kind }
}

// WithAttributes attaches key/value attributes to the span.
func WithAttributes(attrs map[string]interface{}) SpanOption {
	return func(c *spanConfig) { c.attributes = attrs }
}

// NoOpTracer discards every span. It is the default until a real tracer is
// installed with SetTracer.
type NoOpTracer struct{}

// StartSpan returns ctx unchanged and an ender that does nothing.
func (NoOpTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(error) {}
}

var (
	globalTracer   Tracer = NoOpTracer{}
	globalTracerMu sync.RWMutex
)

// SetTracer replaces the package-level default tracer.
func SetTracer(t Tracer) {
	globalTracerMu.Lock()
	defer globalTracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the package-level default tracer.
func GetTracer() Tracer {
	globalTracerMu.RLock()
	defer globalTracerMu.RUnlock()
	return globalTracer
}

// StartSpan starts a span on the package-level default tracer.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return GetTracer().StartSpan(ctx, name, opts...)
}

// Span names for the operations this client instruments.
const (
	SpanHandshake      = "tetherlink.handshake"
	SpanHandshakeStep  = "tetherlink.handshake.step"
	SpanRequest        = "tetherlink.request"
	SpanFrameSend      = "tetherlink.frame.send"
	SpanFrameRecv      = "tetherlink.frame.recv"
)
