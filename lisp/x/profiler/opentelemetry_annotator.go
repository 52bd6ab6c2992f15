package profiler

import (
	"context"
	"errors"

	"github.com/luthersystems/corelisp/lisp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

type tracerKey struct{}

// ContextOpenTelemetryTracerKey looks up a parent tracer name from a context
// key.
var ContextOpenTelemetryTracerKey = tracerKey{}

// DefaultTracerName names the tracer used when the parent context does not
// name one.
const DefaultTracerName = "corelisp"

var _ lisp.Profiler = &otelAnnotator{}

type otelAnnotator struct {
	profiler
	contexts *threadContexts
}

func NewOpenTelemetryAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) *otelAnnotator {
	p := &otelAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		contexts: newThreadContexts(parentContext),
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *otelAnnotator) Enable() error {
	if p.contexts.parent == nil {
		return errors.New("we can only append spans to a context that is linked to opentelemetry")
	}
	p.runtime.Profiler = p
	return p.profiler.Enable()
}

// Complete stops tracing.  Spans are ended by the calls which started them.
func (p *otelAnnotator) Complete() error {
	if n := p.contexts.active(); n > 0 {
		p.runtime.Logger.WithField("threads", n).Warn("profiler completed with open spans")
	}
	return p.profiler.Complete()
}

func contextTracer(ctx context.Context) trace.Tracer {
	tracerName, ok := ctx.Value(ContextOpenTelemetryTracerKey).(string)
	if !ok {
		tracerName = DefaultTracerName
	}
	return otel.GetTracerProvider().Tracer(tracerName)
}

func (p *otelAnnotator) Start(t *lisp.Thread, fun lisp.Value) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	parent := p.contexts.current(t)
	prettyLabel, funName := p.prettyFunName(fun)
	ctx, span := contextTracer(parent).Start(parent, prettyLabel)
	span.SetAttributes(p.codeAttributes(t, fun, funName)...)
	restore := p.contexts.push(t, ctx)
	return func() {
		span.End()
		// And pop the current context back
		restore()
	}
}

func (p *otelAnnotator) codeAttributes(t *lisp.Thread, fun lisp.Value, funName string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.CodeNamespace(funNamespace(fun)),
		semconv.CodeFunction(funName),
		semconv.ThreadIDKey.Int(int(t.ID())),
	}
	if c, ok := fun.(lisp.Callable); ok {
		attrs = append(attrs, attribute.String("lisp.arity", c.Arity().String()))
	}
	return attrs
}
