package profiler

import (
	"context"
	"errors"
	"strconv"

	"github.com/golang-collections/collections/stack"
	"github.com/luthersystems/corelisp/lisp"
	"github.com/sasha-s/go-deadlock"
	"go.opencensus.io/trace"
)

type ocAnnotator struct {
	profiler
	parentContext context.Context

	mu deadlock.Mutex
	// spans holds a stack of open spans for each thread.
	spans map[uint]*stack.Stack
}

var _ lisp.Profiler = &ocAnnotator{}

func NewOpenCensusAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) *ocAnnotator {
	p := &ocAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		parentContext: parentContext,
		spans:         make(map[uint]*stack.Stack),
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *ocAnnotator) EnableWithContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("set a context to use this function")
	}
	p.parentContext = ctx
	return p.Enable()
}

func (p *ocAnnotator) Enable() error {
	if p.parentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opencensus")
	}
	p.runtime.Profiler = p
	return p.profiler.Enable()
}

// Complete ends any spans left open by threads which never returned.
func (p *ocAnnotator) Complete() error {
	p.mu.Lock()
	for id, spans := range p.spans {
		for spans.Len() > 0 {
			trace.FromContext(spans.Pop().(context.Context)).End()
		}
		delete(p.spans, id)
	}
	p.mu.Unlock()
	return p.profiler.Complete()
}

func (p *ocAnnotator) threadSpans(t *lisp.Thread) *stack.Stack {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.spans[t.ID()]
	if !ok {
		s = stack.New()
		p.spans[t.ID()] = s
	}
	return s
}

func (p *ocAnnotator) Start(t *lisp.Thread, fun lisp.Value) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	spans := p.threadSpans(t)
	parent := p.parentContext
	if top := spans.Peek(); top != nil {
		parent = top.(context.Context)
	}
	prettyLabel, funName := p.prettyFunName(fun)
	ctx, span := trace.StartSpan(parent, prettyLabel)
	span.AddAttributes(
		trace.StringAttribute("namespace", funNamespace(fun)),
		trace.StringAttribute("function", funName),
	)
	spans.Push(ctx)
	return func() {
		span.Annotate([]trace.Attribute{
			trace.StringAttribute("thread", strconv.FormatUint(uint64(t.ID()), 10)),
		}, "return")
		span.End()
		// And pop the current context back
		spans.Pop()
		if spans.Len() == 0 {
			p.mu.Lock()
			delete(p.spans, t.ID())
			p.mu.Unlock()
		}
	}
}
