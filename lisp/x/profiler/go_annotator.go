package profiler

import (
	"context"
	"runtime/pprof"

	"github.com/luthersystems/corelisp/lisp"
)

// This profiler type appends tags to pprof output if pprof is enabled.
// It does not start pprof itself.  The pprof sampling rate is fixed at
// 100Hz so only long running functions show up in the profile.
type pprofAnnotator struct {
	profiler
	contexts *threadContexts
}

var _ lisp.Profiler = &pprofAnnotator{}

func NewPprofAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) *pprofAnnotator {
	if parentContext == nil {
		parentContext = context.Background()
	}
	p := &pprofAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		contexts: newThreadContexts(parentContext),
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *pprofAnnotator) Enable() error {
	p.runtime.Profiler = p
	return p.profiler.Enable()
}

func (p *pprofAnnotator) Complete() error {
	pprof.SetGoroutineLabels(context.Background())
	return p.profiler.Complete()
}

func (p *pprofAnnotator) Start(t *lisp.Thread, fun lisp.Value) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	// Labels are kept per thread instead of using pprof.Do.
	oldContext := p.contexts.current(t)
	prettyLabel, _ := p.prettyFunName(fun)
	ctx := pprof.WithLabels(oldContext, pprof.Labels(
		"function", prettyLabel,
		"namespace", funNamespace(fun),
	))
	restore := p.contexts.push(t, ctx)
	// apply the selected labels to the current goroutine (NB this will
	// propagate to goroutines it starts)
	pprof.SetGoroutineLabels(ctx)

	return func() {
		restore()
		pprof.SetGoroutineLabels(oldContext)
	}
}

// Context returns the labelled context of the innermost traced function t is
// running.  Goroutines started with it carry the same labels.
func (p *pprofAnnotator) Context(t *lisp.Thread) context.Context {
	return p.contexts.current(t)
}
